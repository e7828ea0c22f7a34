package generator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizgen-service/internal/domain"
)

type countingGenerator struct {
	Generator
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, topic string, count int, difficulty domain.Difficulty) ([]domain.Question, error) {
	g.calls++
	return g.Generator.Generate(ctx, topic, count, difficulty)
}

func TestCachedGeneratorHitsCache(t *testing.T) {
	inner := &countingGenerator{Generator: NewSample(1)}
	cached := NewCached(inner, time.Minute)

	if _, err := cached.Generate(context.Background(), "Math", 3, domain.Easy); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner called once, got %d", inner.calls)
	}

	// Second identical request should hit the cache.
	if _, err := cached.Generate(context.Background(), "Math", 3, domain.Easy); err != nil {
		t.Fatalf("generate 2: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected cache hit, inner calls %d", inner.calls)
	}

	// A different count is a different key.
	if _, err := cached.Generate(context.Background(), "Math", 4, domain.Easy); err != nil {
		t.Fatalf("generate 3: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected miss for new key, inner calls %d", inner.calls)
	}
}

func TestCachedGeneratorReturnsCopies(t *testing.T) {
	cached := NewCached(NewSample(1), time.Minute)

	first, err := cached.Generate(context.Background(), "Math", 2, domain.Easy)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	first[0].CorrectLabel = "mutated"
	first[0].Options[0].Text = "mutated"

	second, err := cached.Generate(context.Background(), "Math", 2, domain.Easy)
	if err != nil {
		t.Fatalf("generate 2: %v", err)
	}
	if second[0].CorrectLabel == "mutated" || second[0].Options[0].Text == "mutated" {
		t.Fatalf("cached questions must not alias caller slices")
	}
}

func TestStaticGeneratorInsufficientBank(t *testing.T) {
	gen := NewStatic(map[string][]domain.Question{})
	_, err := gen.Generate(context.Background(), "Go", 1, domain.Easy)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected generation failure, got %v", err)
	}
}

// One Sample instance serves every request when no API key is configured, so
// concurrent draws must be safe. Run with -race.
func TestSampleGeneratorConcurrentUse(t *testing.T) {
	gen := NewSample(7)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			questions, err := gen.Generate(context.Background(), "Arithmetic", 5, domain.Hard)
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			for _, q := range questions {
				if !q.Valid() {
					t.Errorf("invalid question under concurrency: %+v", q)
				}
			}
		}()
	}
	wg.Wait()
}

func TestSampleGeneratorProducesValidQuestions(t *testing.T) {
	gen := NewSample(42)
	for _, difficulty := range []domain.Difficulty{domain.Easy, domain.Intermediate, domain.Hard} {
		questions, err := gen.Generate(context.Background(), "Arithmetic", 10, difficulty)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(questions) != 10 {
			t.Fatalf("expected 10 questions, got %d", len(questions))
		}
		for i, q := range questions {
			if !q.Valid() {
				t.Fatalf("question %d invalid: %+v", i+1, q)
			}
			if len(q.Options) != 4 {
				t.Fatalf("question %d: expected 4 options, got %d", i+1, len(q.Options))
			}
		}
	}
}
