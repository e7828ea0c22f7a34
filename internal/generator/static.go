package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"quizgen-service/internal/domain"
)

// Static serves questions from a fixed per-topic bank (useful for tests/demos).
type Static struct {
	bank map[string][]domain.Question
}

func NewStatic(bank map[string][]domain.Question) *Static {
	return &Static{bank: bank}
}

func (s *Static) Generate(_ context.Context, topic string, count int, _ domain.Difficulty) ([]domain.Question, error) {
	pool := s.bank[topic]
	if len(pool) < count {
		return nil, fmt.Errorf("%w: bank holds %d questions for topic %q, want %d", domain.ErrGenerationFailed, len(pool), topic, count)
	}
	questions := make([]domain.Question, count)
	copy(questions, pool[:count])
	return questions, nil
}

// Sample synthesizes arithmetic questions for any topic. It stands in for the
// model-backed generator when no API key is configured.
type Sample struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSample(seed int64) *Sample {
	return &Sample{rnd: rand.New(rand.NewSource(seed))}
}

var sampleLabels = []string{"A", "B", "C", "D"}

func (s *Sample) Generate(_ context.Context, topic string, count int, difficulty domain.Difficulty) ([]domain.Question, error) {
	// rand.Rand is not safe for concurrent use; one instance serves the
	// whole process, so serialize draws.
	s.mu.Lock()
	defer s.mu.Unlock()

	spread := 10
	switch difficulty {
	case domain.Intermediate:
		spread = 50
	case domain.Hard:
		spread = 500
	}

	questions := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		a := s.rnd.Intn(spread) + 1
		b := s.rnd.Intn(spread) + 1
		correct := a + b
		correctSlot := s.rnd.Intn(len(sampleLabels))

		options := make([]domain.Option, len(sampleLabels))
		used := map[int]bool{correct: true}
		for slot, label := range sampleLabels {
			if slot == correctSlot {
				options[slot] = domain.Option{Label: label, Text: strconv.Itoa(correct)}
				continue
			}
			wrong := correct
			for used[wrong] {
				wrong = correct + s.rnd.Intn(2*spread+1) - spread
			}
			used[wrong] = true
			options[slot] = domain.Option{Label: label, Text: strconv.Itoa(wrong)}
		}

		questions = append(questions, domain.Question{
			Prompt:       fmt.Sprintf("(%s) What is %d + %d?", strings.TrimSpace(topic), a, b),
			Options:      options,
			CorrectLabel: sampleLabels[correctSlot],
		})
	}
	return questions, nil
}
