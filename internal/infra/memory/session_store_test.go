package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizgen-service/internal/domain"
)

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Prompt: "What is 2 + 2?",
			Options: []domain.Option{
				{Label: "A", Text: "3"},
				{Label: "B", Text: "4"},
			},
			CorrectLabel: "B",
		},
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)

	token, err := store.Create(ctx, sampleQuestions())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	session, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(session.Questions) != 1 {
		t.Fatalf("unexpected session: %+v", session)
	}

	consumed, err := store.Consume(ctx, token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.Token != token {
		t.Fatalf("expected pre-consumption session, got %+v", consumed)
	}

	if _, err := store.Get(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found after consume, got %v", err)
	}
	if _, err := store.Consume(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found on double consume, got %v", err)
	}
}

func TestSessionStoreTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := store.Create(ctx, sampleQuestions())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = true
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }
	store := NewSessionStoreWithClock(time.Minute, func() time.Time { return clock() })

	token, err := store.Create(ctx, sampleQuestions())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := store.Get(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session to be not found, got %v", err)
	}
	if _, err := store.Consume(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session to be unconsumable, got %v", err)
	}
}

func TestSessionStoreSweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }
	store := NewSessionStoreWithClock(time.Minute, func() time.Time { return clock() })

	_, _ = store.Create(ctx, sampleQuestions())
	_, _ = store.Create(ctx, sampleQuestions())

	clock = func() time.Time { return now.Add(2 * time.Minute) }
	store.sweep()

	store.mu.Lock()
	remaining := len(store.sessions)
	store.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected sweep to drop expired sessions, %d left", remaining)
	}
}

func TestConsumeIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)

	token, err := store.Create(ctx, sampleQuestions())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, token); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	if got := len(wins); got != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", got)
	}
}
