package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizgen-service/internal/domain"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionStore(client, time.Minute), mr
}

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

func TestSessionStoreCreateSetsKeyWithTTL(t *testing.T) {
	store, mr := newTestStore(t)

	token, err := store.Create(context.Background(), sampleQuestions())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := "quiz:session:" + token
	if !mr.Exists(key) {
		t.Fatalf("expected redis key to be set")
	}
	if mr.TTL(key) <= 0 {
		t.Fatalf("expected a TTL on the session key, got %v", mr.TTL(key))
	}
}

func TestSessionStoreGetRoundTrips(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, sampleQuestions())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	session, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.Token != token || len(session.Questions) != 1 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Questions[0].CorrectLabel != "B" {
		t.Fatalf("answer key lost in round trip: %+v", session.Questions[0])
	}
}

func TestSessionStoreConsumeIsSingleUse(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, sampleQuestions())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	session, err := store.Consume(ctx, token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if session.Token != token {
		t.Fatalf("unexpected session: %+v", session)
	}
	if mr.Exists("quiz:session:" + token) {
		t.Fatalf("expected key removed by consume")
	}

	if _, err := store.Consume(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found on second consume, got %v", err)
	}
	if _, err := store.Get(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found after consume, got %v", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, sampleQuestions())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session to be not found, got %v", err)
	}
	if _, err := store.Consume(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session to be unconsumable, got %v", err)
	}
}

func TestSessionStoreUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "deadbeef"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Consume(ctx, "deadbeef"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
