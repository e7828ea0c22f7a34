package quizflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizgen-service/internal/app"
	"quizgen-service/internal/domain"
	"quizgen-service/internal/generator"
	"quizgen-service/internal/infra/memory"
	"quizgen-service/internal/quizflow"
)

func newMachine() *quizflow.Machine {
	store := memory.NewSessionStore(time.Minute)
	gen := generator.NewStatic(map[string][]domain.Question{
		"Go": {
			{
				Prompt: "Which keyword starts a goroutine?",
				Options: []domain.Option{
					{Label: "A", Text: "go"},
					{Label: "B", Text: "async"},
				},
				CorrectLabel: "A",
			},
			{
				Prompt: "Which builtin closes a channel?",
				Options: []domain.Option{
					{Label: "A", Text: "stop"},
					{Label: "B", Text: "close"},
				},
				CorrectLabel: "B",
			},
		},
	})
	return quizflow.New(app.NewQuizService(store, gen, time.Second, nil))
}

func TestHappyPathSetupQuizResults(t *testing.T) {
	ctx := context.Background()
	m := newMachine()

	if m.Phase() != quizflow.PhaseSetup {
		t.Fatalf("expected setup, got %s", m.Phase())
	}
	if m.CanSubmit() {
		t.Fatalf("submit must be disabled before a quiz exists")
	}

	if err := m.GenerateQuiz(ctx, "Go", 2, domain.Easy); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if m.Phase() != quizflow.PhaseQuiz {
		t.Fatalf("expected quiz, got %s", m.Phase())
	}
	if len(m.Questions()) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(m.Questions()))
	}

	if m.CanSubmit() {
		t.Fatalf("submit must be disabled until every question is answered")
	}
	if err := m.SelectAnswer(1, "A"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if m.CanSubmit() {
		t.Fatalf("submit must stay disabled with one of two answers")
	}
	if err := m.SelectAnswer(2, "A"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if !m.CanSubmit() {
		t.Fatalf("submit should be enabled once all questions are answered")
	}

	if err := m.SubmitQuiz(ctx); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if m.Phase() != quizflow.PhaseResults {
		t.Fatalf("expected results, got %s", m.Phase())
	}
	result, ok := m.Result()
	if !ok {
		t.Fatalf("expected a result")
	}
	if result.Score != 1 || result.TotalQuestions != 2 {
		t.Fatalf("expected 1/2, got %d/%d", result.Score, result.TotalQuestions)
	}
}

func TestGenerateFailureStaysInSetup(t *testing.T) {
	ctx := context.Background()
	m := newMachine()

	err := m.GenerateQuiz(ctx, "", 2, domain.Easy)
	if !errors.Is(err, domain.ErrEmptyTopic) {
		t.Fatalf("expected empty topic, got %v", err)
	}
	if m.Phase() != quizflow.PhaseSetup {
		t.Fatalf("expected setup after failure, got %s", m.Phase())
	}
	if m.Err() == nil {
		t.Fatalf("expected the error surfaced on the machine")
	}
}

func TestSubmitFailureStaysInQuiz(t *testing.T) {
	ctx := context.Background()
	m := newMachine()

	if err := m.GenerateQuiz(ctx, "Go", 2, domain.Easy); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	_ = m.SelectAnswer(1, "A")
	// Question 2 left unanswered; the engine rejects and burns the session.
	err := m.SubmitQuiz(ctx)
	if !errors.Is(err, domain.ErrIncompleteSubmission) {
		t.Fatalf("expected incomplete submission, got %v", err)
	}
	if m.Phase() != quizflow.PhaseQuiz {
		t.Fatalf("expected to stay in quiz, got %s", m.Phase())
	}

	// The session is gone; completing the answers cannot rescue it.
	_ = m.SelectAnswer(2, "B")
	err = m.SubmitQuiz(ctx)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	m := newMachine()

	_ = m.GenerateQuiz(ctx, "Go", 2, domain.Easy)
	_ = m.SelectAnswer(1, "A")
	_ = m.SelectAnswer(2, "B")
	_ = m.SubmitQuiz(ctx)

	m.ResetQuiz()
	if m.Phase() != quizflow.PhaseSetup {
		t.Fatalf("expected setup after reset, got %s", m.Phase())
	}
	if m.Questions() != nil || len(m.Answers()) != 0 || m.Err() != nil {
		t.Fatalf("expected cleared state, got %+v", m)
	}
	if _, ok := m.Result(); ok {
		t.Fatalf("expected no result after reset")
	}
}

func TestWrongPhaseTransitions(t *testing.T) {
	ctx := context.Background()
	m := newMachine()

	if err := m.SelectAnswer(1, "A"); !errors.Is(err, quizflow.ErrBadTransition) {
		t.Fatalf("expected bad transition, got %v", err)
	}
	if err := m.SubmitQuiz(ctx); !errors.Is(err, quizflow.ErrBadTransition) {
		t.Fatalf("expected bad transition, got %v", err)
	}

	_ = m.GenerateQuiz(ctx, "Go", 2, domain.Easy)
	if err := m.GenerateQuiz(ctx, "Go", 2, domain.Easy); !errors.Is(err, quizflow.ErrBadTransition) {
		t.Fatalf("expected bad transition for generate during quiz, got %v", err)
	}
	if err := m.SelectAnswer(3, "A"); !errors.Is(err, quizflow.ErrQuestionOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}
