// Package quizflow models the client side of a quiz attempt as an explicit
// finite-state machine: setup -> quiz -> results. It holds only the public
// view of the questions and the user's in-progress answers, and talks to the
// engine through its two operations.
package quizflow

import (
	"context"
	"errors"
	"fmt"

	"quizgen-service/internal/app"
	"quizgen-service/internal/domain"
)

// Phase is the FSM state.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhaseQuiz    Phase = "quiz"
	PhaseResults Phase = "results"
)

// ErrBadTransition is returned when an operation is invoked in a phase that
// does not allow it.
var ErrBadTransition = errors.New("operation not allowed in current phase")

// ErrQuestionOutOfRange is returned when an answer names a question number
// the quiz does not have.
var ErrQuestionOutOfRange = errors.New("question number out of range")

// Engine is the narrow view of the quiz service the flow needs.
type Engine interface {
	Start(ctx context.Context, topic string, count int, difficulty domain.Difficulty) (app.StartedQuiz, error)
	Submit(ctx context.Context, token string, answers domain.AnswerSet) (domain.ScoredResult, error)
}

// Machine drives one user through a quiz attempt. It is not safe for
// concurrent use; a client instance serializes its own transitions.
type Machine struct {
	engine    Engine
	phase     Phase
	token     string
	questions []domain.PublicQuestion
	answers   domain.AnswerSet
	result    *domain.ScoredResult
	err       error
}

func New(engine Engine) *Machine {
	return &Machine{engine: engine, phase: PhaseSetup, answers: make(domain.AnswerSet)}
}

func (m *Machine) Phase() Phase { return m.phase }

func (m *Machine) Questions() []domain.PublicQuestion { return m.questions }

func (m *Machine) Answers() domain.AnswerSet { return m.answers }

func (m *Machine) Err() error { return m.err }

// Result returns the scored result once the machine reached results.
func (m *Machine) Result() (domain.ScoredResult, bool) {
	if m.result == nil {
		return domain.ScoredResult{}, false
	}
	return *m.result, true
}

// GenerateQuiz moves setup -> quiz on success; on failure the machine stays
// in setup with the error surfaced.
func (m *Machine) GenerateQuiz(ctx context.Context, topic string, count int, difficulty domain.Difficulty) error {
	if m.phase != PhaseSetup {
		return fmt.Errorf("%w: generate from %s", ErrBadTransition, m.phase)
	}
	started, err := m.engine.Start(ctx, topic, count, difficulty)
	if err != nil {
		m.err = err
		return err
	}
	m.phase = PhaseQuiz
	m.token = started.Token
	m.questions = started.Questions
	m.answers = make(domain.AnswerSet, len(started.Questions))
	m.err = nil
	return nil
}

// SelectAnswer records the chosen label for one question.
func (m *Machine) SelectAnswer(number int, label string) error {
	if m.phase != PhaseQuiz {
		return fmt.Errorf("%w: answer from %s", ErrBadTransition, m.phase)
	}
	if number < 1 || number > len(m.questions) {
		return fmt.Errorf("%w: %d", ErrQuestionOutOfRange, number)
	}
	m.answers[number] = label
	return nil
}

// CanSubmit mirrors the engine's completeness check locally, as a UX-level
// pre-check only.
func (m *Machine) CanSubmit() bool {
	if m.phase != PhaseQuiz {
		return false
	}
	for number := 1; number <= len(m.questions); number++ {
		if _, ok := m.answers[number]; !ok {
			return false
		}
	}
	return true
}

// SubmitQuiz moves quiz -> results on success. On failure the machine stays
// in quiz with the error surfaced; for session errors the underlying attempt
// is already gone and only ResetQuiz leads anywhere useful.
func (m *Machine) SubmitQuiz(ctx context.Context) error {
	if m.phase != PhaseQuiz {
		return fmt.Errorf("%w: submit from %s", ErrBadTransition, m.phase)
	}
	result, err := m.engine.Submit(ctx, m.token, m.answers)
	if err != nil {
		m.err = err
		return err
	}
	m.phase = PhaseResults
	m.result = &result
	m.err = nil
	return nil
}

// ResetQuiz unconditionally clears all local state and returns to setup.
func (m *Machine) ResetQuiz() {
	m.phase = PhaseSetup
	m.token = ""
	m.questions = nil
	m.answers = make(domain.AnswerSet)
	m.result = nil
	m.err = nil
}
