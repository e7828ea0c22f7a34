package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"quizgen-service/internal/domain"
	"quizgen-service/internal/generator"
)

// Question count bounds for a single quiz.
const (
	MinQuestions = 1
	MaxQuestions = 10
)

// SessionStore abstracts how quiz sessions are stored (in-memory, Redis, etc).
// The store exclusively owns session records and their answer keys.
type SessionStore interface {
	// Create stores a new unconsumed session and returns its token.
	Create(ctx context.Context, questions []domain.Question) (string, error)
	// Get returns the session or domain.ErrSessionNotFound.
	Get(ctx context.Context, token string) (domain.QuizSession, error)
	// Consume atomically invalidates the session and returns its
	// pre-consumption state. Exactly one of any number of concurrent calls
	// for the same token succeeds; the rest get domain.ErrSessionNotFound.
	Consume(ctx context.Context, token string) (domain.QuizSession, error)
}

// StartedQuiz is what Start hands back to the client: the public projection
// and the opaque token addressing the server-side session.
type StartedQuiz struct {
	Token     string
	Questions []domain.PublicQuestion
}

// QuizService orchestrates generation, token issuance, projection, and
// scoring. Private questions never cross its boundary toward the client.
type QuizService struct {
	store      SessionStore
	generator  generator.Generator
	genTimeout time.Duration
	log        *logrus.Logger
}

func NewQuizService(store SessionStore, gen generator.Generator, genTimeout time.Duration, log *logrus.Logger) *QuizService {
	if log == nil {
		log = logrus.New()
	}
	return &QuizService{store: store, generator: gen, genTimeout: genTimeout, log: log}
}

// Start validates the request, generates a question set, stores it behind a
// fresh token, and returns only the public view. No session is created on any
// failure path.
func (s *QuizService) Start(ctx context.Context, topic string, count int, difficulty domain.Difficulty) (StartedQuiz, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return StartedQuiz{}, domain.ErrEmptyTopic
	}
	if count < MinQuestions || count > MaxQuestions {
		return StartedQuiz{}, fmt.Errorf("%w: got %d", domain.ErrCountOutOfRange, count)
	}
	if _, err := domain.ParseDifficulty(string(difficulty)); err != nil {
		return StartedQuiz{}, err
	}

	genCtx := ctx
	if s.genTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.genTimeout)
		defer cancel()
	}

	questions, err := s.generator.Generate(genCtx, topic, count, difficulty)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"topic": topic, "count": count}).Warn("quiz generation failed")
		return StartedQuiz{}, err
	}
	if len(questions) != count {
		return StartedQuiz{}, fmt.Errorf("%w: generator returned %d questions, want %d", domain.ErrGenerationFailed, len(questions), count)
	}
	for _, q := range questions {
		if !q.Valid() {
			return StartedQuiz{}, fmt.Errorf("%w: generator returned a malformed question", domain.ErrGenerationFailed)
		}
	}

	token, err := s.store.Create(ctx, questions)
	if err != nil {
		return StartedQuiz{}, err
	}

	public := make([]domain.PublicQuestion, len(questions))
	for i, q := range questions {
		public[i] = q.Public(i + 1)
	}

	s.log.WithFields(logrus.Fields{"topic": topic, "count": count, "difficulty": difficulty}).Info("quiz session started")
	return StartedQuiz{Token: token, Questions: public}, nil
}

// Submit consumes the session addressed by token and scores the answer set.
// Consumption happens before the completeness check: a malformed submission
// burns the session rather than opening the door to answer probing.
func (s *QuizService) Submit(ctx context.Context, token string, answers domain.AnswerSet) (domain.ScoredResult, error) {
	session, err := s.store.Consume(ctx, token)
	if err != nil {
		// Unknown, expired, and already-consumed tokens look identical here
		// and to the caller.
		s.log.WithError(err).Debug("submission rejected")
		return domain.ScoredResult{}, err
	}

	total := len(session.Questions)
	if len(answers) != total {
		return domain.ScoredResult{}, fmt.Errorf("%w: got %d answers for %d questions", domain.ErrIncompleteSubmission, len(answers), total)
	}
	for number := 1; number <= total; number++ {
		if _, ok := answers[number]; !ok {
			return domain.ScoredResult{}, fmt.Errorf("%w: question %d unanswered", domain.ErrIncompleteSubmission, number)
		}
	}

	result := domain.ScoredResult{
		TotalQuestions: total,
		PerQuestion:    make(map[int]domain.QuestionResult, total),
	}
	for i, question := range session.Questions {
		number := i + 1
		// Exact, case-sensitive match on the label.
		if answers[number] == question.CorrectLabel {
			result.Score++
			result.PerQuestion[number] = domain.QuestionResult{Correct: true}
		} else {
			result.PerQuestion[number] = domain.QuestionResult{CorrectLabel: question.CorrectLabel}
		}
	}

	s.log.WithFields(logrus.Fields{"score": result.Score, "total": total}).Info("quiz session scored")
	return result, nil
}
