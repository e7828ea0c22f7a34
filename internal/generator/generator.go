package generator

import (
	"context"

	"quizgen-service/internal/domain"
)

// Generator produces question sets for a topic. Implementations must return
// exactly count questions, each satisfying the domain.Question invariant, or
// an error wrapping domain.ErrGenerationFailed.
type Generator interface {
	Generate(ctx context.Context, topic string, count int, difficulty domain.Difficulty) ([]domain.Question, error)
}
