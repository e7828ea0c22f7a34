package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Difficulty classifies how hard generated questions should be.
type Difficulty string

const (
	Easy         Difficulty = "Easy"
	Intermediate Difficulty = "Intermediate"
	Hard         Difficulty = "Hard"
)

// ParseDifficulty maps user input onto a known difficulty.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch Difficulty(raw) {
	case Easy, Intermediate, Hard:
		return Difficulty(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, raw)
}

// Option is one labeled answer choice.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is the private, generation-time record. CorrectLabel must match
// the label of one of Options.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []Option `json:"options"`
	CorrectLabel string   `json:"correctLabel"`
}

// Valid reports whether the question satisfies its invariant: non-empty
// prompt, unique labels, correct label present among the options.
func (q Question) Valid() bool {
	if q.Prompt == "" || len(q.Options) == 0 {
		return false
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt.Label == "" || seen[opt.Label] {
			return false
		}
		seen[opt.Label] = true
	}
	return seen[q.CorrectLabel]
}

// PublicQuestion is the client-facing projection of a Question. It never
// carries the correct label.
type PublicQuestion struct {
	Number  int      `json:"number"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Public projects the question for the client under a 1-based number.
func (q Question) Public(number int) PublicQuestion {
	options := make([]Option, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{Number: number, Prompt: q.Prompt, Options: options}
}

// QuizSession holds one single-use quiz attempt, including its answer key.
// Consumption is deletion: stores drop the record, so a session value in
// hand is by definition live.
type QuizSession struct {
	Token     string     `json:"token"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AnswerSet maps a 1-based question number to the chosen option label.
type AnswerSet map[int]string

// QuestionResult is the per-question outcome: either correct, or incorrect
// with the stored answer disclosed.
type QuestionResult struct {
	Correct      bool
	CorrectLabel string
}

// MarshalJSON renders the result as the literal "Correct" or an object
// disclosing the correct label.
func (r QuestionResult) MarshalJSON() ([]byte, error) {
	if r.Correct {
		return json.Marshal("Correct")
	}
	return json.Marshal(struct {
		Status        string `json:"status"`
		CorrectAnswer string `json:"correctAnswer"`
	}{Status: "Incorrect", CorrectAnswer: r.CorrectLabel})
}

// ScoredResult is the outcome of a full submission.
type ScoredResult struct {
	Score          int                    `json:"score"`
	TotalQuestions int                    `json:"total_questions"`
	PerQuestion    map[int]QuestionResult `json:"results"`
}

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
