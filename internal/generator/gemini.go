package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"quizgen-service/internal/domain"
)

const systemPrompt = `You are a multiple-choice question generator for a quiz application.

Rules:
1. Each question has exactly 4 options labeled A, B, C, D and exactly one correct option.
2. Options must be similar in length and structure; distractors must be plausible.
3. Never reveal the correct answer inside the question text.
4. Respond with pure, valid JSON and nothing outside the JSON.

Expected format:

[
  {
    "question": "<question text>",
    "options": {
      "A": "<option text>",
      "B": "<option text>",
      "C": "<option text>",
      "D": "<option text>"
    },
    "correct_option": "B"
  }
]`

// Gemini generates questions with a Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
	log    *logrus.Logger
}

// NewGemini builds a Gemini-backed generator. The API key is read from the
// environment by the genai client.
func NewGemini(ctx context.Context, model string, log *logrus.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{client: client, model: model, log: log}, nil
}

func (g *Gemini) Generate(ctx context.Context, topic string, count int, difficulty domain.Difficulty) ([]domain.Question, error) {
	prompt := systemPrompt + "\n\n" + userPrompt(topic, count, difficulty)

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		g.log.WithError(err).WithField("topic", topic).Error("gemini call failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	raw := result.Text()
	if raw == "" {
		return nil, fmt.Errorf("%w: empty model response", domain.ErrGenerationFailed)
	}

	questions, err := parseQuestions(raw)
	if err != nil {
		g.log.WithError(err).Debugf("unparseable model response:\n%s", raw)
		return nil, err
	}
	if len(questions) < count {
		return nil, fmt.Errorf("%w: got %d valid questions, want %d", domain.ErrGenerationFailed, len(questions), count)
	}
	return questions[:count], nil
}

func userPrompt(topic string, count int, difficulty domain.Difficulty) string {
	return fmt.Sprintf(
		"Generate %d multiple-choice questions about %q with difficulty %s. "+
			"Follow the JSON format from the system instructions exactly.",
		count, topic, difficulty,
	)
}

type generatedQuestion struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correct_option"`
}

// parseQuestions strips markdown fences, decodes the JSON array, and keeps
// only questions that satisfy the domain invariant.
func parseQuestions(raw string) ([]domain.Question, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.Trim(clean, "`")

	var decoded []generatedQuestion
	if err := json.Unmarshal([]byte(clean), &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode model response: %v", domain.ErrGenerationFailed, err)
	}

	questions := make([]domain.Question, 0, len(decoded))
	for _, gq := range decoded {
		if len(gq.Options) != 4 {
			continue
		}
		labels := make([]string, 0, len(gq.Options))
		for label := range gq.Options {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		options := make([]domain.Option, 0, len(labels))
		for _, label := range labels {
			options = append(options, domain.Option{Label: label, Text: gq.Options[label]})
		}
		q := domain.Question{
			Prompt:       strings.TrimSpace(gq.Question),
			Options:      options,
			CorrectLabel: strings.TrimSpace(gq.CorrectOption),
		}
		if q.Valid() {
			questions = append(questions, q)
		}
	}
	return questions, nil
}
