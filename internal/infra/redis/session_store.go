package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizgen-service/internal/domain"
)

const tokenAttempts = 5

// SessionStore is a Redis-backed implementation of app.SessionStore.
// Notes:
//   - Sessions are stored as JSON under quiz:session:<token> with the TTL
//     applied at write time, so expiry is enforced by Redis itself.
//   - Create uses SET NX: a token collision never overwrites an existing
//     session, it triggers a regenerate.
//   - Consume uses GETDEL, which reads and invalidates the session in one
//     indivisible server-side step; two racing submissions cannot both win.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl, clock: time.Now}
}

func (s *SessionStore) Create(ctx context.Context, questions []domain.Question) (string, error) {
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		token, err := domain.NewSessionToken()
		if err != nil {
			return "", err
		}
		session := domain.QuizSession{
			Token:     token,
			Questions: questions,
			CreatedAt: s.clock(),
		}
		payload, err := json.Marshal(session)
		if err != nil {
			return "", fmt.Errorf("marshal session: %w", err)
		}
		ok, err := s.client.SetNX(ctx, s.key(token), payload, s.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("store session: %w", err)
		}
		if ok {
			return token, nil
		}
	}
	return "", domain.ErrTokenExhausted
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.QuizSession, error) {
	payload, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("load session: %w", err)
	}
	return unmarshalSession(payload)
}

func (s *SessionStore) Consume(ctx context.Context, token string) (domain.QuizSession, error) {
	payload, err := s.client.GetDel(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("consume session: %w", err)
	}
	return unmarshalSession(payload)
}

func unmarshalSession(payload []byte) (domain.QuizSession, error) {
	var session domain.QuizSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.QuizSession{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) key(token string) string {
	return "quiz:session:" + token
}
