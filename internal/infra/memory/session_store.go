package memory

import (
	"context"
	"sync"
	"time"

	"quizgen-service/internal/domain"
)

// tokenAttempts bounds collision retries during Create. With 256-bit tokens a
// second attempt is already unreachable in practice.
const tokenAttempts = 5

// SessionStore is an in-memory implementation of app.SessionStore. Expired
// sessions are treated as absent on every lookup; the janitor only reclaims
// their memory.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]domain.QuizSession
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock allows deterministic timestamps in tests.
func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]domain.QuizSession),
	}
}

func (s *SessionStore) Create(_ context.Context, questions []domain.Question) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < tokenAttempts; attempt++ {
		token, err := domain.NewSessionToken()
		if err != nil {
			return "", err
		}
		if _, exists := s.sessions[token]; exists {
			continue
		}
		s.sessions[token] = domain.QuizSession{
			Token:     token,
			Questions: questions,
			CreatedAt: s.clock(),
		}
		return token, nil
	}
	return "", domain.ErrTokenExhausted
}

func (s *SessionStore) Get(_ context.Context, token string) (domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok || s.expired(session) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// Consume atomically removes the session and returns its pre-consumption
// state. Of two concurrent calls for one token, exactly one succeeds.
func (s *SessionStore) Consume(_ context.Context, token string) (domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok || s.expired(session) {
		delete(s.sessions, token)
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	delete(s.sessions, token)
	return session, nil
}

// StartJanitor sweeps expired sessions until the returned stop function is
// called.
func (s *SessionStore) StartJanitor(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (s *SessionStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, token)
		}
	}
}

func (s *SessionStore) expired(session domain.QuizSession) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.clock().Sub(session.CreatedAt) > s.ttl
}
