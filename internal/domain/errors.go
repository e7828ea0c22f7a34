package domain

import "errors"

var (
	// ErrEmptyTopic is returned when a quiz is requested without a topic.
	ErrEmptyTopic = errors.New("topic must not be empty")
	// ErrCountOutOfRange is returned when the question count is outside [1,10].
	ErrCountOutOfRange = errors.New("question count must be between 1 and 10")
	// ErrUnknownDifficulty is returned for a difficulty outside Easy/Intermediate/Hard.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrGenerationFailed indicates the question generator could not produce
	// the requested number of valid questions.
	ErrGenerationFailed = errors.New("question generation failed")
	// ErrSessionNotFound covers unknown, expired, and already-consumed tokens
	// alike; callers are deliberately not told which applied.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrIncompleteSubmission is returned when the answer set does not cover
	// exactly the session's question numbers. The session is gone regardless.
	ErrIncompleteSubmission = errors.New("submission must answer every question exactly once")
	// ErrTokenExhausted indicates the store could not allocate a fresh token.
	ErrTokenExhausted = errors.New("could not allocate a unique session token")

	// ErrUserExists is returned when registering an already-taken username.
	ErrUserExists = errors.New("username already registered")
	// ErrUserNotFound is returned when a username has no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrInvalidToken is returned for a missing, malformed, or expired bearer token.
	ErrInvalidToken = errors.New("could not validate credentials")
)
