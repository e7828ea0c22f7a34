package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"quizgen-service/internal/app"
	"quizgen-service/internal/domain"
)

// sessionTokenHeader carries the opaque quiz session credential on submit.
const sessionTokenHeader = "X-Session-Token"

type contextKey string

const userContextKey contextKey = "user"

// Handler exposes the quiz and account operations over REST.
type Handler struct {
	quiz *app.QuizService
	auth *app.AuthService
	log  *logrus.Logger
}

func NewHandler(quiz *app.QuizService, auth *app.AuthService, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{quiz: quiz, auth: auth, log: log}
}

// NewRouter wires all routes. The quiz endpoints are unauthenticated; only
// the profile read sits behind the bearer gate.
func NewRouter(h *Handler, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/generate-quiz", h.GenerateQuiz)
	r.Post("/submit-quiz", h.SubmitQuiz)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/user-info", h.UserInfo)
	})

	if ws != nil {
		r.Get("/ws/quiz", ws.ServeWS)
	}
	return r
}

type generateQuizRequest struct {
	Domain       string `json:"domain"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

type publicQuestion struct {
	Number   int               `json:"number"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

type generateQuizResponse struct {
	SessionToken string           `json:"session_token"`
	Questions    []publicQuestion `json:"questions"`
	NumQuestions int              `json:"num_questions"`
}

func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	started, err := h.quiz.Start(r.Context(), req.Domain, req.NumQuestions, domain.Difficulty(req.Difficulty))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := generateQuizResponse{
		SessionToken: started.Token,
		Questions:    make([]publicQuestion, len(started.Questions)),
		NumQuestions: len(started.Questions),
	}
	for i, q := range started.Questions {
		options := make(map[string]string, len(q.Options))
		for _, opt := range q.Options {
			options[opt.Label] = opt.Text
		}
		resp.Questions[i] = publicQuestion{Number: q.Number, Question: q.Prompt, Options: options}
	}
	writeJSON(w, http.StatusCreated, resp)
}

type submitQuizRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(sessionTokenHeader)
	if token == "" {
		writeDetail(w, http.StatusBadRequest, "missing "+sessionTokenHeader+" header")
		return
	}

	var req submitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answers := make(domain.AnswerSet, len(req.Answers))
	for key, label := range req.Answers {
		number, err := strconv.Atoi(key)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "answers must be keyed by question number")
			return
		}
		answers[number] = label
	}

	result, err := h.quiz.Submit(r.Context(), token, answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"res": "created"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) UserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(userContextKey).(domain.User)
	if !ok {
		h.writeError(w, domain.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// requireAuth resolves the Bearer token to a user and stores it on the
// request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" || token == authHeader {
			h.writeError(w, domain.ErrInvalidToken)
			return
		}
		user, err := h.auth.UserInfo(r.Context(), token)
		if err != nil {
			h.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyTopic),
		errors.Is(err, domain.ErrCountOutOfRange),
		errors.Is(err, domain.ErrUnknownDifficulty),
		errors.Is(err, domain.ErrIncompleteSubmission):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrGenerationFailed):
		writeDetail(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrUserExists):
		writeDetail(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.WithError(err).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start),
			}).Info("request")
		})
	}
}
