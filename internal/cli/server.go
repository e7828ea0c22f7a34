package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizgen-service/internal/app"
	"quizgen-service/internal/config"
	"quizgen-service/internal/generator"
	"quizgen-service/internal/infra/memory"
	pgstore "quizgen-service/internal/infra/postgres"
	redisstore "quizgen-service/internal/infra/redis"
	transport "quizgen-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 30*time.Minute)
	var sessionStore app.SessionStore
	if redisClient != nil {
		sessionStore = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		memStore := memory.NewSessionStore(sessionTTL)
		stopJanitor := memStore.StartJanitor(time.Minute)
		defer stopJanitor()
		sessionStore = memStore
	}

	var gen generator.Generator
	if os.Getenv("GEMINI_API_KEY") != "" {
		gemini, err := generator.NewGemini(ctx, cfg.Generator.Model, log)
		if err != nil {
			return err
		}
		gen = gemini
	} else {
		log.Warn("GEMINI_API_KEY not set, falling back to the sample generator")
		gen = generator.NewSample(time.Now().UnixNano())
	}
	if cacheTTL := config.TTLDuration(cfg.Generator.CacheTTL, 0); cacheTTL > 0 {
		gen = generator.NewCached(gen, cacheTTL)
	}

	var userStore app.UserStore = memory.NewUserStore()
	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		userStore = pgstore.NewUserStore(pool)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		// Without a configured secret, tokens only survive this process.
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		log.Warn("no JWT secret configured, using a per-boot random secret")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 30*time.Minute)

	genTimeout := config.TTLDuration(cfg.Generator.Timeout, 30*time.Second)
	quizService := app.NewQuizService(sessionStore, gen, genTimeout, log)
	authService := app.NewAuthService(userStore, secret, tokenTTL, log)

	handler := transport.NewHandler(quizService, authService, log)
	wsHandler := transport.NewWSHandler(quizService, log)
	router := transport.NewRouter(handler, wsHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Infof("starting quizgen service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
