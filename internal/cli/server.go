package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/auth"
	"quiz-feed-service/internal/config"
	"quiz-feed-service/internal/infra/memory"
	"quiz-feed-service/internal/infra/postgres"
	redisinfra "quiz-feed-service/internal/infra/redis"
	transport "quiz-feed-service/internal/transport/http"
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
	if err := cfg.Validate(); err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		quizStore    app.QuizStore
		attemptStore app.AttemptStore
		userStore    app.UserStore
		loader       memory.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		if err := migrateDB(ctx, db); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		quizStore = postgres.NewQuizStore(db)
		attemptStore = postgres.NewAttemptStore(db)
		userStore = postgres.NewUserStore(db)
		loader = postgres.NewQuizLoader(pool)
	} else {
		log.Printf("postgres not configured, keeping quizzes and attempts in memory")
		mem := memory.NewQuizStore()
		quizStore = mem
		attemptStore = memory.NewAttemptStore()
		userStore = memory.NewUserStore()
		loader = mem
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var (
		sessions app.SessionRepository
		live     transport.LiveCounter
	)
	if redisClient != nil {
		store := redisinfra.NewSessionStore(redisClient, redisTTL)
		sessions, live = store, store
	} else {
		store := memory.NewSessionStore()
		sessions, live = store, store
	}

	tokens := auth.NewIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))

	catalog := app.NewCatalogService(quizStore, attemptStore, quizRepo)
	play := app.NewPlayService(sessions, quizRepo, catalog, attemptStore, app.PlayConfig{
		PersistTimeout: config.TTLDuration(cfg.Attempt.PersistTimeout, 10*time.Second),
		TickInterval:   config.TTLDuration(cfg.Attempt.TickInterval, time.Second),
	})
	router := transport.NewRouter(transport.Services{
		Users:     app.NewUserService(userStore, tokens),
		Catalog:   catalog,
		Analytics: app.NewAnalyticsService(quizStore, attemptStore, userStore),
		Play:      play,
		Tokens:    tokens,
		SyncKey:   cfg.Auth.SyncKey,
		Sessions:  live,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz feed service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
