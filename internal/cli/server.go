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

	"edusat-quiz-engine/internal/app"
	"edusat-quiz-engine/internal/config"
	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/infra/memory"
	pgloader "edusat-quiz-engine/internal/infra/postgres"
	infraredis "edusat-quiz-engine/internal/infra/redis"
	"edusat-quiz-engine/internal/store"
	transport "edusat-quiz-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz engine server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.Catalog
	if redisClient != nil {
		catalog = infraredis.NewCatalog(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalog(loader, catalogTTL)
	}

	var kv store.KV
	if redisClient != nil {
		stateTTL := config.TTLDuration(cfg.Redis.TTL, 0)
		kv = infraredis.NewKV(redisClient, stateTTL)
	} else {
		kv = memory.NewKV()
	}
	if cfg.Engine.StatePrefix != "" {
		kv = store.Prefixed(kv, cfg.Engine.StatePrefix)
	}

	engine := app.NewEngineWithCap(catalog, kv, cfg.Engine.AttemptCap)
	handler := transport.NewHandler(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz engine on :%s", finalPort)
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

// sampleQuizzes provides a minimal content set; the Postgres loader replaces
// this when a database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-fractions": {
			ID:           "quiz-fractions",
			ChapterID:    "fractions",
			Title:        "Fractions checkpoint",
			PassPercent:  70,
			TimeLimitSec: 300,
			Questions: []domain.Question{
				{
					ID:            "q1",
					Type:          domain.SingleChoice,
					Prompt:        "What is 1/2 + 1/4?",
					Options:       []string{"1/2", "3/4", "2/6"},
					CorrectAnswer: domain.TextAnswer("3/4"),
					Points:        1,
					LessonIDs:     []string{"lesson-adding-fractions"},
				},
				{
					ID:            "q2",
					Type:          domain.Numeric,
					Prompt:        "Write 3/4 as a decimal.",
					CorrectAnswer: domain.NumberAnswer(0.75),
					Points:        2,
					LessonIDs:     []string{"lesson-decimals"},
				},
				{
					ID:            "q3",
					Type:          domain.TrueFalse,
					Prompt:        "2/3 is greater than 3/4.",
					Options:       []string{"true", "false"},
					CorrectAnswer: domain.TextAnswer("false"),
					Points:        1,
				},
			},
		},
	}
}
