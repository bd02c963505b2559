package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-service/internal/app"
	"quiz-service/internal/auth"
	"quiz-service/internal/config"
	"quiz-service/internal/infra/memory"
	pgloader "quiz-service/internal/infra/postgres"
	infraredis "quiz-service/internal/infra/redis"
	"quiz-service/internal/infra/sqlstore"
	transport "quiz-service/internal/transport/http"
)

const defaultAdminPassword = "admin"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	driver := sqlstore.Driver(cfg.Database.Driver)
	db, err := sqlstore.Open(ctx, driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := sqlstore.Migrate(ctx, db); err != nil {
		return err
	}
	store := sqlstore.NewStore(db)

	// The public read path goes through pgx in postgres mode; sqlite reads
	// through the bun store itself.
	var loader memory.QuizLoader = store
	if driver == sqlstore.DriverPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewQuizLoader(pool)
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

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var (
		quizRepo app.QuizRepository
		feed     app.AttemptFeed
	)
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
		feed = infraredis.NewAttemptFeed(redisClient)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		feed = memory.NewAttemptFeed()
	}

	authSvc, err := newAuthService(cfg)
	if err != nil {
		return err
	}

	handler := transport.NewHandler(
		app.NewAuthoringService(store, quizRepo),
		app.NewQuizService(store, store, quizRepo, feed),
		authSvc,
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s (db=%s, redis=%t)", finalPort, driver, redisClient != nil)
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

// newAuthService falls back to admin/admin and a per-process secret when the
// credentials are not configured, so a local run works out of the box.
func newAuthService(cfg config.Config) (*auth.Service, error) {
	hash := cfg.Auth.PasswordHash
	if hash == "" {
		log.Printf("auth.password_hash not set, using the default admin password")
		var err error
		if hash, err = auth.HashPassword(defaultAdminPassword); err != nil {
			return nil, err
		}
	}
	secret := cfg.Auth.Secret
	if secret == "" {
		log.Printf("auth.secret not set, tokens will not survive a restart")
		secret = uuid.NewString()
	}
	return auth.NewService(auth.Credentials{
		Username:     cfg.Auth.Username,
		PasswordHash: hash,
		Secret:       secret,
		TokenTTL:     config.TTLDuration(cfg.Auth.TokenTTL, 30*time.Minute),
	})
}
