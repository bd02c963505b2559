package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
	pgloader "quiz-service/internal/infra/postgres"
	infraredis "quiz-service/internal/infra/redis"
	"quiz-service/internal/infra/sqlstore"
)

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open pg: %v", err)
	}
	defer db.Close()
	if err := sqlstore.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlstore.NewStore(db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	cache := infraredis.NewQuizRepository(redisClient, pgloader.NewQuizLoader(pool), 5*time.Minute)
	feed := infraredis.NewAttemptFeed(redisClient)
	authoring := app.NewAuthoringService(store, cache)
	service := app.NewQuizService(store, store, cache, feed)

	quiz, mcq, text := seedQuiz(t, ctx, authoring)

	public, err := service.GetPublicQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("public quiz: %v", err)
	}
	if len(public.Questions) != 2 || len(public.Questions[0].Options) != 2 {
		t.Fatalf("unexpected public quiz %+v", public)
	}

	events, cancel, err := service.Subscribe(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	res, err := service.Submit(ctx, quiz.ID, "alice", []domain.Answer{
		{QuestionID: mcq.ID, SelectedOptionID: optionID(mcq, true)},
		{QuestionID: text.ID, TextResponse: "PARIS"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Scored.Score != 3 || res.Scored.Percentage.StringFixed(2) != "100.00" {
		t.Fatalf("expected full marks, got %d %s", res.Scored.Score, res.Scored.Percentage.StringFixed(2))
	}

	select {
	case ev := <-events:
		if ev.AttemptID != res.AttemptID {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for attempt event")
	}

	attempt, err := service.GetAttempt(ctx, res.AttemptID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if attempt.Percentage.StringFixed(2) != "100.00" || len(attempt.Responses) != 2 {
		t.Fatalf("unexpected stored attempt %+v", attempt)
	}

	res, err = service.Submit(ctx, quiz.ID, "", []domain.Answer{
		{QuestionID: text.ID, TextResponse: "Pariss"},
		{QuestionID: mcq.ID, SelectedOptionID: optionID(mcq, false)},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Scored.Score != 0 || res.Scored.Percentage.StringFixed(2) != "0.00" {
		t.Fatalf("expected zero, got %d %s", res.Scored.Score, res.Scored.Percentage.StringFixed(2))
	}

	if err := authoring.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := service.GetPublicQuiz(ctx, quiz.ID); err == nil {
		t.Fatalf("expected deleted quiz to be gone from the public view")
	}
	if _, err := service.GetAttempt(ctx, res.AttemptID); err == nil {
		t.Fatalf("expected attempts removed with the quiz")
	}
}

func seedQuiz(t *testing.T, ctx context.Context, authoring *app.AuthoringService) (domain.Quiz, domain.Question, domain.Question) {
	t.Helper()
	quiz, err := authoring.CreateQuiz(ctx, "Integration", "")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	mcq, err := authoring.ValidateAndCreateQuestion(ctx, quiz.ID, domain.Question{
		Text: "What is 2 + 2?", Type: domain.QuestionTypeMCQ, Order: 1,
		Options: []domain.Option{
			{Text: "3", Order: 1},
			{Text: "4", Correct: true, Order: 2},
		},
	})
	if err != nil {
		t.Fatalf("create mcq: %v", err)
	}
	text, err := authoring.ValidateAndCreateQuestion(ctx, quiz.ID, domain.Question{
		Text: "Capital of France?", Type: domain.QuestionTypeText, Points: 2, Order: 2,
		CorrectAnswerText: "Paris",
	})
	if err != nil {
		t.Fatalf("create text: %v", err)
	}
	return quiz, mcq, text
}

func optionID(q domain.Question, correct bool) string {
	for _, o := range q.Options {
		if o.Correct == correct {
			return o.ID
		}
	}
	return ""
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
