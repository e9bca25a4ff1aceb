//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/smmry-app/smmry-api/internal/api"
	"github.com/smmry-app/smmry-api/internal/auth"
	"github.com/smmry-app/smmry-api/internal/config"
	"github.com/smmry-app/smmry-api/internal/queue"
	"github.com/smmry-app/smmry-api/internal/quota"
	"github.com/smmry-app/smmry-api/internal/ratelimit"
	"github.com/smmry-app/smmry-api/internal/summarize"
	"github.com/smmry-app/smmry-api/internal/users"
)

const sessionSecret = "test-session-secret-32-chars-ok!!"

type TestEnv struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Server      *httptest.Server

	QuotaRepo quota.Repository
	QueueRepo queue.Repository
	RateRepo  ratelimit.Repository

	// Summarizer answers every admitted request with a fixed summary, or an
	// error when FailSummarizer is set.
	FailSummarizer bool
}

var testEnv *TestEnv

type stubSummarizer struct {
	env *TestEnv
}

func (s *stubSummarizer) Summarize(ctx context.Context, req summarize.Request) (string, error) {
	if s.env.FailSummarizer {
		return "", fmt.Errorf("stub summarizer failure")
	}
	return "A compact summary of the submitted text.", nil
}

func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "smmry_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")

	// Start Redis container
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting redis container: %v", err)
	}
	t.Cleanup(func() { redisContainer.Terminate(ctx) })

	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/smmry_test?sslmode=disable", pgHost, pgPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	// Run migrations
	m, err := migrate.New(fmt.Sprintf("file://%s", getMigrationsPath()), dsn)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("running migrations: %v", err)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})
	t.Cleanup(func() { redisClient.Close() })

	env := &TestEnv{
		Pool:        pool,
		RedisClient: redisClient,
		QuotaRepo:   quota.NewRepository(pool),
		QueueRepo:   queue.NewRepository(pool),
		RateRepo:    ratelimit.NewRepository(pool),
	}

	// Wire the full admission pipeline behind a real router, with only the
	// model call stubbed out.
	limits := config.LimitsConfig{
		AnonymousDaily: 2,
		GoogleDaily:    5,
		PremiumDaily:   0,
		FreePerMinute:  3,
	}

	svc := summarize.NewService(
		users.NewResolver(users.NewRepository(pool)),
		quota.NewTracker(env.QuotaRepo),
		ratelimit.NewLimiter(env.RateRepo, limits.FreePerMinute),
		queue.New(env.QueueRepo),
		&stubSummarizer{env: env},
		limits,
	)
	handler := summarize.NewHandler(svc)

	router := api.NewRouter(pool, redisClient, api.RouterConfig{}, api.HandlerSet{
		Summarize:      handler.Summarize,
		Quota:          handler.Quota,
		AuthMiddleware: auth.Middleware(auth.NewVerifier(sessionSecret)),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() { server.Close() })
	env.Server = server

	testEnv = env
	return testEnv
}

func getMigrationsPath() string {
	paths := []string{
		"../../migrations",
		"../../../migrations",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	log.Fatal("migrations directory not found")
	return ""
}

// Helper functions

// SessionToken mints a token the way the OAuth front-end would.
func SessionToken(t *testing.T, userID, provider string) string {
	t.Helper()
	claims := auth.SessionClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(sessionSecret))
	if err != nil {
		t.Fatalf("signing session token: %v", err)
	}
	return token
}

func SeedUser(t *testing.T, env *TestEnv, userID, userType string) {
	t.Helper()
	_, err := env.Pool.Exec(context.Background(),
		`INSERT INTO users (id, user_type, provider) VALUES ($1, $2, 'google')
		 ON CONFLICT (id) DO UPDATE SET user_type = $2`, userID, userType)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
}

// ResetState clears every admission table between tests. The shared
// containers stay up.
func ResetState(t *testing.T, env *TestEnv) {
	t.Helper()
	_, err := env.Pool.Exec(context.Background(),
		`TRUNCATE users, user_usage_records, minute_buckets, queue_entries`)
	if err != nil {
		t.Fatalf("resetting state: %v", err)
	}
	env.FailSummarizer = false
}

func DoRequest(t *testing.T, env *TestEnv, method, path string, body any, token string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("doing request: %v", err)
	}
	return resp
}

func ParseResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	return result
}

func SummarizeBody(text string) map[string]any {
	return map[string]any{"text": text}
}

const sampleText = "The industrial revolution transformed economies that had been based on agriculture and handicrafts into economies based on large-scale industry and mechanized manufacturing."
