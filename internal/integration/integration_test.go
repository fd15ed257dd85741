package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bondrizz-funnel/internal/app"
	"bondrizz-funnel/internal/backend"
	"bondrizz-funnel/internal/catalog"
	"bondrizz-funnel/internal/domain"
	infmongo "bondrizz-funnel/internal/infra/mongo"
	pgloader "bondrizz-funnel/internal/infra/postgres"
	pgmigrations "bondrizz-funnel/internal/infra/postgres/migrations"
	infraredis "bondrizz-funnel/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap/zaptest"
)

func TestFunnelEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCatalog(t, ctx, pgURL, catalog.BondRizz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewCatalogLoader(pool)
	ids, err := loader.ListCatalogs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != catalog.BondRizzID {
		t.Fatalf("expected seeded catalog, got %v %v", ids, err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	scoring := httptest.NewServer(scoringAPI())
	defer scoring.Close()

	logger := zaptest.NewLogger(t)
	catalogRepo := infraredis.NewCatalogRepository(redisClient, loader, 5*time.Minute, logger)
	store := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	registry := infraredis.NewFlowRegistry(redisClient, 5*time.Minute)
	service := app.NewFunnelService(registry, catalogRepo, store, backend.NewClient(scoring.URL+"/api", time.Second, logger), app.FunnelOptions{
		Loading: app.LoadingConfig{StepInterval: 10 * time.Millisecond, Dwell: 100 * time.Millisecond},
		Logger:  logger,
	})

	sessionID, view, err := service.Start(ctx, catalog.BondRizzID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for view.State == app.FlowActive {
		if view.Interstitial != nil {
			view, err = service.Dismiss(ctx, sessionID)
		} else {
			view, err = service.Answer(ctx, sessionID, answerFor(view.Question))
		}
		if err != nil {
			t.Fatalf("flow: %v", err)
		}
	}

	run, err := service.BeginLoading(ctx, sessionID)
	if err != nil {
		t.Fatalf("begin loading: %v", err)
	}
	<-run.Submitted()
	<-run.Advanced()
	run.Stop()

	resultID, err := service.CaptureEmail(ctx, sessionID, "user@example.com")
	if err != nil {
		t.Fatalf("capture email: %v", err)
	}
	results, err := service.LoadResults(ctx, sessionID, resultID)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	if results.Result.Score != 18 {
		t.Fatalf("expected score from 18 answers, got %d", results.Result.Score)
	}
	receipt, err := service.Checkout(ctx, sessionID, app.CheckoutRequest{ResultID: resultID, Plan: "Pro", OrderBump: true})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if receipt.Amount != 2999+199 {
		t.Fatalf("expected 3198, got %d", receipt.Amount)
	}

	if err := service.End(ctx, sessionID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if n, _ := redisClient.Exists(ctx, "funnel:session:"+sessionID, "funnel:flow:"+sessionID).Result(); n != 0 {
		t.Fatalf("expected session keys removed, %d remain", n)
	}
}

func TestMongoCatalogStore(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri, cleanup := startMongo(t, ctx)
	defer cleanup()

	client, err := infmongo.Connect(ctx, uri, 30*time.Second)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	store := infmongo.NewCatalogStore(client.Database("bondrizz_test"))
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	if err := store.SaveCatalog(ctx, catalog.BondRizz()); err != nil {
		t.Fatalf("save: %v", err)
	}
	// saving twice replaces the document
	if err := store.SaveCatalog(ctx, catalog.BondRizz()); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := store.LoadCatalog(ctx, catalog.BondRizzID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Questions) != 18 || len(got.Interstitials) != 3 || got.Interstitials[2].Content.Counter != 1247 {
		t.Fatalf("unexpected catalog %d questions, %d interstitials", len(got.Questions), len(got.Interstitials))
	}
	if _, err := store.LoadCatalog(ctx, "missing"); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected catalog not found, got %v", err)
	}
}

func answerFor(q *domain.Question) any {
	if q.Kind == domain.KindLikert {
		return q.Scale.Max
	}
	return q.Options[len(q.Options)-1].Value
}

// scoringAPI stands in for the scoring backend: the score is the answer count.
func scoringAPI() http.Handler {
	var mu sync.Mutex
	results := map[string]domain.Result{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quiz/submit", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Answers []domain.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		res := domain.Result{ID: fmt.Sprintf("res-%d", len(results)+1), Score: len(body.Answers)}
		results[res.ID] = res
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("/api/quiz/result/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		res, ok := results[strings.TrimPrefix(r.URL.Path, "/api/quiz/result/")]
		mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("/api/email/capture", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/api/order/create", func(w http.ResponseWriter, r *http.Request) {
		var req domain.OrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(domain.Order{ID: "ord-1", Email: req.Email, Plan: req.Plan, Amount: req.Amount, Status: "pending"})
	})
	mux.HandleFunc("/api/order/complete/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	return mux
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "funnel", "POSTGRES_PASSWORD": "funnelpass", "POSTGRES_DB": "funneldb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, host, terminate := startContainer(t, ctx, req)
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://funnel:funnelpass@%s:%s/funneldb?sslmode=disable", host, port.Port())
	return dsn, terminate
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, host, terminate := startContainer(t, ctx, req)
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("redis://%s:%s", host, port.Port()), terminate
}

func startMongo(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, host, terminate := startContainer(t, ctx, req)
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("mongo port: %v", err)
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), terminate
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) (tc.Container, string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	return container, host, func() {
		_ = container.Terminate(ctx)
	}
}

func seedCatalog(t *testing.T, ctx context.Context, dsn string, c domain.Catalog) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	writer := pgloader.NewCatalogWriter(db)
	stale := c
	stale.ID = "retired-quiz"
	for _, cat := range []domain.Catalog{stale, c} {
		if err := writer.SaveCatalog(ctx, cat); err != nil {
			t.Fatalf("save catalog %s: %v", cat.ID, err)
		}
	}

	removed, err := writer.Prune(ctx, []string{c.ID})
	if err != nil {
		t.Fatalf("prune catalogs: %v", err)
	}
	if len(removed) != 1 || removed[0] != stale.ID {
		t.Fatalf("expected %s pruned, got %v", stale.ID, removed)
	}
	if err := writer.DeleteCatalog(ctx, stale.ID); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected pruned catalog to be gone, got %v", err)
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
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
