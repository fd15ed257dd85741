package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bondrizz-funnel/internal/app"
	"bondrizz-funnel/internal/backend"
	"bondrizz-funnel/internal/catalog"
	"bondrizz-funnel/internal/config"
	"bondrizz-funnel/internal/infra/file"
	"bondrizz-funnel/internal/infra/memory"
	infmongo "bondrizz-funnel/internal/infra/mongo"
	pgloader "bondrizz-funnel/internal/infra/postgres"
	infraredis "bondrizz-funnel/internal/infra/redis"
	transport "bondrizz-funnel/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the funnel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// catalogSource is the loader chosen by config plus whatever it holds open.
type catalogSource struct {
	loader memory.CatalogLoader
	dir    *file.CatalogDir
	close  func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 2*time.Hour)

	source, err := openCatalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.close()

	catalogTTL := config.Duration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogRepo app.CatalogRepository
	var invalidate func(catalogID string)
	if redisClient != nil {
		repo := infraredis.NewCatalogRepository(redisClient, source.loader, catalogTTL, logger)
		catalogRepo = repo
		invalidate = func(catalogID string) {
			if err := repo.Invalidate(context.Background(), catalogID); err != nil {
				logger.Warn("invalidate cached catalog failed", zap.String("catalog", catalogID), zap.Error(err))
			}
		}
	} else {
		repo := memory.NewCatalogRepository(source.loader, catalogTTL)
		catalogRepo = repo
		invalidate = repo.Invalidate
	}

	var (
		store    app.SessionStore
		registry app.SessionRepository
	)
	if redisClient != nil {
		store = infraredis.NewSessionStore(redisClient, redisTTL)
		registry = infraredis.NewFlowRegistry(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
		registry = memory.NewFlowRegistry()
	}

	scoring := backend.NewClient(cfg.Backend.URL, config.Duration(cfg.Backend.Timeout, 30*time.Second), logger.Named("backend"))
	addOn := cfg.Offers.AddOnPrice
	if addOn == 0 {
		addOn = app.AddOnPrice
	}
	service := app.NewFunnelService(registry, catalogRepo, store, scoring, app.FunnelOptions{
		Loading: app.LoadingConfig{
			Steps:         cfg.Loading.Steps,
			StepInterval:  config.Duration(cfg.Loading.StepInterval, 3*time.Second),
			Dwell:         config.Duration(cfg.Loading.Dwell, 15*time.Second),
			SubmitTimeout: config.Duration(cfg.Loading.SubmitTimeout, 30*time.Second),
		},
		AddOnPrice: addOn,
		Logger:     logger.Named("funnel"),
	})

	defaultCatalog := cfg.Catalog.ID
	if defaultCatalog == "" {
		defaultCatalog = catalog.BondRizzID
	}
	wsHandler := transport.NewWSHandler(service, defaultCatalog, logger.Named("ws"))
	router := transport.NewRouter(service, wsHandler, transport.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AddOnPrice:     addOn,
	}, logger.Named("http"))

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if source.dir != nil && cfg.Catalog.Watch {
		watcher, err := file.NewWatcher(source.dir.Dir(), 0, invalidate, logger.Named("catalogs"))
		if err != nil {
			return err
		}
		if err := watcher.Start(gctx); err != nil {
			_ = watcher.Stop()
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return watcher.Stop()
		})
	}

	g.Go(func() error {
		logger.Info("starting funnel service", zap.String("port", finalPort), zap.String("catalog", defaultCatalog))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownGrace, 5*time.Second))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openCatalogSource(ctx context.Context, cfg config.Config) (catalogSource, error) {
	switch cfg.Catalog.Source {
	case config.SourceFile:
		dir := file.NewCatalogDir(cfg.Catalog.Dir)
		return catalogSource{loader: dir, dir: dir, close: func() {}}, nil
	case config.SourcePostgres:
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return catalogSource{}, err
		}
		return catalogSource{loader: pgloader.NewCatalogLoader(pool), close: pool.Close}, nil
	case config.SourceMongo:
		client, err := infmongo.Connect(ctx, cfg.Mongo.URI, config.Duration(cfg.Mongo.Timeout, 10*time.Second))
		if err != nil {
			return catalogSource{}, err
		}
		store := infmongo.NewCatalogStore(client.Database(mongoDatabase(cfg)))
		return catalogSource{loader: store, close: func() {
			_ = client.Disconnect(context.Background())
		}}, nil
	default:
		// the built-in catalog needs no backing store
		return catalogSource{loader: memory.NewStaticCatalogLoader(catalog.BondRizz()), close: func() {}}, nil
	}
}

func mongoDatabase(cfg config.Config) string {
	if cfg.Mongo.Database != "" {
		return cfg.Mongo.Database
	}
	return "bondrizz"
}
