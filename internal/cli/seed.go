package cli

import (
	"context"
	"fmt"
	"time"

	"bondrizz-funnel/internal/catalog"
	"bondrizz-funnel/internal/config"
	"bondrizz-funnel/internal/domain"
	"bondrizz-funnel/internal/infra/file"
	infmongo "bondrizz-funnel/internal/infra/mongo"
	pgloader "bondrizz-funnel/internal/infra/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd stores catalogs in the configured Postgres and/or Mongo.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		fromDir string
		prune   bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store the built-in catalog (or a directory of catalogs) in the databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			catalogs, err := seedCatalogs(cmd.Context(), fromDir)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), cfg, catalogs, prune)
		},
	}
	cmd.Flags().StringVar(&fromDir, "from", "", "directory of catalog files to seed instead of the built-in catalog")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete Postgres catalogs that are not part of this seed")
	return cmd
}

func seedCatalogs(ctx context.Context, dir string) ([]domain.Catalog, error) {
	if dir == "" {
		return []domain.Catalog{catalog.BondRizz()}, nil
	}
	source := file.NewCatalogDir(dir)
	ids, err := source.ListCatalogs(ctx)
	if err != nil {
		return nil, err
	}
	catalogs := make([]domain.Catalog, 0, len(ids))
	for _, id := range ids {
		c, err := source.LoadCatalog(ctx, id)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, c)
	}
	return catalogs, nil
}

func seed(ctx context.Context, cfg config.Config, catalogs []domain.Catalog, prune bool) error {
	if cfg.Postgres.URL == "" && cfg.Mongo.URI == "" {
		return fmt.Errorf("neither postgres.url nor mongo.uri is configured")
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		db, err := openBun(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		writer := pgloader.NewCatalogWriter(db)
		for _, c := range catalogs {
			if err := writer.SaveCatalog(ctx, c); err != nil {
				return err
			}
			logger.Info("catalog seeded", zap.String("store", "postgres"), zap.String("catalog", c.ID), zap.Int("questions", len(c.Questions)))
		}
		if prune {
			keep := make([]string, 0, len(catalogs))
			for _, c := range catalogs {
				keep = append(keep, c.ID)
			}
			removed, err := writer.Prune(ctx, keep)
			if err != nil {
				return err
			}
			logger.Info("catalogs pruned", zap.String("store", "postgres"), zap.Strings("catalogs", removed))
		}
	}

	if cfg.Mongo.URI != "" {
		client, err := infmongo.Connect(ctx, cfg.Mongo.URI, config.Duration(cfg.Mongo.Timeout, 10*time.Second))
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		store := infmongo.NewCatalogStore(client.Database(mongoDatabase(cfg)))
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		for _, c := range catalogs {
			if err := store.SaveCatalog(ctx, c); err != nil {
				return err
			}
			logger.Info("catalog seeded", zap.String("store", "mongo"), zap.String("catalog", c.ID), zap.Int("questions", len(c.Questions)))
		}
	}
	return nil
}
