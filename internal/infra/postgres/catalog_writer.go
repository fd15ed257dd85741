package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bondrizz-funnel/internal/catalog"
	"bondrizz-funnel/internal/domain"
	"github.com/uptrace/bun"
)

type catalogRow struct {
	bun.BaseModel `bun:"table:catalogs"`

	ID        string          `bun:"id,pk"`
	Data      json.RawMessage `bun:"data,type:jsonb"`
	UpdatedAt time.Time       `bun:"updated_at"`
}

// CatalogWriter upserts catalogs through bun; the migrate and seed
// commands share its connection.
type CatalogWriter struct {
	db *bun.DB
}

func NewCatalogWriter(db *bun.DB) *CatalogWriter {
	return &CatalogWriter{db: db}
}

// SaveCatalog validates c and stores it, replacing any catalog with the same id.
func (w *CatalogWriter) SaveCatalog(ctx context.Context, c domain.Catalog) error {
	if err := catalog.Validate(c); err != nil {
		return err
	}
	data, err := catalog.Encode(c, catalog.FormatJSON)
	if err != nil {
		return err
	}
	row := &catalogRow{ID: c.ID, Data: data, UpdatedAt: time.Now().UTC()}
	_, err = w.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save catalog %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCatalog removes a stored catalog.
func (w *CatalogWriter) DeleteCatalog(ctx context.Context, catalogID string) error {
	res, err := w.db.NewDelete().Model((*catalogRow)(nil)).Where("id = ?", catalogID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete catalog %s: %w", catalogID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrCatalogNotFound
	}
	return nil
}

// Prune deletes every stored catalog whose id is not in keep and returns the
// removed ids.
func (w *CatalogWriter) Prune(ctx context.Context, keep []string) ([]string, error) {
	var ids []string
	if err := w.db.NewSelect().Model((*catalogRow)(nil)).Column("id").Order("id").Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	var removed []string
	for _, id := range ids {
		if _, ok := kept[id]; ok {
			continue
		}
		if err := w.DeleteCatalog(ctx, id); err != nil && !errors.Is(err, domain.ErrCatalogNotFound) {
			return removed, err
		}
		removed = append(removed, id)
	}
	return removed, nil
}
