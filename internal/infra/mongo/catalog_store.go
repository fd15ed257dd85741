package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bondrizz-funnel/internal/catalog"
	"bondrizz-funnel/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catalogCollection = "catalogs"

// CatalogStore keeps catalogs as documents keyed by their "id" field.
type CatalogStore struct {
	collection *mongo.Collection
}

func NewCatalogStore(db *mongo.Database) *CatalogStore {
	return &CatalogStore{collection: db.Collection(catalogCollection)}
}

// Connect dials uri and pings the primary before returning.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func (s *CatalogStore) LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	var c domain.Catalog
	err := s.collection.FindOne(ctx, bson.M{"id": catalogID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Catalog{}, domain.ErrCatalogNotFound
	}
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	if err := catalog.Validate(c); err != nil {
		return domain.Catalog{}, fmt.Errorf("catalog %s: %w", catalogID, err)
	}
	return c, nil
}

// SaveCatalog validates c and upserts it.
func (s *CatalogStore) SaveCatalog(ctx context.Context, c domain.Catalog) error {
	if err := catalog.Validate(c); err != nil {
		return err
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"id": c.ID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save catalog %s: %w", c.ID, err)
	}
	return nil
}

// EnsureIndexes creates the unique index on the catalog id.
func (s *CatalogStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
