package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"bondrizz-funnel/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches catalog content from a backing store (file, Postgres, Mongo).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// CatalogRepository caches whole catalogs in Redis as JSON and falls back to
// a loader on cache miss. Keys:
//
//	funnel:catalog:{catalogID}  JSON document, expires after ttl (+jitter)
//	funnel:catalogs             set of cached catalog ids
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

const catalogIndexKey = "funnel:catalogs"

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration, logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	if catalog, ok := r.cached(ctx, catalogID); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(catalogID, func() (interface{}, error) {
		// Re-check in case another instance filled it.
		if catalog, ok := r.cached(ctx, catalogID); ok {
			return catalog, nil
		}

		catalog, err := r.loader.LoadCatalog(ctx, catalogID)
		if err != nil {
			return domain.Catalog{}, err
		}

		payload, err := json.Marshal(catalog)
		if err != nil {
			return domain.Catalog{}, err
		}
		pipe := r.client.Pipeline()
		pipe.Set(ctx, r.key(catalogID), payload, r.ttlWithJitter())
		pipe.SAdd(ctx, catalogIndexKey, catalogID)
		if _, err := pipe.Exec(ctx); err != nil {
			// a cold cache only costs another load
			r.logger.Warn("cache catalog failed", zap.String("catalog", catalogID), zap.Error(err))
		}
		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

// Invalidate evicts a cached catalog, or every indexed one when catalogID is empty.
func (r *CatalogRepository) Invalidate(ctx context.Context, catalogID string) error {
	if catalogID != "" {
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, r.key(catalogID))
		pipe.SRem(ctx, catalogIndexKey, catalogID)
		_, err := pipe.Exec(ctx)
		return err
	}

	ids, err := r.client.SMembers(ctx, catalogIndexKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}
	keys = append(keys, catalogIndexKey)
	return r.client.Del(ctx, keys...).Err()
}

func (r *CatalogRepository) cached(ctx context.Context, catalogID string) (domain.Catalog, bool) {
	payload, err := r.client.Get(ctx, r.key(catalogID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("read cached catalog failed", zap.String("catalog", catalogID), zap.Error(err))
		}
		return domain.Catalog{}, false
	}
	var catalog domain.Catalog
	if err := json.Unmarshal(payload, &catalog); err != nil {
		r.logger.Warn("cached catalog unreadable", zap.String("catalog", catalogID), zap.Error(err))
		return domain.Catalog{}, false
	}
	return catalog, true
}

func (r *CatalogRepository) key(catalogID string) string {
	return "funnel:catalog:" + catalogID
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
