package repository

import (
	"context"
	"encoding/json"
	"time"

	"techtrove/internal/cache"
	"techtrove/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cachedProductRepository serves GetByID through a read-through cache.
// Cache failures are logged and fall through to the database.
type cachedProductRepository struct {
	ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedProductRepository wraps next with a product-by-id cache.
func NewCachedProductRepository(next ProductRepository, c cache.Cache, ttl time.Duration, logger zerolog.Logger) ProductRepository {
	return &cachedProductRepository{
		ProductRepository: next,
		cache:             c,
		ttl:               ttl,
		logger:            logger.With().Str("repository", "product_cache").Logger(),
	}
}

func (r *cachedProductRepository) key(id uuid.UUID) string {
	return r.cache.Key("product", id.String())
}

// GetByID returns the cached product when present, otherwise loads and caches it.
func (r *cachedProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	key := r.key(id)

	raw, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if found {
		var p model.Product
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		r.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	p, err := r.ProductRepository.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		if err := r.cache.Set(ctx, key, encoded, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}

	return p, nil
}

func (r *cachedProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.ProductRepository.Delete(ctx, id)
	r.Invalidate(ctx, id)
	return err
}

// Invalidate drops cached copies of ids.
func (r *cachedProductRepository) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn().Err(err).Int("count", len(keys)).Msg("cache invalidation failed")
	}
}
