package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"lexora-backend/internal/logger"
	"lexora-backend/internal/models"
)

const catalogCacheKey = "catalog:words:v1"

type wordStore interface {
	ListAllWords(ctx context.Context) ([]models.Word, error)
	ListUnseenWords(ctx context.Context, userID uuid.UUID, limit int) ([]models.Word, error)
	GetWordsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Word, error)
	ListDistractors(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Word, error)
}

type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedWordRepo serves catalog reads from a redis snapshot of the full word list.
// Unseen-word queries depend on the ledger and always go to the database.
type CachedWordRepo struct {
	words wordStore
	cache cacheClient
	ttl   time.Duration
	log   *logger.Logger
	group singleflight.Group
}

func NewCachedWordRepo(words wordStore, cache cacheClient, ttl time.Duration, log *logger.Logger) *CachedWordRepo {
	return &CachedWordRepo{
		words: words,
		cache: cache,
		ttl:   ttl,
		log:   log.With("component", "CatalogCache"),
	}
}

func (c *CachedWordRepo) ListAllWords(ctx context.Context) ([]models.Word, error) {
	raw, err := c.cache.Get(ctx, catalogCacheKey).Bytes()
	if err == nil {
		var words []models.Word
		if jsonErr := json.Unmarshal(raw, &words); jsonErr == nil {
			return words, nil
		}
		c.log.Warn("discarding undecodable catalog snapshot")
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("catalog cache read failed", "error", err)
	}

	// The fill is shared by every waiting caller, so it must not die with the
	// first caller's request.
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(catalogCacheKey, func() (interface{}, error) {
		words, err := c.words.ListAllWords(fillCtx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(words); err == nil {
			if err := c.cache.Set(fillCtx, catalogCacheKey, data, c.ttl).Err(); err != nil {
				c.log.Warn("catalog cache write failed", "error", err)
			}
		}
		return words, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Word), nil
}

func (c *CachedWordRepo) ListUnseenWords(ctx context.Context, userID uuid.UUID, limit int) ([]models.Word, error) {
	return c.words.ListUnseenWords(ctx, userID, limit)
}

func (c *CachedWordRepo) GetWordsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Word, error) {
	all, err := c.ListAllWords(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]models.Word, 0, len(ids))
	for _, w := range all {
		if _, ok := want[w.ID]; ok {
			out = append(out, w)
			delete(want, w.ID)
		}
	}
	if len(want) == 0 {
		return out, nil
	}

	// The snapshot may predate recently ingested words.
	missing := make([]uuid.UUID, 0, len(want))
	for id := range want {
		missing = append(missing, id)
	}
	fresh, err := c.words.GetWordsByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		if err := c.Invalidate(ctx); err != nil {
			c.log.Warn("catalog cache invalidate failed", "error", err)
		}
	}
	return append(out, fresh...), nil
}

// ListDistractors samples the database directly; the snapshot has no random order.
func (c *CachedWordRepo) ListDistractors(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Word, error) {
	return c.words.ListDistractors(ctx, excludeID, limit)
}

// Invalidate drops the cached snapshot.
func (c *CachedWordRepo) Invalidate(ctx context.Context) error {
	return c.cache.Del(ctx, catalogCacheKey).Err()
}
