package keywordgen

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketguard/internal/store"
)

const dictionaryTTL = 24 * time.Hour

// DictionaryCache stores the DB-derived brand/type sets the classifier
// consults for a tenant. Implementations must honor a 24h TTL; readers may
// observe a stale version across a refresh.
type DictionaryCache interface {
	Get(ctx context.Context, tenantID int64) (brands, types map[string]struct{}, ok bool)
	Set(ctx context.Context, tenantID int64, brands, types map[string]struct{})
}

// Dictionary wraps a DictionaryCache with the store query that rebuilds it
// on a miss.
type Dictionary struct {
	cache DictionaryCache
	store *store.Store
	log   *zap.Logger
}

func NewDictionary(cache DictionaryCache, st *store.Store, log *zap.Logger) *Dictionary {
	return &Dictionary{cache: cache, store: st, log: log}
}

// Lookup returns the lowercased brand and type (category1-4) sets for a
// tenant, rebuilding from the store on a cache miss.
func (d *Dictionary) Lookup(ctx context.Context, tenantID int64) (brands, types map[string]struct{}) {
	if b, t, ok := d.cache.Get(ctx, tenantID); ok {
		return b, t
	}

	rawBrands, rawCategories, err := d.store.DistinctBrandsAndCategories(ctx, tenantID)
	if err != nil {
		d.log.Warn("dictionary rebuild failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return map[string]struct{}{}, map[string]struct{}{}
	}

	brands = toLowerSet(rawBrands)
	types = toLowerSet(rawCategories)
	d.cache.Set(ctx, tenantID, brands, types)
	d.log.Info("dictionary refreshed",
		zap.Int64("tenant_id", tenantID), zap.Int("brands", len(brands)), zap.Int("types", len(types)))
	return brands, types
}

func toLowerSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

// InMemoryCache is the default, single-node DictionaryCache: a sync.Map
// keyed by tenant id, each entry timestamped for TTL expiry.
type InMemoryCache struct {
	entries sync.Map // int64 -> dictEntry
}

type dictEntry struct {
	brands, types map[string]struct{}
	builtAt       time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{}
}

func (c *InMemoryCache) Get(_ context.Context, tenantID int64) (map[string]struct{}, map[string]struct{}, bool) {
	v, ok := c.entries.Load(tenantID)
	if !ok {
		return nil, nil, false
	}
	entry := v.(dictEntry)
	if time.Since(entry.builtAt) >= dictionaryTTL {
		return nil, nil, false
	}
	return entry.brands, entry.types, true
}

func (c *InMemoryCache) Set(_ context.Context, tenantID int64, brands, types map[string]struct{}) {
	c.entries.Store(tenantID, dictEntry{brands: brands, types: types, builtAt: time.Now()})
}

// RedisCache backs the dictionary with Redis, keeping it warm across
// process restarts for operators who already run Redis alongside the
// store.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

type redisPayload struct {
	Brands []string `json:"brands"`
	Types  []string `json:"types"`
}

func (c *RedisCache) Get(ctx context.Context, tenantID int64) (map[string]struct{}, map[string]struct{}, bool) {
	raw, err := c.client.Get(ctx, dictKey(tenantID)).Bytes()
	if err != nil {
		return nil, nil, false
	}
	var payload redisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, false
	}
	return toLowerSet(payload.Brands), toLowerSet(payload.Types), true
}

func (c *RedisCache) Set(ctx context.Context, tenantID int64, brands, types map[string]struct{}) {
	payload := redisPayload{Brands: setToSlice(brands), Types: setToSlice(types)}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.client.Set(ctx, dictKey(tenantID), raw, dictionaryTTL)
}

func dictKey(tenantID int64) string {
	return "marketguard:keyword-dict:" + strconv.FormatInt(tenantID, 10)
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
