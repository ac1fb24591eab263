// Package crawl is the crawl coordinator (spec component E): per-tenant and
// per-product mutual exclusion around a two-phase fetch/persist pipeline.
package crawl

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"marketguard/internal/alertengine"
	"marketguard/internal/config"
	"marketguard/internal/marketplace"
	"marketguard/internal/store"
)

// Coordinator owns the mutex maps guarding concurrent crawl runs and wires
// together the marketplace client, store, and alert engine for one
// fetch/persist pipeline invocation.
type Coordinator struct {
	store  *store.Store
	client *marketplace.Client
	alerts *alertengine.Engine
	cfg    *config.Config
	log    *zap.Logger

	mu           sync.Mutex
	tenantLocks  map[int64]*sync.Mutex
	productLocks map[int64]*sync.Mutex
}

func NewCoordinator(st *store.Store, client *marketplace.Client, alerts *alertengine.Engine, cfg *config.Config, log *zap.Logger) *Coordinator {
	return &Coordinator{
		store:        st,
		client:       client,
		alerts:       alerts,
		cfg:          cfg,
		log:          log,
		tenantLocks:  make(map[int64]*sync.Mutex),
		productLocks: make(map[int64]*sync.Mutex),
	}
}

// tryLockTenant acquires the tenant-scoped mutex, lazily creating it. Entries
// are never evicted; the map is bounded by the number of tenants that have
// ever run a crawl.
func (c *Coordinator) tryLockTenant(tenantID int64) (*sync.Mutex, bool) {
	c.mu.Lock()
	lock, ok := c.tenantLocks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		c.tenantLocks[tenantID] = lock
	}
	c.mu.Unlock()
	return lock, lock.TryLock()
}

func (c *Coordinator) tryLockProduct(productID int64) (*sync.Mutex, bool) {
	c.mu.Lock()
	lock, ok := c.productLocks[productID]
	if !ok {
		lock = &sync.Mutex{}
		c.productLocks[productID] = lock
	}
	c.mu.Unlock()
	return lock, lock.TryLock()
}

func (c *Coordinator) jitter() time.Duration {
	min := c.cfg.RequestDelayMin
	max := c.cfg.RequestDelayMax
	if max <= min {
		return min
	}
	span := int64(max - min)
	return min + time.Duration(rand.Int63n(span))
}
