// Package scheduler is the per-tenant crawl scheduler (spec component G):
// a single ticker periodically checks every tenant's due time and hands
// overdue tenants to the crawl coordinator. A tenant still mid-crawl when
// its next tick arrives is skipped, not queued, since the coordinator's own
// mutex already refuses concurrent crawls for the same tenant.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"marketguard/internal/config"
	"marketguard/internal/crawl"
	"marketguard/internal/store"
)

type Scheduler struct {
	store       *store.Store
	coordinator *crawl.Coordinator
	cfg         *config.Config
	log         *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func New(st *store.Store, coordinator *crawl.Coordinator, cfg *config.Config, log *zap.Logger) *Scheduler {
	return &Scheduler{
		store:       st,
		coordinator: coordinator,
		cfg:         cfg,
		log:         log,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Run blocks, ticking every cfg.SchedulerCheckInterval until Stop is
// called. Call it from a background goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.doneCh)

	interval := s.cfg.SchedulerCheckInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop signals Run to exit after its current tick's in-flight crawls have
// started (it does not wait for them to finish; the coordinator's mutexes
// let crawls outlive the scheduler tick that started them).
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *Scheduler) tick(ctx context.Context) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		s.log.Warn("scheduler: list tenants failed", zap.Error(err))
		return
	}

	now := time.Now()
	for _, t := range tenants {
		if t.CrawlIntervalMinutes <= 0 {
			continue
		}
		due, err := s.isDue(ctx, t.ID, t.CrawlIntervalMinutes, now)
		if err != nil {
			s.log.Warn("scheduler: due check failed", zap.Int64("tenant_id", t.ID), zap.Error(err))
			continue
		}
		if !due {
			continue
		}

		go func(tenantID int64) {
			summary, err := s.coordinator.CrawlTenant(ctx, tenantID)
			if err != nil {
				if err == crawl.ErrAlreadyRunning {
					s.log.Info("scheduler: tenant crawl already running, skipping tick", zap.Int64("tenant_id", tenantID))
					return
				}
				s.log.Warn("scheduler: tenant crawl failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
				return
			}
			s.log.Info("scheduler: tenant crawl complete",
				zap.Int64("tenant_id", tenantID),
				zap.Int("total", summary.Total), zap.Int("success", summary.Success), zap.Int("failed", summary.Failed))
		}(t.ID)
	}
}

func (s *Scheduler) isDue(ctx context.Context, tenantID int64, intervalMinutes int, now time.Time) (bool, error) {
	last, ok, err := s.store.LastCrawledAt(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return now.Sub(last) >= time.Duration(intervalMinutes)*time.Minute, nil
}
