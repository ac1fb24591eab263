package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketguard/internal/config"
	"marketguard/internal/store"
)

const retentionInterval = 24 * time.Hour

// Retention periodically deletes rankings and crawl_logs older than
// cfg.DataRetentionDays, in batches of cfg.CleanupBatchSize so a large
// backlog never holds a single long transaction against the one-writer
// SQLite connection.
type Retention struct {
	store *store.Store
	cfg   *config.Config
	log   *zap.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewRetention(st *store.Store, cfg *config.Config, log *zap.Logger) *Retention {
	return &Retention{
		store:  st,
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (r *Retention) Run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Retention) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *Retention) sweep(ctx context.Context) {
	if r.cfg.DataRetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -r.cfg.DataRetentionDays)
	batch := r.cfg.CleanupBatchSize
	if batch <= 0 {
		batch = 500
	}

	rankingsDeleted := r.drain(ctx, "rankings", func() (int64, error) {
		return r.store.DeleteOldRankings(ctx, cutoff, batch)
	}, batch)
	logsDeleted := r.drain(ctx, "crawl_logs", func() (int64, error) {
		return r.store.DeleteOldCrawlLogs(ctx, cutoff, batch)
	}, batch)

	if rankingsDeleted > 0 || logsDeleted > 0 {
		r.log.Info("scheduler: retention sweep complete",
			zap.Int64("rankings_deleted", rankingsDeleted), zap.Int64("crawl_logs_deleted", logsDeleted))
	}
}

// drain repeatedly calls del until a batch affects fewer rows than the
// requested limit, which is how it knows the backlog is exhausted.
func (r *Retention) drain(ctx context.Context, label string, del func() (int64, error), batch int) int64 {
	var total int64
	for {
		select {
		case <-ctx.Done():
			return total
		default:
		}

		n, err := del()
		if err != nil {
			r.log.Warn("scheduler: retention batch failed", zap.String("table", label), zap.Error(err))
			return total
		}
		total += n
		if n < int64(batch) {
			return total
		}
	}
}
