package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"feedbackrelay/pkg/config"
	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/store"
	"feedbackrelay/pkg/telemetry"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
// Sweeps remove messages whose sent_time (Unix milliseconds) is older than
// the configured period, pruning threads left empty, matching what a live
// deleteMessage does.
func Start(ctx context.Context, cfg config.RetentionConfig, st *store.Store) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}
	if cfg.Period.Duration() <= 0 {
		return nil, fmt.Errorf("retention enabled but no period configured")
	}

	// map empty cron to default daily @02:00
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", cfg.Period.Duration().String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cfg, st, cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick for the cron expression with gronx
// and sleeps until then.
func runScheduler(ctx context.Context, cfg config.RetentionConfig, st *store.Store, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			RunOnce(cfg, st)
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep. Exported so admin tooling and tests can
// trigger a run outside the scheduler.
func RunOnce(cfg config.RetentionConfig, st *store.Store) int {
	cutoff := time.Now().Add(-cfg.Period.Duration()).UnixMilli()
	if cfg.DryRun {
		would := countOlder(st, cutoff)
		logger.Info("retention_dry_run", "cutoff_ms", cutoff, "would_remove", would)
		return 0
	}
	removed := st.Sweep(cutoff)
	if removed > 0 {
		telemetry.RetentionDeleted(removed)
	}
	logger.Info("retention_run_complete", "cutoff_ms", cutoff, "removed", removed)
	return removed
}

func countOlder(st *store.Store, cutoff int64) int {
	n := 0
	for _, id := range st.UserIDs() {
		var uid int
		if _, err := fmt.Sscanf(id, "%d", &uid); err != nil {
			continue
		}
		for _, m := range st.Messages(uid) {
			if m.SentTime < cutoff {
				n++
			}
		}
	}
	return n
}
