package service

import (
	"context"
	"time"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// Locker elects the replica that runs a sweep. A nil unlock with nil error means someone else has it.
type Locker interface {
	TryLock(key string) (unlock func() error, err error)
}

// PriceUpdater is the sweep the task runs on every tick.
type PriceUpdater interface {
	UpdatePrices(ctx context.Context) (*model.RefreshReport, error)
}

// StartPriceRefreshTask runs the sweep every interval until ctx is done. locker may be nil for a single replica.
func StartPriceRefreshTask(ctx context.Context, updater PriceUpdater, locker Locker, lockKey string, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runRefreshOnce(ctx, updater, locker, lockKey)
			}
		}
	}()
}

// runRefreshOnce reports whether this replica ran the sweep.
func runRefreshOnce(ctx context.Context, updater PriceUpdater, locker Locker, lockKey string) bool {
	if locker != nil {
		unlock, err := locker.TryLock(lockKey)
		if err != nil {
			hlog.Warnf("price refresh: acquire lock %s failed: %v", lockKey, err)
			return false
		}
		if unlock == nil {
			return false
		}
		defer func() {
			if err := unlock(); err != nil {
				hlog.Warnf("price refresh: release lock %s failed: %v", lockKey, err)
			}
		}()
	}
	if _, err := updater.UpdatePrices(ctx); err != nil {
		hlog.Errorf("price refresh failed: %v", err)
	}
	return true
}
