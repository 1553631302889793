package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"portfolio-ledger/biz/dal/pg"
	"portfolio-ledger/biz/errno"
	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// PriceRefresher revalues every open position against the oracle. It runs outside the mutation
// transactions and only writes display fields, never quantity or average price.
type PriceRefresher struct {
	db        *gorm.DB
	oracle    PriceOracle
	pool      *ants.Pool
	batchSize int
	opts      options
}

func NewPriceRefresher(db *gorm.DB, oracle PriceOracle, workers, batchSize int, opts ...Option) (*PriceRefresher, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: price refresher needs an oracle", errno.ErrInvalidArgument)
	}
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &PriceRefresher{
		db:        db,
		oracle:    oracle,
		pool:      pool,
		batchSize: batchSize,
		opts:      buildOptions(opts),
	}, nil
}

// Release stops the worker pool.
func (r *PriceRefresher) Release() {
	r.pool.Release()
}

// UpdatePrices is best effort: a symbol without a price, or whose update fails, is logged and skipped.
// Only failing to list the open symbols fails the sweep.
func (r *PriceRefresher) UpdatePrices(ctx context.Context) (*model.RefreshReport, error) {
	symbols, err := pg.ListOpenSymbols(r.db.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list open symbols: %w", err)
	}
	report := &model.RefreshReport{Symbols: len(symbols)}
	if len(symbols) == 0 {
		return report, nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	skip := func(sym string, reason error) {
		hlog.CtxWarnf(ctx, "[PriceRefresher] skip %s: %v", sym, reason)
		mu.Lock()
		report.Skipped = append(report.Skipped, sym)
		mu.Unlock()
	}

	for start := 0; start < len(symbols); start += r.batchSize {
		end := start + r.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			updated := r.refreshBatch(ctx, batch, skip)
			mu.Lock()
			report.Updated += updated
			mu.Unlock()
		}
		if err := r.pool.Submit(task); err != nil {
			wg.Done()
			for _, sym := range batch {
				skip(sym, err)
			}
		}
	}
	wg.Wait()

	sort.Strings(report.Skipped)
	hlog.CtxInfof(ctx, "[PriceRefresher] symbols=%d updated_rows=%d skipped=%d",
		report.Symbols, report.Updated, len(report.Skipped))
	return report, nil
}

func (r *PriceRefresher) refreshBatch(ctx context.Context, batch []string, skip func(string, error)) int64 {
	quotes, err := r.oracle.GetPrices(ctx, batch)
	if err != nil {
		for _, sym := range batch {
			skip(sym, fmt.Errorf("%w: %v", errno.ErrPriceUnavailable, err))
		}
		return 0
	}
	var updated int64
	now := r.opts.now()
	for _, sym := range batch {
		q, ok := quotes[sym]
		if !ok || !q.Price.IsPositive() {
			skip(sym, errno.ErrPriceUnavailable)
			continue
		}
		n, err := pg.RevalueSymbol(r.db.WithContext(ctx), sym, q.Price, now)
		if err != nil {
			skip(sym, err)
			continue
		}
		updated += n
	}
	return updated
}
