package service

import (
	"context"
	"time"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/shopspring/decimal"
)

// PriceOracle supplies market prices. A missing symbol is not an error: GetPrice returns nil and GetPrices
// leaves the key out.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (*model.Quote, error)
	GetPrices(ctx context.Context, symbols []string) (map[string]model.Quote, error)
}

// StaticOracle serves a fixed price table.
type StaticOracle map[string]decimal.Decimal

func (o StaticOracle) GetPrice(_ context.Context, symbol string) (*model.Quote, error) {
	p, ok := o[symbol]
	if !ok {
		return nil, nil
	}
	return &model.Quote{Symbol: symbol, Price: p, Timestamp: time.Now().UTC()}, nil
}

func (o StaticOracle) GetPrices(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	for _, s := range symbols {
		if q, _ := o.GetPrice(ctx, s); q != nil {
			out[s] = *q
		}
	}
	return out, nil
}

// QuoteCache is a shared store of recent quotes.
type QuoteCache interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error)
	SetQuotes(ctx context.Context, quotes []model.Quote, ttl time.Duration) error
}

// CachedOracle reads through a QuoteCache to an upstream oracle. Cache failures degrade to upstream calls.
type CachedOracle struct {
	upstream PriceOracle
	cache    QuoteCache
	ttl      time.Duration
}

func NewCachedOracle(upstream PriceOracle, cache QuoteCache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{upstream: upstream, cache: cache, ttl: ttl}
}

func (o *CachedOracle) GetPrice(ctx context.Context, symbol string) (*model.Quote, error) {
	quotes, err := o.GetPrices(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (o *CachedOracle) GetPrices(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out, err := o.cache.GetQuotes(ctx, symbols)
	if err != nil {
		hlog.CtxWarnf(ctx, "[CachedOracle] cache read failed, going upstream: %v", err)
		out = make(map[string]model.Quote, len(symbols))
	}
	var missing []string
	for _, s := range symbols {
		if _, ok := out[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	fresh, err := o.upstream.GetPrices(ctx, missing)
	if err != nil {
		if len(out) > 0 {
			hlog.CtxWarnf(ctx, "[CachedOracle] upstream failed for %d symbols, serving cached subset: %v", len(missing), err)
			return out, nil
		}
		return nil, err
	}
	toCache := make([]model.Quote, 0, len(fresh))
	for s, q := range fresh {
		out[s] = q
		toCache = append(toCache, q)
	}
	if err := o.cache.SetQuotes(ctx, toCache, o.ttl); err != nil {
		hlog.CtxWarnf(ctx, "[CachedOracle] cache write failed: %v", err)
	}
	return out, nil
}
