package redis

import (
	"context"
	"encoding/json"
	"time"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

const quoteKeyPrefix = "quote:"

// QuoteCache keeps the last known quote per symbol as JSON under "quote:<symbol>".
type QuoteCache struct {
	client redis.Cmdable
}

func NewQuoteCache(client redis.Cmdable) *QuoteCache {
	return &QuoteCache{client: client}
}

func quoteKey(symbol string) string {
	return quoteKeyPrefix + symbol
}

// GetQuotes returns the cached subset of symbols.
func (c *QuoteCache) GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = quoteKey(s)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var q model.Quote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			hlog.CtxWarnf(ctx, "drop corrupt cached quote, key=%s, err=%v", keys[i], err)
			continue
		}
		out[symbols[i]] = q
	}
	return out, nil
}

// SetQuotes writes quotes in one pipeline, each expiring after ttl.
func (c *QuoteCache) SetQuotes(ctx context.Context, quotes []model.Quote, ttl time.Duration) error {
	if len(quotes) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, q := range quotes {
		b, err := json.Marshal(q)
		if err != nil {
			return err
		}
		pipe.Set(ctx, quoteKey(q.Symbol), b, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
