// Package market talks to the market-data service that supplies current prices.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/shopspring/decimal"
)

type Client struct {
	cli     *client.Client
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	cli, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		cli:     cli,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}, nil
}

type priceItem struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"` // unix millis
}

type pricesResponse struct {
	Prices []priceItem `json:"prices"`
}

// GetPrices asks for all symbols in one request. Symbols the service does not know are simply absent.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()
	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.baseURL + "/api/prices?symbols=" + url.QueryEscape(strings.Join(symbols, ",")))

	if err := c.cli.DoTimeout(ctx, req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("market prices: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return nil, fmt.Errorf("market prices: unexpected status %d", resp.StatusCode())
	}
	var body pricesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("market prices: decode: %w", err)
	}
	for _, p := range body.Prices {
		if p.Symbol == "" || !p.Price.IsPositive() {
			continue
		}
		ts := time.Now().UTC()
		if p.Timestamp > 0 {
			ts = time.UnixMilli(p.Timestamp).UTC()
		}
		out[p.Symbol] = model.Quote{Symbol: p.Symbol, Price: p.Price, Timestamp: ts}
	}
	return out, nil
}

// GetPrice returns nil without error when the symbol has no price.
func (c *Client) GetPrice(ctx context.Context, symbol string) (*model.Quote, error) {
	quotes, err := c.GetPrices(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return nil, nil
	}
	return &q, nil
}
