package binance

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"futures-bot/internal/config"
	"futures-bot/internal/core"
)

// Client adapts the go-binance futures SDK to the exchange.Client interface.
// HTTP transport, request signing and timestamps are the SDK's job; this
// layer translates parameters and classifies errors.
type Client struct {
	api *futures.Client

	mu          sync.Mutex
	symbolCache map[string]core.SymbolInfo
}

type Options struct {
	APIKey         string
	APISecret      string
	Testnet        bool
	BaseURL        string
	HTTPTimeoutSec int64
}

func NewClient(cfg config.ExchangeConfig) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("api_key/api_secret required")
	}
	return NewClientWithOptions(Options{
		APIKey:         cfg.APIKey,
		APISecret:      cfg.APISecret,
		Testnet:        cfg.IsTestnet(),
		BaseURL:        cfg.BaseURL,
		HTTPTimeoutSec: cfg.HTTPTimeoutSec,
	}), nil
}

// NewClientWithOptions builds the SDK client. It writes the SDK's
// package-level testnet switch, so constructing clients concurrently with
// differing Testnet values is not safe.
func NewClientWithOptions(opts Options) *Client {
	// The SDK reads this package-level switch when resolving its endpoint.
	futures.UseTestnet = opts.Testnet
	api := futures.NewClient(opts.APIKey, opts.APISecret)
	if opts.BaseURL != "" {
		api.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := 15 * time.Second
	if opts.HTTPTimeoutSec > 0 {
		timeout = time.Duration(opts.HTTPTimeoutSec) * time.Second
	}
	api.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:         api,
		symbolCache: make(map[string]core.SymbolInfo),
	}
}

func (c *Client) Name() string { return "binance-futures" }

func (c *Client) Ping(ctx context.Context) error {
	return classifyError(c.api.NewPingService().Do(ctx))
}

func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	ms, err := c.api.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, classifyError(err)
	}
	return time.UnixMilli(ms), nil
}

func (c *Client) PlaceOrder(ctx context.Context, req core.OrderRequest) (core.OrderResult, error) {
	for _, key := range []string{"symbol", "side", "type", "quantity"} {
		if req[key] == "" {
			return core.OrderResult{}, errors.New(key + " required")
		}
	}
	svc := c.api.NewCreateOrderService().
		Symbol(req["symbol"]).
		Side(futures.SideType(req["side"])).
		Type(futures.OrderType(req["type"])).
		Quantity(req["quantity"])
	if v, ok := req["price"]; ok {
		svc = svc.Price(v)
	}
	if v, ok := req["stopPrice"]; ok {
		svc = svc.StopPrice(v)
	}
	if v, ok := req["timeInForce"]; ok {
		svc = svc.TimeInForce(futures.TimeInForceType(v))
	}
	if v, ok := req["newClientOrderId"]; ok {
		svc = svc.NewClientOrderID(v)
	}
	resp, err := svc.Do(ctx)
	if err != nil {
		return core.OrderResult{}, classifyError(err)
	}
	return orderResultFromCreate(resp), nil
}

func (c *Client) OrderStatus(ctx context.Context, symbol string, orderID int64) (core.OrderResult, error) {
	if symbol == "" {
		return core.OrderResult{}, errors.New("symbol required")
	}
	if orderID <= 0 {
		return core.OrderResult{}, errors.New("orderID required")
	}
	ord, err := c.api.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return core.OrderResult{}, classifyError(err)
	}
	return orderResultFromOrder(ord), nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) (core.OrderResult, error) {
	if symbol == "" {
		return core.OrderResult{}, errors.New("symbol required")
	}
	if orderID <= 0 {
		return core.OrderResult{}, errors.New("orderID required")
	}
	resp, err := c.api.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return core.OrderResult{}, classifyError(err)
	}
	return orderResultFromCancel(resp), nil
}

func (c *Client) AccountBalance(ctx context.Context) (core.AccountBalance, error) {
	acct, err := c.api.NewGetAccountService().Do(ctx)
	if err != nil {
		return core.AccountBalance{}, classifyError(err)
	}
	return accountBalanceFromAccount(acct), nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (core.SymbolInfo, error) {
	if symbol == "" {
		return core.SymbolInfo{}, errors.New("symbol required")
	}
	symbol = strings.ToUpper(symbol)

	c.mu.Lock()
	if info, ok := c.symbolCache[symbol]; ok {
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	resp, err := c.api.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return core.SymbolInfo{}, classifyError(err)
	}
	for _, s := range resp.Symbols {
		if s.Symbol != symbol {
			continue
		}
		info := symbolInfoFromExchangeInfo(s)
		c.mu.Lock()
		c.symbolCache[symbol] = info
		c.mu.Unlock()
		return info, nil
	}
	return core.SymbolInfo{}, core.ErrSymbolNotFound
}
