package exchange

import (
	"context"
	"time"

	"futures-bot/internal/core"
)

type Client interface {
	Name() string
	Ping(ctx context.Context) error
	ServerTime(ctx context.Context) (time.Time, error)
	PlaceOrder(ctx context.Context, req core.OrderRequest) (core.OrderResult, error)
	OrderStatus(ctx context.Context, symbol string, orderID int64) (core.OrderResult, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) (core.OrderResult, error)
	AccountBalance(ctx context.Context) (core.AccountBalance, error)
	SymbolInfo(ctx context.Context, symbol string) (core.SymbolInfo, error)
}
