package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type OrderType string

type OrderStatus string

type TimeInForce string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

const (
	Market    OrderType = "MARKET"
	Limit     OrderType = "LIMIT"
	StopLimit OrderType = "STOP_LIMIT"
)

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
	GTX TimeInForce = "GTX"
)

const (
	OrderNew             OrderStatus = "NEW"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCanceled        OrderStatus = "CANCELED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderExpired         OrderStatus = "EXPIRED"
)

// OrderIntent is an order in the user's vocabulary, before translation to
// exchange parameters. Zero Price/StopPrice mean the field was not provided;
// empty TimeInForce means the configured default applies.
type OrderIntent struct {
	Symbol      string
	Side        Side
	Type        OrderType
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
	ClientID    string
}

// OrderRequest is the flat parameter set for the exchange order endpoint.
// Keys are the exchange's own field names, values already stringified.
type OrderRequest map[string]string

// OrderResult reports an order as the exchange sees it. Type carries the
// exchange's own vocabulary (a stop-limit order comes back as "STOP").
type OrderResult struct {
	OrderID     int64
	ClientID    string
	Symbol      string
	Side        Side
	Type        string
	Status      OrderStatus
	Price       decimal.Decimal
	AvgPrice    decimal.Decimal
	OrigQty     decimal.Decimal
	ExecutedQty decimal.Decimal
	StopPrice   decimal.Decimal
	UpdatedAt   time.Time
}

type AssetBalance struct {
	Asset            string
	WalletBalance    decimal.Decimal
	AvailableBalance decimal.Decimal
}

type AccountBalance struct {
	TotalWalletBalance decimal.Decimal
	AvailableBalance   decimal.Decimal
	TotalUnrealizedPnL decimal.Decimal
	Assets             []AssetBalance
}

type SymbolInfo struct {
	Symbol            string
	Status            string
	BaseAsset         string
	QuoteAsset        string
	PricePrecision    int
	QuantityPrecision int
	TickSize          decimal.Decimal
	StepSize          decimal.Decimal
	MinQty            decimal.Decimal
	MinNotional       decimal.Decimal
}
