// Package bot is the single entry point for exchange interactions. Every
// operation writes one request entry and one response-or-error entry to the
// audit log, tied together by a correlation id, so a session can be
// reconstructed from the log alone. Credentials never reach this layer;
// they live inside the exchange client.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"futures-bot/internal/core"
	"futures-bot/internal/exchange"
)

type Options struct {
	// TimeInForce applies to limit and stop-limit intents that do not carry
	// their own. Empty means GTC.
	TimeInForce core.TimeInForce
}

type Bot struct {
	client exchange.Client
	log    *logrus.Logger
	tif    core.TimeInForce
}

func New(client exchange.Client, log *logrus.Logger, opts Options) *Bot {
	tif := opts.TimeInForce
	if tif == "" {
		tif = core.GTC
	}
	return &Bot{client: client, log: log, tif: tif}
}

// PlaceOrder builds the wire request from intent and submits it. A request
// that fails validation is logged and returned without touching the
// exchange.
func (b *Bot) PlaceOrder(ctx context.Context, intent core.OrderIntent) (core.OrderResult, error) {
	const op = "place_order"
	cid := uuid.NewString()

	req, err := core.BuildOrderRequest(intent, b.tif)
	if err != nil {
		// The log pair still completes: the rejected intent is the request.
		b.entry(cid, op).WithFields(logrus.Fields{
			"symbol":   intent.Symbol,
			"side":     intent.Side,
			"type":     intent.Type,
			"quantity": intent.Quantity,
		}).Info("API request")
		b.entry(cid, op).WithError(err).Error("API error")
		return core.OrderResult{}, fmt.Errorf("place order: %w", err)
	}

	b.entry(cid, op).WithField("params", req).Info("API request")
	res, err := b.client.PlaceOrder(ctx, req)
	if err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return core.OrderResult{}, fmt.Errorf("place order: %w", err)
	}
	b.entry(cid, op).WithFields(logrus.Fields{
		"order_id": res.OrderID,
		"status":   res.Status,
	}).Info("API response")
	return res, nil
}

func (b *Bot) OrderStatus(ctx context.Context, symbol string, orderID int64) (core.OrderResult, error) {
	const op = "order_status"
	cid := uuid.NewString()
	symbol = normalizeSymbol(symbol)

	b.entry(cid, op).WithFields(logrus.Fields{
		"symbol":   symbol,
		"order_id": orderID,
	}).Info("API request")
	if err := checkOrderRef(symbol, orderID); err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return core.OrderResult{}, fmt.Errorf("order status: %w", err)
	}

	res, err := b.client.OrderStatus(ctx, symbol, orderID)
	if err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return core.OrderResult{}, fmt.Errorf("order status: %w", err)
	}
	b.entry(cid, op).WithFields(logrus.Fields{
		"order_id": res.OrderID,
		"status":   res.Status,
	}).Info("API response")
	return res, nil
}

func (b *Bot) CancelOrder(ctx context.Context, symbol string, orderID int64) (core.OrderResult, error) {
	const op = "cancel_order"
	cid := uuid.NewString()
	symbol = normalizeSymbol(symbol)

	b.entry(cid, op).WithFields(logrus.Fields{
		"symbol":   symbol,
		"order_id": orderID,
	}).Info("API request")
	if err := checkOrderRef(symbol, orderID); err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return core.OrderResult{}, fmt.Errorf("cancel order: %w", err)
	}

	res, err := b.client.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return core.OrderResult{}, fmt.Errorf("cancel order: %w", err)
	}
	b.entry(cid, op).WithFields(logrus.Fields{
		"order_id": res.OrderID,
		"status":   res.Status,
	}).Info("API response")
	return res, nil
}

func (b *Bot) AccountBalance(ctx context.Context) (core.AccountBalance, error) {
	const op = "account_balance"
	cid := uuid.NewString()

	b.entry(cid, op).Info("API request")
	bal, err := b.client.AccountBalance(ctx)
	if err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return core.AccountBalance{}, fmt.Errorf("account balance: %w", err)
	}
	b.entry(cid, op).WithFields(logrus.Fields{
		"total_wallet_balance": bal.TotalWalletBalance,
		"assets":               len(bal.Assets),
	}).Info("API response")
	return bal, nil
}

func (b *Bot) SymbolInfo(ctx context.Context, symbol string) (core.SymbolInfo, error) {
	const op = "symbol_info"
	cid := uuid.NewString()
	symbol = normalizeSymbol(symbol)

	b.entry(cid, op).WithField("symbol", symbol).Info("API request")
	if symbol == "" {
		err := &core.ValidationError{Field: "symbol", Reason: "missing symbol"}
		b.entry(cid, op).WithError(err).Error("API error")
		return core.SymbolInfo{}, fmt.Errorf("symbol info: %w", err)
	}

	info, err := b.client.SymbolInfo(ctx, symbol)
	if err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return core.SymbolInfo{}, fmt.Errorf("symbol info: %w", err)
	}
	b.entry(cid, op).WithFields(logrus.Fields{
		"symbol": info.Symbol,
		"status": info.Status,
	}).Info("API response")
	return info, nil
}

// Ping checks connectivity, typically once at startup.
func (b *Bot) Ping(ctx context.Context) error {
	const op = "ping"
	cid := uuid.NewString()

	b.entry(cid, op).Info("API request")
	if err := b.client.Ping(ctx); err != nil {
		b.entry(cid, op).WithError(err).Error("API error")
		return fmt.Errorf("ping: %w", err)
	}
	b.entry(cid, op).WithField("exchange", b.client.Name()).Info("API response")
	return nil
}

func (b *Bot) entry(cid, op string) *logrus.Entry {
	return b.log.WithFields(logrus.Fields{
		"correlation_id": cid,
		"op":             op,
	})
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func checkOrderRef(symbol string, orderID int64) error {
	if symbol == "" {
		return &core.ValidationError{Field: "symbol", Reason: "missing symbol"}
	}
	if orderID <= 0 {
		return &core.ValidationError{Field: "orderId", Reason: "invalid order id"}
	}
	return nil
}
