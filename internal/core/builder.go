package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Order type vocabulary of the futures order endpoint. A stop-limit order is
// named STOP there; MARKET and LIMIT match the user vocabulary.
const (
	wireMarket = "MARKET"
	wireLimit  = "LIMIT"
	wireStop   = "STOP"
)

// BuildOrderRequest translates an OrderIntent into the flat parameter set
// for the exchange order endpoint. It is pure: no I/O, no mutation of the
// intent, and the same inputs always yield the same request. Quantity and
// prices pass through with the precision the caller supplied; exchange
// filters (tick size, step size, min notional) are not applied here.
func BuildOrderRequest(intent OrderIntent, defaultTIF TimeInForce) (OrderRequest, error) {
	symbol := strings.ToUpper(strings.TrimSpace(intent.Symbol))
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Reason: "missing symbol"}
	}
	switch intent.Side {
	case Buy, Sell:
	default:
		return nil, &ValidationError{Field: "side", Reason: "invalid side"}
	}
	switch intent.Type {
	case Market, Limit, StopLimit:
	default:
		return nil, &ValidationError{Field: "type", Reason: "invalid order type"}
	}
	if intent.Quantity.Sign() <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "invalid quantity"}
	}

	req := OrderRequest{
		"symbol":   symbol,
		"side":     string(intent.Side),
		"quantity": formatDecimal(intent.Quantity),
	}

	switch intent.Type {
	case Market:
		// Market orders execute at whatever the book gives; a price here is
		// a mistaken intent, not something to drop silently.
		if intent.Price.Sign() != 0 {
			return nil, &ValidationError{Field: "price", Reason: "price not allowed for market order"}
		}
		if intent.StopPrice.Sign() != 0 {
			return nil, &ValidationError{Field: "stopPrice", Reason: "stop price not allowed for market order"}
		}
		req["type"] = wireMarket
	case Limit:
		if intent.Price.Sign() <= 0 {
			return nil, &ValidationError{Field: "price", Reason: "missing price"}
		}
		tif, err := resolveTIF(intent.TimeInForce, defaultTIF)
		if err != nil {
			return nil, err
		}
		req["type"] = wireLimit
		req["price"] = formatDecimal(intent.Price)
		req["timeInForce"] = string(tif)
	case StopLimit:
		if intent.Price.Sign() <= 0 {
			return nil, &ValidationError{Field: "price", Reason: "missing price"}
		}
		if intent.StopPrice.Sign() <= 0 {
			return nil, &ValidationError{Field: "stopPrice", Reason: "missing stop price"}
		}
		tif, err := resolveTIF(intent.TimeInForce, defaultTIF)
		if err != nil {
			return nil, err
		}
		req["type"] = wireStop
		req["price"] = formatDecimal(intent.Price)
		req["stopPrice"] = formatDecimal(intent.StopPrice)
		req["timeInForce"] = string(tif)
	}

	if intent.ClientID != "" {
		req["newClientOrderId"] = intent.ClientID
	}
	return req, nil
}

// formatDecimal renders d at the scale it was parsed with, trailing zeros
// included. Decimal.String would trim them.
func formatDecimal(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}

func resolveTIF(tif, fallback TimeInForce) (TimeInForce, error) {
	if tif == "" {
		tif = fallback
	}
	switch tif {
	case GTC, IOC, FOK, GTX:
		return tif, nil
	case "":
		return "", &ValidationError{Field: "timeInForce", Reason: "missing time in force"}
	default:
		return "", &ValidationError{Field: "timeInForce", Reason: "invalid time in force"}
	}
}
