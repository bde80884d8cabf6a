package binance

import (
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"futures-bot/internal/core"
)

func dec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

func orderResultFromCreate(resp *futures.CreateOrderResponse) core.OrderResult {
	out := core.OrderResult{
		OrderID:     resp.OrderID,
		ClientID:    resp.ClientOrderID,
		Symbol:      resp.Symbol,
		Side:        core.Side(resp.Side),
		Type:        string(resp.Type),
		Status:      core.OrderStatus(resp.Status),
		Price:       dec(resp.Price),
		AvgPrice:    dec(resp.AvgPrice),
		OrigQty:     dec(resp.OrigQuantity),
		ExecutedQty: dec(resp.ExecutedQuantity),
		StopPrice:   dec(resp.StopPrice),
	}
	if resp.UpdateTime > 0 {
		out.UpdatedAt = time.UnixMilli(resp.UpdateTime)
	}
	return out
}

func orderResultFromOrder(ord *futures.Order) core.OrderResult {
	out := core.OrderResult{
		OrderID:     ord.OrderID,
		ClientID:    ord.ClientOrderID,
		Symbol:      ord.Symbol,
		Side:        core.Side(ord.Side),
		Type:        string(ord.Type),
		Status:      core.OrderStatus(ord.Status),
		Price:       dec(ord.Price),
		AvgPrice:    dec(ord.AvgPrice),
		OrigQty:     dec(ord.OrigQuantity),
		ExecutedQty: dec(ord.ExecutedQuantity),
		StopPrice:   dec(ord.StopPrice),
	}
	switch {
	case ord.UpdateTime > 0:
		out.UpdatedAt = time.UnixMilli(ord.UpdateTime)
	case ord.Time > 0:
		out.UpdatedAt = time.UnixMilli(ord.Time)
	}
	return out
}

func orderResultFromCancel(resp *futures.CancelOrderResponse) core.OrderResult {
	out := core.OrderResult{
		OrderID:     resp.OrderID,
		ClientID:    resp.ClientOrderID,
		Symbol:      resp.Symbol,
		Side:        core.Side(resp.Side),
		Type:        string(resp.Type),
		Status:      core.OrderStatus(resp.Status),
		Price:       dec(resp.Price),
		OrigQty:     dec(resp.OrigQuantity),
		ExecutedQty: dec(resp.ExecutedQuantity),
		StopPrice:   dec(resp.StopPrice),
	}
	if resp.UpdateTime > 0 {
		out.UpdatedAt = time.UnixMilli(resp.UpdateTime)
	}
	return out
}

func accountBalanceFromAccount(acct *futures.Account) core.AccountBalance {
	out := core.AccountBalance{
		TotalWalletBalance: dec(acct.TotalWalletBalance),
		AvailableBalance:   dec(acct.AvailableBalance),
		TotalUnrealizedPnL: dec(acct.TotalUnrealizedProfit),
	}
	for _, a := range acct.Assets {
		wallet := dec(a.WalletBalance)
		if wallet.Sign() == 0 {
			continue
		}
		out.Assets = append(out.Assets, core.AssetBalance{
			Asset:            a.Asset,
			WalletBalance:    wallet,
			AvailableBalance: dec(a.AvailableBalance),
		})
	}
	return out
}

func filterDec(f map[string]interface{}, key string) decimal.Decimal {
	v, ok := f[key].(string)
	if !ok {
		return decimal.Zero
	}
	return dec(v)
}

func symbolInfoFromExchangeInfo(s futures.Symbol) core.SymbolInfo {
	info := core.SymbolInfo{
		Symbol:            s.Symbol,
		Status:            s.Status,
		BaseAsset:         s.BaseAsset,
		QuoteAsset:        s.QuoteAsset,
		PricePrecision:    s.PricePrecision,
		QuantityPrecision: s.QuantityPrecision,
	}
	for _, f := range s.Filters {
		switch f["filterType"] {
		case "LOT_SIZE":
			info.MinQty = filterDec(f, "minQty")
			info.StepSize = filterDec(f, "stepSize")
		case "PRICE_FILTER":
			info.TickSize = filterDec(f, "tickSize")
		case "MIN_NOTIONAL", "NOTIONAL":
			// Futures lists the minimum under "notional", spot under
			// "minNotional". If both appear, keep the stricter minimum.
			v := filterDec(f, "notional")
			if v.Sign() == 0 {
				v = filterDec(f, "minNotional")
			}
			if v.Cmp(info.MinNotional) > 0 {
				info.MinNotional = v
			}
		}
	}
	return info
}
