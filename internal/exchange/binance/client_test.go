package binance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"futures-bot/internal/core"
)

func newTestClient(srvURL string) *Client {
	return NewClientWithOptions(Options{APIKey: "test-key", APISecret: "test-secret", BaseURL: srvURL})
}

func buildRequest(t *testing.T, intent core.OrderIntent) core.OrderRequest {
	t.Helper()
	req, err := core.BuildOrderRequest(intent, core.GTC)
	if err != nil {
		t.Fatalf("BuildOrderRequest() error = %v", err)
	}
	return req
}

func TestPlaceOrderMarketSendsNoPrice(t *testing.T) {
	var calls int32
	var seenForm url.Values
	var seenAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/order") || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&calls, 1)
		seenAPIKey = r.Header.Get("X-MBX-APIKEY")
		body, _ := io.ReadAll(r.Body)
		seenForm, _ = url.ParseQuery(string(body))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId":       101,
			"symbol":        "BTCUSDT",
			"status":        "NEW",
			"clientOrderId": "c-101",
			"price":         "0",
			"avgPrice":      "0.00000",
			"origQty":       "0.001",
			"executedQty":   "0",
			"type":          "MARKET",
			"side":          "BUY",
			"updateTime":    1700000000000,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	req := buildRequest(t, core.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     core.Buy,
		Type:     core.Market,
		Quantity: decimal.RequireFromString("0.001"),
	})

	got, err := c.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if got.OrderID != 101 {
		t.Fatalf("order id = %d, want 101", got.OrderID)
	}
	if got.Status != core.OrderNew {
		t.Fatalf("status = %s, want NEW", got.Status)
	}
	if seenAPIKey != "test-key" {
		t.Fatalf("X-MBX-APIKEY = %q, want test-key", seenAPIKey)
	}
	if seenForm.Get("type") != "MARKET" || seenForm.Get("quantity") != "0.001" {
		t.Fatalf("unexpected form: %v", seenForm)
	}
	if seenForm.Has("price") || seenForm.Has("stopPrice") || seenForm.Has("timeInForce") {
		t.Fatalf("market order leaked price fields: %v", seenForm)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestPlaceOrderStopLimitSendsStopFields(t *testing.T) {
	var seenForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seenForm, _ = url.ParseQuery(string(body))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId":     202,
			"symbol":      "BTCUSDT",
			"status":      "NEW",
			"type":        "STOP",
			"side":        "SELL",
			"price":       "49000",
			"stopPrice":   "50000",
			"origQty":     "0.002",
			"executedQty": "0",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	req := buildRequest(t, core.OrderIntent{
		Symbol:    "BTCUSDT",
		Side:      core.Sell,
		Type:      core.StopLimit,
		Quantity:  decimal.RequireFromString("0.002"),
		Price:     decimal.RequireFromString("49000"),
		StopPrice: decimal.RequireFromString("50000"),
	})

	got, err := c.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if seenForm.Get("type") != "STOP" {
		t.Fatalf("type = %q, want STOP", seenForm.Get("type"))
	}
	if seenForm.Get("price") != "49000" || seenForm.Get("stopPrice") != "50000" {
		t.Fatalf("price/stopPrice = %q/%q, want 49000/50000", seenForm.Get("price"), seenForm.Get("stopPrice"))
	}
	if seenForm.Get("timeInForce") != "GTC" {
		t.Fatalf("timeInForce = %q, want GTC", seenForm.Get("timeInForce"))
	}
	if !got.StopPrice.Equal(decimal.RequireFromString("50000")) {
		t.Fatalf("result stop price = %s, want 50000", got.StopPrice)
	}
}

func TestPlaceOrderRejectionClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2019,"msg":"Margin is insufficient."}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	req := buildRequest(t, core.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     core.Buy,
		Type:     core.Limit,
		Quantity: decimal.RequireFromString("10"),
		Price:    decimal.RequireFromString("50000"),
	})

	_, err := c.PlaceOrder(context.Background(), req)
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("PlaceOrder() error = %v, want insufficient balance", err)
	}
	if !errors.Is(err, core.ErrOrderRejected) {
		t.Fatalf("PlaceOrder() error = %v, want rejection kind", err)
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("AsAPIError() = false, want verbatim api error")
	}
	if apiErr.Code != -2019 || apiErr.Message != "Margin is insufficient." {
		t.Fatalf("api error = %d %q, want -2019 verbatim message", apiErr.Code, apiErr.Message)
	}
}

func TestOrderStatusAndCancel(t *testing.T) {
	var getCalls, deleteCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/order") {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&getCalls, 1)
			if r.URL.Query().Get("orderId") != "987" {
				t.Errorf("orderId = %q, want 987", r.URL.Query().Get("orderId"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"orderId":     987,
				"symbol":      "BTCUSDT",
				"status":      "FILLED",
				"price":       "50000",
				"avgPrice":    "49998.5",
				"origQty":     "0.001",
				"executedQty": "0.001",
				"type":        "LIMIT",
				"side":        "BUY",
				"time":        1700000000000,
				"updateTime":  1700000050000,
			})
		case http.MethodDelete:
			atomic.AddInt32(&deleteCalls, 1)
			body, _ := io.ReadAll(r.Body)
			form, _ := url.ParseQuery(string(body))
			if form.Get("orderId") != "987" {
				t.Errorf("cancel orderId = %q, want 987", form.Get("orderId"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"orderId":     987,
				"symbol":      "BTCUSDT",
				"status":      "CANCELED",
				"price":       "50000",
				"origQty":     "0.001",
				"executedQty": "0",
				"type":        "LIMIT",
				"side":        "BUY",
				"updateTime":  1700000099000,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	status, err := c.OrderStatus(context.Background(), "BTCUSDT", 987)
	if err != nil {
		t.Fatalf("OrderStatus() error = %v", err)
	}
	if status.Status != core.OrderFilled {
		t.Fatalf("status = %s, want FILLED", status.Status)
	}
	if !status.AvgPrice.Equal(decimal.RequireFromString("49998.5")) {
		t.Fatalf("avg price = %s, want 49998.5", status.AvgPrice)
	}
	if status.UpdatedAt.UnixMilli() != 1700000050000 {
		t.Fatalf("updated at = %d, want 1700000050000", status.UpdatedAt.UnixMilli())
	}

	canceled, err := c.CancelOrder(context.Background(), "BTCUSDT", 987)
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if canceled.Status != core.OrderCanceled {
		t.Fatalf("cancel status = %s, want CANCELED", canceled.Status)
	}
	if atomic.LoadInt32(&getCalls) != 1 || atomic.LoadInt32(&deleteCalls) != 1 {
		t.Fatalf("calls get/delete = %d/%d, want 1/1", getCalls, deleteCalls)
	}
}

func TestOrderStatusRequiresArguments(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	if _, err := c.OrderStatus(context.Background(), "", 1); err == nil {
		t.Fatalf("OrderStatus(no symbol) error = nil, want error")
	}
	if _, err := c.OrderStatus(context.Background(), "BTCUSDT", 0); err == nil {
		t.Fatalf("OrderStatus(no id) error = nil, want error")
	}
	if _, err := c.CancelOrder(context.Background(), "", 1); err == nil {
		t.Fatalf("CancelOrder(no symbol) error = nil, want error")
	}
}

func TestAccountBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/account") || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalWalletBalance":    "15000.50",
			"totalUnrealizedProfit": "25.10",
			"availableBalance":      "14500.00",
			"assets": []map[string]any{
				{"asset": "USDT", "walletBalance": "15000.50", "availableBalance": "14500.00"},
				{"asset": "BNB", "walletBalance": "0.00000000", "availableBalance": "0.00000000"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.AccountBalance(context.Background())
	if err != nil {
		t.Fatalf("AccountBalance() error = %v", err)
	}
	if !got.TotalWalletBalance.Equal(decimal.RequireFromString("15000.50")) {
		t.Fatalf("total wallet = %s, want 15000.50", got.TotalWalletBalance)
	}
	if len(got.Assets) != 1 || got.Assets[0].Asset != "USDT" {
		t.Fatalf("assets = %+v, want single USDT entry", got.Assets)
	}
}

func TestSymbolInfoCachesExchangeInfo(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/exchangeInfo") {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"symbols": []map[string]any{
				{
					"symbol":            "BTCUSDT",
					"status":            "TRADING",
					"baseAsset":         "BTC",
					"quoteAsset":        "USDT",
					"pricePrecision":    2,
					"quantityPrecision": 3,
					"filters": []map[string]any{
						{"filterType": "LOT_SIZE", "minQty": "0.001", "stepSize": "0.001"},
						{"filterType": "PRICE_FILTER", "tickSize": "0.10"},
						{"filterType": "MIN_NOTIONAL", "notional": "100"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	info, err := c.SymbolInfo(context.Background(), "btcusdt")
	if err != nil {
		t.Fatalf("SymbolInfo() error = %v", err)
	}
	if !info.StepSize.Equal(decimal.RequireFromString("0.001")) {
		t.Fatalf("step size = %s, want 0.001", info.StepSize)
	}

	if _, err := c.SymbolInfo(context.Background(), "BTCUSDT"); err != nil {
		t.Fatalf("SymbolInfo() cached error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("exchangeInfo calls = %d, want 1 (second lookup cached)", calls)
	}

	if _, err := c.SymbolInfo(context.Background(), "NOPEUSDT"); !errors.Is(err, core.ErrSymbolNotFound) {
		t.Fatalf("SymbolInfo(unknown) error = %v, want %v", err, core.ErrSymbolNotFound)
	}
}

func TestPingClassifiesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL)
	err := c.Ping(context.Background())
	if !errors.Is(err, core.ErrTransport) {
		t.Fatalf("Ping() error = %v, want transport", err)
	}
}

func TestServerTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/time") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"serverTime": 1700000000000})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	at, err := c.ServerTime(context.Background())
	if err != nil {
		t.Fatalf("ServerTime() error = %v", err)
	}
	if at.UnixMilli() != 1700000000000 {
		t.Fatalf("server time = %d, want 1700000000000", at.UnixMilli())
	}
}
