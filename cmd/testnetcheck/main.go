package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"futures-bot/internal/bot"
	"futures-bot/internal/config"
	"futures-bot/internal/core"
	"futures-bot/internal/exchange/binance"
	"futures-bot/internal/logging"
)

type checkStatus string

const (
	statusPass checkStatus = "PASS"
	statusFail checkStatus = "FAIL"
)

const maxServerDrift = 5 * time.Second

type checkResult struct {
	Name       string      `json:"name"`
	Status     checkStatus `json:"status"`
	DurationMs int64       `json:"duration_ms"`
	Detail     string      `json:"detail,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Testnet    bool          `json:"testnet"`
	Symbol     string        `json:"symbol"`
	Checks     []checkResult `json:"checks"`
}

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		symbol     string
		timeoutSec int
		reportPath string
		orderCheck bool
		orderPrice string
		orderQty   string
	)
	flag.StringVar(&configPath, "config", "", "config yaml path (optional)")
	flag.StringVar(&symbol, "symbol", "BTCUSDT", "symbol used by the checks")
	flag.IntVar(&timeoutSec, "timeout-sec", 60, "total timeout seconds")
	flag.StringVar(&reportPath, "report", "", "optional JSON report path")
	flag.BoolVar(&orderCheck, "order", false, "run the place/status/cancel round trip")
	flag.StringVar(&orderPrice, "order-price", "10000", "limit price for the round trip, far below market so the order rests")
	flag.StringVar(&orderQty, "order-qty", "0.001", "quantity for the round trip")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fatal(err.Error())
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		fatal(err.Error())
	}
	if !cfg.Exchange.IsTestnet() {
		fatal("refusing to run against the live exchange; set exchange.testnet: true")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !config.IsValidSymbol(symbol) {
		fatal(fmt.Sprintf("invalid symbol %q", symbol))
	}

	if timeoutSec < 10 {
		timeoutSec = 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	// Console only, warnings and up: the check output below is the report.
	log, err := logging.New(logging.Config{Level: "warn"})
	if err != nil {
		fatal(err.Error())
	}
	client, err := binance.NewClient(cfg.Exchange)
	if err != nil {
		fatal(err.Error())
	}
	b := bot.New(client, log, bot.Options{
		TimeInForce: core.TimeInForce(cfg.Order.TimeInForce),
	})

	r := report{
		StartedAt: time.Now().UTC(),
		Testnet:   cfg.Exchange.IsTestnet(),
		Symbol:    symbol,
	}

	run := func(name string, fn func() (string, error)) {
		start := time.Now()
		detail, err := fn()
		cr := checkResult{
			Name:       name,
			DurationMs: time.Since(start).Milliseconds(),
			Detail:     detail,
		}
		if err != nil {
			cr.Status = statusFail
			cr.Error = err.Error()
		} else {
			cr.Status = statusPass
		}
		r.Checks = append(r.Checks, cr)
		if cr.Status == statusPass {
			fmt.Printf("[PASS] %s (%dms)", name, cr.DurationMs)
			if cr.Detail != "" {
				fmt.Printf(" - %s", cr.Detail)
			}
			fmt.Println()
		} else {
			fmt.Printf("[FAIL] %s (%dms) - %s\n", name, cr.DurationMs, cr.Error)
		}
	}

	run("rest_connectivity", func() (string, error) {
		if err := b.Ping(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("exchange=%s key=%s", client.Name(), config.MaskKey(cfg.Exchange.APIKey)), nil
	})

	run("server_time_drift", func() (string, error) {
		serverTime, err := client.ServerTime(ctx)
		if err != nil {
			return "", err
		}
		drift := time.Since(serverTime)
		if drift < 0 {
			drift = -drift
		}
		detail := fmt.Sprintf("server=%s drift=%s", serverTime.UTC().Format(time.RFC3339), drift.Round(time.Millisecond))
		if drift > maxServerDrift {
			return "", fmt.Errorf("clock drift %s exceeds %s; signed requests will fail", drift.Round(time.Millisecond), maxServerDrift)
		}
		return detail, nil
	})

	run("account_access", func() (string, error) {
		bal, err := b.AccountBalance(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("totalWallet=%s available=%s assets=%d", bal.TotalWalletBalance, bal.AvailableBalance, len(bal.Assets)), nil
	})

	var info core.SymbolInfo
	run("symbol_info", func() (string, error) {
		var err error
		info, err = b.SymbolInfo(ctx, symbol)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("status=%s pricePrecision=%d qtyPrecision=%d minQty=%s minNotional=%s",
			info.Status, info.PricePrecision, info.QuantityPrecision, info.MinQty, info.MinNotional), nil
	})

	var placedID int64
	if orderCheck {
		run("order_lifecycle_place_query_cancel", func() (string, error) {
			price, err := decimal.NewFromString(orderPrice)
			if err != nil {
				return "", fmt.Errorf("invalid -order-price %q", orderPrice)
			}
			qty, err := decimal.NewFromString(orderQty)
			if err != nil {
				return "", fmt.Errorf("invalid -order-qty %q", orderQty)
			}
			if info.MinNotional.Sign() > 0 && price.Mul(qty).Cmp(info.MinNotional) < 0 {
				return "", fmt.Errorf("notional %s below minimum %s; raise -order-qty or -order-price", price.Mul(qty), info.MinNotional)
			}

			placed, err := b.PlaceOrder(ctx, core.OrderIntent{
				Symbol:   symbol,
				Side:     core.Buy,
				Type:     core.Limit,
				Quantity: qty,
				Price:    price,
			})
			if err != nil {
				return "", err
			}
			if placed.OrderID == 0 {
				return "", errors.New("empty order id")
			}
			placedID = placed.OrderID

			query, err := b.OrderStatus(ctx, symbol, placed.OrderID)
			if err != nil {
				return "", err
			}
			status := query.Status

			switch query.Status {
			case core.OrderNew, core.OrderPartiallyFilled:
				canceled, err := b.CancelOrder(ctx, symbol, placed.OrderID)
				if err != nil {
					return "", fmt.Errorf("cancel order failed: %w", err)
				}
				placedID = 0
				status = canceled.Status
			case core.OrderFilled:
				// Unexpected for a far-below-market order but acceptable here.
				placedID = 0
			}

			return fmt.Sprintf("id=%d qty=%s price=%s status=%s", placed.OrderID, qty, price, status), nil
		})
	}

	// cleanup: if the round-trip order still rests, best-effort cancel
	if placedID != 0 {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 20*time.Second)
		_, _ = b.CancelOrder(cleanupCtx, symbol, placedID)
		cleanupCancel()
	}

	r.FinishedAt = time.Now().UTC()
	printSummary(r)

	if reportPath != "" {
		if err := writeReport(reportPath, r); err != nil {
			fatal(err.Error())
		}
		fmt.Printf("report written: %s\n", reportPath)
	}

	if _, fail := tally(r.Checks); fail > 0 {
		os.Exit(1)
	}
}

func tally(checks []checkResult) (pass, fail int) {
	for _, c := range checks {
		if c.Status == statusPass {
			pass++
		} else {
			fail++
		}
	}
	return pass, fail
}

func printSummary(r report) {
	pass, fail := tally(r.Checks)
	fmt.Printf("\nsummary testnet=%t symbol=%s pass=%d fail=%d duration=%s\n",
		r.Testnet,
		r.Symbol,
		pass,
		fail,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
	)
}

func writeReport(path string, r report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(msg))
	os.Exit(1)
}
