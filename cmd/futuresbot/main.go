package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"futures-bot/internal/bot"
	"futures-bot/internal/config"
	"futures-bot/internal/core"
	"futures-bot/internal/exchange/binance"
	"futures-bot/internal/logging"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		apiKey     string
		apiSecret  string
		testnet    bool
		baseURL    string
		timeoutSec int64
		logFile    string
		logLevel   string

		symbol        string
		side          string
		orderType     string
		quantity      string
		price         string
		stopPrice     string
		tif           string
		clientOrderID string

		balance     bool
		statusID    int64
		cancelID    int64
		symbolInfo  bool
		interactive bool
	)

	flag.StringVar(&configPath, "config", "", "config yaml path (optional)")
	flag.StringVar(&apiKey, "api-key", os.Getenv("BINANCE_API_KEY"), "API key (default from BINANCE_API_KEY)")
	flag.StringVar(&apiSecret, "api-secret", os.Getenv("BINANCE_API_SECRET"), "API secret (default from BINANCE_API_SECRET)")
	flag.BoolVar(&testnet, "testnet", true, "use the futures testnet")
	flag.StringVar(&baseURL, "base-url", "", "override the REST endpoint")
	flag.Int64Var(&timeoutSec, "timeout", 0, "HTTP timeout in seconds (0 keeps the config value)")
	flag.StringVar(&logFile, "log-file", "", "log file path (empty string disables the file sink)")
	flag.StringVar(&logLevel, "log-level", "", "log level")

	flag.StringVar(&symbol, "symbol", "", "trading symbol, e.g. BTCUSDT")
	flag.StringVar(&side, "side", "", "order side: BUY or SELL")
	flag.StringVar(&orderType, "type", "MARKET", "order type: MARKET, LIMIT or STOP_LIMIT")
	flag.StringVar(&quantity, "quantity", "", "order quantity")
	flag.StringVar(&price, "price", "", "limit price")
	flag.StringVar(&stopPrice, "stop-price", "", "stop trigger price")
	flag.StringVar(&tif, "tif", "", "time in force for this order (GTC, IOC, FOK, GTX)")
	flag.StringVar(&clientOrderID, "client-order-id", "", "client order id")

	flag.BoolVar(&balance, "balance", false, "show the account balance")
	flag.Int64Var(&statusID, "status", 0, "query an order by id (requires -symbol)")
	flag.Int64Var(&cancelID, "cancel", 0, "cancel an order by id (requires -symbol)")
	flag.BoolVar(&symbolInfo, "symbol-info", false, "show symbol filters and precisions (requires -symbol)")
	flag.BoolVar(&interactive, "interactive", false, "run the interactive menu")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fatal(err.Error())
		}
		cfg = loaded
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if apiKey != "" {
		cfg.Exchange.APIKey = apiKey
	}
	if apiSecret != "" {
		cfg.Exchange.APISecret = apiSecret
	}
	if setFlags["testnet"] {
		cfg.Exchange.Testnet = &testnet
	}
	if setFlags["base-url"] {
		cfg.Exchange.BaseURL = baseURL
	}
	if setFlags["timeout"] {
		cfg.Exchange.HTTPTimeoutSec = timeoutSec
	}
	if setFlags["tif"] {
		cfg.Order.TimeInForce = strings.ToUpper(strings.TrimSpace(tif))
	}
	if setFlags["log-file"] {
		cfg.Log.File = &logFile
	}
	if setFlags["log-level"] {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fatalUsage(err.Error())
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol != "" && !config.IsValidSymbol(symbol) {
		fatalUsage(fmt.Sprintf("invalid symbol %q", symbol))
	}

	actionCount := 0
	for _, on := range []bool{interactive, balance, statusID != 0, cancelID != 0, symbolInfo} {
		if on {
			actionCount++
		}
	}
	if actionCount > 1 {
		fatalUsage("choose a single action: -balance, -status, -cancel, -symbol-info or -interactive")
	}
	wantPlace := actionCount == 0 && (symbol != "" || quantity != "")
	if actionCount == 0 && !wantPlace {
		fatalUsage("nothing to do: provide order flags or one of -balance, -status, -cancel, -symbol-info, -interactive")
	}
	var intent core.OrderIntent
	if wantPlace {
		intent = core.OrderIntent{
			Symbol:      symbol,
			Side:        core.Side(strings.ToUpper(strings.TrimSpace(side))),
			Type:        parseOrderType(orderType),
			Quantity:    parseDecimalFlag("quantity", quantity),
			Price:       parseDecimalFlag("price", price),
			StopPrice:   parseDecimalFlag("stop-price", stopPrice),
			TimeInForce: core.TimeInForce(strings.ToUpper(strings.TrimSpace(tif))),
			ClientID:    clientOrderID,
		}
	}

	log, err := logging.FromConfig(cfg.Log)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := startupCheck(ctx, b); err != nil {
		exitErr(fmt.Errorf("connection test failed: %w", err))
	}
	log.WithFields(logrus.Fields{
		"exchange": client.Name(),
		"testnet":  cfg.Exchange.IsTestnet(),
		"api_key":  config.MaskKey(cfg.Exchange.APIKey),
	}).Info("session ready")

	switch {
	case interactive:
		err = runInteractive(ctx, b)
	case balance:
		err = runBalance(ctx, b)
	case statusID != 0:
		err = runStatus(ctx, b, symbol, statusID)
	case cancelID != 0:
		err = runCancel(ctx, b, symbol, cancelID)
	case symbolInfo:
		err = runSymbolInfo(ctx, b, symbol)
	default:
		err = runPlace(ctx, b, intent)
	}
	if err != nil {
		exitErr(err)
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func fatalUsage(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}

// exitErr prints err and exits: 2 for requests refused locally, 1 for
// everything that reached (or failed to reach) the exchange. Exchange
// rejections keep the remote code and message untouched.
func exitErr(err error) {
	if apiErr, ok := binance.AsAPIError(err); ok {
		fmt.Fprintf(os.Stderr, "exchange rejected the request: code=%d message=%s\n", apiErr.Code, apiErr.Message)
	} else {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	if core.IsValidation(err) {
		os.Exit(2)
	}
	os.Exit(1)
}

func startupCheck(ctx context.Context, b *bot.Bot) error {
	if err := b.Ping(ctx); err != nil {
		return err
	}
	if _, err := b.AccountBalance(ctx); err != nil {
		return err
	}
	return nil
}

func parseOrderType(raw string) core.OrderType {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return core.OrderType(normalized)
}

// parseDecimalFlag treats an empty flag as absent and a malformed one as a
// usage error.
func parseDecimalFlag(name, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fatalUsage(fmt.Sprintf("invalid -%s %q", name, raw))
	}
	return d
}

func runPlace(ctx context.Context, b *bot.Bot, intent core.OrderIntent) error {
	res, err := b.PlaceOrder(ctx, intent)
	if err != nil {
		return err
	}
	printOrder("order placed:", res)
	return nil
}

func runStatus(ctx context.Context, b *bot.Bot, symbol string, orderID int64) error {
	res, err := b.OrderStatus(ctx, symbol, orderID)
	if err != nil {
		return err
	}
	printOrder("order status:", res)
	return nil
}

func runCancel(ctx context.Context, b *bot.Bot, symbol string, orderID int64) error {
	res, err := b.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		return err
	}
	printOrder("order canceled:", res)
	return nil
}

func runBalance(ctx context.Context, b *bot.Bot) error {
	bal, err := b.AccountBalance(ctx)
	if err != nil {
		return err
	}
	printBalance(bal)
	return nil
}

func runSymbolInfo(ctx context.Context, b *bot.Bot, symbol string) error {
	info, err := b.SymbolInfo(ctx, symbol)
	if err != nil {
		return err
	}
	printSymbolInfo(info)
	return nil
}

func printOrder(title string, res core.OrderResult) {
	fmt.Println(title)
	fmt.Printf("  order id:   %d\n", res.OrderID)
	if res.ClientID != "" {
		fmt.Printf("  client id:  %s\n", res.ClientID)
	}
	fmt.Printf("  symbol:     %s\n", res.Symbol)
	fmt.Printf("  side:       %s\n", res.Side)
	fmt.Printf("  type:       %s\n", res.Type)
	fmt.Printf("  quantity:   %s\n", res.OrigQty)
	if res.Price.Sign() != 0 {
		fmt.Printf("  price:      %s\n", res.Price)
	}
	if res.StopPrice.Sign() != 0 {
		fmt.Printf("  stop price: %s\n", res.StopPrice)
	}
	if res.ExecutedQty.Sign() != 0 {
		fmt.Printf("  executed:   %s at avg %s\n", res.ExecutedQty, res.AvgPrice)
	}
	fmt.Printf("  status:     %s\n", res.Status)
	if !res.UpdatedAt.IsZero() {
		fmt.Printf("  time:       %s\n", res.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printBalance(bal core.AccountBalance) {
	fmt.Println("account balance:")
	fmt.Printf("  total wallet:   %s\n", bal.TotalWalletBalance)
	fmt.Printf("  available:      %s\n", bal.AvailableBalance)
	fmt.Printf("  unrealized pnl: %s\n", bal.TotalUnrealizedPnL)
	for _, asset := range bal.Assets {
		fmt.Printf("  %-8s wallet=%s available=%s\n", asset.Asset, asset.WalletBalance, asset.AvailableBalance)
	}
}

func printSymbolInfo(info core.SymbolInfo) {
	fmt.Println("symbol info:")
	fmt.Printf("  symbol:       %s (%s)\n", info.Symbol, info.Status)
	fmt.Printf("  base/quote:   %s/%s\n", info.BaseAsset, info.QuoteAsset)
	fmt.Printf("  precision:    price=%d quantity=%d\n", info.PricePrecision, info.QuantityPrecision)
	fmt.Printf("  tick size:    %s\n", info.TickSize)
	fmt.Printf("  step size:    %s\n", info.StepSize)
	fmt.Printf("  min qty:      %s\n", info.MinQty)
	fmt.Printf("  min notional: %s\n", info.MinNotional)
}

func runInteractive(ctx context.Context, b *bot.Bot) error {
	sc := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Println()
		fmt.Println("1) place order")
		fmt.Println("2) account balance")
		fmt.Println("3) order status")
		fmt.Println("4) cancel order")
		fmt.Println("5) quit")
		choice, ok := prompt(sc, "choice")
		if !ok {
			return nil
		}
		var err error
		switch choice {
		case "1":
			err = interactivePlace(ctx, b, sc)
		case "2":
			err = runBalance(ctx, b)
		case "3":
			err = interactiveLookup(ctx, b, sc, runStatus)
		case "4":
			err = interactiveLookup(ctx, b, sc, runCancel)
		case "5", "q", "quit":
			return nil
		default:
			fmt.Println("unknown choice")
		}
		// Menu errors are shown and the session continues.
		if err != nil {
			if apiErr, ok := binance.AsAPIError(err); ok {
				fmt.Printf("exchange rejected the request: code=%d message=%s\n", apiErr.Code, apiErr.Message)
			} else {
				fmt.Println(err.Error())
			}
		}
	}
}

func interactivePlace(ctx context.Context, b *bot.Bot, sc *bufio.Scanner) error {
	symbol, ok := prompt(sc, "symbol")
	if !ok {
		return nil
	}
	side, ok := prompt(sc, "side (BUY/SELL)")
	if !ok {
		return nil
	}
	orderType, ok := prompt(sc, "type (MARKET/LIMIT/STOP_LIMIT)")
	if !ok {
		return nil
	}
	intent := core.OrderIntent{
		Symbol: symbol,
		Side:   core.Side(strings.ToUpper(side)),
		Type:   parseOrderType(orderType),
	}

	quantity, ok := prompt(sc, "quantity")
	if !ok {
		return nil
	}
	var err error
	if intent.Quantity, err = parsePromptDecimal("quantity", quantity); err != nil {
		return err
	}
	if intent.Type == core.Limit || intent.Type == core.StopLimit {
		price, ok := prompt(sc, "price")
		if !ok {
			return nil
		}
		if intent.Price, err = parsePromptDecimal("price", price); err != nil {
			return err
		}
	}
	if intent.Type == core.StopLimit {
		stopPrice, ok := prompt(sc, "stop price")
		if !ok {
			return nil
		}
		if intent.StopPrice, err = parsePromptDecimal("stop price", stopPrice); err != nil {
			return err
		}
	}
	if intent.Type == core.Limit || intent.Type == core.StopLimit {
		tif, ok := prompt(sc, "time in force (enter for default)")
		if !ok {
			return nil
		}
		intent.TimeInForce = core.TimeInForce(strings.ToUpper(tif))
	}

	return runPlace(ctx, b, intent)
}

func interactiveLookup(ctx context.Context, b *bot.Bot, sc *bufio.Scanner, action func(context.Context, *bot.Bot, string, int64) error) error {
	symbol, ok := prompt(sc, "symbol")
	if !ok {
		return nil
	}
	raw, ok := prompt(sc, "order id")
	if !ok {
		return nil
	}
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %q", raw)
	}
	return action(ctx, b, symbol, orderID)
}

func prompt(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Printf("%s: ", label)
	if !sc.Scan() {
		fmt.Println()
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func parsePromptDecimal(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q", name, raw)
	}
	return d, nil
}
