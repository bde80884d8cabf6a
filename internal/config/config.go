package config

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Order    OrderConfig    `yaml:"order"`
	Log      LogConfig      `yaml:"log"`
}

type ExchangeConfig struct {
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	Testnet        *bool  `yaml:"testnet"`
	BaseURL        string `yaml:"base_url"`
	HTTPTimeoutSec int64  `yaml:"http_timeout_sec"`
}

type OrderConfig struct {
	TimeInForce string `yaml:"time_in_force"`
}

type LogConfig struct {
	Level      string  `yaml:"level"`
	File       *string `yaml:"file"`
	MaxSizeMB  int     `yaml:"max_size_mb"`
	MaxBackups int     `yaml:"max_backups"`
	MaxAgeDays int     `yaml:"max_age_days"`
	Compress   bool    `yaml:"compress"`
}

// IsTestnet defaults to true: hitting the live exchange requires an explicit
// testnet: false.
func (e ExchangeConfig) IsTestnet() bool {
	return e.Testnet == nil || *e.Testnet
}

// LogFile returns the configured log file path, empty when the file sink is
// explicitly disabled.
func (l LogConfig) LogFile() string {
	if l.File == nil {
		return "trading_bot.log"
	}
	return strings.TrimSpace(*l.File)
}

// Default returns a config with normalization and defaults applied, for runs
// without a config file. Credentials still have to come from flags or env.
func Default() Config {
	var cfg Config
	cfg.normalize()
	cfg.applyDefaults()
	return cfg
}

// Load reads a single-document YAML config. Unknown keys are rejected.
// Validation is the caller's job once flag and env overrides are merged in.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("config must contain a single YAML document")
		}
		return Config{}, err
	}
	cfg.normalize()
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv fills empty credentials from BINANCE_API_KEY/BINANCE_API_SECRET.
// Explicit config or flag values win over the environment.
func (c *Config) ApplyEnv() {
	if c.Exchange.APIKey == "" {
		c.Exchange.APIKey = strings.TrimSpace(os.Getenv("BINANCE_API_KEY"))
	}
	if c.Exchange.APISecret == "" {
		c.Exchange.APISecret = strings.TrimSpace(os.Getenv("BINANCE_API_SECRET"))
	}
}

func (c *Config) normalize() {
	c.Exchange.APIKey = strings.TrimSpace(c.Exchange.APIKey)
	c.Exchange.APISecret = strings.TrimSpace(c.Exchange.APISecret)
	c.Exchange.BaseURL = strings.TrimSpace(c.Exchange.BaseURL)
	c.Order.TimeInForce = strings.ToUpper(strings.TrimSpace(c.Order.TimeInForce))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

func (c *Config) applyDefaults() {
	if c.Exchange.Testnet == nil {
		testnet := true
		c.Exchange.Testnet = &testnet
	}
	if c.Exchange.HTTPTimeoutSec == 0 {
		c.Exchange.HTTPTimeoutSec = 15
	}
	if c.Order.TimeInForce == "" {
		c.Order.TimeInForce = "GTC"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

func (c Config) Validate() error {
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		return fmt.Errorf("exchange api_key/api_secret are required (flags, config, or BINANCE_API_KEY/BINANCE_API_SECRET)")
	}
	if c.Exchange.HTTPTimeoutSec < 1 || c.Exchange.HTTPTimeoutSec > 120 {
		return fmt.Errorf("exchange http_timeout_sec must be between 1 and 120")
	}
	if c.Exchange.BaseURL != "" {
		if err := validateURL(c.Exchange.BaseURL, "http", "https"); err != nil {
			return fmt.Errorf("exchange base_url %v", err)
		}
	}
	switch c.Order.TimeInForce {
	case "GTC", "IOC", "FOK", "GTX":
	default:
		return fmt.Errorf("order time_in_force must be GTC, IOC, FOK, or GTX")
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("log level %q is not a known level", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 1 || c.Log.MaxSizeMB > 1024 {
		return fmt.Errorf("log max_size_mb must be between 1 and 1024")
	}
	if c.Log.MaxBackups < 0 || c.Log.MaxBackups > 100 {
		return fmt.Errorf("log max_backups must be between 0 and 100")
	}
	if c.Log.MaxAgeDays < 0 || c.Log.MaxAgeDays > 365 {
		return fmt.Errorf("log max_age_days must be between 0 and 365")
	}
	return nil
}

// IsValidSymbol reports whether v looks like an exchange symbol.
func IsValidSymbol(v string) bool {
	if len(v) < 6 || len(v) > 20 {
		return false
	}
	for _, r := range v {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

// MaskKey renders a credential for log output without revealing it.
func MaskKey(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

func validateURL(raw string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("must include scheme and host")
	}
	for _, s := range schemes {
		if parsed.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be %s", strings.Join(schemes, " or "))
}
