package paybot

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFacilitatorURL is the hosted PayBot facilitator.
const DefaultFacilitatorURL = "https://api.paybot.dev"

// DefaultMaxAutoPay is the default ceiling for automatic payments, in USDC.
const DefaultMaxAutoPay = "0.10"

// TimeoutConfig holds timeout configuration for payment operations.
type TimeoutConfig struct {
	// VerifyTimeout is the maximum time to wait for payment verification.
	VerifyTimeout time.Duration

	// SettleTimeout is the maximum time to wait for payment settlement.
	SettleTimeout time.Duration

	// RequestTimeout is the overall timeout for HTTP requests.
	RequestTimeout time.Duration
}

// DefaultTimeouts provides sensible defaults for payment operations.
var DefaultTimeouts = TimeoutConfig{
	VerifyTimeout:  10 * time.Second,
	SettleTimeout:  60 * time.Second,
	RequestTimeout: 120 * time.Second,
}

// WithVerifyTimeout returns a new TimeoutConfig with updated verify timeout.
func (tc TimeoutConfig) WithVerifyTimeout(d time.Duration) TimeoutConfig {
	tc.VerifyTimeout = d
	return tc
}

// WithSettleTimeout returns a new TimeoutConfig with updated settle timeout.
func (tc TimeoutConfig) WithSettleTimeout(d time.Duration) TimeoutConfig {
	tc.SettleTimeout = d
	return tc
}

// WithRequestTimeout returns a new TimeoutConfig with updated request timeout.
func (tc TimeoutConfig) WithRequestTimeout(d time.Duration) TimeoutConfig {
	tc.RequestTimeout = d
	return tc
}

// Validate ensures timeout values are reasonable.
func (tc TimeoutConfig) Validate() error {
	if tc.VerifyTimeout <= 0 {
		return fmt.Errorf("verify timeout must be positive, got %v", tc.VerifyTimeout)
	}
	if tc.SettleTimeout <= 0 {
		return fmt.Errorf("settle timeout must be positive, got %v", tc.SettleTimeout)
	}
	if tc.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", tc.RequestTimeout)
	}
	if tc.SettleTimeout < tc.VerifyTimeout {
		return fmt.Errorf("settle timeout (%v) should be >= verify timeout (%v)",
			tc.SettleTimeout, tc.VerifyTimeout)
	}
	return nil
}

// Config is the client-side configuration of a PayBot bot.
type Config struct {
	// FacilitatorURL is the facilitator base URL.
	FacilitatorURL string

	// APIKey authenticates the bot with the facilitator.
	APIKey string

	// BotID identifies the paying bot.
	BotID string

	// Network is the CAIP-2 network used for automatic payments.
	Network string

	// MaxAutoPay is the largest decimal amount paid without asking the caller.
	MaxAutoPay string

	Timeouts TimeoutConfig
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() Config {
	return Config{
		FacilitatorURL: DefaultFacilitatorURL,
		Network:        DefaultNetwork,
		MaxAutoPay:     DefaultMaxAutoPay,
		Timeouts:       DefaultTimeouts,
	}
}

type configFile struct {
	Facilitator struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
	} `yaml:"facilitator"`
	Bot struct {
		ID         string `yaml:"id"`
		Network    string `yaml:"network"`
		MaxAutoPay string `yaml:"max_auto_pay"`
	} `yaml:"bot"`
	Timeouts struct {
		Verify  time.Duration `yaml:"verify"`
		Settle  time.Duration `yaml:"settle"`
		Request time.Duration `yaml:"request"`
	} `yaml:"timeouts"`
}

// LoadConfig reads a YAML config file and applies PAYBOT_* environment overrides.
// A missing file is not an error; defaults and the environment are used instead.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			var f configFile
			if err := yaml.Unmarshal(raw, &f); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
			cfg.apply(f)
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.FacilitatorURL = envOrDefault("PAYBOT_FACILITATOR_URL", cfg.FacilitatorURL)
	cfg.APIKey = envOrDefault("PAYBOT_API_KEY", cfg.APIKey)
	cfg.BotID = envOrDefault("PAYBOT_BOT_ID", cfg.BotID)
	cfg.Network = envOrDefault("PAYBOT_NETWORK", cfg.Network)
	cfg.MaxAutoPay = envOrDefault("PAYBOT_MAX_AUTO_PAY", cfg.MaxAutoPay)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(f configFile) {
	if f.Facilitator.URL != "" {
		c.FacilitatorURL = f.Facilitator.URL
	}
	if f.Facilitator.APIKey != "" {
		c.APIKey = f.Facilitator.APIKey
	}
	if f.Bot.ID != "" {
		c.BotID = f.Bot.ID
	}
	if f.Bot.Network != "" {
		c.Network = f.Bot.Network
	}
	if f.Bot.MaxAutoPay != "" {
		c.MaxAutoPay = f.Bot.MaxAutoPay
	}
	if f.Timeouts.Verify > 0 {
		c.Timeouts.VerifyTimeout = f.Timeouts.Verify
	}
	if f.Timeouts.Settle > 0 {
		c.Timeouts.SettleTimeout = f.Timeouts.Settle
	}
	if f.Timeouts.Request > 0 {
		c.Timeouts.RequestTimeout = f.Timeouts.Request
	}
}

// Validate checks that the configuration can drive payments.
func (c Config) Validate() error {
	u, err := url.Parse(c.FacilitatorURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: facilitator url %q", ErrInvalidConfig, c.FacilitatorURL)
	}
	if strings.TrimSpace(c.BotID) == "" {
		return fmt.Errorf("%w: bot id is required", ErrInvalidConfig)
	}
	if _, ok := LookupChain(c.Network); !ok {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrInvalidNetwork, c.Network)
	}
	if _, err := DecimalToBaseUnits(c.MaxAutoPay); err != nil {
		return fmt.Errorf("%w: max auto pay: %w", ErrInvalidConfig, err)
	}
	if err := c.Timeouts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
