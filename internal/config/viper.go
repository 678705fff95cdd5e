// Package config provides Viper-based hierarchical configuration: defaults,
// then an optional YAML config file, then TXLINK_-prefixed environment
// variables, each layer overriding the previous.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"finbase/txlink/internal/matcher"
	"finbase/txlink/internal/merchant"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Store struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"store" yaml:"store"`

	Rules struct {
		MerchantFile   string `mapstructure:"merchant_file" yaml:"merchant_file"`
		SignaturesFile string `mapstructure:"signatures_file" yaml:"signatures_file"`
	} `mapstructure:"rules" yaml:"rules"`

	Matching struct {
		DateWindowDays    int     `mapstructure:"date_window_days" yaml:"date_window_days"`
		AmountTolerance   string  `mapstructure:"amount_tolerance" yaml:"amount_tolerance"`
		AutoLinkThreshold float64 `mapstructure:"auto_link_threshold" yaml:"auto_link_threshold"`
		SuggestThreshold  float64 `mapstructure:"suggest_threshold" yaml:"suggest_threshold"`
	} `mapstructure:"matching" yaml:"matching"`

	Merchant merchant.Rules `mapstructure:"merchant" yaml:"merchant"`

	Amazon struct {
		AggregateOrders bool `mapstructure:"aggregate_orders" yaml:"aggregate_orders"`
	} `mapstructure:"amazon" yaml:"amazon"`
}

// InitializeConfig loads the configuration stack and validates it.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.txlink")
	v.AddConfigPath(".txlink")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TXLINK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
		// Missing config file is fine, defaults and env vars apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.path", "txlink.db")

	v.SetDefault("rules.merchant_file", "")
	v.SetDefault("rules.signatures_file", "")

	v.SetDefault("matching.date_window_days", 30)
	v.SetDefault("matching.amount_tolerance", "3.00")
	v.SetDefault("matching.auto_link_threshold", 80.0)
	v.SetDefault("matching.suggest_threshold", 70.0)

	defaults := merchant.DefaultRules()
	v.SetDefault("merchant.brand", defaults.Brand)
	v.SetDefault("merchant.aliases", defaults.Aliases)
	v.SetDefault("merchant.pattern_tokens", defaults.PatternTokens)
	v.SetDefault("merchant.denylist", defaults.Denylist)

	v.SetDefault("amazon.aggregate_orders", true)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Matching.DateWindowDays < 1 {
		return fmt.Errorf("matching.date_window_days must be positive, got: %d", config.Matching.DateWindowDays)
	}

	tolerance, err := decimal.NewFromString(config.Matching.AmountTolerance)
	if err != nil {
		return fmt.Errorf("invalid matching.amount_tolerance %q: %w", config.Matching.AmountTolerance, err)
	}
	if tolerance.IsNegative() {
		return fmt.Errorf("matching.amount_tolerance must not be negative, got: %s", config.Matching.AmountTolerance)
	}

	if config.Matching.AutoLinkThreshold < 0 || config.Matching.AutoLinkThreshold > 100 {
		return fmt.Errorf("matching.auto_link_threshold must be between 0 and 100, got: %f", config.Matching.AutoLinkThreshold)
	}
	if config.Matching.SuggestThreshold < 0 || config.Matching.SuggestThreshold > 100 {
		return fmt.Errorf("matching.suggest_threshold must be between 0 and 100, got: %f", config.Matching.SuggestThreshold)
	}
	if config.Matching.SuggestThreshold > config.Matching.AutoLinkThreshold {
		return fmt.Errorf("matching.suggest_threshold (%f) must not exceed matching.auto_link_threshold (%f)",
			config.Matching.SuggestThreshold, config.Matching.AutoLinkThreshold)
	}

	return nil
}

// MatchingConfig converts the loaded configuration into the matcher's
// parameter struct. Validation has already checked the tolerance string.
func (c *Config) MatchingConfig() matcher.MatchingConfig {
	tolerance, err := decimal.NewFromString(c.Matching.AmountTolerance)
	if err != nil {
		tolerance = decimal.NewFromInt(3)
	}
	return matcher.MatchingConfig{
		DateWindowDays:    c.Matching.DateWindowDays,
		AmountTolerance:   tolerance,
		AutoLinkThreshold: c.Matching.AutoLinkThreshold,
		SuggestThreshold:  c.Matching.SuggestThreshold,
		MerchantRules:     c.Merchant,
	}
}

// ConfigureLoggingFromConfig builds a logrus logger from the Config.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
