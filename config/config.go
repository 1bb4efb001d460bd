// Package config loads selectrate settings from a TOML file.
//
// Values are resolved in this order: built-in defaults, the file, then
// SELECTRATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"selectrate/modules/currency"
)

// Duration decodes TOML strings such as "6h" or "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	ListenAddr         string   `toml:"listen_addr"`
	RatesURL           string   `toml:"rates_url"`
	RefreshInterval    Duration `toml:"refresh_interval"`
	MinRefreshInterval Duration `toml:"min_refresh_interval"`
	RequestTimeout     Duration `toml:"request_timeout"`
	DatabasePath       string   `toml:"database_path"`
	AliasesPath        string   `toml:"aliases_path"`
	LogLevel           string   `toml:"log_level"`

	Preferences PreferencesConfig `toml:"preferences"`
}

type PreferencesConfig struct {
	TargetCurrency string            `toml:"target_currency"`
	Aliases        map[string]string `toml:"aliases"`
}

func Default() *Config {
	return &Config{
		ListenAddr:         ":8080",
		RatesURL:           "https://floatrates.com/daily/usd.json",
		RefreshInterval:    Duration{6 * time.Hour},
		MinRefreshInterval: Duration{5 * time.Minute},
		RequestTimeout:     Duration{5 * time.Second},
		DatabasePath:       "data/selectrate.db",
		LogLevel:           "info",
		Preferences: PreferencesConfig{
			TargetCurrency: "EUR",
			Aliases:        map[string]string{},
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides every setting that has a SELECTRATE_* variable set.
// A malformed duration is an error rather than a silent fallback.
func (c *Config) applyEnv() error {
	for _, v := range []struct {
		key   string
		field *string
	}{
		{"SELECTRATE_LISTEN_ADDR", &c.ListenAddr},
		{"SELECTRATE_RATES_URL", &c.RatesURL},
		{"SELECTRATE_DATABASE_PATH", &c.DatabasePath},
		{"SELECTRATE_ALIASES_PATH", &c.AliasesPath},
		{"SELECTRATE_LOG_LEVEL", &c.LogLevel},
		{"SELECTRATE_TARGET_CURRENCY", &c.Preferences.TargetCurrency},
	} {
		if value := os.Getenv(v.key); value != "" {
			*v.field = value
		}
	}

	var errs []error
	for _, v := range []struct {
		key   string
		field *Duration
	}{
		{"SELECTRATE_REFRESH_INTERVAL", &c.RefreshInterval},
		{"SELECTRATE_MIN_REFRESH_INTERVAL", &c.MinRefreshInterval},
		{"SELECTRATE_REQUEST_TIMEOUT", &c.RequestTimeout},
	} {
		value := os.Getenv(v.key)
		if value == "" {
			continue
		}
		if err := v.field.UnmarshalText([]byte(value)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.key, err))
		}
	}
	return errors.Join(errs...)
}

// normalize upper-cases codes. Alias keys stay as written since alias lookup is case-sensitive.
func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Preferences.TargetCurrency = strings.ToUpper(strings.TrimSpace(c.Preferences.TargetCurrency))
	aliases := make(map[string]string, len(c.Preferences.Aliases))
	for alias, code := range c.Preferences.Aliases {
		aliases[alias] = strings.ToUpper(strings.TrimSpace(code))
	}
	c.Preferences.Aliases = aliases
}

func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is empty"))
	}
	if c.RefreshInterval.Duration <= 0 {
		errs = append(errs, errors.New("refresh_interval must be positive"))
	}
	if c.MinRefreshInterval.Duration <= 0 {
		errs = append(errs, errors.New("min_refresh_interval must be positive"))
	}
	if c.RequestTimeout.Duration <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if !isCurrencyCode(c.Preferences.TargetCurrency) {
		errs = append(errs, fmt.Errorf("preferences.target_currency %q is not a currency code", c.Preferences.TargetCurrency))
	}
	for alias, code := range c.Preferences.Aliases {
		if alias == "" {
			errs = append(errs, errors.New("preferences.aliases has an empty alias"))
		}
		if !isCurrencyCode(code) {
			errs = append(errs, fmt.Errorf("preferences.aliases[%q] = %q is not a currency code", alias, code))
		}
	}
	return errors.Join(errs...)
}

func isCurrencyCode(s string) bool {
	if len(s) < 3 || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// CurrencyPreferences converts the preferences section for the converter.
func (c *Config) CurrencyPreferences() currency.Preferences {
	preferred := make(currency.PreferredAliasMap, len(c.Preferences.Aliases))
	for alias, code := range c.Preferences.Aliases {
		preferred[alias] = code
	}
	return currency.Preferences{
		TargetCurrency:   c.Preferences.TargetCurrency,
		PreferredAliases: preferred,
	}
}
