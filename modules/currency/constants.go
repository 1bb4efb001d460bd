package currency

import "time"

const (
	// API URLs
	defaultRatesURL = "https://floatrates.com/daily/usd.json"

	// Timeouts
	apiTimeout = 10 * time.Second

	// Update intervals
	defaultRefreshInterval    = 6 * time.Hour
	defaultMinRefreshInterval = 5 * time.Minute

	// Retry configuration
	maxRetries = 3

	// Cache keys
	ratesCacheKey = "rates_" + BaseCurrency

	// Scoring
	scoreFirstConversion = 100
	scoreStep            = 5
	scoreMinConversion   = 50
)

// baseRetryDelay is shortened by tests.
var baseRetryDelay = 1 * time.Second
