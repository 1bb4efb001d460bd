package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// BaseCurrency is the currency every snapshot rate is expressed against.
const BaseCurrency = "USD"

var ErrMissingBaseCurrency = errors.New("rate snapshot has no base currency")

// CurrencyRate is one entry of the upstream rate feed.
// Rate is units of this currency per base unit, InverseRate is base units per unit of this currency.
type CurrencyRate struct {
	Code        string  `json:"code"`
	AlphaCode   string  `json:"alphaCode"`
	NumericCode string  `json:"numericCode"`
	Name        string  `json:"name"`
	Rate        float64 `json:"rate"`
	InverseRate float64 `json:"inverseRate"`
	Date        string  `json:"date,omitempty"`
}

// RateSnapshot maps an upper-case ISO code to its rate. It is never mutated by the conversion core.
type RateSnapshot map[string]CurrencyRate

func baseCurrencyRate() CurrencyRate {
	return CurrencyRate{
		Code:        BaseCurrency,
		AlphaCode:   BaseCurrency,
		NumericCode: "840",
		Name:        "U.S. Dollar",
		Rate:        1,
		InverseRate: 1,
	}
}

// PrepareRates upper-cases the feed keys and adds the base currency when the feed omits it.
// Entries failing ValidateRate are dropped.
func PrepareRates(raw map[string]CurrencyRate) RateSnapshot {
	prepared := make(RateSnapshot, len(raw)+1)
	for key, rate := range raw {
		code := strings.ToUpper(strings.TrimSpace(key))
		if code == "" {
			continue
		}
		if rate.Code == "" {
			rate.Code = code
		}
		if ValidateRate(rate) != nil {
			continue
		}
		prepared[code] = rate
	}
	if _, ok := prepared[BaseCurrency]; !ok {
		prepared[BaseCurrency] = baseCurrencyRate()
	}
	return prepared
}

// BaseOnlySnapshot is what the converter sees before any rates have been loaded.
func BaseOnlySnapshot() RateSnapshot {
	return RateSnapshot{BaseCurrency: baseCurrencyRate()}
}

// Validate checks the loader contract: the base currency must be present with unit rates.
func (s RateSnapshot) Validate() error {
	base, ok := s[BaseCurrency]
	if !ok {
		return ErrMissingBaseCurrency
	}
	if base.Rate != 1 || base.InverseRate != 1 {
		return fmt.Errorf("%w: %s has rate %v and inverse rate %v", ErrMissingBaseCurrency, BaseCurrency, base.Rate, base.InverseRate)
	}
	return nil
}

func (s RateSnapshot) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the snapshot codes sorted alphabetically.
func (s RateSnapshot) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Date returns the most common non-empty rate date, which for a daily feed is the feed date.
func (s RateSnapshot) Date() string {
	counts := make(map[string]int)
	best := ""
	for _, rate := range s {
		if rate.Date == "" {
			continue
		}
		counts[rate.Date]++
		if counts[rate.Date] > counts[best] || (counts[rate.Date] == counts[best] && rate.Date < best) {
			best = rate.Date
		}
	}
	return best
}
