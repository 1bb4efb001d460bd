package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RateSource fetches the raw rate feed, keyed by currency code in any case.
type RateSource interface {
	FetchRates(ctx context.Context) (map[string]CurrencyRate, error)
}

// HTTPRateSource reads a floatrates-style JSON feed: an object keyed by lower-case code.
type HTTPRateSource struct {
	client *http.Client
	url    string
}

func NewHTTPRateSource(url string, timeout time.Duration) *HTTPRateSource {
	if url == "" {
		url = defaultRatesURL
	}
	if timeout <= 0 {
		timeout = apiTimeout
	}
	return &HTTPRateSource{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (s *HTTPRateSource) URL() string {
	return s.url
}

func (s *HTTPRateSource) FetchRates(ctx context.Context) (map[string]CurrencyRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for rates: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("rates API returned status %d (%s)", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var rates map[string]CurrencyRate
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rates API returned no rates")
	}
	return rates, nil
}
