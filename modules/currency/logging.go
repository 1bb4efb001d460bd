package currency

import (
	"context"
	"time"

	"github.com/go-kit/log"
)

// loggingRateSource decorates a RateSource with logging
type loggingRateSource struct {
	logger log.Logger
	next   RateSource
}

// NewLoggingRateSource returns a RateSource that logs every fetch
func NewLoggingRateSource(logger log.Logger, s RateSource) RateSource {
	return &loggingRateSource{
		logger: logger,
		next:   s,
	}
}

func (s *loggingRateSource) FetchRates(ctx context.Context) (rates map[string]CurrencyRate, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "fetch_rates",
			"count", len(rates),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FetchRates(ctx)
}
