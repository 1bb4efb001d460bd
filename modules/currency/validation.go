package currency

import (
	"fmt"
	"math"
)

const maxRateMagnitude = 1e15

func isValidFloat(value float64) bool {
	return value > 0 && !math.IsNaN(value) && !math.IsInf(value, 0)
}

// ValidateRate rejects feed entries the converter cannot use: both directions must be
// positive and finite.
func ValidateRate(r CurrencyRate) error {
	if !isValidFloat(r.Rate) {
		return fmt.Errorf("%s: invalid rate %v", r.Code, r.Rate)
	}
	if !isValidFloat(r.InverseRate) {
		return fmt.Errorf("%s: invalid inverse rate %v", r.Code, r.InverseRate)
	}
	if r.Rate > maxRateMagnitude || r.InverseRate > maxRateMagnitude {
		return fmt.Errorf("%s: rate out of range (%v, %v)", r.Code, r.Rate, r.InverseRate)
	}
	return nil
}
