package modules

import (
	"context"

	"selectrate/commontypes"
	"selectrate/modules/currency"
)

// Module turns a selected text into launcher results.
type Module interface {
	Name() string
	DefaultIconPath() string
	ProcessQuery(ctx context.Context, query string, rates *currency.RateCache) ([]commontypes.FlowResult, error)
}
