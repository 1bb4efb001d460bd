package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"selectrate/commontypes"
)

// SelectionConverterModule converts the amount found in a selected text into the
// user's target currency.
type SelectionConverterModule struct {
	pipeline        *Pipeline
	prefs           PreferencesSource
	recorder        ConversionRecorder
	defaultIconPath string
	logger          log.Logger
}

// NewSelectionConverterModule builds the module. recorder may be nil.
func NewSelectionConverterModule(pipeline *Pipeline, prefs PreferencesSource, recorder ConversionRecorder, iconPath string, logger log.Logger) *SelectionConverterModule {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &SelectionConverterModule{
		pipeline:        pipeline,
		prefs:           prefs,
		recorder:        recorder,
		defaultIconPath: iconPath,
		logger:          log.With(logger, "module", "selection_converter"),
	}
}

func (m *SelectionConverterModule) Name() string {
	return "SelectionConverter"
}

func (m *SelectionConverterModule) DefaultIconPath() string {
	return m.defaultIconPath
}

func (m *SelectionConverterModule) ProcessQuery(ctx context.Context, query string, rates *RateCache) ([]commontypes.FlowResult, error) {
	if rates == nil {
		return nil, fmt.Errorf("rate cache is not initialized")
	}

	// Serve what we have and refresh behind the request.
	rates.RefreshIfStale(ctx)

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	prefs := m.prefs.Preferences()
	target := prefs.TargetCurrency
	if target == "" {
		target = defaultTargetCurrency
	}
	snapshot := rates.Snapshot()

	outcome, ok := m.pipeline.Run(query, target, snapshot, prefs.PreferredAliases)
	if !ok {
		level.Debug(m.logger).Log("msg", "no amount or currency found", "query", query)
		return nil, nil
	}
	if !snapshot.Has(target) {
		level.Warn(m.logger).Log("msg", "target currency missing from rates", "target", target)
	}

	converted := outcome.Results()
	if len(converted) == 0 {
		return nil, nil
	}

	if m.recorder != nil {
		if err := m.recorder.RecordConversion(ctx, query, converted); err != nil {
			level.Warn(m.logger).Log("msg", "recording conversion failed", "err", err)
		}
	}

	results := make([]commontypes.FlowResult, 0, len(converted))
	for i, res := range converted {
		results = append(results, m.formatResult(res, snapshot, scoreForPosition(i)))
	}
	return results, nil
}

func scoreForPosition(i int) int {
	score := scoreFirstConversion - i*scoreStep
	if score < scoreMinConversion {
		return scoreMinConversion
	}
	return score
}
