package currency

// Outcome is everything one pipeline run produced.
type Outcome struct {
	Extraction  Extraction
	SourceCodes []string
	TargetCode  string
	Conversions []Conversion
}

// Results returns the successful conversions only.
func (o Outcome) Results() []ConversionResult {
	return Successful(o.Conversions)
}

// Pipeline runs extraction, resolution and conversion for one selected text.
// It holds no mutable state, so a single value may serve concurrent requests.
type Pipeline struct {
	resolver *Resolver
}

func NewPipeline(resolver *Resolver) *Pipeline {
	return &Pipeline{resolver: resolver}
}

func (p *Pipeline) Resolver() *Resolver {
	return p.resolver
}

// Run converts the amount found in text to targetCode. It reports false when the text
// has no number or no token resolves to a code of rates.
func (p *Pipeline) Run(text, targetCode string, rates RateSnapshot, preferred PreferredAliasMap) (Outcome, bool) {
	extraction, ok := ExtractAmount(text)
	if !ok {
		return Outcome{}, false
	}

	codes := p.resolver.ResolveCodes(extraction.HintTokens(), rates, preferred)
	if len(codes) == 0 {
		return Outcome{Extraction: extraction, SourceCodes: codes, TargetCode: targetCode}, false
	}

	return Outcome{
		Extraction:  extraction,
		SourceCodes: codes,
		TargetCode:  targetCode,
		Conversions: Convert(extraction.Number, codes, targetCode, rates),
	}, true
}
