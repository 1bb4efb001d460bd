package currency

// ConversionStatus tags each position of a conversion list.
type ConversionStatus int

const (
	// ConversionSkipped marks a source or target code without a rate in the snapshot.
	ConversionSkipped ConversionStatus = iota
	ConversionOK
)

func (s ConversionStatus) String() string {
	if s == ConversionOK {
		return "ok"
	}
	return "skipped"
}

// ConversionResult is a converted amount with its display strings.
type ConversionResult struct {
	Title                string  `json:"title"`
	ConversionResultText string  `json:"conversionResultText"`
	SourceCode           string  `json:"sourceCode"`
	SourceValue          float64 `json:"sourceValue"`
	TargetCode           string  `json:"targetCode"`
	TargetValue          float64 `json:"targetValue"`
}

// Conversion is one position of Convert's output. Result is set only when Status is ConversionOK.
type Conversion struct {
	Status     ConversionStatus
	SourceCode string
	Result     ConversionResult
}

func (c Conversion) OK() bool {
	return c.Status == ConversionOK
}

// Convert converts sourceValue from each of sourceCodes into targetCode through the base
// currency. The output has one entry per source code, in the same order.
func Convert(sourceValue float64, sourceCodes []string, targetCode string, rates RateSnapshot) []Conversion {
	conversions := make([]Conversion, len(sourceCodes))
	targetRate, hasTarget := rates[targetCode]

	for i, sourceCode := range sourceCodes {
		conversions[i] = Conversion{Status: ConversionSkipped, SourceCode: sourceCode}

		sourceRate, hasSource := rates[sourceCode]
		if !hasSource || !hasTarget {
			continue
		}

		baseValue := sourceValue * sourceRate.InverseRate
		targetValue := baseValue * targetRate.Rate

		targetText := FormatCurrency(targetValue, targetCode)
		conversions[i] = Conversion{
			Status:     ConversionOK,
			SourceCode: sourceCode,
			Result: ConversionResult{
				Title:                FormatCurrency(sourceValue, sourceCode) + " → " + targetText,
				ConversionResultText: targetText,
				SourceCode:           sourceCode,
				SourceValue:          sourceValue,
				TargetCode:           targetCode,
				TargetValue:          targetValue,
			},
		}
	}
	return conversions
}

// Successful keeps the results of the converted positions, in order.
func Successful(conversions []Conversion) []ConversionResult {
	results := make([]ConversionResult, 0, len(conversions))
	for _, c := range conversions {
		if c.OK() {
			results = append(results, c.Result)
		}
	}
	return results
}
