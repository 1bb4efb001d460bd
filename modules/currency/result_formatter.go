package currency

import (
	"fmt"

	"selectrate/commontypes"
)

func (m *SelectionConverterModule) formatResult(res ConversionResult, rates RateSnapshot, score int) commontypes.FlowResult {
	subTitle := rateLine(res.SourceCode, res.TargetCode, rates)
	if date := rates.Date(); date != "" {
		subTitle += " · " + date
	}

	clipboardText := fmt.Sprintf("%s %s", formatAmountForClipboard(res.TargetValue), res.TargetCode)

	return commontypes.FlowResult{
		Title:         res.Title,
		SubTitle:      subTitle,
		Score:         score,
		JsonRPCAction: commontypes.CopyAction(res.ConversionResultText),
		ContextMenuItems: []commontypes.ContextMenuItem{
			{
				Title:         "Copy",
				SubTitle:      clipboardText,
				JsonRPCAction: commontypes.CopyAction(clipboardText),
			},
			{
				Title:         "Copy title",
				SubTitle:      res.Title,
				JsonRPCAction: commontypes.CopyAction(res.Title),
			},
		},
	}
}

// rateLine renders "1 SRC = x DST" through the base currency.
func rateLine(sourceCode, targetCode string, rates RateSnapshot) string {
	src, okSrc := rates[sourceCode]
	dst, okDst := rates[targetCode]
	if !okSrc || !okDst {
		return fmt.Sprintf("1 %s = N/A %s", sourceCode, targetCode)
	}
	return fmt.Sprintf("1 %s = %s %s", sourceCode, formatRate(src.InverseRate*dst.Rate), targetCode)
}
