package currency

// mockRates mirrors a floatrates feed for a handful of currencies. The keys are lower-case
// as in the feed, so tests pass it through PrepareRates.
func mockRates() map[string]CurrencyRate {
	return map[string]CurrencyRate{
		"eur": {AlphaCode: "EUR", NumericCode: "978", Name: "Euro", Rate: 0.87719146284662, InverseRate: 1.140001974888, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"dkk": {AlphaCode: "DKK", NumericCode: "208", Name: "Danish Krone", Rate: 6.5445, InverseRate: 0.1528, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"isk": {AlphaCode: "ISK", NumericCode: "352", Name: "Icelandic Krona", Rate: 112, InverseRate: 0.00892857, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"nok": {AlphaCode: "NOK", NumericCode: "578", Name: "Norwegian Krone", Rate: 8.5, InverseRate: 0.117647, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"sek": {AlphaCode: "SEK", NumericCode: "752", Name: "Swedish Krona", Rate: 9.1, InverseRate: 0.10989, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"gbp": {AlphaCode: "GBP", NumericCode: "826", Name: "U.K. Pound Sterling", Rate: 0.76, InverseRate: 1.315789, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"jpy": {AlphaCode: "JPY", NumericCode: "392", Name: "Japanese Yen", Rate: 113.2, InverseRate: 0.008834, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"cny": {AlphaCode: "CNY", NumericCode: "156", Name: "Chinese Yuan", Rate: 6.92, InverseRate: 0.144509, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"pln": {AlphaCode: "PLN", NumericCode: "985", Name: "Polish Zloty", Rate: 3.76, InverseRate: 0.265957, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"rub": {AlphaCode: "RUB", NumericCode: "643", Name: "Russian Rouble", Rate: 66.5, InverseRate: 0.015038, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"nzd": {AlphaCode: "NZD", NumericCode: "554", Name: "New Zealand Dollar", Rate: 1.55, InverseRate: 0.645161, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"cad": {AlphaCode: "CAD", NumericCode: "124", Name: "Canadian Dollar", Rate: 1.3, InverseRate: 0.769231, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"lkr": {AlphaCode: "LKR", NumericCode: "144", Name: "Sri Lanka Rupee", Rate: 172.5, InverseRate: 0.005797, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"mur": {AlphaCode: "MUR", NumericCode: "480", Name: "Mauritian Rupee", Rate: 34.6, InverseRate: 0.028902, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"npr": {AlphaCode: "NPR", NumericCode: "524", Name: "Nepalese Rupee", Rate: 117.4, InverseRate: 0.008518, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"pkr": {AlphaCode: "PKR", NumericCode: "586", Name: "Pakistani Rupee", Rate: 124.3, InverseRate: 0.008045, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
		"scr": {AlphaCode: "SCR", NumericCode: "690", Name: "Seychelles Rupee", Rate: 13.6, InverseRate: 0.073529, Date: "Tue, 9 Oct 2018 12:00:01 GMT"},
	}
}

func preparedMockRates() RateSnapshot {
	return PrepareRates(mockRates())
}
