package currency

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

//go:embed config/currency_format.json
var currencyFormatJSON []byte

// CurrencyFormat is one record of the embedded currency metadata.
type CurrencyFormat struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	FractionSize int             `json:"fractionSize"`
	Symbol       *CurrencySymbol `json:"symbol,omitempty"`
	UniqSymbol   *CurrencySymbol `json:"uniqSymbol,omitempty"`
}

type CurrencySymbol struct {
	Grapheme string `json:"grapheme"`
}

// AliasOverride adds a hint token the symbol metadata does not cover.
type AliasOverride struct {
	Alias string `json:"alias"`
	Code  string `json:"code"`
}

// Tokens the metadata has no symbol for.
var manualAliases = []AliasOverride{
	{Alias: "¥", Code: "CNY"},
	{Alias: "zl", Code: "PLN"},
	{Alias: "руб", Code: "RUB"},
}

// AliasTable maps a hint token (symbol, abbreviation) to every ISO code it may denote,
// in registration order. Lookups are case-sensitive. The table is read-only once built
// and is safe to share between goroutines.
type AliasTable struct {
	codes map[string][]string
}

// NewAliasTable registers each currency's symbol and, when it differs, its unique symbol,
// then applies the overrides.
func NewAliasTable(formats []CurrencyFormat, overrides []AliasOverride) *AliasTable {
	t := &AliasTable{codes: make(map[string][]string)}
	for _, f := range formats {
		if f.Symbol != nil {
			t.add(f.Symbol.Grapheme, f.Code)
		}
		if f.UniqSymbol != nil {
			t.add(f.UniqSymbol.Grapheme, f.Code)
		}
	}
	for _, o := range overrides {
		t.add(o.Alias, o.Code)
	}
	return t
}

func (t *AliasTable) add(alias, code string) {
	if alias == "" || code == "" {
		return
	}
	for _, existing := range t.codes[alias] {
		if existing == code {
			return
		}
	}
	t.codes[alias] = append(t.codes[alias], code)
}

// DefaultAliasTable builds the table from the embedded metadata and the manual aliases.
func DefaultAliasTable() (*AliasTable, error) {
	formats, err := LoadCurrencyFormats()
	if err != nil {
		return nil, err
	}
	return NewAliasTable(formats, manualAliases), nil
}

// LoadCurrencyFormats decodes the embedded metadata, keeping file order.
func LoadCurrencyFormats() ([]CurrencyFormat, error) {
	var formats []CurrencyFormat
	if err := json.Unmarshal(currencyFormatJSON, &formats); err != nil {
		return nil, fmt.Errorf("unmarshaling embedded currency metadata: %w", err)
	}
	return formats, nil
}

// LoadAliasOverridesFromFile reads extra aliases from a JSON array of {"alias", "code"} objects.
func LoadAliasOverridesFromFile(filePath string) ([]AliasOverride, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading alias file %s: %w", filePath, err)
	}
	var overrides []AliasOverride
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("unmarshaling alias file %s: %w", filePath, err)
	}
	return overrides, nil
}

// WithOverrides returns a new table with extra aliases registered after the existing ones.
func (t *AliasTable) WithOverrides(overrides []AliasOverride) *AliasTable {
	clone := &AliasTable{codes: make(map[string][]string, len(t.codes))}
	for alias, codes := range t.codes {
		clone.codes[alias] = append([]string(nil), codes...)
	}
	for _, o := range overrides {
		clone.add(o.Alias, o.Code)
	}
	return clone
}

// Codes returns a copy of the codes registered for alias, or nil.
func (t *AliasTable) Codes(alias string) []string {
	codes, ok := t.codes[alias]
	if !ok {
		return nil
	}
	return append([]string(nil), codes...)
}

func (t *AliasTable) Has(alias string) bool {
	_, ok := t.codes[alias]
	return ok
}

// Aliases returns every registered alias, sorted.
func (t *AliasTable) Aliases() []string {
	aliases := make([]string, 0, len(t.codes))
	for alias := range t.codes {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func (t *AliasTable) Len() int {
	return len(t.codes)
}
