package currency

// PreferredAliasMap pins an ambiguous hint token to a single code chosen by the user.
type PreferredAliasMap map[string]string

// Resolver turns hint tokens into ISO codes present in a rate snapshot.
type Resolver struct {
	aliases *AliasTable
}

func NewResolver(aliases *AliasTable) *Resolver {
	return &Resolver{aliases: aliases}
}

func (r *Resolver) Aliases() *AliasTable {
	return r.aliases
}

// ResolveCodes returns candidate codes for tokens, in token order. For each token the
// preferred code comes first, then the alias table codes, and a token with neither is
// tried as a code itself. Codes missing from rates are dropped. The result may repeat a
// code reached through different tokens.
func (r *Resolver) ResolveCodes(tokens []string, rates RateSnapshot, preferred PreferredAliasMap) []string {
	codes := []string{}
	for _, token := range tokens {
		if token == "" {
			continue
		}

		var candidates []string
		preferredCode, hasPreferred := preferred[token]
		if hasPreferred {
			candidates = append(candidates, preferredCode)
		}
		if r.aliases != nil {
			for _, code := range r.aliases.codes[token] {
				if hasPreferred && code == preferredCode {
					continue
				}
				candidates = append(candidates, code)
			}
		}
		if len(candidates) == 0 {
			candidates = append(candidates, token)
		}

		for _, code := range candidates {
			if code != "" && rates.Has(code) {
				codes = append(codes, code)
			}
		}
	}
	return codes
}

// AmbiguousAlias is an alias that resolves to several codes of the current snapshot.
type AmbiguousAlias struct {
	Alias     string   `json:"alias"`
	Codes     []string `json:"codes"`
	Preferred string   `json:"preferred,omitempty"`
}

// AmbiguousAliases lists the aliases a user may want to pin, sorted by alias.
func (r *Resolver) AmbiguousAliases(rates RateSnapshot, preferred PreferredAliasMap) []AmbiguousAlias {
	var out []AmbiguousAlias
	if r.aliases == nil {
		return out
	}
	for _, alias := range r.aliases.Aliases() {
		codes := r.ResolveCodes([]string{alias}, rates, nil)
		if len(codes) < 2 {
			continue
		}
		out = append(out, AmbiguousAlias{
			Alias:     alias,
			Codes:     codes,
			Preferred: preferred[alias],
		})
	}
	return out
}
