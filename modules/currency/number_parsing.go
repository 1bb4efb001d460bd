package currency

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Characters that never belong to a hint token, besides whitespace and digits.
const wordBreakChars = ".,;:!?=+-*/\\<>(){}[]'\"`~@%^&"

// Extraction is the first numeric literal found in a text together with
// the hint tokens touching it. An empty LeftWord or RightWord means absent.
type Extraction struct {
	Number    float64
	LeftWord  string
	RightWord string
	// Literal is the matched text, including a trailing separator if one was consumed.
	Literal string
}

// HintTokens returns the tokens in resolution order: right word first, then left word.
func (e Extraction) HintTokens() []string {
	return []string{e.RightWord, e.LeftWord}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNumberSeparator(r rune) bool {
	return r == ' ' || r == ',' || r == '.'
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func isWordRune(r rune) bool {
	return !isSpace(r) && !isDigit(r) && !strings.ContainsRune(wordBreakChars, r)
}

// ExtractAmount finds the first numeric literal in text.
//
// Thousand groups are exactly three digits after a separator; the separator seen first
// must be used for every following group. A separator that does not start such a group
// starts the fractional part instead, whose digits are kept as they are.
func ExtractAmount(text string) (Extraction, bool) {
	if text == "" {
		return Extraction{}, false
	}
	r := []rune(norm.NFC.String(text))
	n := len(r)

	first := -1
	for i, c := range r {
		if isDigit(c) {
			first = i
			break
		}
	}
	if first < 0 {
		return Extraction{}, false
	}

	start := first
	negative := false
	if first > 0 && r[first-1] == '-' {
		start = first - 1
		negative = true
	}

	integralEnd, digits := scanIntegral(r, first)

	end := integralEnd
	fractional := ""
	if end < n && isNumberSeparator(r[end]) {
		end++
		fracStart := end
		for end < n && isDigit(r[end]) {
			end++
		}
		fractional = string(r[fracStart:end])
	}

	literal := digits
	if fractional != "" {
		literal += "." + fractional
	}
	if negative {
		literal = "-" + literal
	}
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Extraction{}, false
	}

	return Extraction{
		Number:    value,
		LeftWord:  wordBefore(r, start),
		RightWord: wordAfter(r, end),
		Literal:   string(r[start:end]),
	}, true
}

// scanIntegral returns the end of the integral part starting at the digit at pos and its digits without separators.
func scanIntegral(r []rune, pos int) (int, string) {
	n := len(r)
	end := pos
	for end < n && isDigit(r[end]) {
		end++
	}
	// A run longer than a group is taken whole and cannot be followed by separated groups.
	if end-pos > 3 {
		return end, string(r[pos:end])
	}

	var b strings.Builder
	b.WriteString(string(r[pos:end]))

	var sep rune
	type group struct {
		end    int
		digits string
	}
	var groups []group
	k := end
	for k+3 < n && isNumberSeparator(r[k]) && (sep == 0 || r[k] == sep) &&
		isDigit(r[k+1]) && isDigit(r[k+2]) && isDigit(r[k+3]) {
		if sep == 0 {
			sep = r[k]
		}
		groups = append(groups, group{end: k + 4, digits: string(r[k+1 : k+4])})
		k += 4
	}
	// A group directly followed by another digit is not a thousand group.
	if len(groups) > 0 {
		last := groups[len(groups)-1]
		if last.end < n && isDigit(r[last.end]) {
			groups = groups[:len(groups)-1]
		}
	}
	for _, g := range groups {
		b.WriteString(g.digits)
		end = g.end
	}
	return end, b.String()
}

func wordBefore(r []rune, start int) string {
	i := start
	for i > 0 && isSpace(r[i-1]) {
		i--
	}
	wordEnd := i
	for i > 0 && isWordRune(r[i-1]) {
		i--
	}
	return string(r[i:wordEnd])
}

func wordAfter(r []rune, end int) string {
	n := len(r)
	i := end
	for i < n && isSpace(r[i]) {
		i++
	}
	wordStart := i
	for i < n && isWordRune(r[i]) {
		i++
	}
	return string(r[wordStart:i])
}
