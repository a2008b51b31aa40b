package gateway

import "regexp"

// symbolPattern matches a candidate ticker symbol: one to five consecutive
// uppercase letters on word boundaries.
var symbolPattern = regexp.MustCompile(`\b([A-Z]{1,5})\b`)

// extractSymbol returns the first ticker-like token in the query, or the
// empty string when none is present. Financial providers return nothing for
// queries without a symbol.
func extractSymbol(query string) string {
	match := symbolPattern.FindStringSubmatch(query)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
