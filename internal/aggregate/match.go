package aggregate

import (
	"strings"

	"golang.org/x/text/cases"
)

// minTokenLen filters out short connective tokens ("of", "&", "co") that
// would make the all-tokens check trivially true.
const minTokenLen = 3

var fold = cases.Fold()

// NameMatches reports whether a candidate listing name should be treated as
// the target business. This is the lower-confidence fallback used only when
// the provider supplied no authoritative target observations: a candidate
// matches when the full target name is a substring of it, or when every
// target token of length >= minTokenLen appears in it. Matching is
// case-insensitive via Unicode case folding.
func NameMatches(target, candidate string) bool {
	t := fold.String(strings.TrimSpace(target))
	if t == "" {
		return false
	}
	c := fold.String(candidate)

	if strings.Contains(c, t) {
		return true
	}

	var significant int
	for _, tok := range strings.Fields(t) {
		if len(tok) < minTokenLen {
			continue
		}
		significant++
		if !strings.Contains(c, tok) {
			return false
		}
	}
	return significant > 0
}
