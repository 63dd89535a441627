package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// ClosestName returns the candidate most similar to name, if any candidate is similar enough to
// plausibly be a typo of it.
func ClosestName(name string, candidates []string) (string, bool) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return "", false
	}

	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := matchr.JaroWinkler(normalized, NormalizeName(c), false)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < 0.85 {
		return "", false
	}
	return best, true
}
