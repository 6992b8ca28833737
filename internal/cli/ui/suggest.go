package ui

import (
	"sort"
	"strings"
)

// MaxSuggestionDistance is the largest edit distance still offered as a
// suggestion
const MaxSuggestionDistance = 3

// Suggest returns up to limit candidates closest to target, ignoring case
func Suggest(target string, candidates []string, limit int) []string {
	type scored struct {
		value    string
		distance int
	}

	target = strings.ToLower(target)
	var matches []scored
	for _, c := range candidates {
		if d := Distance(target, strings.ToLower(c)); d <= MaxSuggestionDistance {
			matches = append(matches, scored{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// Distance is the Levenshtein distance between a and b, counted in runes
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
