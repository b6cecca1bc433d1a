package diag

import (
	"fmt"
	"strings"
)

// SuggestValue proposes the closest allowed value for a rejected one.
// It returns "" when nothing is close enough.
func SuggestValue(got string, allowed []string) string {
	best, dist := closest(got, allowed)
	if best == "" || dist >= 5 || dist >= len([]rune(got)) {
		return ""
	}
	return fmt.Sprintf("Did you mean '%s'?", best)
}

// SuggestKey proposes an existing key for a misspelled one, or lists a few
// valid keys when none is close.
func SuggestKey(unknown string, valid []string) string {
	if len(valid) == 0 {
		return ""
	}
	best, dist := closest(unknown, valid)
	if dist < 3 {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}
	if len(valid) > 5 {
		return fmt.Sprintf("Valid keys include: %s, ...", strings.Join(valid[:5], ", "))
	}
	return fmt.Sprintf("Valid keys: %s", strings.Join(valid, ", "))
}

func closest(s string, candidates []string) (string, int) {
	minDistance := 1 << 30
	var bestMatch string
	for _, c := range candidates {
		d := levenshteinDistance(strings.ToLower(s), strings.ToLower(c))
		if d < minDistance {
			minDistance = d
			bestMatch = c
		}
	}
	return bestMatch, minDistance
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	r1, r2 := []rune(s1), []rune(s2)

	prev := make([]int, len(r2)+1)
	cur := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		cur[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // Deletion
				cur[j-1]+1,     // Insertion
				prev[j-1]+cost, // Substitution
			)
		}
		prev, cur = cur, prev
	}

	return prev[len(r2)]
}
