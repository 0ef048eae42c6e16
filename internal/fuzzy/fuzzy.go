// Package fuzzy ranks near-miss spellings of keywords and option forms.
// The pattern matcher uses it to attach "did you mean" suggestions to
// no_pattern_match and bad_option errors.
package fuzzy

import (
	"sort"
	"strings"
)

// Matcher ranks candidates by edit distance to an input.
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a matcher accepting candidates within maxDistance edits.
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{
		maxDistance: maxDistance,
		minLength:   2, // one-letter inputs produce noise
	}
}

// Match is one ranked candidate.
type Match struct {
	Value    string
	Distance int
	Score    float64 // 0.0 to 1.0, higher is better
}

// FindBest returns the best candidate, or "" when none is close enough.
func (m *Matcher) FindBest(input string, candidates []string) string {
	matches := m.FindMatches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// FindMatches returns every candidate within range, best first. Exact
// matches are skipped; they are not suggestions.
func (m *Matcher) FindMatches(input string, candidates []string) []Match {
	if len(input) < m.minLength {
		return nil
	}

	var matches []Match
	input = strings.ToLower(input)

	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if input == lower {
			continue
		}

		distance := m.distance(input, lower)
		if distance > m.maxDistance {
			continue
		}
		matches = append(matches, Match{
			Value:    candidate,
			Distance: distance,
			Score:    m.score(input, lower, distance),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// score weighs edit distance, shared prefix, length similarity and shared
// characters into a value in [0, 1].
func (m *Matcher) score(input, candidate string, distance int) float64 {
	maxLen := max(len(input), len(candidate))
	if maxLen == 0 {
		return 1.0
	}

	editScore := 1.0 - float64(distance)/float64(maxLen)

	prefixBonus := 0.0
	if p := commonPrefixLength(input, candidate); p > 0 {
		prefixBonus = float64(p) / float64(min(len(input), len(candidate))) * 0.3
	}

	lengthBonus := (1.0 - float64(abs(len(input)-len(candidate)))/float64(maxLen)) * 0.2
	charBonus := float64(countCommonChars(input, candidate)) / float64(maxLen) * 0.1

	return min(editScore+prefixBonus+lengthBonus+charBonus, 1.0)
}

// distance is a two-row Levenshtein that gives up as soon as every cell of
// a row exceeds maxDistance.
func (m *Matcher) distance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if abs(len(a)-len(b)) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for i := 1; i <= len(b); i++ {
		cur[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			cur[j] = min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
			rowMin = min(rowMin, cur[j])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, cur = cur, prev
	}

	return prev[len(a)]
}

func commonPrefixLength(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func countCommonChars(a, b string) int {
	counts := make(map[rune]int)
	for _, r := range a {
		counts[r]++
	}
	common := 0
	for _, r := range b {
		if counts[r] > 0 {
			common++
			counts[r]--
		}
	}
	return common
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// FindBestKeyword returns the closest pattern keyword to input.
func FindBestKeyword(input string, keywords []string, maxDistance int) string {
	return NewMatcher(maxDistance).FindBest(input, keywords)
}

// FindBestOption returns the closest option form to input. Leading dashes
// are ignored while ranking so "-verbose" still finds "--verbose", but the
// returned value is the candidate as written.
func FindBestOption(input string, forms []string, maxDistance int) string {
	matches := FindOptionSuggestions(input, forms, maxDistance, 1)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// FindOptionSuggestions ranks option forms like FindSuggestions with leading
// dashes stripped from both sides.
func FindOptionSuggestions(input string, forms []string, maxDistance, maxSuggestions int) []string {
	bare := make([]string, len(forms))
	for i, f := range forms {
		bare[i] = strings.TrimLeft(f, "-")
	}
	in := strings.TrimLeft(input, "-")

	var out []string
	seen := make(map[string]bool)

	// Same name, wrong dash count.
	for i, b := range bare {
		if len(out) < maxSuggestions && b == in && forms[i] != input && !seen[forms[i]] {
			seen[forms[i]] = true
			out = append(out, forms[i])
		}
	}

	matches := NewMatcher(maxDistance).FindMatches(in, bare)
	for _, match := range matches {
		if len(out) >= maxSuggestions {
			break
		}
		for i, b := range bare {
			if b == match.Value && !seen[forms[i]] && forms[i] != input {
				seen[forms[i]] = true
				out = append(out, forms[i])
				break
			}
		}
	}
	return out
}

// FindSuggestions returns up to maxSuggestions candidates, best first.
func FindSuggestions(input string, candidates []string, maxDistance, maxSuggestions int) []string {
	matches := NewMatcher(maxDistance).FindMatches(input, candidates)

	suggestions := make([]string, 0, min(len(matches), maxSuggestions))
	for _, match := range matches {
		if len(suggestions) >= maxSuggestions {
			break
		}
		suggestions = append(suggestions, match.Value)
	}
	return suggestions
}
