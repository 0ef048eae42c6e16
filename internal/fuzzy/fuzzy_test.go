//nolint:testpackage // using package name 'fuzzy' to access unexported fields for testing
package fuzzy

import (
	"testing"
)

func TestMatcher_FindBest(t *testing.T) {
	matcher := NewMatcher(2)

	tests := []struct {
		name       string
		input      string
		candidates []string
		expected   string
	}{
		{
			name:       "exact match excluded",
			input:      "commit",
			candidates: []string{"commit", "clone", "config"},
			expected:   "",
		},
		{
			name:       "missing letter",
			input:      "comit",
			candidates: []string{"commit", "clone", "config"},
			expected:   "commit",
		},
		{
			name:       "transposition",
			input:      "stauts",
			candidates: []string{"status", "stash", "show"},
			expected:   "status",
		},
		{
			name:       "no good match",
			input:      "xyz",
			candidates: []string{"help", "version", "verbose"},
			expected:   "",
		},
		{
			name:       "input too short",
			input:      "x",
			candidates: []string{"xy", "version"},
			expected:   "",
		},
		{
			name:       "case insensitive",
			input:      "COMIT",
			candidates: []string{"commit", "clone"},
			expected:   "commit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matcher.FindBest(tt.input, tt.candidates)
			if result != tt.expected {
				t.Errorf("FindBest(%q, %v) = %q, want %q", tt.input, tt.candidates, result, tt.expected)
			}
		})
	}
}

func TestMatcher_FindMatchesSorted(t *testing.T) {
	matcher := NewMatcher(2)
	matches := matcher.FindMatches("hep", []string{"deep", "help", "heap", "version"})

	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(matches), matches)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Score < matches[i].Score {
			t.Errorf("matches not sorted by score: %f < %f", matches[i-1].Score, matches[i].Score)
		}
	}
	if matches[2].Value != "deep" {
		t.Errorf("expected deep ranked last, got %q", matches[2].Value)
	}
}

func TestMatcher_Distance(t *testing.T) {
	matcher := NewMatcher(5)

	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"add", "add", 0},
		{"kitten", "sitting", 3},
		{"comit", "commit", 1},
	}

	for _, tt := range tests {
		if got := matcher.distance(tt.a, tt.b); got != tt.want {
			t.Errorf("distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatcher_EarlyTermination(t *testing.T) {
	matcher := NewMatcher(1)

	if got := matcher.distance("abcdef", "uvwxyz"); got != 2 {
		t.Errorf("expected early exit at maxDistance+1 = 2, got %d", got)
	}
	if got := matcher.distance("ab", "abcdef"); got != 2 {
		t.Errorf("expected length-difference exit at 2, got %d", got)
	}
}

func TestMatcher_ScoreRange(t *testing.T) {
	matcher := NewMatcher(3)

	for _, pair := range [][2]string{{"help", "hepl"}, {"status", "stat"}, {"a", "b"}} {
		d := matcher.distance(pair[0], pair[1])
		s := matcher.score(pair[0], pair[1], d)
		if s < 0 || s > 1 {
			t.Errorf("score(%q, %q) = %f out of range", pair[0], pair[1], s)
		}
	}
}

func TestFindBestKeyword(t *testing.T) {
	if got := FindBestKeyword("remve", []string{"add", "remove", "list"}, 2); got != "remove" {
		t.Errorf("FindBestKeyword = %q, want remove", got)
	}
}

func TestFindBestOption(t *testing.T) {
	forms := []string{"--verbose", "-v", "--version"}

	tests := []struct {
		input string
		want  string
	}{
		{"--verbos", "--verbose"},
		{"-verbose", "--verbose"},
		{"--verbose", ""},
		{"--zzzzzz", ""},
	}

	for _, tt := range tests {
		if got := FindBestOption(tt.input, forms, 2); got != tt.want {
			t.Errorf("FindBestOption(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFindOptionSuggestions(t *testing.T) {
	got := FindOptionSuggestions("--colr", []string{"--color", "--colour", "-c"}, 2, 5)
	if len(got) != 2 || got[0] != "--color" || got[1] != "--colour" {
		t.Errorf("FindOptionSuggestions = %v, want [--color --colour]", got)
	}

	limited := FindOptionSuggestions("--colr", []string{"--color", "--colour"}, 2, 1)
	if len(limited) != 1 {
		t.Errorf("expected 1 suggestion, got %v", limited)
	}
}

func TestFindSuggestions(t *testing.T) {
	got := FindSuggestions("hep", []string{"help", "heap", "deep", "version"}, 2, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %v", got)
	}
	for _, s := range got {
		if s == "deep" {
			t.Errorf("deep should rank below help and heap: %v", got)
		}
	}
}

func TestCommonPrefixLength(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"commit", "comment", 4},
		{"abc", "xyz", 0},
		{"", "abc", 0},
		{"same", "same", 4},
	}
	for _, tt := range tests {
		if got := commonPrefixLength(tt.a, tt.b); got != tt.want {
			t.Errorf("commonPrefixLength(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCountCommonChars(t *testing.T) {
	if got := countCommonChars("hello", "world"); got != 2 {
		t.Errorf("countCommonChars(hello, world) = %d, want 2", got)
	}
	if got := countCommonChars("aab", "abb"); got != 2 {
		t.Errorf("countCommonChars(aab, abb) = %d, want 2", got)
	}
}
