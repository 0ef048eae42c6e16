package snap

import "strings"

// PatternAttr is a bitmask of pattern attributes.
type PatternAttr uint8

const (
	// PatternShortCircuit marks a pattern whose action runs without option
	// handlers, like an explicit "help" keyword.
	PatternShortCircuit PatternAttr = 1 << iota
	// PatternCompleting offers the pattern's keywords in completions even
	// when the pattern is unlisted.
	PatternCompleting
	// PatternFurtherArgsAreValues lets value slots consume option-looking
	// tokens the scanner did not recognise.
	PatternFurtherArgsAreValues
	// PatternUnlisted hides the pattern from listings and completion.
	PatternUnlisted
)

// Has reports whether all bits of attr are set.
func (a PatternAttr) Has(attr PatternAttr) bool { return a&attr == attr }

var patternAttrNames = []struct {
	attr PatternAttr
	name string
}{
	{PatternShortCircuit, "short_circuit"},
	{PatternCompleting, "completing"},
	{PatternFurtherArgsAreValues, "further_args_are_values"},
	{PatternUnlisted, "unlisted"},
}

func (a PatternAttr) String() string {
	var names []string
	for _, n := range patternAttrNames {
		if a.Has(n.attr) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParsePatternAttr maps an attribute name to its bit.
func ParsePatternAttr(name string) (PatternAttr, bool) {
	for _, n := range patternAttrNames {
		if n.name == name {
			return n.attr, true
		}
	}
	return 0, false
}

// Pattern is a registered command-line shape. Text and Description are
// stored in the registry's arena.
type Pattern struct {
	Text        string
	Attrs       PatternAttr
	Description string
	Action      Action
	Seq         int32
	// Implicit is set on the empty pattern synthesized for a registry that
	// had none.
	Implicit bool
}

// IsDelegating reports whether the pattern's action delegates.
func (p *Pattern) IsDelegating() bool {
	return p.Action != nil && p.Action.IsDelegating()
}
