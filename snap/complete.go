package snap

import (
	"slices"
	"strings"
)

// Completer lists what may follow a partial command line.
type Completer struct {
	m *Matcher
}

// NewCompleter seals reg and returns a completer for it.
func NewCompleter(reg *Registry) *Completer {
	return &Completer{m: NewMatcher(reg)}
}

// Complete returns the keywords and option forms that can follow the
// complete arguments args and start with partial, sorted. Keywords come
// from every pattern that can still match args; unlisted patterns are
// skipped unless marked completing. Listed options not referenced by any
// pattern can appear anywhere and are always offered until "--".
func (c *Completer) Complete(args []string, partial string) []string {
	reg := c.m.reg
	sc := Scan(reg, args)
	if sc.ArgError(len(args)) != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(word string) {
		if !strings.HasPrefix(word, partial) {
			return
		}
		if _, dup := seen[word]; dup {
			return
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	addOption := func(id int) {
		opt := reg.Option(id)
		if opt.Attrs.Has(OptionUnlisted) {
			return
		}
		for _, f := range opt.Forms {
			add(f.String())
		}
	}

	optionsOpen := !slices.Contains(args, "--")

	for i := range reg.patterns {
		pat := &reg.patterns[i]
		if pat.Attrs.Has(PatternUnlisted) && !pat.Attrs.Has(PatternCompleting) {
			continue
		}
		s := c.m.newSim(sc, i)
		s.collect = func(sym Symbol) {
			switch sym.Kind {
			case SymbolKeyword:
				add(reg.store.Keyword(sym.ID))
			case SymbolOption:
				if optionsOpen {
					addOption(int(sym.ID))
				}
			}
		}
		s.run(1)
		s.release()
	}

	if optionsOpen {
		for id := range reg.options {
			if !reg.IsPatternOption(id) {
				addOption(id)
			}
		}
	}

	slices.Sort(out)
	return out
}
