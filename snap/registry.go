package snap

import (
	"sync"
	"sync/atomic"

	"github.com/dzonerzy/snap-patterns/internal/intern"
)

// Policy selects which ambiguities the matcher tolerates.
type Policy struct {
	// AllowCrossPatternAmbiguity lets the first registered pattern win when
	// several match; otherwise cross_pattern_ambiguity is reported.
	AllowCrossPatternAmbiguity bool
	// AllowPatternInternalAmbiguity skips the search for a second binding of
	// the winning pattern. When false, Result.Ambiguous reports whether one
	// exists.
	AllowPatternInternalAmbiguity bool
}

// Registry holds compiled patterns and options. Registration is
// single-threaded; the first match seals it, after which it is read-only and
// safe to share between goroutines.
type Registry struct {
	store    *Store
	patterns []Pattern
	options  []Option
	forms    map[OptionForm]int32
	policy   Policy

	sealOnce sync.Once
	sealed   atomic.Bool

	// patternOption[i] is set when some pattern references option i.
	patternOption []bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		store:    NewStore(),
		patterns: make([]Pattern, 0, 8),
		options:  make([]Option, 0, 8),
		forms:    make(map[OptionForm]int32, 16),
	}
}

// SetPolicy replaces the ambiguity policy.
func (r *Registry) SetPolicy(p Policy) error {
	if r.sealed.Load() {
		return ErrRegistrySealed
	}
	r.policy = p
	return nil
}

// Policy returns the ambiguity policy.
func (r *Registry) Policy() Policy { return r.policy }

// Store returns the structure store.
func (r *Registry) Store() *Store { return r.store }

// NumPatterns returns the number of patterns.
func (r *Registry) NumPatterns() int { return len(r.patterns) }

// Pattern returns pattern i.
func (r *Registry) Pattern(i int) *Pattern { return &r.patterns[i] }

// NumOptions returns the number of options.
func (r *Registry) NumOptions() int { return len(r.options) }

// Option returns option i.
func (r *Registry) Option(i int) *Option { return &r.options[i] }

// LookupOption resolves "-x" or "--name" to an option id.
func (r *Registry) LookupOption(form string) (int, bool) {
	f, ok := splitForm(form)
	if !ok {
		return -1, false
	}
	id, ok := r.forms[f]
	return int(id), ok
}

// IsPatternOption reports whether some pattern references option id. Only
// meaningful once sealed.
func (r *Registry) IsPatternOption(id int) bool {
	return id < len(r.patternOption) && r.patternOption[id]
}

// Sealed reports whether matching has started.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

func splitForm(form string) (OptionForm, bool) {
	switch {
	case len(form) > 2 && form[0] == '-' && form[1] == '-':
		return OptionForm{Long: true, Name: form[2:]}, true
	case len(form) == 2 && form[0] == '-' && form[1] != '-':
		return OptionForm{Name: form[1:]}, true
	default:
		return OptionForm{}, false
	}
}

// AddPattern compiles text and appends it, returning the pattern id. On
// failure the store is rolled back and the error is a *CompileError.
func (r *Registry) AddPattern(text string, attrs PatternAttr, descr string, action Action) (int, error) {
	if r.sealed.Load() {
		return -1, ErrRegistrySealed
	}
	mark := r.store.mark()

	seq, stored, err := r.compilePattern(text, action)
	if err != nil {
		r.store.rollback(mark)
		return -1, newCompileError(err, len(r.patterns)+1, text)
	}

	r.patterns = append(r.patterns, Pattern{
		Text:        r.store.Text(stored),
		Attrs:       attrs,
		Description: r.store.Text(r.store.addText(descr)),
		Action:      action,
		Seq:         seq,
	})
	return len(r.patterns) - 1, nil
}

func (r *Registry) compilePattern(text string, action Action) (int32, intern.Span, error) {
	toks, err := lex(text)
	if err != nil {
		return -1, intern.Span{}, err
	}
	p := newParser(toks)
	root, err := p.parsePattern()
	if err != nil {
		return -1, intern.Span{}, err
	}

	stored := r.store.addText(text)
	c := &compiler{
		store: r.store,
		t:     p.t,
		base:  stored.Off,
		lookupOption: func(form string) (int32, bool) {
			id, ok := r.LookupOption(form)
			return int32(id), ok
		},
	}
	seq, err := c.compile(root)
	if err != nil {
		return -1, stored, err
	}

	top := r.store.Sequence(seq)
	if action != nil {
		if action.IsDelegating() && top.NumValues > 0 {
			return -1, stored, failf(ErrorTypeDelegatingPatternHasValues, -1,
				"delegating pattern must not contain value slots")
		}
		if n := action.ExpectedParamArity(); n >= 0 && n != top.NumParams {
			return -1, stored, failf(ErrorTypeActionArityMismatch, -1,
				"action expects %d parameters, pattern has %d", n, top.NumParams)
		}
	}
	return seq, stored, nil
}

// AddOption parses forms and arg and appends the option, returning its id.
// Every form must be new to the registry. On failure the error is a
// *CompileError.
func (r *Registry) AddOption(forms, arg string, attrs OptionAttr, descr string, action Action) (int, error) {
	if r.sealed.Load() {
		return -1, ErrRegistrySealed
	}
	index := len(r.options) + 1

	parsed, err := parseOptionForms(forms)
	if err != nil {
		return -1, newCompileError(err, index, forms)
	}
	spec, err := parseOptionArg(arg)
	if err != nil {
		return -1, newCompileError(err, index, arg)
	}
	for _, f := range parsed {
		if _, dup := r.forms[f]; dup {
			return -1, &CompileError{
				Type:    ErrorTypeBadOptionFormsSyntax,
				Index:   index,
				Offset:  -1,
				Text:    forms,
				Message: "option form " + f.String() + " is already registered",
			}
		}
	}

	// Copy names and labels into the arena.
	for i := range parsed {
		parsed[i].Name = r.store.Text(r.store.addText(parsed[i].Name))
	}
	spec.Label = r.store.Text(r.store.addText(spec.Label))

	id := int32(len(r.options))
	for _, f := range parsed {
		r.forms[f] = id
	}
	r.options = append(r.options, Option{
		Forms:       parsed,
		Arg:         spec,
		Attrs:       attrs,
		Description: r.store.Text(r.store.addText(descr)),
		Action:      action,
	})
	return int(id), nil
}

// seal freezes the registry. It synthesizes the implicit empty pattern when
// none was registered and records which options patterns reference.
func (r *Registry) seal() {
	r.sealOnce.Do(func() {
		if len(r.patterns) == 0 {
			r.patterns = append(r.patterns, Pattern{
				Seq:      r.store.addSequence(nil),
				Implicit: true,
			})
		}

		r.patternOption = make([]bool, len(r.options))
		for i := range r.store.elements {
			e := &r.store.elements[i]
			if e.Kind == ElementLeaf && e.Symbol.Kind == SymbolOption {
				r.patternOption[e.Symbol.ID] = true
			}
		}
		r.sealed.Store(true)
	})
}

// keywordNames lists every keyword in id order.
func (r *Registry) keywordNames() []string {
	names := make([]string, r.store.NumKeywords())
	for i := range names {
		names[i] = r.store.Keyword(int32(i))
	}
	return names
}

// optionFormNames lists every option form in registration order.
func (r *Registry) optionFormNames() []string {
	names := make([]string, 0, len(r.forms))
	for i := range r.options {
		for _, f := range r.options[i].Forms {
			names = append(names, f.String())
		}
	}
	return names
}
