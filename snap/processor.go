package snap

// Outcome is a processed command line: the selected pattern with its
// descriptor, or the short-circuit option, plus every option invocation
// that belongs to this registry.
type Outcome struct {
	Kind       ResultKind // never ResultError
	Pattern    int        // -1 when short-circuited
	Descriptor Descriptor
	Ambiguous  bool

	// Option and Invocation identify the short-circuit option.
	Option     int
	Invocation int

	// Offset and Remaining describe where a delegated pattern stopped.
	Offset    int
	Remaining []string

	Args        []string
	Tokens      []Token
	Invocations []Invocation
}

// Token returns the residual token text at pos.
func (o *Outcome) Token(pos int) string { return o.Tokens[pos].Text }

// Value returns the text bound to a DescValue descriptor.
func (o *Outcome) Value(d Descriptor) string {
	if d.Kind != DescValue {
		return ""
	}
	return o.Tokens[d.Position].Text
}

// Values returns the texts of every value bound under d, in order.
func (o *Outcome) Values(d Descriptor) []string {
	positions := d.Values()
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = o.Tokens[p].Text
	}
	return out
}

// Processor runs the full pipeline: scan, match and bind. It is safe for
// concurrent use once constructed.
type Processor struct {
	reg     *Registry
	matcher *Matcher
	errors  *ErrorHandler
}

// NewProcessor seals reg and returns a processor for it.
func NewProcessor(reg *Registry) *Processor {
	return &Processor{
		reg:     reg,
		matcher: NewMatcher(reg),
		errors:  NewErrorHandler(),
	}
}

// WithErrorHandler replaces the error decorator.
func (p *Processor) WithErrorHandler(eh *ErrorHandler) *Processor {
	p.errors = eh
	return p
}

// Registry returns the processor's registry.
func (p *Processor) Registry() *Registry { return p.reg }

// Process matches args. Failures are *MatchError.
func (p *Processor) Process(args []string) (*Outcome, error) {
	sc := Scan(p.reg, args)
	res := p.matcher.Match(sc)

	// Argument errors only count for arguments this registry keeps.
	cutoff := len(args)
	if res.Kind == ResultDelegated || res.Kind == ResultShortCircuited {
		cutoff = res.Offset
	}
	if me := sc.ArgError(cutoff); me != nil {
		return nil, p.errors.ProcessError(me, p.reg)
	}
	if res.Kind == ResultError {
		return nil, p.errors.ProcessError(res.Err, p.reg)
	}

	out := &Outcome{
		Kind:        res.Kind,
		Pattern:     res.Pattern,
		Ambiguous:   res.Ambiguous,
		Option:      res.Option,
		Invocation:  res.Invocation,
		Args:        args,
		Tokens:      sc.Tokens,
		Invocations: sc.Invocations,
	}

	switch res.Kind {
	case ResultShortCircuited:
		return out, nil
	case ResultDelegated:
		out.Offset = res.Offset
		out.Remaining = res.Remaining
		out.Invocations = invocationsBefore(sc.Invocations, res.Offset)
		out.Tokens = tokensBefore(sc.Tokens, res.Offset)
	}
	out.Descriptor = Bind(p.reg, res.Pattern, res.Positions, res.Choices)
	return out, nil
}

func invocationsBefore(invs []Invocation, offset int) []Invocation {
	for i, inv := range invs {
		if inv.Raw >= offset {
			return invs[:i:i]
		}
	}
	return invs
}

func tokensBefore(toks []Token, offset int) []Token {
	for i, tok := range toks {
		if tok.Raw >= offset {
			return toks[:i:i]
		}
	}
	return toks
}
