package snap

import (
	"strings"
)

// OptionForm is one spelling of an option: "-v" (Long false, Name "v") or
// "--verbose" (Long true, Name "verbose").
type OptionForm struct {
	Long bool
	Name string
}

func (f OptionForm) String() string {
	if f.Long {
		return "--" + f.Name
	}
	return "-" + f.Name
}

// ArgKind says whether an option takes an argument.
type ArgKind uint8

const (
	ArgNone ArgKind = iota
	ArgOptional
	ArgMandatory
)

func (k ArgKind) String() string {
	switch k {
	case ArgNone:
		return "none"
	case ArgOptional:
		return "optional"
	case ArgMandatory:
		return "mandatory"
	default:
		return "unknown"
	}
}

// ArgSpec describes an option argument. Label is the text between the angle
// brackets.
type ArgSpec struct {
	Kind  ArgKind
	Label string
}

func (a ArgSpec) String() string {
	switch a.Kind {
	case ArgOptional:
		return "[<" + a.Label + ">]"
	case ArgMandatory:
		return "<" + a.Label + ">"
	default:
		return ""
	}
}

// OptionAttr is a bitmask of option attributes.
type OptionAttr uint8

const (
	// OptionShortCircuit stops pattern matching as soon as the option is
	// seen, the way --help or --version usually behave.
	OptionShortCircuit OptionAttr = 1 << iota
	// OptionUnlisted hides the option from completion.
	OptionUnlisted
)

// Has reports whether all bits of attr are set.
func (a OptionAttr) Has(attr OptionAttr) bool { return a&attr == attr }

// Option is a registered option.
type Option struct {
	Forms       []OptionForm
	Arg         ArgSpec
	Attrs       OptionAttr
	Description string
	Action      Action
}

// Name returns the preferred display form: the first long form, otherwise
// the first form.
func (o *Option) Name() string {
	for _, f := range o.Forms {
		if f.Long {
			return f.String()
		}
	}
	return o.Forms[0].String()
}

// ParseOptionForms parses a comma-separated list of option forms such as
// "-f, --force". Failures are *CompileError with ErrorTypeBadOptionFormsSyntax.
func ParseOptionForms(text string) ([]OptionForm, error) {
	forms, err := parseOptionForms(text)
	if err != nil {
		return nil, newCompileError(err, 0, text)
	}
	return forms, nil
}

// ParseOptionArg parses an option argument spec: "" for none, "<arg>" for a
// mandatory argument, "[<arg>]" for an optional one. Failures are
// *CompileError with ErrorTypeBadOptionArgSyntax.
func ParseOptionArg(text string) (ArgSpec, error) {
	spec, err := parseOptionArg(text)
	if err != nil {
		return ArgSpec{}, newCompileError(err, 0, text)
	}
	return spec, nil
}

func parseOptionForms(text string) ([]OptionForm, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, formsError(err)
	}
	p := newParser(toks)
	if p.peek().kind == tokEOF {
		return nil, formsError(syntaxErrorf(0, "no option forms"))
	}
	items, err := p.parseList()
	if err != nil {
		return nil, formsError(err)
	}

	forms := make([]OptionForm, 0, len(items))
	for _, seq := range items {
		kids := p.t.children(seq)
		if len(kids) != 1 || p.t.nodes[kids[0]].kind != nodeLeaf {
			return nil, formsError(syntaxErrorf(p.t.nodes[seq].off, "option form must be a single -x or --name"))
		}
		tk := p.t.nodes[kids[0]].tok
		switch tk.kind {
		case tokShort:
			forms = append(forms, OptionForm{Name: tk.text[1:]})
		case tokLong:
			forms = append(forms, OptionForm{Long: true, Name: tk.text[2:]})
		default:
			return nil, formsError(syntaxErrorf(tk.off, "%q is not an option form", tk.text))
		}
	}

	seen := make(map[OptionForm]bool, len(forms))
	for _, f := range forms {
		if seen[f] {
			return nil, &compileFailure{code: ErrorTypeBadOptionFormsSyntax, off: strings.Index(text, f.String()),
				msg: "duplicate option form " + f.String()}
		}
		seen[f] = true
	}
	return forms, nil
}

func parseOptionArg(text string) (ArgSpec, error) {
	toks, err := lex(text)
	if err != nil {
		return ArgSpec{}, argError(err)
	}
	p := newParser(toks)
	if p.peek().kind == tokEOF {
		return ArgSpec{Kind: ArgNone}, nil
	}
	root, err := p.parsePattern()
	if err != nil {
		return ArgSpec{}, argError(err)
	}

	kids := p.t.children(root)
	if len(kids) == 1 {
		n := p.t.nodes[kids[0]]
		if n.kind == nodeLeaf && n.tok.kind == tokValue {
			return ArgSpec{Kind: ArgMandatory, Label: valueLabel(n.tok.text)}, nil
		}
		if n.kind == nodeOptional {
			inner := p.t.children(p.t.children(kids[0])[0])
			if len(inner) == 1 {
				in := p.t.nodes[inner[0]]
				if in.kind == nodeLeaf && in.tok.kind == tokValue {
					return ArgSpec{Kind: ArgOptional, Label: valueLabel(in.tok.text)}, nil
				}
			}
		}
	}
	return ArgSpec{}, &compileFailure{code: ErrorTypeBadOptionArgSyntax, off: 0,
		msg: "option argument must be <arg> or [<arg>]"}
}

func valueLabel(text string) string {
	return text[1 : len(text)-1]
}

func formsError(err error) error {
	return recode(err, ErrorTypeBadOptionFormsSyntax)
}

func argError(err error) error {
	return recode(err, ErrorTypeBadOptionArgSyntax)
}

func recode(err error, code ErrorType) error {
	if se, ok := err.(*syntaxError); ok {
		return &compileFailure{code: code, off: se.off, msg: se.msg}
	}
	return err
}
