package snap

import (
	"fmt"
	"strings"
)

// Invocation is one recognised occurrence of an option. Raw is the index in
// the argument list of the argument that named the option.
type Invocation struct {
	Option int
	Arg    string
	HasArg bool
	Raw    int
}

// Token is a residual argument left for pattern matching. OptionLike marks an
// argument that looked like an option but named none of the registry's.
type Token struct {
	Text       string
	Raw        int
	OptionLike bool
}

// Scanned is the argument list split into option invocations and residual
// tokens, both in encounter order.
type Scanned struct {
	Args        []string
	Invocations []Invocation
	Tokens      []Token

	// ends[i] is the raw index just past the arguments of Invocations[i].
	ends []int
	// held are argument errors, reported only for arguments that end up
	// belonging to this registry.
	held []heldError
}

type heldError struct {
	raw int
	err *MatchError
}

// ArgError returns the first bad_option_arg error found before raw index
// cutoff, or nil. Arguments at or past the cutoff belong to a nested
// registry and are not checked against this one's option forms.
func (sc *Scanned) ArgError(cutoff int) *MatchError {
	for _, h := range sc.held {
		if h.raw < cutoff {
			return h.err
		}
	}
	return nil
}

type scanState uint8

const (
	stateOptions scanState = iota
	statePositional
)

// scanner splits arguments against a registry's option forms.
type scanner struct {
	reg      *Registry
	args     []string
	position int
	state    scanState
	out      *Scanned
}

// Scan splits args into option invocations and residual tokens.
//
// "--" ends option recognition. "--name=value" attaches an argument to any
// option that takes one; a mandatory argument may also be the next
// argument. Short options bundle ("-abc") and the first one taking an
// argument consumes the rest of the bundle. Unknown option-looking
// arguments are kept as OptionLike tokens for the matcher to report.
//
// An argument that misuses a known option (a missing mandatory argument, or
// one given to an option that takes none) is kept as an OptionLike token
// and its error is held in the result; see ArgError.
func Scan(reg *Registry, args []string) *Scanned {
	s := &scanner{
		reg:  reg,
		args: args,
		out: &Scanned{
			Args:        args,
			Invocations: make([]Invocation, 0, 4),
			Tokens:      make([]Token, 0, len(args)),
			ends:        make([]int, 0, 4),
		},
	}

	for s.position < len(s.args) {
		s.scanArgument(s.args[s.position])
		s.position++
	}
	return s.out
}

func (s *scanner) scanArgument(arg string) {
	if s.state == statePositional {
		s.token(arg, false)
		return
	}

	var err *MatchError
	mark := len(s.out.Invocations)
	switch {
	case arg == "--":
		s.state = statePositional
	case len(arg) > 2 && arg[0] == '-' && arg[1] == '-':
		err = s.scanLong(arg)
	case len(arg) > 1 && arg[0] == '-':
		err = s.scanShort(arg)
	default:
		// Includes "" and a lone "-".
		s.token(arg, false)
	}
	if err != nil {
		s.out.Invocations = s.out.Invocations[:mark]
		s.out.ends = s.out.ends[:mark]
		s.out.held = append(s.out.held, heldError{raw: s.position, err: err})
		s.token(arg, true)
	}
}

func (s *scanner) token(text string, optionLike bool) {
	s.out.Tokens = append(s.out.Tokens, Token{Text: text, Raw: s.position, OptionLike: optionLike})
}

// invoke records an invocation named at raw whose arguments end at the
// current position.
func (s *scanner) invoke(id int, arg string, hasArg bool, raw int) {
	s.out.Invocations = append(s.out.Invocations, Invocation{Option: id, Arg: arg, HasArg: hasArg, Raw: raw})
	s.out.ends = append(s.out.ends, s.position+1)
}

func (s *scanner) scanLong(arg string) *MatchError {
	name, value, hasValue := strings.Cut(arg[2:], "=")

	id, ok := s.reg.forms[OptionForm{Long: true, Name: name}]
	if !ok {
		s.token(arg, true)
		return nil
	}
	opt := &s.reg.options[id]
	raw := s.position

	switch opt.Arg.Kind {
	case ArgNone:
		if hasValue {
			return s.argError(opt, "--"+name, "option --%s does not take an argument", name)
		}
		s.invoke(int(id), "", false, raw)
	case ArgOptional:
		s.invoke(int(id), value, hasValue, raw)
	case ArgMandatory:
		if !hasValue {
			if s.position+1 >= len(s.args) {
				return s.argError(opt, "--"+name, "option --%s requires an argument %s", name, opt.Arg)
			}
			s.position++
			value = s.args[s.position]
		}
		s.invoke(int(id), value, true, raw)
	}
	return nil
}

func (s *scanner) scanShort(arg string) *MatchError {
	bundle := arg[1:]

	// Every option up to the first one taking an argument must be known,
	// otherwise the whole argument is left to the matcher.
	for i := 0; i < len(bundle); i++ {
		id, ok := s.reg.forms[OptionForm{Name: bundle[i : i+1]}]
		if !ok {
			s.token(arg, true)
			return nil
		}
		if s.reg.options[id].Arg.Kind != ArgNone {
			break
		}
	}

	raw := s.position
	for i := 0; i < len(bundle); i++ {
		name := bundle[i : i+1]
		id := s.reg.forms[OptionForm{Name: name}]
		opt := &s.reg.options[id]
		rest := bundle[i+1:]

		switch opt.Arg.Kind {
		case ArgNone:
			s.invoke(int(id), "", false, raw)
			continue
		case ArgOptional:
			s.invoke(int(id), rest, rest != "", raw)
		case ArgMandatory:
			if rest == "" {
				if s.position+1 >= len(s.args) {
					return s.argError(opt, "-"+name, "option -%s requires an argument %s", name, opt.Arg)
				}
				s.position++
				rest = s.args[s.position]
			}
			s.invoke(int(id), rest, true, raw)
		}
		return nil
	}
	return nil
}

func (s *scanner) argError(opt *Option, form, format string, args ...any) *MatchError {
	return NewError(ErrorTypeBadOptionArg, fmt.Sprintf(format, args...)).
		WithContext("option", opt.Name()).
		WithContext("form", form).
		withToken(s.args[s.position])
}

func (e *MatchError) withToken(tok string) *MatchError {
	e.Token = tok
	return e
}
