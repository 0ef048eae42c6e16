package snap

import (
	"fmt"

	"github.com/dzonerzy/snap-patterns/internal/pool"
)

// ResultKind tags a match Result.
type ResultKind uint8

const (
	ResultMatched ResultKind = iota
	ResultShortCircuited
	ResultDelegated
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultMatched:
		return "matched"
	case ResultShortCircuited:
		return "short_circuited"
	case ResultDelegated:
		return "delegated"
	case ResultError:
		return "error"
	default:
		return fmt.Sprintf("ResultKind(%d)", k)
	}
}

// Result is the outcome of matching one scanned command line.
//
// Positions are indices into Scanned.Tokens, one per value slot bound, in
// pattern order. Choices is the decision trace the binder replays: 1/0 for
// an optional taken or skipped, the branch index for alternatives, and for
// a repetition a 1 before every iteration followed by a 0.
type Result struct {
	Kind      ResultKind
	Pattern   int
	Positions []int32
	Choices   []int32
	// Ambiguous is set when the policy asks for internal ambiguity checks and
	// the winning pattern admits a second binding. The first binding is
	// kept.
	Ambiguous bool

	// Option and Invocation identify the short-circuit option.
	Option     int
	Invocation int

	// Offset is the raw argument index where a delegated pattern stopped;
	// Remaining is Args[Offset:]. A short-circuited result sets Offset to
	// the end of the arguments that belong to this registry.
	Offset    int
	Remaining []string

	Err *MatchError
}

// Matcher matches scanned command lines against a sealed registry. It holds
// no per-call state and may be shared between goroutines.
type Matcher struct {
	reg            *Registry
	hasDelegating  bool
	hasShortOption bool
}

// NewMatcher seals reg and returns a matcher for it.
func NewMatcher(reg *Registry) *Matcher {
	reg.seal()
	m := &Matcher{reg: reg}
	for i := range reg.patterns {
		if reg.patterns[i].IsDelegating() {
			m.hasDelegating = true
		}
	}
	for i := range reg.options {
		if reg.options[i].Attrs.Has(OptionShortCircuit) {
			m.hasShortOption = true
		}
	}
	return m
}

// binding is a successful simulation of one pattern.
type binding struct {
	pattern   int
	positions []int32
	choices   []int32
	offset    int // raw offset where a delegating pattern stopped
}

// Match selects the pattern matching sc.
func (m *Matcher) Match(sc *Scanned) Result {
	// Without delegation every invocation belongs to this registry, so a
	// short-circuit option wins before any pattern is tried.
	if !m.hasDelegating {
		if r, ok := m.shortCircuit(sc, len(sc.Args)); ok {
			return r
		}
	}

	var (
		matches  []binding
		furthest = -1
	)
	for i := range m.reg.patterns {
		s := m.newSim(sc, i)
		if s.run(1) {
			matches = append(matches, s.first)
		}
		furthest = max(furthest, s.furthest)
		s.release()
	}

	if m.hasDelegating {
		cutoff := len(sc.Args)
		if len(matches) > 0 && m.reg.patterns[matches[0].pattern].IsDelegating() {
			cutoff = matches[0].offset
		}
		if r, ok := m.shortCircuit(sc, cutoff); ok {
			return r
		}
	}

	if len(matches) == 0 {
		return Result{Kind: ResultError, Pattern: -1, Err: m.noMatch(sc, furthest)}
	}

	if len(matches) > 1 && !m.reg.policy.AllowCrossPatternAmbiguity {
		ids := make([]int, len(matches))
		for i, b := range matches {
			ids[i] = b.pattern
		}
		err := NewError(ErrorTypeCrossPatternAmbiguity,
			fmt.Sprintf("arguments match %d patterns", len(matches)))
		err.Patterns = ids
		return Result{Kind: ResultError, Pattern: -1, Err: err}
	}

	win := matches[0]
	pat := &m.reg.patterns[win.pattern]
	res := Result{
		Kind:      ResultMatched,
		Pattern:   win.pattern,
		Positions: win.positions,
		Choices:   win.choices,
	}

	if pat.IsDelegating() {
		res.Kind = ResultDelegated
		res.Offset = win.offset
		res.Remaining = sc.Args[win.offset:]
		return res
	}

	if !m.reg.policy.AllowPatternInternalAmbiguity {
		s := m.newSim(sc, win.pattern)
		res.Ambiguous = s.run(2)
		s.release()
	}
	return res
}

func (m *Matcher) shortCircuit(sc *Scanned, cutoff int) (Result, bool) {
	if !m.hasShortOption {
		return Result{}, false
	}
	for i, inv := range sc.Invocations {
		if inv.Raw >= cutoff {
			break
		}
		if m.reg.options[inv.Option].Attrs.Has(OptionShortCircuit) {
			return Result{Kind: ResultShortCircuited, Pattern: -1, Option: inv.Option, Invocation: i, Offset: cutoff}, true
		}
	}
	return Result{}, false
}

// noMatch builds the error for a command line no pattern accepts.
func (m *Matcher) noMatch(sc *Scanned, furthest int) *MatchError {
	for _, tok := range sc.Tokens {
		if tok.OptionLike {
			return NewError(ErrorTypeBadOption, fmt.Sprintf("unknown option %q", tok.Text)).
				withToken(tok.Text)
		}
	}

	if furthest >= 0 && furthest < len(sc.Tokens) {
		tok := sc.Tokens[furthest].Text
		return NewError(ErrorTypeNoPatternMatch, fmt.Sprintf("unexpected argument %q", tok)).
			withToken(tok)
	}
	return NewError(ErrorTypeNoPatternMatch, "no pattern matches the given arguments")
}

// goalKind says what a pending goal still has to match.
type goalKind uint8

const (
	// goalSeq matches the elements of seq from idx on.
	goalSeq goalKind = iota
	// goalRepeat decides whether repeated element elem iterates again.
	goalRepeat
)

// goal is a continuation frame: what must still be matched after the
// current element, as a linked list ending in acceptance.
type goal struct {
	kind goalKind
	seq  int32
	idx  int32
	elem int32
	next *goal
}

// sim simulates one pattern over the residual tokens by depth-first
// backtracking.
type sim struct {
	store      *Store
	tokens     []Token
	args       int
	pattern    int
	root       int32
	delegating bool
	freeValues bool

	pos       int
	avail     []int32 // pending invocations per option
	total     []int32
	required  []bool // options whose invocations must all be consumed
	positions *[]int32
	choices   *[]int32

	invocations []Invocation
	ends        []int

	want     int
	found    int
	first    binding
	furthest int

	// collect, when set, receives the keyword and option leaves reached
	// once every token is consumed; no binding is accepted.
	collect func(Symbol)
}

func (m *Matcher) newSim(sc *Scanned, pattern int) *sim {
	pat := &m.reg.patterns[pattern]
	s := &sim{
		store:       m.reg.store,
		tokens:      sc.Tokens,
		args:        len(sc.Args),
		pattern:     pattern,
		root:        pat.Seq,
		delegating:  pat.IsDelegating(),
		freeValues:  pat.Attrs.Has(PatternFurtherArgsAreValues),
		avail:       make([]int32, len(m.reg.options)),
		total:       make([]int32, len(m.reg.options)),
		required:    m.reg.patternOption,
		positions:   pool.GetInt32Slice(),
		choices:     pool.GetInt32Slice(),
		invocations: sc.Invocations,
		ends:        sc.ends,
		first:       binding{pattern: pattern},
	}
	for _, inv := range sc.Invocations {
		s.avail[inv.Option]++
		s.total[inv.Option]++
	}
	return s
}

func (s *sim) release() {
	pool.PutInt32Slice(s.positions)
	pool.PutInt32Slice(s.choices)
	s.positions, s.choices = nil, nil
}

// run searches until want complete bindings are found and reports whether
// they were. The first binding is kept in s.first.
func (s *sim) run(want int) bool {
	s.want = want
	return s.solve(&goal{kind: goalSeq, seq: s.root})
}

// solve matches g and everything after it.
func (s *sim) solve(g *goal) bool {
	if g == nil {
		return s.accept()
	}

	switch g.kind {
	case goalSeq:
		items := s.store.SeqElements(g.seq)
		if int(g.idx) == len(items) {
			return s.solve(g.next)
		}
		rest := &goal{kind: goalSeq, seq: g.seq, idx: g.idx + 1, next: g.next}
		return s.element(items[g.idx], rest)

	case goalRepeat:
		e := s.store.Element(g.elem)
		n := len(*s.choices)
		*s.choices = append(*s.choices, 1)
		if s.solve(&goal{kind: goalSeq, seq: e.Body, next: g}) {
			return true
		}
		(*s.choices)[n] = 0
		if s.solve(g.next) {
			return true
		}
		*s.choices = (*s.choices)[:n]
		return false

	default:
		panic("snap: unknown goal kind")
	}
}

func (s *sim) element(idx int32, next *goal) bool {
	e := s.store.Element(idx)

	switch e.Kind {
	case ElementLeaf:
		return s.leaf(e.Symbol, next)

	case ElementOptional:
		n := len(*s.choices)
		*s.choices = append(*s.choices, 1)
		if s.solve(&goal{kind: goalSeq, seq: e.Body, next: next}) {
			return true
		}
		(*s.choices)[n] = 0
		if s.solve(next) {
			return true
		}
		*s.choices = (*s.choices)[:n]
		return false

	case ElementRepeated:
		// The first iteration is mandatory; goalRepeat decides the rest.
		n := len(*s.choices)
		*s.choices = append(*s.choices, 1)
		again := &goal{kind: goalRepeat, elem: idx, next: next}
		if s.solve(&goal{kind: goalSeq, seq: e.Body, next: again}) {
			return true
		}
		*s.choices = (*s.choices)[:n]
		return false

	case ElementAlternatives:
		n := len(*s.choices)
		*s.choices = append(*s.choices, 0)
		for i, branch := range s.store.Branches(e.Body) {
			(*s.choices)[n] = int32(i)
			if s.solve(&goal{kind: goalSeq, seq: branch, next: next}) {
				return true
			}
		}
		*s.choices = (*s.choices)[:n]
		return false

	default:
		panic("snap: unknown element kind")
	}
}

func (s *sim) leaf(sym Symbol, next *goal) bool {
	switch sym.Kind {
	case SymbolKeyword:
		if s.pos >= len(s.tokens) {
			if s.collect != nil {
				s.collect(sym)
			}
			return false
		}
		tok := s.tokens[s.pos]
		if tok.OptionLike || tok.Text != s.store.Keyword(sym.ID) {
			return false
		}
		s.advance()
		if s.solve(next) {
			return true
		}
		s.pos--
		return false

	case SymbolValue:
		if s.pos >= len(s.tokens) {
			return false
		}
		if s.tokens[s.pos].OptionLike && !s.freeValues {
			return false
		}
		n := len(*s.positions)
		*s.positions = append(*s.positions, int32(s.pos))
		s.advance()
		if s.solve(next) {
			return true
		}
		s.pos--
		*s.positions = (*s.positions)[:n]
		return false

	case SymbolOption:
		if s.avail[sym.ID] == 0 {
			if s.collect != nil && s.pos >= len(s.tokens) {
				s.collect(sym)
			}
			return false
		}
		s.avail[sym.ID]--
		if s.solve(next) {
			return true
		}
		s.avail[sym.ID]++
		return false

	default:
		panic("snap: unknown symbol kind")
	}
}

func (s *sim) advance() {
	s.pos++
	s.furthest = max(s.furthest, s.pos)
}

// accept checks that the simulation consumed everything it must and
// records the binding. It returns true once want bindings were seen, which
// stops the search.
func (s *sim) accept() bool {
	if s.collect != nil {
		return false
	}
	cutoff := s.args
	if s.delegating {
		// Everything from just past the last consumed argument on belongs
		// to the nested registry; no unconsumed token may come before it.
		cutoff = s.stop()
		if s.pos < len(s.tokens) && s.tokens[s.pos].Raw < cutoff {
			return false
		}
	} else if s.pos < len(s.tokens) {
		return false
	}

	for id, required := range s.required {
		if !required {
			continue
		}
		consumed := s.total[id] - s.avail[id]
		if consumed != s.countBefore(id, cutoff) {
			return false
		}
	}

	s.found++
	if s.found == 1 {
		s.first.positions = append([]int32(nil), *s.positions...)
		s.first.choices = append([]int32(nil), *s.choices...)
		s.first.offset = cutoff
	}
	return s.found >= s.want
}

// stop returns the raw offset just past the last argument a delegating
// pattern consumed, option arguments included. Consumed invocations are
// taken to be the earliest ones of their option.
func (s *sim) stop() int {
	end := 0
	if s.pos > 0 {
		end = s.tokens[s.pos-1].Raw + 1
	}
	for id, required := range s.required {
		consumed := s.total[id] - s.avail[id]
		if !required || consumed == 0 {
			continue
		}
		var seen int32
		for i, inv := range s.invocations {
			if inv.Option != id {
				continue
			}
			if seen++; seen == consumed {
				end = max(end, s.ends[i])
				break
			}
		}
	}
	return end
}

func (s *sim) countBefore(id, cutoff int) int32 {
	if cutoff >= s.args {
		return s.total[id]
	}
	var n int32
	for _, inv := range s.invocations {
		if inv.Option == id && inv.Raw < cutoff {
			n++
		}
	}
	return n
}
