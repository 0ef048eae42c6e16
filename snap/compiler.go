package snap

import (
	"fmt"

	"github.com/dzonerzy/snap-patterns/internal/intern"
)

// compiler flattens a parsed pattern into a Store.
type compiler struct {
	store *Store
	t     *tree
	// base is the arena offset of the pattern text, so token offsets map to
	// lexeme spans without copying.
	base int32
	// lookupOption resolves "-x" / "--long" to an option id.
	lookupOption func(form string) (int32, bool)
}

// compileFailure carries a compile code and source offset out of the walk.
type compileFailure struct {
	code ErrorType
	off  int
	msg  string
}

func (f *compileFailure) Error() string { return f.msg }

func failf(code ErrorType, off int, format string, args ...any) *compileFailure {
	return &compileFailure{code: code, off: off, msg: fmt.Sprintf(format, args...)}
}

// compile walks the tree rooted at root in post-order with an explicit
// stack and returns the index of the root sequence.
func (c *compiler) compile(root int32) (int32, error) {
	type frame struct {
		node int32
		next int32
	}

	results := make([]int32, len(c.t.nodes))
	stack := make([]frame, 1, 16)
	stack[0] = frame{node: root}

	for len(stack) > 0 {
		top := len(stack) - 1
		kids := c.t.children(stack[top].node)
		if int(stack[top].next) < len(kids) {
			child := kids[stack[top].next]
			stack[top].next++
			stack = append(stack, frame{node: child})
			continue
		}

		n := stack[top].node
		res, err := c.close(n, kids, results)
		if err != nil {
			return -1, err
		}
		results[n] = res
		stack = stack[:top]
	}

	return results[root], nil
}

// close emits node n once all of its children have been emitted. kids are
// the node's children; results maps already-closed nodes to store indices.
func (c *compiler) close(n int32, kids, results []int32) (int32, error) {
	nd := c.t.nodes[n]

	switch nd.kind {
	case nodeLeaf:
		sym, err := c.symbol(nd.tok)
		if err != nil {
			return -1, err
		}
		e := Element{Kind: ElementLeaf, Symbol: sym, Body: -1}
		if sym.Kind == SymbolValue {
			e.IsParam = true
			e.NumValues = 1
		}
		return c.store.addElement(e), nil

	case nodeSeq:
		items := make([]int32, len(kids))
		for i, k := range kids {
			items[i] = results[k]
		}
		return c.store.addSequence(items), nil

	case nodeOptional:
		body := results[kids[0]]
		seq := c.store.Sequence(body)
		if seq.Nullable {
			return -1, failf(ErrorTypeAmbiguousOptionality, nd.off,
				"optional element can already match nothing")
		}
		return c.store.addElement(Element{
			Kind:        ElementOptional,
			Body:        body,
			NumValues:   seq.NumValues,
			IsParam:     true,
			Nullable:    true,
			Repeating:   seq.Repeating,
			Collapsible: seq.NumValues == 0,
		}), nil

	case nodeRepeated:
		body := results[kids[0]]
		seq := c.store.Sequence(body)
		if seq.Nullable {
			return -1, failf(ErrorTypeAmbiguousRepetition, nd.off,
				"repeated element can match nothing")
		}
		if seq.Repeating {
			return -1, failf(ErrorTypeAmbiguousRepetitionOfRepeating, nd.off,
				"repeated element already repeats")
		}
		return c.store.addElement(Element{
			Kind:        ElementRepeated,
			Body:        body,
			NumValues:   seq.NumValues,
			IsParam:     true,
			Repeating:   true,
			Collapsible: seq.NumValues == 0,
		}), nil

	case nodeAlt:
		branches := make([]int32, len(kids))
		repeating := false
		for i, k := range kids {
			branches[i] = results[k]
			if c.store.Sequence(branches[i]).Repeating {
				repeating = true
			}
		}
		idx := c.store.addAltSet(branches)
		alt := c.store.AltSet(idx)
		if alt.MultiNullable {
			return -1, failf(ErrorTypeAmbiguousAlternativesMultiNullable, nd.off,
				"more than one alternative can match nothing")
		}
		return c.store.addElement(Element{
			Kind:        ElementAlternatives,
			Body:        idx,
			NumValues:   alt.NumValues,
			IsParam:     true,
			Nullable:    alt.NullableBranch >= 0,
			Repeating:   repeating,
			Collapsible: alt.NumValues == 0,
		}), nil

	default:
		panic("snap: unknown syntax node kind")
	}
}

func (c *compiler) symbol(tk token) (Symbol, error) {
	lexeme := intern.Span{Off: c.base + int32(tk.off), Len: int32(len(tk.text))}

	switch tk.kind {
	case tokKeyword:
		return Symbol{Kind: SymbolKeyword, ID: c.store.internKeyword(tk.text), Lexeme: lexeme}, nil
	case tokValue:
		return Symbol{Kind: SymbolValue, ID: -1, Lexeme: lexeme}, nil
	case tokShort, tokLong:
		id, ok := c.lookupOption(tk.text)
		if !ok {
			return Symbol{}, failf(ErrorTypeBadPatternSyntax, tk.off, "unknown option %q", tk.text)
		}
		return Symbol{Kind: SymbolOption, ID: id, Lexeme: lexeme}, nil
	default:
		panic("snap: leaf node with non-atom token")
	}
}
