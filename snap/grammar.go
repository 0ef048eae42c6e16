package snap

// maxNesting bounds bracket depth so hostile pattern text cannot exhaust the
// parser stack.
const maxNesting = 64

type nodeKind uint8

const (
	nodeLeaf nodeKind = iota
	nodeSeq
	nodeOptional
	nodeRepeated
	nodeAlt
)

// node is an abstract syntax tree node. Children live contiguously in
// tree.kids[first : first+count].
//
// Shape guarantees after parsing: Optional and Repeated have exactly one
// child, a seq; Alt children are seqs; seq children are never seqs.
type node struct {
	kind  nodeKind
	tok   token
	off   int
	first int32
	count int32
}

type tree struct {
	nodes []node
	kids  []int32
}

func (t *tree) add(n node, children []int32) int32 {
	n.first = int32(len(t.kids))
	n.count = int32(len(children))
	t.kids = append(t.kids, children...)
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

func (t *tree) children(n int32) []int32 {
	nd := t.nodes[n]
	return t.kids[nd.first : nd.first+nd.count]
}

type parser struct {
	toks  []token
	pos   int
	depth int
	t     *tree
}

func newParser(toks []token) *parser {
	return &parser{
		toks: toks,
		t: &tree{
			nodes: make([]node, 0, len(toks)),
			kids:  make([]int32, 0, len(toks)),
		},
	}
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tk := p.toks[p.pos]
	if tk.kind != tokEOF {
		p.pos++
	}
	return tk
}

// parsePattern parses a whole pattern into a root seq node. The empty
// pattern yields an empty seq.
func (p *parser) parsePattern() (int32, error) {
	if p.peek().kind == tokEOF {
		return p.t.add(node{kind: nodeSeq}, nil), nil
	}
	root, err := p.parseAlts()
	if err != nil {
		return -1, err
	}
	if tk := p.peek(); tk.kind != tokEOF {
		if tk.kind == tokComma {
			return -1, syntaxErrorf(tk.off, "',' is only allowed between option forms")
		}
		return -1, syntaxErrorf(tk.off, "unexpected %s", tk.kind)
	}
	return p.asSeq(root), nil
}

// parseList parses the top level "alts { ',' alts }" form used for option
// form lists.
func (p *parser) parseList() ([]int32, error) {
	var items []int32
	for {
		n, err := p.parseAlts()
		if err != nil {
			return nil, err
		}
		items = append(items, p.asSeq(n))

		tk := p.next()
		switch tk.kind {
		case tokEOF:
			return items, nil
		case tokComma:
		default:
			return nil, syntaxErrorf(tk.off, "unexpected %s", tk.kind)
		}
	}
}

func (p *parser) parseAlts() (int32, error) {
	first, err := p.parseJuxt()
	if err != nil {
		return -1, err
	}
	if p.peek().kind != tokPipe {
		return first, nil
	}

	off := p.t.nodes[first].off
	branches := []int32{first}
	for p.peek().kind == tokPipe {
		p.next()
		b, err := p.parseJuxt()
		if err != nil {
			return -1, err
		}
		branches = append(branches, b)
	}
	return p.t.add(node{kind: nodeAlt, off: off}, branches), nil
}

// parseJuxt parses space-separated repetitions into a seq node. Plain
// groups are spliced into the enclosing sequence.
func (p *parser) parseJuxt() (int32, error) {
	start := p.peek()
	if !start.startsAtom() {
		return -1, syntaxErrorf(start.off, "expected pattern element, found %s", start.kind)
	}

	var items []int32
	for p.peek().startsAtom() {
		tk := p.peek()
		if len(items) > 0 && !tk.spaceBefore {
			return -1, syntaxErrorf(tk.off, "missing space before %q", tk.text)
		}
		n, err := p.parseRep()
		if err != nil {
			return -1, err
		}
		if p.t.nodes[n].kind == nodeSeq {
			items = append(items, p.t.children(n)...)
		} else {
			items = append(items, n)
		}
	}
	return p.t.add(node{kind: nodeSeq, off: start.off}, items), nil
}

func (p *parser) parseRep() (int32, error) {
	n, err := p.parseAtom()
	if err != nil {
		return -1, err
	}
	for p.peek().kind == tokEllipsis {
		tk := p.next()
		off := p.t.nodes[n].off
		n = p.t.add(node{kind: nodeRepeated, tok: tk, off: off}, []int32{p.asSeq(n)})
	}
	return n, nil
}

func (p *parser) parseAtom() (int32, error) {
	tk := p.next()
	switch tk.kind {
	case tokKeyword, tokShort, tokLong, tokValue:
		return p.t.add(node{kind: nodeLeaf, tok: tk, off: tk.off}, nil), nil

	case tokLParen, tokLBracket:
		closing := tokRParen
		if tk.kind == tokLBracket {
			closing = tokRBracket
		}
		p.depth++
		if p.depth > maxNesting {
			return -1, syntaxErrorf(tk.off, "nesting deeper than %d levels", maxNesting)
		}
		inner, err := p.parseAlts()
		if err != nil {
			return -1, err
		}
		if end := p.next(); end.kind != closing {
			return -1, syntaxErrorf(end.off, "expected %s, found %s", closing, end.kind)
		}
		p.depth--

		if tk.kind == tokLParen {
			n := p.t.nodes[inner]
			n.off = tk.off
			p.t.nodes[inner] = n
			return inner, nil
		}
		return p.t.add(node{kind: nodeOptional, tok: tk, off: tk.off}, []int32{p.asSeq(inner)}), nil

	default:
		return -1, syntaxErrorf(tk.off, "expected pattern element, found %s", tk.kind)
	}
}

// asSeq wraps a non-seq node into a single-element seq.
func (p *parser) asSeq(n int32) int32 {
	if p.t.nodes[n].kind == nodeSeq {
		return n
	}
	return p.t.add(node{kind: nodeSeq, off: p.t.nodes[n].off}, []int32{n})
}
