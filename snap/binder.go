package snap

// Bind rebuilds the descriptor of a match by replaying its decision trace
// over the pattern's structure. positions and choices must come from a
// Result for the same registry and pattern; any inconsistency panics.
//
// A pattern without parameters binds to an empty tuple.
func Bind(reg *Registry, pattern int, positions, choices []int32) Descriptor {
	b := &binder{
		store:     reg.store,
		positions: positions,
		choices:   choices,
	}
	d, ok := b.bindSeq(reg.patterns[pattern].Seq)
	if b.pi != len(positions) || b.ci != len(choices) {
		panic("snap: match trace longer than pattern")
	}
	if !ok {
		return Tuple()
	}
	return d
}

type binder struct {
	store     *Store
	positions []int32
	choices   []int32
	pi, ci    int
}

func (b *binder) choice() int32 {
	if b.ci >= len(b.choices) {
		panic("snap: match trace exhausted")
	}
	c := b.choices[b.ci]
	b.ci++
	return c
}

func (b *binder) position() int {
	if b.pi >= len(b.positions) {
		panic("snap: value positions exhausted")
	}
	p := b.positions[b.pi]
	b.pi++
	return int(p)
}

// bindSeq returns the descriptor of a sequence and whether it has one: no
// parameters means none, one parameter is that parameter, more form a tuple.
func (b *binder) bindSeq(idx int32) (Descriptor, bool) {
	seq := b.store.Sequence(idx)
	if seq.NumParams == 0 {
		// Keyword and option leaves leave no trace.
		return Descriptor{}, false
	}

	items := make([]Descriptor, 0, seq.NumParams)
	for _, ei := range b.store.SeqElements(idx) {
		e := b.store.Element(ei)
		if !e.IsParam {
			continue
		}
		items = append(items, b.bindElement(e))
	}

	if len(items) == 1 {
		return items[0], true
	}
	return Tuple(items...), true
}

func (b *binder) bindElement(e Element) Descriptor {
	switch e.Kind {
	case ElementLeaf:
		if e.Symbol.Kind != SymbolValue {
			panic("snap: non-value leaf marked as parameter")
		}
		return Value(b.position())

	case ElementOptional:
		switch b.choice() {
		case 0:
			if e.Collapsible {
				return Flag(false)
			}
			return Optional(false, nil)
		case 1:
			sub, ok := b.bindSeq(e.Body)
			if e.Collapsible {
				return Flag(true)
			}
			if !ok {
				panic("snap: optional with values bound nothing")
			}
			return Optional(true, &sub)
		default:
			panic("snap: bad optional choice in match trace")
		}

	case ElementRepeated:
		var items []Descriptor
		n := 0
		for {
			c := b.choice()
			if c == 0 {
				break
			}
			if c != 1 {
				panic("snap: bad repetition choice in match trace")
			}
			sub, ok := b.bindSeq(e.Body)
			if !e.Collapsible {
				if !ok {
					panic("snap: repetition with values bound nothing")
				}
				items = append(items, sub)
			}
			n++
		}
		if n == 0 {
			panic("snap: repetition matched zero times")
		}
		if e.Collapsible {
			return Count(n)
		}
		return Repeated(items...)

	case ElementAlternatives:
		c := int(b.choice())
		branches := b.store.Branches(e.Body)
		if c < 0 || c >= len(branches) {
			panic("snap: bad alternative choice in match trace")
		}
		sub, ok := b.bindSeq(branches[c])
		if e.Collapsible {
			return Index(c)
		}
		if !ok {
			return Variant(c, nil)
		}
		return Variant(c, &sub)

	default:
		panic("snap: unknown element kind")
	}
}
