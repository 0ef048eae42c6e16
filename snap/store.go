package snap

import (
	"fmt"
	"io"
	"strings"

	"github.com/dzonerzy/snap-patterns/internal/intern"
)

// SymbolKind tags a leaf of a compiled pattern.
type SymbolKind uint8

const (
	// SymbolKeyword matches a residual token by exact text.
	SymbolKeyword SymbolKind = iota
	// SymbolOption is satisfied by a recognised option invocation.
	SymbolOption
	// SymbolValue consumes one residual token and binds its position.
	SymbolValue
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKeyword:
		return "keyword"
	case SymbolOption:
		return "option"
	case SymbolValue:
		return "value"
	default:
		return fmt.Sprintf("SymbolKind(%d)", k)
	}
}

// Symbol identifies a leaf. ID is a keyword id for SymbolKeyword, an option
// id for SymbolOption and -1 for SymbolValue. Lexeme points at the source
// text the symbol was compiled from.
type Symbol struct {
	Kind   SymbolKind
	ID     int32
	Lexeme intern.Span
}

// ElementKind is the closed set of element shapes.
type ElementKind uint8

const (
	ElementLeaf ElementKind = iota
	ElementOptional
	ElementRepeated
	ElementAlternatives
)

func (k ElementKind) String() string {
	switch k {
	case ElementLeaf:
		return "leaf"
	case ElementOptional:
		return "optional"
	case ElementRepeated:
		return "repeated"
	case ElementAlternatives:
		return "alternatives"
	default:
		return fmt.Sprintf("ElementKind(%d)", k)
	}
}

// Element is one node of a compiled sequence.
//
// Body is a Sequence index for Optional and Repeated and an AltSet index for
// Alternatives; it is -1 for leaves. NumValues counts the value slots at any
// depth below (or at) the element.
type Element struct {
	Kind        ElementKind
	Symbol      Symbol
	Body        int32
	NumValues   int
	IsParam     bool
	Nullable    bool
	Repeating   bool
	Collapsible bool
}

// Sequence is an ordered run of elements stored contiguously in the store's
// element index arena.
type Sequence struct {
	first     int32
	count     int32
	NumParams int
	NumValues int
	Nullable  bool
	Repeating bool
}

// Len returns the number of elements in the sequence.
func (s Sequence) Len() int { return int(s.count) }

// AltSet is an ordered list of branch sequences. NullableBranch is the index
// of the nullable branch, or -1 when every branch consumes input.
type AltSet struct {
	first          int32
	count          int32
	NumValues      int
	NullableBranch int32
	MultiNullable  bool
}

// Len returns the number of branches.
func (a AltSet) Len() int { return int(a.count) }

// Store is the arena holding every compiled pattern. It only grows, except
// for rollback of a failed registration.
type Store struct {
	text      *intern.Arena
	keywords  *intern.Table
	elements  []Element
	sequences []Sequence
	seqItems  []int32
	alts      []AltSet
	altItems  []int32
}

// NewStore creates an empty store.
func NewStore() *Store {
	text := intern.NewArena(1024)
	return &Store{
		text:      text,
		keywords:  intern.NewTable(text),
		elements:  make([]Element, 0, 64),
		sequences: make([]Sequence, 0, 32),
		seqItems:  make([]int32, 0, 64),
		alts:      make([]AltSet, 0, 8),
		altItems:  make([]int32, 0, 16),
	}
}

// Element returns element i.
func (s *Store) Element(i int32) Element { return s.elements[i] }

// Sequence returns sequence i.
func (s *Store) Sequence(i int32) Sequence { return s.sequences[i] }

// SeqElements returns the element indices of sequence i. The slice aliases
// the store and must not be modified.
func (s *Store) SeqElements(i int32) []int32 {
	seq := s.sequences[i]
	return s.seqItems[seq.first : seq.first+seq.count : seq.first+seq.count]
}

// AltSet returns alternative set i.
func (s *Store) AltSet(i int32) AltSet { return s.alts[i] }

// Branches returns the branch sequence indices of alternative set i.
func (s *Store) Branches(i int32) []int32 {
	alt := s.alts[i]
	return s.altItems[alt.first : alt.first+alt.count : alt.first+alt.count]
}

// NumElements returns the number of elements stored.
func (s *Store) NumElements() int { return len(s.elements) }

// NumSequences returns the number of sequences stored.
func (s *Store) NumSequences() int { return len(s.sequences) }

// NumAltSets returns the number of alternative sets stored.
func (s *Store) NumAltSets() int { return len(s.alts) }

// Keyword returns the text of keyword id.
func (s *Store) Keyword(id int32) string { return s.keywords.Name(id) }

// KeywordID looks up a keyword without adding it.
func (s *Store) KeywordID(word string) (int32, bool) { return s.keywords.Lookup(word) }

// NumKeywords returns the number of distinct keywords.
func (s *Store) NumKeywords() int { return s.keywords.Len() }

// Text returns arena text.
func (s *Store) Text(sp intern.Span) string { return s.text.String(sp) }

// Lexeme returns the source text of sym.
func (s *Store) Lexeme(sym Symbol) string { return s.text.String(sym.Lexeme) }

func (s *Store) addText(str string) intern.Span { return s.text.Add(str) }

func (s *Store) internKeyword(word string) int32 { return s.keywords.Intern(word) }

func (s *Store) addElement(e Element) int32 {
	s.elements = append(s.elements, e)
	return int32(len(s.elements) - 1)
}

func (s *Store) addSequence(items []int32) int32 {
	seq := Sequence{
		first:    int32(len(s.seqItems)),
		count:    int32(len(items)),
		Nullable: true,
	}
	s.seqItems = append(s.seqItems, items...)

	var (
		anyRepeating, valueRepeating bool
		// fixed: some element is neither nullable nor repeating.
		// anchored: such an element is not a value leaf.
		fixed, anchored bool
	)
	for _, idx := range items {
		e := &s.elements[idx]
		if e.IsParam {
			seq.NumParams++
		}
		seq.NumValues += e.NumValues
		if !e.Nullable {
			seq.Nullable = false
		}
		if e.Repeating {
			anyRepeating = true
			if e.NumValues > 0 {
				valueRepeating = true
			}
		}
		if !e.Nullable && !e.Repeating {
			fixed = true
			if e.Kind != ElementLeaf || e.Symbol.Kind != SymbolValue {
				anchored = true
			}
		}
	}
	// A repeating value slot can absorb any value leaf next to it, so a
	// sequence like "<x>... <y>" repeats as well.
	seq.Repeating = anyRepeating && (!fixed || valueRepeating && !anchored)

	s.sequences = append(s.sequences, seq)
	return int32(len(s.sequences) - 1)
}

func (s *Store) addAltSet(branches []int32) int32 {
	alt := AltSet{
		first:          int32(len(s.altItems)),
		count:          int32(len(branches)),
		NullableBranch: -1,
	}
	s.altItems = append(s.altItems, branches...)

	for i, b := range branches {
		seq := s.sequences[b]
		alt.NumValues += seq.NumValues
		if !seq.Nullable {
			continue
		}
		if alt.NullableBranch >= 0 {
			alt.MultiNullable = true
		} else {
			alt.NullableBranch = int32(i)
		}
	}

	s.alts = append(s.alts, alt)
	return int32(len(s.alts) - 1)
}

// storeMark records arena lengths so a failed registration can be undone.
type storeMark struct {
	text, keywords             int
	elements, sequences, items int
	alts, altItems             int
}

func (s *Store) mark() storeMark {
	return storeMark{
		text:      s.text.Len(),
		keywords:  s.keywords.Len(),
		elements:  len(s.elements),
		sequences: len(s.sequences),
		items:     len(s.seqItems),
		alts:      len(s.alts),
		altItems:  len(s.altItems),
	}
}

func (s *Store) rollback(m storeMark) {
	s.keywords.Truncate(m.keywords)
	s.text.Truncate(m.text)
	s.elements = s.elements[:m.elements]
	s.sequences = s.sequences[:m.sequences]
	s.seqItems = s.seqItems[:m.items]
	s.alts = s.alts[:m.alts]
	s.altItems = s.altItems[:m.altItems]
}

// WriteTree writes an indented dump of sequence seq and everything below it.
func (s *Store) WriteTree(w io.Writer, seq int32) error {
	return s.writeSeq(w, seq, 0)
}

func (s *Store) writeSeq(w io.Writer, idx int32, depth int) error {
	seq := s.sequences[idx]
	pad := strings.Repeat("  ", depth)
	if _, err := fmt.Fprintf(w, "%sseq#%d params=%d values=%d%s\n",
		pad, idx, seq.NumParams, seq.NumValues, flagString(seq.Nullable, seq.Repeating, false, false)); err != nil {
		return err
	}
	for _, ei := range s.SeqElements(idx) {
		if err := s.writeElement(w, ei, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeElement(w io.Writer, idx int32, depth int) error {
	e := s.elements[idx]
	pad := strings.Repeat("  ", depth)
	flags := flagString(e.Nullable, e.Repeating, e.IsParam, e.Collapsible)

	switch e.Kind {
	case ElementLeaf:
		_, err := fmt.Fprintf(w, "%s%s %q%s\n", pad, e.Symbol.Kind, s.Lexeme(e.Symbol), flags)
		return err
	case ElementOptional, ElementRepeated:
		if _, err := fmt.Fprintf(w, "%s%s%s\n", pad, e.Kind, flags); err != nil {
			return err
		}
		return s.writeSeq(w, e.Body, depth+1)
	case ElementAlternatives:
		if _, err := fmt.Fprintf(w, "%s%s%s\n", pad, e.Kind, flags); err != nil {
			return err
		}
		for _, b := range s.Branches(e.Body) {
			if err := s.writeSeq(w, b, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		panic("snap: unknown element kind")
	}
}

func flagString(nullable, repeating, param, collapsible bool) string {
	var b strings.Builder
	if nullable {
		b.WriteString(" nullable")
	}
	if repeating {
		b.WriteString(" repeating")
	}
	if param {
		b.WriteString(" param")
	}
	if collapsible {
		b.WriteString(" collapsible")
	}
	return b.String()
}
