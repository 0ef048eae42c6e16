package snap

import (
	"fmt"
	"strconv"
	"strings"
)

// DescKind tags a Descriptor.
type DescKind uint8

const (
	// DescValue is a bound value slot; Position indexes the residual tokens.
	DescValue DescKind = iota
	// DescTuple groups the parameters of a sequence with more than one.
	DescTuple
	// DescOptional is an optional element; Sub is set when Present.
	DescOptional
	// DescRepeated holds one item per iteration.
	DescRepeated
	// DescVariant is the chosen alternative; Sub is nil when the branch has
	// no parameters.
	DescVariant
	// DescFlag is an optional element without values.
	DescFlag
	// DescCount is a repetition without values.
	DescCount
	// DescIndex is an alternatives element without values.
	DescIndex
)

var descKindNames = [...]string{
	DescValue:    "value",
	DescTuple:    "tuple",
	DescOptional: "optional",
	DescRepeated: "repeated",
	DescVariant:  "variant",
	DescFlag:     "flag",
	DescCount:    "count",
	DescIndex:    "index",
}

func (k DescKind) String() string {
	if int(k) < len(descKindNames) {
		return descKindNames[k]
	}
	return fmt.Sprintf("DescKind(%d)", k)
}

// Descriptor is the typed shape of a match: which value slots bound which
// tokens, nested the way the pattern nests them.
type Descriptor struct {
	Kind     DescKind
	Position int          // DescValue
	Items    []Descriptor // DescTuple, DescRepeated
	Present  bool         // DescOptional, DescFlag
	Index    int          // DescVariant, DescIndex
	Count    int          // DescCount
	Sub      *Descriptor  // DescOptional, DescVariant
}

// Value returns a value descriptor for token position pos.
func Value(pos int) Descriptor { return Descriptor{Kind: DescValue, Position: pos} }

// Tuple returns a tuple of items.
func Tuple(items ...Descriptor) Descriptor {
	if items == nil {
		items = []Descriptor{}
	}
	return Descriptor{Kind: DescTuple, Items: items}
}

// Optional returns an optional descriptor. sub must be nil when absent.
func Optional(present bool, sub *Descriptor) Descriptor {
	return Descriptor{Kind: DescOptional, Present: present, Sub: sub}
}

// Repeated returns a repetition of items.
func Repeated(items ...Descriptor) Descriptor {
	if items == nil {
		items = []Descriptor{}
	}
	return Descriptor{Kind: DescRepeated, Items: items}
}

// Variant returns the descriptor of branch index.
func Variant(index int, sub *Descriptor) Descriptor {
	return Descriptor{Kind: DescVariant, Index: index, Sub: sub}
}

// Flag returns a collapsed optional.
func Flag(present bool) Descriptor { return Descriptor{Kind: DescFlag, Present: present} }

// Count returns a collapsed repetition.
func Count(n int) Descriptor { return Descriptor{Kind: DescCount, Count: n} }

// Index returns a collapsed alternatives element.
func Index(i int) Descriptor { return Descriptor{Kind: DescIndex, Index: i} }

// Equal reports whether d and o describe the same binding.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case DescValue:
		return d.Position == o.Position
	case DescTuple, DescRepeated:
		if len(d.Items) != len(o.Items) {
			return false
		}
		for i := range d.Items {
			if !d.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case DescOptional:
		return d.Present == o.Present && subEqual(d.Sub, o.Sub)
	case DescVariant:
		return d.Index == o.Index && subEqual(d.Sub, o.Sub)
	case DescFlag:
		return d.Present == o.Present
	case DescCount:
		return d.Count == o.Count
	case DescIndex:
		return d.Index == o.Index
	default:
		return false
	}
}

func subEqual(a, b *Descriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// String renders d compactly, e.g. "Tuple[Value(0), Optional(false)]".
func (d Descriptor) String() string {
	var b strings.Builder
	d.write(&b)
	return b.String()
}

func (d Descriptor) write(b *strings.Builder) {
	switch d.Kind {
	case DescValue:
		b.WriteString("Value(")
		b.WriteString(strconv.Itoa(d.Position))
		b.WriteByte(')')
	case DescTuple, DescRepeated:
		if d.Kind == DescTuple {
			b.WriteString("Tuple[")
		} else {
			b.WriteString("Repeated[")
		}
		for i, item := range d.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		b.WriteByte(']')
	case DescOptional:
		b.WriteString("Optional(")
		b.WriteString(strconv.FormatBool(d.Present))
		if d.Sub != nil {
			b.WriteString(", ")
			d.Sub.write(b)
		}
		b.WriteByte(')')
	case DescVariant:
		b.WriteString("Variant(")
		b.WriteString(strconv.Itoa(d.Index))
		if d.Sub != nil {
			b.WriteString(", ")
			d.Sub.write(b)
		}
		b.WriteByte(')')
	case DescFlag:
		b.WriteString("Flag(")
		b.WriteString(strconv.FormatBool(d.Present))
		b.WriteByte(')')
	case DescCount:
		b.WriteString("Count(")
		b.WriteString(strconv.Itoa(d.Count))
		b.WriteByte(')')
	case DescIndex:
		b.WriteString("Index(")
		b.WriteString(strconv.Itoa(d.Index))
		b.WriteByte(')')
	}
}

// Values returns the token positions bound anywhere under d, in order.
func (d Descriptor) Values() []int {
	var out []int
	d.collect(&out)
	return out
}

func (d Descriptor) collect(out *[]int) {
	switch d.Kind {
	case DescValue:
		*out = append(*out, d.Position)
	case DescTuple, DescRepeated:
		for _, item := range d.Items {
			item.collect(out)
		}
	case DescOptional, DescVariant:
		if d.Sub != nil {
			d.Sub.collect(out)
		}
	}
}
