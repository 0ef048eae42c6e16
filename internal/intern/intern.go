// Package intern provides the append-only text storage used by the pattern
// registry. All pattern, option and description text is copied into an Arena
// once at registration time; symbols refer to it through Spans.
package intern

import (
	"unsafe"
)

// Span locates a piece of text inside an Arena.
type Span struct {
	Off int32
	Len int32
}

// End returns the offset just past the span.
func (s Span) End() int32 { return s.Off + s.Len }

// Arena is an append-only byte store. It is not safe for concurrent writes;
// concurrent reads are fine once writing has stopped.
type Arena struct {
	buf []byte
}

// NewArena creates an arena with the given initial capacity in bytes.
func NewArena(capacity int) *Arena {
	if capacity <= 0 {
		capacity = 256
	}
	return &Arena{buf: make([]byte, 0, capacity)}
}

// Add copies s into the arena.
func (a *Arena) Add(s string) Span {
	off := len(a.buf)
	a.buf = append(a.buf, s...)
	return Span{Off: int32(off), Len: int32(len(s))}
}

// AddBytes copies b into the arena.
func (a *Arena) AddBytes(b []byte) Span {
	off := len(a.buf)
	a.buf = append(a.buf, b...)
	return Span{Off: int32(off), Len: int32(len(b))}
}

// String returns the text of sp without copying. The result stays valid for
// the life of the arena, including across Truncate.
func (a *Arena) String(sp Span) string {
	if sp.Len == 0 {
		return ""
	}
	b := a.buf[sp.Off:sp.End()]
	return unsafe.String(&b[0], len(b))
}

// Len returns the number of bytes stored.
func (a *Arena) Len() int { return len(a.buf) }

// Truncate discards everything stored at or after offset n.
//
// The capacity is clipped so the next append moves to a fresh backing array;
// strings handed out before the truncation are never overwritten.
func (a *Arena) Truncate(n int) {
	if n < 0 || n > len(a.buf) {
		panic("intern: truncate out of range")
	}
	a.buf = a.buf[:n:n]
}

// Table interns strings into dense ids backed by an Arena. Ids are assigned
// in insertion order starting at zero.
type Table struct {
	arena *Arena
	ids   map[string]int32
	spans []Span
}

// NewTable creates a table storing its text in arena.
func NewTable(arena *Arena) *Table {
	return &Table{
		arena: arena,
		ids:   make(map[string]int32, 32),
		spans: make([]Span, 0, 32),
	}
}

// Intern returns the id of s, adding it if needed.
func (t *Table) Intern(s string) int32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	sp := t.arena.Add(s)
	id := int32(len(t.spans))
	t.spans = append(t.spans, sp)
	t.ids[t.arena.String(sp)] = id
	return id
}

// Lookup returns the id of s without adding it.
func (t *Table) Lookup(s string) (int32, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// Name returns the text for id.
func (t *Table) Name(id int32) string {
	return t.arena.String(t.spans[id])
}

// Len returns the number of interned strings.
func (t *Table) Len() int { return len(t.spans) }

// Truncate forgets every id >= n. The text itself is reclaimed by truncating
// the backing arena separately.
func (t *Table) Truncate(n int) {
	for id := n; id < len(t.spans); id++ {
		delete(t.ids, t.arena.String(t.spans[id]))
	}
	t.spans = t.spans[:n]
}
