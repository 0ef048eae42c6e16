package benchmark

import (
	"testing"

	intern "github.com/dzonerzy/snap-patterns/internal/intern"
)

// Category: intern

func BenchmarkArena_Add(b *testing.B) {
	texts := []string{"copy <src> <dst>", "remote add <name> <url>", "push [<remote>]", "status"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		arena := intern.NewArena(256)
		for _, t := range texts {
			arena.Add(t)
		}
	}
}

func BenchmarkArena_String(b *testing.B) {
	arena := intern.NewArena(64)
	span := arena.Add("remote add <name> <url>")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = arena.String(span)
	}
}

func BenchmarkTable_Intern(b *testing.B) {
	table := intern.NewTable(intern.NewArena(0))
	keywords := []string{"remote", "add", "remove", "status", "push", "commit"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Intern(keywords[i%len(keywords)])
	}
}

func BenchmarkTable_Lookup(b *testing.B) {
	table := intern.NewTable(intern.NewArena(0))
	keywords := []string{"remote", "add", "remove", "status", "push", "commit"}
	for _, k := range keywords {
		table.Intern(k)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := table.Lookup(keywords[i%len(keywords)]); !ok {
			b.Fatal("keyword lost")
		}
	}
}

func BenchmarkArena_TruncateRollback(b *testing.B) {
	arena := intern.NewArena(1024)
	arena.Add("status")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mark := arena.Len()
		arena.Add("x ([a] | [b])")
		arena.Truncate(mark)
	}
}
