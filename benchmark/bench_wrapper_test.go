package benchmark

import (
	"context"
	"io"
	"runtime"
	"testing"

	"github.com/dzonerzy/snap-patterns/snap"
)

// These benchmarks exercise the forwarding path of a delegating exec pattern;
// they still spawn a tiny child (/bin/true on UNIX). Skipped on Windows.

func BenchmarkExec_Forward(b *testing.B) {
	if testing.Short() || runtime.GOOS == "windows" {
		b.SkipNow()
	}
	app := snap.New("b", "").
		Option("-n, --no-newline", "", "", nil).
		Pattern("r", "", snap.Exec("/bin/true").
			InjectArgsPre("[p]").
			ReplaceArg("--no-newline", "-n"))
	app.IO().WithOut(io.Discard).WithErr(io.Discard)

	args := []string{"-n", "r", "hello", "--no-newline", "world"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = app.RunWithArgs(context.Background(), args)
	}
}
