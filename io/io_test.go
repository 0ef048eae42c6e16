package snapio

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestColorOverrides(t *testing.T) {
	var buf bytes.Buffer
	m := New().WithOut(&buf)

	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "")
	if m.SupportsColor() {
		t.Fatalf("a buffer is not a terminal")
	}

	t.Setenv("FORCE_COLOR", "1")
	if !m.SupportsColor() {
		t.Fatalf("FORCE_COLOR should enable color")
	}
	t.Setenv("NO_COLOR", "1")
	if m.SupportsColor() {
		t.Fatalf("NO_COLOR beats FORCE_COLOR")
	}

	if !m.ForceColor().SupportsColor() {
		t.Fatalf("ForceColor beats the environment")
	}
	if m.NoColor().SupportsColor() {
		t.Fatalf("NoColor beats everything")
	}
	if m.ColorAuto().SupportsColor() {
		t.Fatalf("NO_COLOR applies again in auto mode")
	}
}

func TestColorLevel(t *testing.T) {
	m := New().WithOut(&bytes.Buffer{}).ForceColor()
	t.Setenv("COLORTERM", "")
	t.Setenv("TERM", "xterm")
	t.Setenv("SNAP_GOOS", "linux")
	if got := m.ColorLevel(); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	t.Setenv("TERM", "xterm-256color")
	if got := m.ColorLevel(); got != 2 {
		t.Fatalf("want 2, got %d", got)
	}
	if got := m.NoColor().ColorLevel(); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
}

func TestWidthFallback(t *testing.T) {
	m := New().WithOut(&bytes.Buffer{})
	t.Setenv("COLUMNS", "101")
	if m.Width() != 101 {
		t.Fatalf("want 101, got %d", m.Width())
	}
	t.Setenv("COLUMNS", "junk")
	if m.Width() != 80 {
		t.Fatalf("want 80, got %d", m.Width())
	}
}

func TestStyleCodes(t *testing.T) {
	m := New().WithOut(&bytes.Buffer{}).ForceColor()
	t.Setenv("COLORTERM", "")
	t.Setenv("TERM", "xterm")

	out := Style{Fg: BrightBlue, Bold: true, Underline: true}.Sprint(m, "x")
	if out != "\x1b[1;4;94mx\x1b[0m" {
		t.Fatalf("unexpected ANSI: %q", out)
	}
	if out := (Style{Fg: Red}).Sprint(m, "x"); out != "\x1b[31mx\x1b[0m" {
		t.Fatalf("unexpected ANSI: %q", out)
	}
	// 256-palette colors need a 256-color terminal.
	if out := (Style{Fg: Indexed(202)}).Sprint(m, "x"); out != "x" {
		t.Fatalf("expected no codes on 16 colors, got %q", out)
	}
	t.Setenv("TERM", "xterm-256color")
	if out := (Style{Fg: Indexed(202)}).Sprint(m, "x"); !strings.Contains(out, "38;5;202") {
		t.Fatalf("expected 256 code, got %q", out)
	}
	if out := m.NoColor().Bold("x"); out != "x" {
		t.Fatalf("NoColor must not style, got %q", out)
	}
}

func TestLoggerFormats(t *testing.T) {
	var out, errOut bytes.Buffer
	m := New().WithOut(&out).WithErr(&errOut).NoColor()

	l := NewLogger(m).WithFormat(LogFormatTagged)
	l.Info("compiled %d patterns", 3)
	l.Warning("unused option %s", "-v")
	l.Error("boom")

	if out.String() != "[INFO] compiled 3 patterns\n" {
		t.Fatalf("unexpected stdout %q", out.String())
	}
	if errOut.String() != "[WARN] unused option -v\n[ERROR] boom\n" {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}

	out.Reset()
	NewLogger(m).Success("ok")
	if out.String() != "✓ ok\n" {
		t.Fatalf("unexpected symbols output %q", out.String())
	}

	out.Reset()
	NewLogger(m).WithFormat(LogFormatPlain).Debug("plain")
	if out.String() != "plain\n" {
		t.Fatalf("unexpected plain output %q", out.String())
	}
}

func TestLoggerLevelAndTimestamp(t *testing.T) {
	var out bytes.Buffer
	m := New().WithOut(&out).WithErr(&out).NoColor()

	l := NewLogger(m).WithFormat(LogFormatTagged).WithLevel(LevelInfo).WithTimestamp(true)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	l.Debug("hidden")
	l.Info("shown")
	if out.String() != "[INFO] [03:04:05] shown\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	l.ErrorsToStderr(false).Log(LevelError, "  ")
	if out.String() != "  \n" {
		t.Fatalf("blank messages are written as is, got %q", out.String())
	}
}

func TestLoggerColor(t *testing.T) {
	var out bytes.Buffer
	m := New().WithOut(&out).ForceColor()
	t.Setenv("TERM", "xterm")
	t.Setenv("COLORTERM", "")
	NewLogger(m).WithFormat(LogFormatPlain).Success("ok")
	if out.String() != "\x1b[92mok\x1b[0m\n" {
		t.Fatalf("unexpected colored output %q", out.String())
	}
}
