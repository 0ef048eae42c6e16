// Package snapio centralizes terminal IO for pattern-based CLIs: the
// stdio streams, terminal detection, ANSI color support and a levelled
// logger.
package snapio

import (
	stdio "io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// platformIO is implemented per OS in io_unix.go and io_windows.go
type platformIO interface {
	isTerminal(*os.File) bool
	termSize(*os.File) (width, height int, ok bool)
	enableVirtualTerminal() bool
	vtEnabled() bool
}

type colorMode uint8

const (
	colorAuto colorMode = iota
	colorAlways
	colorNever
)

// IOManager owns the streams a CLI writes to and decides whether they get
// color.
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	color colorMode
	p     platformIO
}

// New returns a manager bound to process stdio.
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr, p: newPlatformIO()}
}

// WithIn sets the input reader.
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut sets the output writer.
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr sets the error writer.
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// ForceColor enables color regardless of the environment.
func (m *IOManager) ForceColor() *IOManager { m.color = colorAlways; return m }

// NoColor disables color regardless of the environment.
func (m *IOManager) NoColor() *IOManager { m.color = colorNever; return m }

// ColorAuto decides color from the environment and the output stream.
func (m *IOManager) ColorAuto() *IOManager { m.color = colorAuto; return m }

func (m *IOManager) In() stdio.Reader  { return m.in }
func (m *IOManager) Out() stdio.Writer { return m.out }
func (m *IOManager) Err() stdio.Writer { return m.err }

// IsTTY reports whether the output stream is a terminal.
func (m *IOManager) IsTTY() bool {
	f, ok := m.out.(*os.File)
	return ok && m.p.isTerminal(f)
}

// Width returns the output terminal width, falling back to $COLUMNS and
// then 80.
func (m *IOManager) Width() int {
	if f, ok := m.out.(*os.File); ok {
		if w, _, ok := m.p.termSize(f); ok && w > 0 {
			return w
		}
	}
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 0 {
		return w
	}
	return 80
}

// SupportsColor reports whether output should carry ANSI sequences.
// NoColor/ForceColor win, then NO_COLOR and FORCE_COLOR, then the terminal.
func (m *IOManager) SupportsColor() bool {
	switch m.color {
	case colorNever:
		return false
	case colorAlways:
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !m.IsTTY() {
		return false
	}
	if goos() == "windows" {
		return m.p.vtEnabled()
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// ColorLevel returns 0 without color, 2 for 256-color terminals and 1
// otherwise.
func (m *IOManager) ColorLevel() int {
	if !m.SupportsColor() {
		return 0
	}
	term := os.Getenv("TERM")
	colorterm := os.Getenv("COLORTERM")
	if strings.Contains(term, "256color") || colorterm == "truecolor" || colorterm == "24bit" {
		return 2
	}
	if goos() == "windows" && os.Getenv("WT_SESSION") != "" {
		return 2
	}
	return 1
}

// EnableVirtualTerminal turns on ANSI processing on Windows consoles.
func (m *IOManager) EnableVirtualTerminal() bool { return m.p.enableVirtualTerminal() }

// Colorize wraps s in the SGR code and a reset when color is supported.
func (m *IOManager) Colorize(s, code string) string {
	if code == "" || !m.SupportsColor() {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func (m *IOManager) Bold(s string) string  { return m.Colorize(s, "1") }
func (m *IOManager) Faint(s string) string { return m.Colorize(s, "2") }

func goos() string {
	if v := os.Getenv("SNAP_GOOS"); v != "" {
		return v
	}
	return runtime.GOOS
}
