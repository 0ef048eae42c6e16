package snapio

import "strconv"

// Color is a basic (0-15) or 256-palette terminal color. The zero value is
// the terminal default.
type Color struct {
	index   int
	indexed bool
	set     bool
}

// Basic colors (0-7 normal, 8-15 bright).
var (
	Black   = basic(0)
	Red     = basic(1)
	Green   = basic(2)
	Yellow  = basic(3)
	Blue    = basic(4)
	Magenta = basic(5)
	Cyan    = basic(6)
	White   = basic(7)

	BrightBlack   = basic(8)
	BrightRed     = basic(9)
	BrightGreen   = basic(10)
	BrightYellow  = basic(11)
	BrightBlue    = basic(12)
	BrightMagenta = basic(13)
	BrightCyan    = basic(14)
	BrightWhite   = basic(15)
)

func basic(i int) Color { return Color{index: i, set: true} }

// Indexed returns a 256-palette color. On 16-color terminals it degrades to
// the default foreground.
func Indexed(i int) Color { return Color{index: i, indexed: true, set: true} }

func (c Color) code(level int) string {
	switch {
	case !c.set:
		return ""
	case c.indexed && level >= 2:
		return "38;5;" + strconv.Itoa(c.index)
	case c.indexed:
		return ""
	case c.index < 8:
		return strconv.Itoa(30 + c.index)
	default:
		return strconv.Itoa(90 + c.index - 8)
	}
}

// Style is a foreground color plus attributes.
type Style struct {
	Fg        Color
	Bold      bool
	Faint     bool
	Underline bool
}

// Sprint renders text in s when io supports color.
func (s Style) Sprint(io *IOManager, text string) string {
	return io.Colorize(text, s.sgr(io.ColorLevel()))
}

func (s Style) sgr(level int) string {
	if level == 0 {
		return ""
	}
	codes := make([]byte, 0, 16)
	add := func(c string) {
		if c == "" {
			return
		}
		if len(codes) > 0 {
			codes = append(codes, ';')
		}
		codes = append(codes, c...)
	}
	if s.Bold {
		add("1")
	}
	if s.Faint {
		add("2")
	}
	if s.Underline {
		add("4")
	}
	add(s.Fg.code(level))
	return string(codes)
}

// Theme assigns styles to log levels and to the parts of a pattern.
type Theme struct {
	Debug, Info, Success, Warning, Error Style

	// Pattern syntax
	Keyword, Option, Value, Punct Style
}

// DefaultTheme picks the 256-color theme when the terminal has it.
func DefaultTheme(io *IOManager) Theme {
	t := Theme{
		Debug:   Style{Fg: BrightMagenta},
		Info:    Style{Fg: BrightCyan},
		Success: Style{Fg: BrightGreen},
		Warning: Style{Fg: BrightYellow},
		Error:   Style{Fg: BrightRed, Bold: true},
		Keyword: Style{Bold: true},
		Option:  Style{Fg: Cyan},
		Value:   Style{Fg: Yellow},
		Punct:   Style{Fg: BrightBlack},
	}
	if io.ColorLevel() >= 2 {
		t.Debug.Fg = Indexed(141)
		t.Option.Fg = Indexed(117)
		t.Value.Fg = Indexed(214)
		t.Punct.Fg = Indexed(244)
	}
	return t
}
