package snap

import (
	"strings"

	snapio "github.com/dzonerzy/snap-patterns/io"
)

// Highlight renders pattern text with the theme's pattern styles. Text that
// does not lex is returned unchanged.
func Highlight(text string, theme snapio.Theme, io *snapio.IOManager) string {
	toks, err := lex(text)
	if err != nil {
		return text
	}

	var b strings.Builder
	prev := 0
	for _, tok := range toks {
		if tok.kind == tokEOF {
			break
		}
		b.WriteString(text[prev:tok.off])
		prev = tok.off + len(tok.text)

		var style snapio.Style
		switch tok.kind {
		case tokKeyword:
			style = theme.Keyword
		case tokShort, tokLong:
			style = theme.Option
		case tokValue:
			style = theme.Value
		default:
			style = theme.Punct
		}
		b.WriteString(style.Sprint(io, tok.text))
	}
	b.WriteString(text[prev:])
	return b.String()
}
