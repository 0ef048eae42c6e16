package snap

import (
	"fmt"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokShort
	tokLong
	tokValue
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokPipe
	tokComma
	tokEllipsis
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of pattern"
	case tokKeyword:
		return "keyword"
	case tokShort:
		return "short option"
	case tokLong:
		return "long option"
	case tokValue:
		return "value slot"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokPipe:
		return "'|'"
	case tokComma:
		return "','"
	case tokEllipsis:
		return "'...'"
	default:
		return fmt.Sprintf("tokenKind(%d)", k)
	}
}

// token is a lexeme of pattern source. text slices the source; off is the
// byte offset of its first character.
type token struct {
	kind        tokenKind
	text        string
	off         int
	spaceBefore bool
}

// startsAtom reports whether the token can begin an atom.
func (t token) startsAtom() bool {
	switch t.kind {
	case tokKeyword, tokShort, tokLong, tokValue, tokLParen, tokLBracket:
		return true
	default:
		return false
	}
}

// syntaxError is a position-carrying failure from the lexer or parser. The
// registry turns it into a *CompileError with the right code.
type syntaxError struct {
	off int
	msg string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.off, e.msg)
}

func syntaxErrorf(off int, format string, args ...any) *syntaxError {
	return &syntaxError{off: off, msg: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isDelimiter reports whether c ends a keyword or option name.
func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '[', ']', '|', ',', '<', '>':
		return true
	}
	return isSpace(c)
}

func isLongNameChar(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func hasEllipsis(src string, i int) bool {
	return i+3 <= len(src) && src[i:i+3] == "..."
}

// lex splits src into tokens, always ending with tokEOF.
func lex(src string) ([]token, error) {
	toks := make([]token, 0, len(src)/2+1)
	space := true // start of input counts as separated
	i := 0

	for i < len(src) {
		c := src[i]
		if isSpace(c) {
			space = true
			i++
			continue
		}

		start := i
		var kind tokenKind

		switch {
		case c == '(':
			kind, i = tokLParen, i+1
		case c == ')':
			kind, i = tokRParen, i+1
		case c == '[':
			kind, i = tokLBracket, i+1
		case c == ']':
			kind, i = tokRBracket, i+1
		case c == '|':
			kind, i = tokPipe, i+1
		case c == ',':
			kind, i = tokComma, i+1
		case c == '>':
			return nil, syntaxErrorf(i, "unexpected '>'")
		case hasEllipsis(src, i):
			kind, i = tokEllipsis, i+3
		case c == '<':
			end := i + 1
			for end < len(src) && src[end] != '>' {
				if src[end] == '<' || src[end] == '\n' {
					return nil, syntaxErrorf(end, "unterminated value slot")
				}
				end++
			}
			if end == len(src) {
				return nil, syntaxErrorf(start, "unterminated value slot")
			}
			if end == i+1 {
				return nil, syntaxErrorf(start, "empty value slot")
			}
			kind, i = tokValue, end+1
		case c == '-' && i+1 < len(src) && src[i+1] == '-':
			end := i + 2
			if end == len(src) || !isLongNameChar(src[end]) || src[end] == '-' {
				return nil, syntaxErrorf(start, "missing long option name")
			}
			for end < len(src) && isLongNameChar(src[end]) {
				end++
			}
			if err := checkOptionEnd(src, end); err != nil {
				return nil, err
			}
			kind, i = tokLong, end
		case c == '-':
			if i+1 == len(src) || isDelimiter(src[i+1]) || src[i+1] == '.' {
				return nil, syntaxErrorf(start, "missing short option name")
			}
			end := i + 2
			if err := checkOptionEnd(src, end); err != nil {
				return nil, syntaxErrorf(start, "short option %q must be a single character", src[start:wordEnd(src, start)])
			}
			kind, i = tokShort, end
		default:
			end := i
			for end < len(src) && !isDelimiter(src[end]) && !hasEllipsis(src, end) {
				end++
			}
			kind, i = tokKeyword, end
		}

		toks = append(toks, token{kind: kind, text: src[start:i], off: start, spaceBefore: space})
		space = false
	}

	toks = append(toks, token{kind: tokEOF, off: len(src), spaceBefore: space})
	return toks, nil
}

// checkOptionEnd verifies that an option name stops at a delimiter, an
// ellipsis or the end of input.
func checkOptionEnd(src string, end int) error {
	if end == len(src) || isDelimiter(src[end]) || hasEllipsis(src, end) {
		return nil
	}
	return syntaxErrorf(end, "unexpected %q in option name", src[end])
}

func wordEnd(src string, i int) int {
	for i < len(src) && !isDelimiter(src[i]) {
		i++
	}
	return i
}
