package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize converts source text into a flat token stream.
//
// Tokenize is total: every input produces a token stream terminated by a
// single [Eof] token, and characters that do not begin any recognized token
// are emitted as [Unknown] tokens. Whitespace and comments are retained so
// callers may reconstruct or reformat the source.
func Tokenize(text string) []Token {
	s := scanner{src: text, mark: mark{row: 1, col: 1}}

	for !s.eof() {
		s.scan()
	}

	return append(s.toks, Token{Type: Eof, Row: s.row, Column: s.col})
}

// scanner holds the tokenizer state.
type scanner struct {
	src  string
	toks []Token
	mark
}

// mark is a restorable scan position.
type mark struct {
	pos int
	row int
	col int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

// peek returns the rune at the current position without consuming it.
func (s *scanner) peek() rune {
	if s.eof() {
		return utf8.RuneError
	}

	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])

	return r
}

// byteAt returns the byte off bytes past the current position, or 0.
func (s *scanner) byteAt(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}

	return s.src[s.pos+off]
}

// runeAt decodes the rune starting off bytes past the current position.
func (s *scanner) runeAt(off int) rune {
	if s.pos+off >= len(s.src) {
		return utf8.RuneError
	}

	r, _ := utf8.DecodeRuneInString(s.src[s.pos+off:])

	return r
}

// next consumes one rune and updates the row and column.
func (s *scanner) next() rune {
	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size

	switch {
	case r == '\n':
		s.row++
		s.col = 1
	case r == '\r' && s.byteAt(0) == '\n':
		s.col++
	case r == '\r':
		s.row++
		s.col = 1
	default:
		s.col++
	}

	return r
}

// skip consumes n bytes worth of runes.
func (s *scanner) skip(n int) {
	end := s.pos + n
	for s.pos < end && !s.eof() {
		s.next()
	}
}

func (s *scanner) emit(typ TokenType, data string, start mark) {
	s.toks = append(s.toks, Token{
		Type:    typ,
		Data:    data,
		RawData: s.src[start.pos:s.pos],
		Row:     start.row,
		Column:  start.col,
	})
}

// emitRaw emits a token whose Data equals its RawData.
func (s *scanner) emitRaw(typ TokenType, start mark) {
	s.emit(typ, s.src[start.pos:s.pos], start)
}

// unknown rewinds to start, consumes exactly one rune and emits it as an
// Unknown token.
func (s *scanner) unknown(start mark) {
	s.mark = start
	s.next()
	s.emitRaw(Unknown, start)
}

// punctuation maps single-byte tokens to their types. The wildcard '*' is
// not listed: it scans as an Unknown token with RawData "*", which the
// parser and readSelector accept as the [Wildcard] selector name.
var punctuation = map[byte]TokenType{
	'.': Dot,
	'#': Pound,
	';': Semicolon,
	',': Comma,
	'{': OpenBrace,
	'}': CloseBrace,
	'(': OpenParenthesis,
	')': CloseParenthesis,
}

// scan consumes exactly one token.
func (s *scanner) scan() {
	start := s.mark
	r := s.peek()

	switch {
	case unicode.IsSpace(r):
		for !s.eof() && unicode.IsSpace(s.peek()) {
			s.next()
		}

		s.emitRaw(WhiteSpace, start)

	case r == '/' && s.byteAt(1) == '/':
		for !s.eof() && s.peek() != '\n' && s.peek() != '\r' {
			s.next()
		}

		s.emitRaw(LineComment, start)

	case r == '/' && s.byteAt(1) == '*':
		s.skip(2)

		for !s.eof() && (s.peek() != '*' || s.byteAt(1) != '/') {
			s.next()
		}

		s.skip(2)
		s.emitRaw(MultilineComment, start)

	case r == '@' && s.byteAt(1) == '"':
		s.scanAtString(start)

	case r == '@' && isIdentStart(s.runeAt(1)):
		s.next()
		s.scanIdentifier(start)

	case isIdentStart(r):
		s.scanIdentifier(start)

	case r >= '0' && r <= '9':
		s.scanNumber(start)

	case r == '"' || r == '\'':
		s.scanString(start, r)

	case r == '$' && s.byteAt(1) == '{':
		s.scanMacro(start)

	case r == '<':
		s.scanInstruction(start)

	case r == '[':
		s.scanParameter(start)

	case r == ':':
		s.next()

		if s.peek() == '=' {
			s.next()
			s.emitRaw(ColonEquals, start)
		} else {
			s.emitRaw(Colon, start)
		}

	case r == '=':
		s.next()

		if s.peek() == '>' {
			s.next()
			s.emitRaw(Lambda, start)
		} else {
			s.emitRaw(Equal, start)
		}

	case r == '+' && s.byteAt(1) == '=':
		s.skip(2)
		s.emitRaw(PlusEquals, start)

	default:
		if typ, ok := punctuation[s.byteAt(0)]; ok {
			s.next()
			s.emitRaw(typ, start)

			return
		}

		s.unknown(start)
	}
}

func (s *scanner) scanIdentifier(start mark) {
	s.next()

	for !s.eof() && isIdentContinue(s.peek()) {
		s.next()
	}

	s.emitRaw(Identifier, start)
}

func (s *scanner) scanNumber(start mark) {
	if s.byteAt(0) == '0' && (s.byteAt(1) == 'x' || s.byteAt(1) == 'X') &&
		isHexDigit(s.byteAt(2)) {
		s.skip(2)

		for isHexDigit(s.byteAt(0)) {
			s.next()
		}

		s.emitRaw(NumericLiteral, start)

		return
	}

	for isDigit(s.byteAt(0)) {
		s.next()
	}

	// Dotted groups such as version numbers (2.0.1) stay one literal.
	for s.byteAt(0) == '.' && isDigit(s.byteAt(1)) {
		s.next()

		for isDigit(s.byteAt(0)) {
			s.next()
		}
	}

	s.emitRaw(NumericLiteral, start)
}

// scanString scans a standard quoted string. A raw line break before the
// closing quote leaves the string unterminated.
func (s *scanner) scanString(start mark, quote rune) {
	s.next()

	var sb strings.Builder

	for !s.eof() {
		r := s.peek()

		switch {
		case r == quote:
			s.next()
			s.emit(StringLiteral, sb.String(), start)

			return

		case r == '\n' || r == '\r':
			s.unknown(start)

			return

		case r == '\\':
			s.next()

			if s.eof() {
				s.unknown(start)

				return
			}

			writeEscape(&sb, s.next())

		default:
			sb.WriteRune(s.next())
		}
	}

	s.unknown(start)
}

func writeEscape(sb *strings.Builder, e rune) {
	switch e {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case '0':
		sb.WriteByte(0)
	case '\\', '"', '\'':
		sb.WriteRune(e)
	default:
		sb.WriteByte('\\')
		sb.WriteRune(e)
	}
}

// scanAtString scans @"..." where "" is an escaped quote and nothing else is
// processed. Line breaks are permitted.
func (s *scanner) scanAtString(start mark) {
	s.skip(2)

	var sb strings.Builder

	for !s.eof() {
		r := s.next()
		if r != '"' {
			sb.WriteRune(r)

			continue
		}

		if s.byteAt(0) == '"' {
			s.next()
			sb.WriteByte('"')

			continue
		}

		s.emit(StringLiteral, sb.String(), start)

		return
	}

	s.unknown(start)
}

// scanMacro scans a balanced ${...} run as one raw token.
func (s *scanner) scanMacro(start mark) {
	s.skip(2)

	for depth := 1; !s.eof(); {
		switch s.next() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s.emitRaw(MacroExpression, start)

				return
			}
		}
	}

	s.unknown(start)
}

// scanParameter scans a stack-matched [...] selector parameter.
func (s *scanner) scanParameter(start mark) {
	s.next()
	body := s.pos

	for depth := 1; !s.eof(); {
		end := s.pos

		switch s.next() {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				s.emit(SelectorParameter, strings.TrimSpace(s.src[body:end]), start)

				return
			}
		}
	}

	s.unknown(start)
}

// scanInstruction scans an embedded instruction. A run of anchor runes
// directly after '<' selects anchor mode, where the body ends at the first
// occurrence of the same anchor followed by '>'. Otherwise '<' and '>' are
// matched by depth.
func (s *scanner) scanInstruction(start mark) {
	s.next()
	open := s.mark

	for !s.eof() && isAnchor(s.peek()) {
		s.next()
	}

	if anchor := s.src[open.pos:s.pos]; anchor != "" {
		rest := s.src[s.pos:]
		if idx := strings.Index(rest, anchor+">"); idx >= 0 {
			body := rest[:idx]
			s.skip(idx + len(anchor) + 1)
			s.emit(EmbeddedInstruction, strings.TrimSpace(body), start)

			return
		}

		s.mark = open
	}

	for depth := 1; !s.eof(); {
		end := s.pos

		switch s.next() {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				s.emit(EmbeddedInstruction, strings.TrimSpace(s.src[open.pos:end]), start)

				return
			}
		}
	}

	s.unknown(start)
}

// Character classification

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// isAnchor reports whether r may appear in an embedded instruction anchor.
func isAnchor(r rune) bool {
	switch r {
	case '<', '>', '"', '\'', '`', '(', ')', '[', ']', '{', '}':
		return false
	}

	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
