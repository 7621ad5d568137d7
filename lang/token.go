package lang

import (
	"strconv"
	"strings"
)

// TokenType identifies the lexical class of a [Token].
type TokenType int

const (
	Identifier TokenType = iota
	StringLiteral
	NumericLiteral
	WhiteSpace
	LineComment
	MultilineComment
	Dot
	Pound
	Colon
	ColonEquals
	Equal
	PlusEquals
	Semicolon
	Comma
	OpenBrace
	CloseBrace
	OpenParenthesis
	CloseParenthesis
	SelectorParameter
	EmbeddedInstruction
	MacroExpression
	Lambda
	Eof
	Unknown
)

var tokenTypeName = [...]string{
	Identifier:          "Identifier",
	StringLiteral:       "StringLiteral",
	NumericLiteral:      "NumericLiteral",
	WhiteSpace:          "WhiteSpace",
	LineComment:         "LineComment",
	MultilineComment:    "MultilineComment",
	Dot:                 "Dot",
	Pound:               "Pound",
	Colon:               "Colon",
	ColonEquals:         "ColonEquals",
	Equal:               "Equal",
	PlusEquals:          "PlusEquals",
	Semicolon:           "Semicolon",
	Comma:               "Comma",
	OpenBrace:           "OpenBrace",
	CloseBrace:          "CloseBrace",
	OpenParenthesis:     "OpenParenthesis",
	CloseParenthesis:    "CloseParenthesis",
	SelectorParameter:   "SelectorParameter",
	EmbeddedInstruction: "EmbeddedInstruction",
	MacroExpression:     "MacroExpression",
	Lambda:              "Lambda",
	Eof:                 "Eof",
	Unknown:             "Unknown",
}

// String returns the name of the token type.
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenTypeName) {
		return tokenTypeName[t]
	}

	return "TokenType(" + strconv.Itoa(int(t)) + ")"
}

// IsTrivia reports whether tokens of this type carry no grammar meaning.
func (t TokenType) IsTrivia() bool {
	return t == WhiteSpace || t == LineComment || t == MultilineComment
}

// Token is an immutable lexical unit produced by [Tokenize].
//
// RawData is the exact slice of source text the token was scanned from.
// Data is the semantic payload: unescaped string content, trimmed selector
// parameter or instruction body, otherwise identical to RawData.
type Token struct {
	Type    TokenType
	Data    string
	RawData string
	Row     int
	Column  int
}

// Location returns the source location of the token within filename.
func (t Token) Location(filename string) SourceLocation {
	return SourceLocation{Filename: filename, Row: t.Row, Column: t.Column}
}

// String renders the token for diagnostics, e.g. Identifier("foo")@3:7.
func (t Token) String() string {
	var sb strings.Builder

	sb.WriteString(t.Type.String())

	if t.Type != Eof {
		sb.WriteByte('(')
		sb.WriteString(strconv.Quote(t.RawData))
		sb.WriteByte(')')
	}

	sb.WriteByte('@')
	sb.WriteString(strconv.Itoa(t.Row))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(t.Column))

	return sb.String()
}

// SourceLocation identifies a position within a named source.
type SourceLocation struct {
	Filename string
	Row      int
	Column   int
}

// String formats the location as file:row:col.
func (l SourceLocation) String() string {
	name := l.Filename
	if name == "" {
		name = "<input>"
	}

	return name + ":" + strconv.Itoa(l.Row) + ":" + strconv.Itoa(l.Column)
}
