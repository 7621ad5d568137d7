package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ardnew/psheet/log"
)

// ParseString parses text as the root sheet named filename. The filename is
// used for diagnostics and to resolve relative imports; it may be empty.
func ParseString(
	ctx context.Context,
	text, filename string,
	opts ...Option,
) (*RootPropertySheet, error) {
	root := NewRootPropertySheet(filename, opts...)
	root.source = text

	root.opts.logger.TraceContext(
		ctx,
		"parse start",
		slog.String("filename", filename),
		slog.Int("source_length", len(text)),
	)

	if filename != "" {
		key := canonicalPath(filename)
		root.registry[key] = root.PropertySheet
	}

	if err := parseSheet(ctx, root.PropertySheet, tokenize(text), text); err != nil {
		return nil, err
	}

	if err := root.loadUser(ctx); err != nil {
		return nil, err
	}

	root.opts.logger.TraceContext(
		ctx,
		"parse complete",
		slog.Int("entries", root.Len()),
		slog.Int("sheets", len(root.Sheets())),
		slog.Int("diagnostics", len(root.diags)),
	)

	return root, nil
}

// ParseReader parses the content of r as the root sheet named filename.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	filename string,
	opts ...Option,
) (*RootPropertySheet, error) {
	text, err := readSource(r)
	if err != nil {
		return nil, err
	}

	return ParseString(ctx, text, filename, opts...)
}

// ParseFile reads and parses the sheet at path.
func ParseFile(
	ctx context.Context,
	path string,
	opts ...Option,
) (*RootPropertySheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	return ParseReader(ctx, f, path, opts...)
}

// Parse parses tokens into node, which must belong to a tree created by a
// [RootPropertySheet]. Statements bind relative to node.
func Parse(
	ctx context.Context,
	tokens []Token,
	node *ObjectNode,
	filename string,
) error {
	if node == nil || node.Root() == nil {
		return ErrDetachedNode
	}

	var src strings.Builder
	for _, tok := range tokens {
		src.WriteString(tok.RawData)
	}

	return newParser(ctx, node, tokens, filename, src.String()).run()
}

func parseSheet(
	ctx context.Context,
	sheet *PropertySheet,
	tokens []Token,
	source string,
) error {
	return newParser(ctx, sheet.ObjectNode, tokens, sheet.Filename, source).run()
}

// cursor walks a token stream. Methods named peek and next skip trivia; the
// Raw variants do not.
type cursor struct {
	toks     []Token
	pos      int
	filename string
	source   string
}

func newCursor(toks []Token, filename, source string) *cursor {
	return &cursor{toks: toks, filename: filename, source: source}
}

// peekRawAt returns the token n positions ahead without skipping trivia.
// Reading past the end yields Eof.
func (c *cursor) peekRawAt(n int) Token {
	if i := c.pos + n; i < len(c.toks) {
		return c.toks[i]
	}

	eof := Token{Type: Eof, Row: 1, Column: 1}
	if len(c.toks) > 0 {
		last := c.toks[len(c.toks)-1]
		eof.Row, eof.Column = last.Row, last.Column
	}

	return eof
}

func (c *cursor) peekRaw() Token { return c.peekRawAt(0) }

// peek skips trivia and returns the next significant token.
func (c *cursor) peek() Token {
	for c.pos < len(c.toks) && c.toks[c.pos].Type.IsTrivia() {
		c.pos++
	}

	return c.peekRaw()
}

func (c *cursor) advance() {
	if c.pos < len(c.toks) {
		c.pos++
	}
}

// next consumes and returns the next significant token.
func (c *cursor) next() Token {
	tok := c.peek()
	c.advance()

	return tok
}

// fail builds a [*ParseError] at tok. An unexpected Eof is always reported
// as [CodeUnexpectedEnd].
func (c *cursor) fail(tok Token, code ErrorCode, msg string) error {
	if tok.Type == Eof && code == CodeTokenNotExpected {
		code = CodeUnexpectedEnd
	}

	return &ParseError{
		Token:    tok,
		Filename: c.filename,
		Code:     code,
		Message:  msg,
		Source:   c.source,
	}
}

// unexpected reports tok as not expected in the current state.
func (c *cursor) unexpected(tok Token, want string) error {
	if tok.Type == Eof {
		return c.fail(tok, CodeUnexpectedEnd, "expected "+want)
	}

	return c.fail(tok, CodeTokenNotExpected,
		"expected "+want+", found "+tok.Type.String()+" "+strconv.Quote(tok.RawData))
}

type frameKind int

const (
	frameObject frameKind = iota
	frameMetadata
	frameTemplate
)

// frame is an open brace (or a matrix template) on the parser's stack.
type frame struct {
	node   *ObjectNode
	open   Token
	prefix string
	kind   frameKind
}

// stateFn is one state of the parser. It returns the next state, or nil
// when parsing is complete.
type stateFn func(*parser) (stateFn, error)

// parser holds the parser state.
type parser struct {
	*cursor

	ctx    context.Context
	root   *RootPropertySheet
	sheet  *PropertySheet
	top    *ObjectNode
	frames []frame
	logger log.Logger

	// Statement in progress.
	stmt   Token
	target Route
	base   *ObjectNode
}

func newParser(
	ctx context.Context,
	top *ObjectNode,
	tokens []Token,
	filename, source string,
) *parser {
	root := top.Root()

	return &parser{
		cursor: newCursor(tokens, filename, source),
		ctx:    ctx,
		root:   root,
		sheet:  top.sheet,
		top:    top,
		logger: root.opts.logger,
	}
}

// run drives the state machine until a state returns nil. A grammar
// violation in this sheet is reported as an error diagnostic before it is
// returned; one raised by an imported sheet was reported by its own parser.
func (p *parser) run() error {
	for state := stateStatement; state != nil; {
		var err error
		if state, err = state(p); err != nil {
			p.logger.TraceContext(p.ctx, "parse failed",
				slog.String("filename", p.filename),
				slog.Any("error", err))

			var pe *ParseError
			if errors.As(err, &pe) && pe.Filename == p.filename {
				p.root.report(p.ctx, pe.Diagnostic())
			}

			return err
		}
	}

	return nil
}

// node returns the node statements currently bind to.
func (p *parser) node() *ObjectNode {
	if f, ok := p.frame(); ok {
		return f.node
	}

	return p.top
}

func (p *parser) frame() (frame, bool) {
	if len(p.frames) == 0 {
		return frame{}, false
	}

	return p.frames[len(p.frames)-1], true
}

func (p *parser) push(f frame) error {
	if len(p.frames) >= p.root.opts.maxDepth {
		return p.fail(f.open, CodeMaxDepthExceeded,
			"nesting exceeds maximum depth "+strconv.Itoa(p.root.opts.maxDepth))
	}

	p.frames = append(p.frames, f)

	return nil
}

func (p *parser) pop() frame {
	f := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]

	return f
}

// closeTemplates pops every matrix template frame whose single statement
// has just completed.
func (p *parser) closeTemplates() {
	for {
		f, ok := p.frame()
		if !ok || f.kind != frameTemplate {
			return
		}

		p.pop()
	}
}

// stateStatement dispatches on the first token of a statement.
func stateStatement(p *parser) (stateFn, error) {
	tok := p.peek()
	p.stmt = tok

	f, inFrame := p.frame()

	if inFrame && f.kind == frameTemplate {
		switch tok.Type {
		case Eof, CloseBrace, Semicolon, Comma:
			return nil, p.fail(tok, CodeMissingRValue, "expected statement after '=>'")
		}
	}

	if inFrame && f.kind == frameMetadata {
		switch tok.Type {
		case Eof, CloseBrace, Semicolon, Comma:
		default:
			return stateMetadata, nil
		}
	}

	switch tok.Type {
	case Eof:
		if inFrame {
			return nil, p.fail(tok, CodeUnexpectedEnd,
				"unterminated '{' opened at "+f.open.Location(p.filename).String())
		}

		return nil, nil

	case Semicolon, Comma:
		p.advance()

		return stateStatement, nil

	case CloseBrace:
		return stateClose, nil

	case OpenBrace:
		return stateAnonymous, nil

	case OpenParenthesis:
		return stateMatrix, nil

	case Pound:
		return stateMetadata, nil

	case Identifier:
		switch tok.Data {
		case "@import":
			return stateImport, nil
		case "@alias":
			return stateAlias, nil
		}

		if strings.HasPrefix(tok.Data, "@") {
			return nil, p.fail(tok, CodeTokenNotExpected, "unknown directive "+tok.Data)
		}

		return stateSelector, nil

	case StringLiteral, NumericLiteral, SelectorParameter:
		return stateSelector, nil

	case Colon:
		if p.peekRawAt(1).Type == Colon {
			return stateSelector, nil
		}

	case Unknown:
		if tok.RawData == Wildcard {
			return stateSelector, nil
		}
	}

	return nil, p.unexpected(tok, "statement")
}

// stateClose closes the innermost brace.
func stateClose(p *parser) (stateFn, error) {
	tok := p.peek()

	f, ok := p.frame()
	if !ok || f.kind == frameTemplate {
		return nil, p.fail(tok, CodeTokenNotExpected, "unmatched '}'")
	}

	p.advance()
	p.pop()

	return stateBlockEnd, nil
}

// stateBlockEnd follows a closing brace, where a terminator is optional.
func stateBlockEnd(p *parser) (stateFn, error) {
	switch p.peek().Type {
	case Semicolon, Comma:
		p.advance()
	}

	p.closeTemplates()

	return stateStatement, nil
}

// stateTerminator follows a value statement. The statement ends at ';' or
// ',', or before '}' or the end of input.
func stateTerminator(p *parser) (stateFn, error) {
	switch tok := p.peek(); tok.Type {
	case Semicolon, Comma:
		p.advance()
	case CloseBrace, Eof:
	default:
		return nil, p.unexpected(tok, "';' after statement")
	}

	p.closeTemplates()

	return stateStatement, nil
}

// stateAnonymous opens a "{ ... }" block keyed by the next index value.
func stateAnonymous(p *parser) (stateFn, error) {
	open := p.next()

	sel := Selector{
		Name:     "__" + strconv.Itoa(p.root.NextIndexValue()),
		Location: open.Location(p.filename),
	}

	child, err := p.node().Children().GetOrCreate(sel)
	if err != nil {
		return nil, p.fail(open, CodeChildExists, err.Error())
	}

	if err := p.push(frame{node: child, open: open}); err != nil {
		return nil, err
	}

	return stateStatement, nil
}

// stateSelector reads the selector of a statement and dispatches on the
// operator that follows it.
func stateSelector(p *parser) (stateFn, error) {
	sel, err := p.readSelector()
	if err != nil {
		return nil, err
	}

	p.base = p.node()
	p.target = sel.Path()

	if sel.IsGlobal() {
		p.base = p.sheet.ObjectNode
	} else if alias, ok := lookupAlias(p.base, p.target[0].Name); ok {
		alias.Use(p.root)
		p.target = alias.Substitute(p.target)

		if alias.Reference.IsGlobal() {
			p.base = p.sheet.ObjectNode
		}

		p.logger.TraceContext(p.ctx, "alias substituted",
			slog.Any("alias", alias),
			slog.String("route", p.target.String()))
	}

	switch op := p.peek(); op.Type {
	case OpenBrace:
		p.advance()

		return p.openObject(op)

	case Colon:
		p.advance()

		return assignState(CollectionAssignment, true), nil

	case Equal:
		p.advance()

		return assignState(Assignment, false), nil

	case PlusEquals:
		p.advance()

		return assignState(AddToCollection, true), nil

	case ColonEquals:
		p.advance()

		switch next := p.peek(); {
		case next.Type == OpenBrace:
			p.advance()

			return p.openObject(next)

		case next.Type == EmbeddedInstruction && p.instructionStands():
			return stateBindInstruction, nil
		}

		return assignState(Assignment, false), nil

	case EmbeddedInstruction:
		return stateBindInstruction, nil

	default:
		return nil, p.unexpected(op, "'{', ':', '=', '+=' or ':=' after selector "+sel.String())
	}
}

// openObject binds the statement target as an object and enters it.
func (p *parser) openObject(open Token) (stateFn, error) {
	obj, err := p.bindObject()
	if err != nil {
		return nil, err
	}

	if err := p.push(frame{node: obj, open: open}); err != nil {
		return nil, err
	}

	return stateStatement, nil
}

// assignState parses the right-hand side of an assignment operator.
func assignState(op Operation, list bool) stateFn {
	return func(p *parser) (stateFn, error) {
		prop, err := p.bindProperty()
		if err != nil {
			return nil, err
		}

		vals, err := p.parseRValueList(list)
		if err != nil {
			return nil, err
		}

		v := vals[0]
		if len(vals) > 1 {
			v = &Collection{Items: vals, Loc: v.Location()}
		}

		prop.Add(op, v)

		return stateTerminator, nil
	}
}

// stateBindInstruction binds an embedded instruction as the value of the
// statement target's own node.
func stateBindInstruction(p *parser) (stateFn, error) {
	tok := p.next()

	obj, err := p.bindObject()
	if err != nil {
		return nil, err
	}

	prop, err := obj.Properties().GetOrCreate(NewSelector(Wildcard))
	if err != nil {
		return nil, p.fail(tok, CodeChildExists, err.Error())
	}

	prop.Add(Assignment, &Instruction{Body: tok.Data, Loc: tok.Location(p.filename)})

	return stateTerminator, nil
}

// instructionStands reports whether the embedded instruction at the cursor
// is followed directly by the end of the statement.
func (p *parser) instructionStands() bool {
	mark := p.pos
	defer func() { p.pos = mark }()

	p.next()

	switch p.peek().Type {
	case Semicolon, Comma, CloseBrace, Eof:
		return true
	default:
		return false
	}
}

// bindObject walks the statement target from its base, creating nested
// objects as needed.
func (p *parser) bindObject() (*ObjectNode, error) {
	node := p.base

	for _, sel := range p.target {
		child, err := node.Children().GetOrCreate(sel)
		if err != nil {
			return nil, p.fail(p.stmt, CodeChildExists,
				"selector "+p.target.String()+" is already bound to a property")
		}

		node = child
	}

	return node, nil
}

// bindProperty walks the statement target from its base and returns the
// property it names.
func (p *parser) bindProperty() (*PropertyNode, error) {
	node := p.base

	for _, sel := range p.target.Parent() {
		child, err := node.Children().GetOrCreate(sel)
		if err != nil {
			return nil, p.fail(p.stmt, CodeChildExists,
				"selector "+p.target.String()+" is already bound to a property")
		}

		node = child
	}

	last, _ := p.target.Last()

	prop, err := node.Properties().GetOrCreate(last)
	if err != nil {
		return nil, p.fail(p.stmt, CodeChildExists,
			"selector "+p.target.String()+" is already bound to an object")
	}

	return prop, nil
}

// stateImport handles: @import "path";
func stateImport(p *parser) (stateFn, error) {
	p.next()

	tok := p.peek()

	var name string

	switch tok.Type {
	case StringLiteral:
		p.advance()
		name = tok.Data

	case Identifier, NumericLiteral, Dot:
		name = p.readBareName()

	case Eof:
		return nil, p.fail(tok, CodeUnexpectedEnd, "expected import path")

	default:
		return nil, p.fail(tok, CodeInvalidImport, "expected import path after @import")
	}

	if err := p.importSheet(tok, name); err != nil {
		return nil, err
	}

	return stateTerminator, nil
}

// readBareName concatenates contiguous name tokens, e.g. common.props.
func (p *parser) readBareName() string {
	var sb strings.Builder

	for {
		switch tok := p.peekRaw(); tok.Type {
		case Identifier, NumericLiteral, Dot:
			sb.WriteString(tok.RawData)
			p.advance()

		default:
			return sb.String()
		}
	}
}

// stateAlias handles: @alias name = selector;
func stateAlias(p *parser) (stateFn, error) {
	p.next()

	name := p.peek()
	if name.Type != Identifier || strings.HasPrefix(name.Data, "@") {
		return nil, p.unexpected(name, "alias name")
	}

	p.advance()

	switch eq := p.peek(); eq.Type {
	case Equal, ColonEquals, Colon:
		p.advance()
	default:
		return nil, p.unexpected(eq, "'=' after alias name")
	}

	ref, err := p.readSelector()
	if err != nil {
		return nil, err
	}

	alias := &Alias{Name: name.Data, Reference: ref}

	if strings.Contains(ref.Name, alias.Name) {
		p.root.report(p.ctx, Diagnostic{
			Code:     CodeAliasSelfReference,
			Severity: SeverityWarning,
			Locations: []SourceLocation{
				name.Location(p.filename),
				ref.Location,
			},
			Message: "alias %q refers to a selector containing its own name (%s)",
			Args:    []any{alias.Name, ref.String()},
		})
	}

	p.node().Aliases()[alias.Name] = alias

	p.logger.TraceContext(p.ctx, "alias declared", slog.Any("alias", alias))

	return stateTerminator, nil
}

// stateMetadata handles "#name = value;" and "#name { key = value; }". The
// leading '#' is optional inside a metadata block.
func stateMetadata(p *parser) (stateFn, error) {
	if p.peek().Type == Pound {
		p.advance()
	}

	start := p.peek()

	key, err := p.readSelector()
	if err != nil {
		return nil, err
	}

	name := key.String()
	if f, ok := p.frame(); ok && f.kind == frameMetadata {
		name = f.prefix + name
	}

	switch op := p.peek(); op.Type {
	case Equal, Colon, ColonEquals:
		p.advance()

		v, err := p.parseRValue(0)
		if err != nil {
			return nil, err
		}

		p.node().Metadata()[name] = v

		return stateTerminator, nil

	case OpenBrace:
		p.advance()

		err := p.push(frame{
			node:   p.node(),
			open:   op,
			prefix: name + ".",
			kind:   frameMetadata,
		})
		if err != nil {
			return nil, err
		}

		return stateStatement, nil

	default:
		return nil, p.unexpected(op, "'=' or '{' after metadata name "+
			strconv.Quote(start.RawData))
	}
}

// stateMatrix handles "( c1, c2 ) => statement". The statement is parsed
// into a template node evaluated once per combination of the collections.
func stateMatrix(p *parser) (stateFn, error) {
	open := p.next()

	var names []string

	for {
		tok := p.peek()

		switch tok.Type {
		case Identifier, StringLiteral:
			p.advance()

			names = append(names, tok.Data)

			continue

		case Comma:
			p.advance()

			continue

		case CloseParenthesis:
			p.advance()

		default:
			return nil, p.unexpected(tok, "collection name or ')'")
		}

		break
	}

	if len(names) == 0 {
		return nil, p.fail(open, CodeMissingRValue,
			"matrix foreach requires at least one collection")
	}

	arrow := p.peek()
	if arrow.Type != Lambda {
		return nil, p.unexpected(arrow, "'=>' after collection list")
	}

	p.advance()

	idx := p.root.NextIndexValue()
	loc := open.Location(p.filename)

	m := &Matrix{Collections: names, Index: idx, Loc: loc}
	m.Body = newObjectNode(p.node(), Selector{
		Name:     "__" + strconv.Itoa(idx),
		Location: loc,
	})

	p.node().addMatrix(m)

	p.logger.TraceContext(p.ctx, "matrix declared", slog.Any("matrix", m))

	switch body := p.peek(); body.Type {
	case OpenBrace:
		p.advance()

		if err := p.push(frame{node: m.Body, open: body}); err != nil {
			return nil, err
		}

		return stateStatement, nil

	case StringLiteral, MacroExpression, EmbeddedInstruction:
		v, err := p.parseRValue(0)
		if err != nil {
			return nil, err
		}

		prop, _ := m.Body.Properties().GetOrCreate(NewSelector(Wildcard))
		prop.Add(Assignment, v)

		return stateTerminator, nil

	default:
		if err := p.push(frame{node: m.Body, open: arrow, kind: frameTemplate}); err != nil {
			return nil, err
		}

		return stateStatement, nil
	}
}
