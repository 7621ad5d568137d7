package lang

import (
	"strconv"
	"strings"
)

// parseRValueList parses one RValue, or a comma-separated list of them when
// list is set. A comma that begins the next statement ends the list.
func (p *parser) parseRValueList(list bool) ([]Value, error) {
	first, err := p.parseRValue(0)
	if err != nil {
		return nil, err
	}

	vals := []Value{first}

	for list && p.peek().Type == Comma && !p.statementAhead() {
		p.advance()

		v, err := p.parseRValue(0)
		if err != nil {
			return nil, err
		}

		vals = append(vals, v)
	}

	return vals, nil
}

// statementAhead reports whether the tokens after the comma at the cursor
// end the current statement: a terminator, a directive, or a selector
// followed by an operator.
func (p *parser) statementAhead() bool {
	mark := p.pos
	defer func() { p.pos = mark }()

	p.next()

	switch tok := p.peek(); tok.Type {
	case Semicolon, Comma, CloseBrace, Eof, Pound:
		return true

	case Identifier:
		if strings.HasPrefix(tok.Data, "@") {
			return true
		}

	case MacroExpression, EmbeddedInstruction, OpenBrace:
		return false
	}

	if _, err := p.readSelector(); err != nil {
		return false
	}

	switch p.peek().Type {
	case Colon, Equal, PlusEquals, ColonEquals, OpenBrace:
		return true
	default:
		return false
	}
}

// parseRValue parses a value optionally followed by a chain of "=> template"
// iterators.
func (p *parser) parseRValue(depth int) (Value, error) {
	v, err := p.parseOperand(depth)
	if err != nil {
		return nil, err
	}

	for p.peek().Type == Lambda {
		arrow := p.next()

		tmpl, err := p.parseOperand(depth)
		if err != nil {
			return nil, err
		}

		v = &Iterator{Source: v, Template: tmpl, Loc: arrow.Location(p.filename)}
	}

	return v, nil
}

func (p *parser) parseOperand(depth int) (Value, error) {
	switch tok := p.peek(); tok.Type {
	case OpenBrace:
		return p.parseCollection(depth + 1)

	case EmbeddedInstruction:
		p.advance()

		return &Instruction{Body: tok.Data, Loc: tok.Location(p.filename)}, nil

	case Eof:
		return nil, p.fail(tok, CodeUnexpectedEnd, "expected value")

	case Semicolon, Comma, CloseBrace, Lambda:
		return nil, p.fail(tok, CodeMissingRValue,
			"expected value before "+strconv.Quote(tok.RawData))

	default:
		return p.parseLiteral()
	}
}

// parseCollection parses "{ item, item, #key = value }".
func (p *parser) parseCollection(depth int) (Value, error) {
	open := p.next()

	if depth > p.root.opts.maxDepth {
		return nil, p.fail(open, CodeMaxDepthExceeded,
			"nesting exceeds maximum depth "+strconv.Itoa(p.root.opts.maxDepth))
	}

	coll := &Collection{Loc: open.Location(p.filename)}

	for {
		switch tok := p.peek(); tok.Type {
		case CloseBrace:
			p.advance()

			return coll, nil

		case Eof:
			return nil, p.fail(tok, CodeUnexpectedEnd,
				"unterminated collection opened at "+coll.Loc.String())

		case Semicolon, Comma:
			p.advance()

		case Pound:
			p.advance()

			key, err := p.readSelector()
			if err != nil {
				return nil, err
			}

			switch op := p.peek(); op.Type {
			case Equal, Colon, ColonEquals:
				p.advance()
			default:
				return nil, p.unexpected(op, "'=' after metadata name")
			}

			v, err := p.parseRValue(depth)
			if err != nil {
				return nil, err
			}

			if coll.Metadata == nil {
				coll.Metadata = make(map[string]Value)
			}

			coll.Metadata[key.String()] = v

		default:
			v, err := p.parseRValue(depth)
			if err != nil {
				return nil, err
			}

			coll.Items = append(coll.Items, v)
		}
	}
}

// parseLiteral concatenates a run of tokens into a scalar. Whitespace
// between tokens is kept verbatim, comments are dropped, string literals
// contribute their content and selector parameters are written as [text].
func (p *parser) parseLiteral() (Value, error) {
	first := p.peek()

	var (
		sb      strings.Builder
		pending string
		count   int
	)

	for {
		tok := p.peekRaw()

		switch tok.Type {
		case Semicolon, Comma, CloseBrace, OpenBrace, Eof, Lambda, EmbeddedInstruction:
			goto done

		case WhiteSpace:
			if count > 0 {
				pending += tok.RawData
			}

		case LineComment, MultilineComment:

		default:
			sb.WriteString(pending)
			pending = ""

			switch tok.Type {
			case StringLiteral:
				sb.WriteString(tok.Data)
			case SelectorParameter:
				sb.WriteString("[" + tok.Data + "]")
			default:
				sb.WriteString(tok.RawData)
			}

			count++
		}

		p.advance()
	}

done:
	if count == 0 {
		return nil, p.fail(p.peek(), CodeMissingRValue, "expected value")
	}

	return &Scalar{Text: sb.String(), Loc: first.Location(p.filename)}, nil
}
