package parser

import (
	"fmt"
)

type Parser struct {
	lexer  *Lexer
	errors []error
}

func NewParser(input string) *Parser {
	return &Parser{
		lexer: NewLexer(input),
	}
}

// Error is a syntax error at a position in the table.
type Error struct {
	Position Position
	Msg      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Position.Line, e.Position.Column, e.Msg)
}

func (p *Parser) addError(pos Position, msg string) {
	p.errors = append(p.errors, &Error{Position: pos, Msg: msg})
}

// Errors returns every syntax error of the last Parse.
func (p *Parser) Errors() []error { return p.errors }

// Parse reads the whole table. The first line is the title. Rows with fewer
// than two cells after trimming are skipped unless they start with a
// directive tag, so that a bare directive still reaches validation.
func (p *Parser) Parse() (*Document, error) {
	doc := &Document{}
	first := true
	for {
		rec, more := p.parseRecord()
		if rec != nil {
			if first {
				doc.Title = rec
			} else if len(rec.Cells) >= 2 || IsDirective(rec.Tag()) {
				doc.Rows = append(doc.Rows, classify(rec))
			}
		}
		first = false
		if !more {
			break
		}
	}

	var err error
	if len(p.errors) > 0 {
		err = p.errors[0]
	}
	return doc, err
}

// parseRecord consumes one line. It reports false once EOF is reached.
func (p *Parser) parseRecord() (*Record, bool) {
	rec := &Record{}
	var cur *Cell
	started := false
	flush := func(pos Position) {
		if cur == nil {
			cur = &Cell{Position: pos}
		}
		rec.Cells = append(rec.Cells, *cur)
		cur = nil
	}

	for {
		tok := p.lexer.NextToken()
		if !started && tok.Type != TokenEOF {
			rec.Position = tok.Position
			started = true
		}
		switch tok.Type {
		case TokenCell:
			if cur != nil {
				p.addError(tok.Position, "unexpected cell")
				continue
			}
			cur = &Cell{Position: tok.Position, Value: tok.Value, Quoted: tok.Quoted}
		case TokenComma:
			flush(tok.Position)
		case TokenError:
			p.addError(tok.Position, tok.Value)
			p.skipLine()
			return finish(rec, started, cur), true
		case TokenNewline:
			return finish(rec, started, cur), true
		case TokenEOF:
			return finish(rec, started, cur), false
		}
	}
}

func finish(rec *Record, started bool, last *Cell) *Record {
	if !started {
		return nil
	}
	if last != nil {
		rec.Cells = append(rec.Cells, *last)
	}
	for len(rec.Cells) > 0 && rec.Cells[len(rec.Cells)-1].Value == "" {
		rec.Cells = rec.Cells[:len(rec.Cells)-1]
	}
	return rec
}

func (p *Parser) skipLine() {
	for {
		tok := p.lexer.NextToken()
		if tok.Type == TokenNewline || tok.Type == TokenEOF {
			return
		}
	}
}
