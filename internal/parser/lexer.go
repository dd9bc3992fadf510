package parser

import (
	"unicode/utf8"
)

type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenCell
	TokenComma
	TokenNewline
)

type Token struct {
	Type     TokenType
	Value    string
	Quoted   bool
	Position Position
}

type Lexer struct {
	input     string
	start     int
	pos       int
	width     int
	line      int
	lineStart int
}

func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
	}
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return -1
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += l.width
	if r == '\n' {
		l.line++
		l.lineStart = l.pos
	}
	return r
}

// peek never crosses a newline so backing up needs no line bookkeeping.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.pos - l.lineStart + 1}
}

func (l *Lexer) skipBlanks() {
	for {
		r := l.peek()
		if r != ' ' && r != '\t' {
			return
		}
		l.next()
	}
}

func (l *Lexer) NextToken() Token {
	l.skipBlanks()
	pos := l.position()
	l.start = l.pos

	switch r := l.peek(); r {
	case -1:
		return Token{Type: TokenEOF, Position: pos}
	case '\r':
		l.next()
		if l.peek() == '\n' {
			l.next()
		} else {
			// Lone carriage return still ends the row.
			l.line++
			l.lineStart = l.pos
		}
		return Token{Type: TokenNewline, Value: "\n", Position: pos}
	case '\n':
		l.next()
		return Token{Type: TokenNewline, Value: "\n", Position: pos}
	case ',':
		l.next()
		return Token{Type: TokenComma, Value: ",", Position: pos}
	case '"':
		return l.lexQuoted(pos)
	default:
		return l.lexBare(pos)
	}
}

func (l *Lexer) lexBare(pos Position) Token {
	end := l.pos
	for {
		r := l.peek()
		if r == -1 || r == ',' || r == '\n' || r == '\r' {
			break
		}
		l.next()
		if r != ' ' && r != '\t' {
			end = l.pos
		}
	}
	return Token{Type: TokenCell, Value: l.input[l.start:end], Position: pos}
}

func (l *Lexer) lexQuoted(pos Position) Token {
	l.next() // opening quote
	var buf []byte
	for {
		r := l.next()
		switch r {
		case -1:
			return Token{Type: TokenError, Value: "unterminated quoted cell", Position: pos}
		case '"':
			if l.peek() == '"' {
				l.next()
				buf = append(buf, '"')
				continue
			}
			l.skipBlanks()
			switch l.peek() {
			case -1, ',', '\n', '\r':
				return Token{Type: TokenCell, Value: string(buf), Quoted: true, Position: pos}
			}
			return Token{Type: TokenError, Value: "unexpected character after quoted cell", Position: l.position()}
		default:
			buf = utf8.AppendRune(buf, r)
		}
	}
}
