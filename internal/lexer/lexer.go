// Package lexer provides orchestra source tokenization.
package lexer

import (
	"github.com/kolkov/usaol/internal/token"
)

// Lexer tokenizes orchestra source code.
type Lexer struct {
	src     []byte         // Source code
	ch      byte           // Current character (0 at EOF)
	offset  int            // Current byte offset
	pos     token.Position // Current position
	nextPos token.Position // Position of next character
}

// New creates a new Lexer for the given source code.
func New(src []byte) *Lexer {
	l := &Lexer{
		src: src,
		nextPos: token.Position{
			Line:   1,
			Column: 1,
		},
	}
	l.next()
	return l
}

// NewFromString creates a new Lexer from a string.
func NewFromString(src string) *Lexer {
	return New([]byte(src))
}

// Token represents a scanned token with its position and value.
type Token struct {
	Type  token.Token
	Pos   token.Position
	Value string
}

// Scan scans and returns the next token.
func (l *Lexer) Scan() Token {
	if tok, ok := l.skipBlank(); !ok {
		return tok
	}

	pos := l.pos
	if l.ch == 0 {
		return Token{Type: token.EOF, Pos: l.eofPos()}
	}

	switch l.ch {
	case '+':
		return l.single(pos, token.ADD)
	case '-':
		return l.single(pos, token.SUB)
	case '*':
		return l.single(pos, token.MUL)
	case '/':
		return l.single(pos, token.DIV)
	case '(':
		return l.single(pos, token.LPAREN)
	case ')':
		return l.single(pos, token.RPAREN)
	case '{':
		return l.single(pos, token.LBRACE)
	case '}':
		return l.single(pos, token.RBRACE)
	case '[':
		return l.single(pos, token.LBRACKET)
	case ']':
		return l.single(pos, token.RBRACKET)
	case ',':
		return l.single(pos, token.COMMA)
	case ';':
		return l.single(pos, token.SEMICOLON)
	case ':':
		return l.single(pos, token.COLON)
	case '?':
		return l.single(pos, token.QUESTION)

	case '=':
		return l.pair(pos, '=', token.EQUALS, token.ASSIGN)
	case '!':
		return l.pair(pos, '=', token.NOT_EQUALS, token.NOT)
	case '<':
		return l.pair(pos, '=', token.LTE, token.LESS)
	case '>':
		return l.pair(pos, '=', token.GTE, token.GREATER)

	case '&':
		l.next()
		if l.ch == '&' {
			l.next()
			return Token{Type: token.AND, Pos: pos, Value: "&&"}
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected '&'"}

	case '|':
		l.next()
		if l.ch == '|' {
			l.next()
			return Token{Type: token.OR, Pos: pos, Value: "||"}
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected '|'"}

	default:
		if isDigit(l.ch) || (l.ch == '.' && l.offset < len(l.src) && isDigit(l.src[l.offset])) {
			return l.scanNumber(pos)
		}
		if isIdentStart(l.ch) {
			return l.scanIdent(pos)
		}
		ch := l.ch
		l.next()
		return Token{Type: token.ILLEGAL, Pos: pos, Value: string(ch)}
	}
}

func (l *Lexer) single(pos token.Position, t token.Token) Token {
	l.next()
	return Token{Type: t, Pos: pos, Value: t.String()}
}

// pair scans a one-character operator that becomes a two-character
// operator when followed by second.
func (l *Lexer) pair(pos token.Position, second byte, long, short token.Token) Token {
	l.next()
	if l.ch == second {
		l.next()
		return Token{Type: long, Pos: pos, Value: long.String()}
	}
	return Token{Type: short, Pos: pos, Value: short.String()}
}

// skipBlank skips whitespace and comments. An unterminated block comment
// yields an ILLEGAL token and ok == false.
func (l *Lexer) skipBlank() (Token, bool) {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.next()
		}
		if l.ch != '/' || l.offset >= len(l.src) {
			return Token{}, true
		}
		switch l.src[l.offset] {
		case '/':
			for l.ch != 0 && l.ch != '\n' {
				l.next()
			}
		case '*':
			pos := l.pos
			l.next() // /
			l.next() // *
			for {
				if l.ch == 0 {
					return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated comment"}, false
				}
				if l.ch == '*' && l.offset < len(l.src) && l.src[l.offset] == '/' {
					l.next()
					l.next()
					break
				}
				l.next()
			}
		default:
			return Token{}, true
		}
	}
}

func (l *Lexer) scanNumber(pos token.Position) Token {
	start := pos.Offset
	typ := token.INTEGER

	for isDigit(l.ch) {
		l.next()
	}
	if l.ch == '.' {
		typ = token.NUMBER
		l.next()
		for isDigit(l.ch) {
			l.next()
		}
	}
	// Only consume e/E when a valid exponent follows.
	if (l.ch == 'e' || l.ch == 'E') && l.hasValidExponent() {
		typ = token.NUMBER
		l.next()
		if l.ch == '+' || l.ch == '-' {
			l.next()
		}
		for isDigit(l.ch) {
			l.next()
		}
	}

	return Token{Type: typ, Pos: pos, Value: string(l.src[start:l.endOffset()])}
}

func (l *Lexer) scanIdent(pos token.Position) Token {
	start := pos.Offset
	for isIdentContinue(l.ch) {
		l.next()
	}
	name := string(l.src[start:l.endOffset()])
	return Token{Type: token.LookupIdent(name), Pos: pos, Value: name}
}

// endOffset returns the correct end offset for slicing l.src.
// At EOF, l.pos is not updated, so we use len(l.src); otherwise l.pos.Offset.
func (l *Lexer) endOffset() int {
	if l.ch == 0 {
		return len(l.src)
	}
	return l.pos.Offset
}

func (l *Lexer) eofPos() token.Position {
	p := l.nextPos
	p.Offset = len(l.src)
	return p
}

func (l *Lexer) hasValidExponent() bool {
	idx := l.offset
	if idx >= len(l.src) {
		return false
	}
	ch := l.src[idx]
	if isDigit(ch) {
		return true
	}
	if ch == '+' || ch == '-' {
		idx++
		return idx < len(l.src) && isDigit(l.src[idx])
	}
	return false
}

func (l *Lexer) next() {
	if l.offset >= len(l.src) {
		l.ch = 0
		return
	}
	l.pos = l.nextPos
	l.ch = l.src[l.offset]
	l.offset++
	l.nextPos.Column++
	l.nextPos.Offset = l.offset
	if l.ch == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
