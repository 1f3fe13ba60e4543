/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors
*/

package expr

import (
	"fmt"
	"strings"
)

// Lexer tokenizes an expression string
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// operators are matched longest first.
var operators = []struct {
	lit string
	typ TokenType
}{
	{"===", TOKEN_EQ},
	{"!==", TOKEN_NE},
	{"**", TOKEN_POWER},
	{"//", TOKEN_FLOOR_DIV},
	{"==", TOKEN_EQ},
	{"!=", TOKEN_NE},
	{"<=", TOKEN_LE},
	{">=", TOKEN_GE},
	{"&&", TOKEN_AND},
	{"||", TOKEN_OR},
	{"+", TOKEN_PLUS},
	{"-", TOKEN_MINUS},
	{"*", TOKEN_STAR},
	{"/", TOKEN_SLASH},
	{"%", TOKEN_PERCENT},
	{"(", TOKEN_LPAREN},
	{")", TOKEN_RPAREN},
	{"[", TOKEN_LBRACKET},
	{"]", TOKEN_RBRACKET},
	{",", TOKEN_COMMA},
	{".", TOKEN_DOT},
	{"?", TOKEN_QUESTION},
	{":", TOKEN_COLON},
	{"<", TOKEN_LT},
	{">", TOKEN_GT},
	{"!", TOKEN_BANG},
}

// keywords map word operators to their token types.
var keywords = map[string]TokenType{
	"and": TOKEN_AND,
	"or":  TOKEN_OR,
	"not": TOKEN_NOT,
}

func (l *Lexer) at(i int) byte {
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	for l.pos < len(l.input) && strings.IndexByte(" \t\r\n", l.input[l.pos]) >= 0 {
		l.pos++
	}
	start := l.pos
	if start >= len(l.input) {
		return Token{Type: TOKEN_EOF, Pos: start}, nil
	}

	ch := l.input[start]
	switch {
	case isDigit(ch) || (ch == '.' && isDigit(l.at(start+1))):
		return l.scanNumber()
	case ch == '"' || ch == '\'':
		return l.scanString()
	case isIdentStart(ch):
		for l.pos < len(l.input) && (isIdentStart(l.input[l.pos]) || isDigit(l.input[l.pos])) {
			l.pos++
		}
		word := l.input[start:l.pos]
		if typ, ok := keywords[word]; ok {
			return Token{Type: typ, Value: word, Pos: start}, nil
		}
		return Token{Type: TOKEN_IDENT, Value: word, Pos: start}, nil
	}

	rest := l.input[start:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.lit) {
			l.pos += len(op.lit)
			value := op.lit
			switch op.typ {
			case TOKEN_EQ:
				value = "=="
			case TOKEN_NE:
				value = "!="
			}
			return Token{Type: op.typ, Value: value, Pos: start}, nil
		}
	}

	switch ch {
	case '=':
		return Token{}, fmt.Errorf("unexpected '=' at position %d, did you mean '=='?", start)
	case '&', '|':
		return Token{}, fmt.Errorf("unexpected '%c' at position %d, did you mean '%c%c'?", ch, start, ch, ch)
	}
	return Token{}, fmt.Errorf("unexpected character '%c' at position %d", ch, start)
}

// scanNumber reads digits with an optional fraction and exponent (1e6, 2.5E-3).
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	l.skipDigits()
	if l.at(l.pos) == '.' {
		l.pos++
		l.skipDigits()
	}
	if e := l.at(l.pos); e == 'e' || e == 'E' {
		next := l.at(l.pos + 1)
		if isDigit(next) || next == '+' || next == '-' {
			l.pos++
			if next == '+' || next == '-' {
				l.pos++
			}
			if !isDigit(l.at(l.pos)) {
				return Token{}, fmt.Errorf("malformed exponent in number at position %d", start)
			}
			l.skipDigits()
		}
	}
	return Token{Type: TOKEN_NUMBER, Value: l.input[start:l.pos], Pos: start}, nil
}

func (l *Lexer) skipDigits() {
	for isDigit(l.at(l.pos)) {
		l.pos++
	}
}

var escapes = map[byte]byte{'n': '\n', 't': '\t', 'r': '\r'}

// scanString reads a single- or double-quoted literal with backslash escapes.
func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	quote := l.input[start]
	l.pos++

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
		}
		c := l.input[l.pos]
		l.pos++
		if c == quote {
			return Token{Type: TOKEN_STRING, Value: sb.String(), Pos: start}, nil
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if l.pos >= len(l.input) {
			return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
		}
		c = l.input[l.pos]
		l.pos++
		if r, ok := escapes[c]; ok {
			c = r
		}
		sb.WriteByte(c)
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
}
