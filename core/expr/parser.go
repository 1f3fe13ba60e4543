/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors
*/

package expr

import (
	"fmt"
	"strconv"
)

// Parser parses tokens into an AST
type Parser struct {
	lexer *Lexer
	cur   Token
}

// NewParser creates a new parser
func NewParser(input string) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

func (p *Parser) next() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) is(types ...TokenType) bool {
	for _, t := range types {
		if p.cur.Type == t {
			return true
		}
	}
	return false
}

// expect consumes a token of type t or fails with what.
func (p *Parser) expect(t TokenType, what string) error {
	if p.cur.Type != t {
		return fmt.Errorf("expected %v %s at position %d", t, what, p.cur.Pos)
	}
	return p.next()
}

// Parse parses the input and returns the AST
func (p *Parser) Parse() (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.is(TOKEN_EOF) {
		return nil, fmt.Errorf("unexpected %v at position %d", p.cur.Type, p.cur.Pos)
	}
	return node, nil
}

// binaryLevels lists left-associative operators from lowest to highest
// precedence. A nil level is the prefix "not". Above the last level come
// ** (right associative), unary -, + and !, then calls, attributes and
// subscripts. The conditional ?: sits below every level.
var binaryLevels = [][]TokenType{
	{TOKEN_OR},
	{TOKEN_AND},
	nil,
	{TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE},
	{TOKEN_PLUS, TOKEN_MINUS},
	{TOKEN_STAR, TOKEN_SLASH, TOKEN_FLOOR_DIV, TOKEN_PERCENT},
}

func (p *Parser) parseExpr() (Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil || !p.is(TOKEN_QUESTION) {
		return cond, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_COLON, "in conditional"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &CondExpr{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parsePower()
	}
	ops := binaryLevels[level]
	if ops == nil {
		if !p.is(TOKEN_NOT) {
			return p.parseBinary(level + 1)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseBinary(level)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: TOKEN_NOT, Expr: operand}, nil
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for p.is(ops...) {
		op := p.cur.Type
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePower() (Node, error) {
	base, err := p.parseUnary()
	if err != nil || !p.is(TOKEN_POWER) {
		return base, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	exp, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Op: TOKEN_POWER, Left: base, Right: exp}, nil
}

func (p *Parser) parseUnary() (Node, error) {
	if !p.is(TOKEN_MINUS, TOKEN_PLUS, TOKEN_BANG) {
		return p.parsePostfix()
	}
	op := p.cur.Type
	if err := p.next(); err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &UnaryOp{Op: op, Expr: operand}, nil
}

func (p *Parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.cur.Type {
		case TOKEN_LPAREN:
			pos := p.cur.Pos
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			switch callee := node.(type) {
			case *Ident:
				node = &CallExpr{Func: callee.Name, Args: args}
			case *AttrAccess:
				// method call such as s.upper()
				node = &CallExpr{Func: "__method__", Args: append([]Node{callee.Obj, &StringLit{Value: callee.Attr}}, args...)}
			default:
				return nil, fmt.Errorf("cannot call non-function at position %d", pos)
			}
		case TOKEN_LBRACKET:
			if err := p.next(); err != nil {
				return nil, err
			}
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TOKEN_RBRACKET, "after index"); err != nil {
				return nil, err
			}
			node = &IndexExpr{Obj: node, Index: index}
		case TOKEN_DOT:
			if err := p.next(); err != nil {
				return nil, err
			}
			if !p.is(TOKEN_IDENT) {
				return nil, fmt.Errorf("expected identifier after '.', got %v", p.cur.Type)
			}
			node = &AttrAccess{Obj: node, Attr: p.cur.Value}
			if err := p.next(); err != nil {
				return nil, err
			}
		default:
			return node, nil
		}
	}
}

// parseArgs reads a parenthesized, comma separated argument list.
func (p *Parser) parseArgs() ([]Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	var args []Node
	for !p.is(TOKEN_RPAREN) {
		if len(args) > 0 {
			if err := p.expect(TOKEN_COMMA, "between arguments"); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, p.next()
}

// literals maps reserved identifiers to constant nodes.
var literals = map[string]func() Node{
	"true":      func() Node { return &BoolLit{Value: true} },
	"True":      func() Node { return &BoolLit{Value: true} },
	"false":     func() Node { return &BoolLit{Value: false} },
	"False":     func() Node { return &BoolLit{Value: false} },
	"null":      func() Node { return &NullLit{} },
	"None":      func() Node { return &NullLit{} },
	"undefined": func() Node { return &NullLit{} },
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.cur
	switch tok.Type {
	case TOKEN_NUMBER:
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Pos)
		}
		return &NumberLit{Value: val}, p.next()
	case TOKEN_STRING:
		return &StringLit{Value: tok.Value}, p.next()
	case TOKEN_IDENT:
		if lit, ok := literals[tok.Value]; ok {
			return lit(), p.next()
		}
		return &Ident{Name: tok.Value}, p.next()
	case TOKEN_LPAREN:
		if err := p.next(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN, "after expression"); err != nil {
			return nil, err
		}
		return inner, nil
	case TOKEN_EOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %v at position %d", tok.Type, tok.Pos)
	}
}
