/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors
*/

package expr

// Node is the interface for all AST nodes
type Node interface {
	node()
}

// NumberLit represents a numeric literal
type NumberLit struct {
	Value float64
}

func (n *NumberLit) node() {}

// StringLit represents a string literal
type StringLit struct {
	Value string
}

func (n *StringLit) node() {}

// BoolLit represents true or false
type BoolLit struct {
	Value bool
}

func (n *BoolLit) node() {}

// NullLit represents null (also spelled None)
type NullLit struct{}

func (n *NullLit) node() {}

// Ident represents an identifier: a binding name or a field of the record
type Ident struct {
	Name string
}

func (n *Ident) node() {}

// BinaryOp represents a binary operation
type BinaryOp struct {
	Op    TokenType
	Left  Node
	Right Node
}

func (n *BinaryOp) node() {}

// UnaryOp represents a unary operation
type UnaryOp struct {
	Op   TokenType
	Expr Node
}

func (n *UnaryOp) node() {}

// CondExpr represents cond ? then : else
type CondExpr struct {
	Cond Node
	Then Node
	Else Node
}

func (n *CondExpr) node() {}

// CallExpr represents a function call
type CallExpr struct {
	Func string
	Args []Node
}

func (n *CallExpr) node() {}

// AttrAccess represents attribute access (e.g., row.price, Math.PI)
type AttrAccess struct {
	Obj  Node
	Attr string
}

func (n *AttrAccess) node() {}

// IndexExpr represents subscript access (e.g., row["unit price"])
type IndexExpr struct {
	Obj   Node
	Index Node
}

func (n *IndexExpr) node() {}
