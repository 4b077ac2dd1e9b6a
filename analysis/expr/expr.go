// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package expr implements the boolean expressions manipulated by the summarizer: guards, constraints, assertions,
// preconditions, transformers, invariants and termination arguments.
//
// Expressions are immutable trees. The constructors never simplify their arguments, so that an expression built
// as Implies(g, True) is still recognizable as such; call Simplify to fold constants.
package expr

import (
	"strings"
)

// Expr is a boolean expression.
type Expr interface {
	String() string
	expr()
}

func (*ConstantExpr) expr() {}
func (*SymbolExpr) expr()   {}
func (*NotExpr) expr()      {}
func (*NaryExpr) expr()     {}
func (*BinaryExpr) expr()   {}

// NaryOp is the operation of an n-ary expression
type NaryOp int

const (
	// AND is the conjunction. The conjunction of zero arguments is true.
	AND NaryOp = iota
	// OR is the disjunction. The disjunction of zero arguments is false.
	OR
)

func (op NaryOp) String() string {
	if op == AND {
		return "&&"
	}
	return "||"
}

// BinaryOp is the operation of a binary expression
type BinaryOp int

const (
	// IMPLIES is the implication LHS => RHS
	IMPLIES BinaryOp = iota
	// IFF is the equivalence LHS <=> RHS
	IFF
)

func (op BinaryOp) String() string {
	if op == IMPLIES {
		return "=>"
	}
	return "<=>"
}

// ConstantExpr is a boolean literal. Use True and False.
type ConstantExpr struct {
	Value bool
}

var (
	// True is the literal true
	True Expr = &ConstantExpr{Value: true}
	// False is the literal false
	False Expr = &ConstantExpr{Value: false}
)

// Bool returns the literal for b
func Bool(b bool) Expr {
	if b {
		return True
	}
	return False
}

func (e *ConstantExpr) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

// SymbolExpr is a boolean variable, identified by its name.
type SymbolExpr struct {
	Name string
}

// Sym returns the symbol with the given name
func Sym(name string) *SymbolExpr {
	return &SymbolExpr{Name: name}
}

func (e *SymbolExpr) String() string {
	return e.Name
}

// NotExpr is the negation of an expression
type NotExpr struct {
	Expr Expr
}

// Not returns the negation of e.
func Not(e Expr) Expr {
	return &NotExpr{Expr: e}
}

func (e *NotExpr) String() string {
	return "!" + e.Expr.String()
}

// NaryExpr is a conjunction or a disjunction of any number of arguments
type NaryExpr struct {
	Op   NaryOp
	Args []Expr
}

// And returns the conjunction of its arguments
func And(args ...Expr) Expr {
	return &NaryExpr{Op: AND, Args: args}
}

// Or returns the disjunction of its arguments
func Or(args ...Expr) Expr {
	return &NaryExpr{Op: OR, Args: args}
}

func (e *NaryExpr) String() string {
	if len(e.Args) == 0 {
		if e.Op == AND {
			return "true"
		}
		return "false"
	}
	parts := make([]string, len(e.Args))
	for i, arg := range e.Args {
		parts[i] = arg.String()
	}
	return "(" + strings.Join(parts, " "+e.Op.String()+" ") + ")"
}

// BinaryExpr is an implication or an equivalence
type BinaryExpr struct {
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

// Implies returns lhs => rhs
func Implies(lhs, rhs Expr) Expr {
	return &BinaryExpr{Op: IMPLIES, LHS: lhs, RHS: rhs}
}

// Iff returns lhs <=> rhs
func Iff(lhs, rhs Expr) Expr {
	return &BinaryExpr{Op: IFF, LHS: lhs, RHS: rhs}
}

func (e *BinaryExpr) String() string {
	return "(" + e.LHS.String() + " " + e.Op.String() + " " + e.RHS.String() + ")"
}

// IsTrue returns true if e is literally true. It does not simplify e.
func IsTrue(e Expr) bool {
	c, ok := e.(*ConstantExpr)
	return ok && c.Value
}

// IsFalse returns true if e is literally false. It does not simplify e.
func IsFalse(e Expr) bool {
	c, ok := e.(*ConstantExpr)
	return ok && !c.Value
}

// Conjunction returns the conjunction of the expressions in the list; true if the list is empty and the single
// element if the list has length one.
func Conjunction(list []Expr) Expr {
	switch len(list) {
	case 0:
		return True
	case 1:
		return list[0]
	default:
		return And(list...)
	}
}

// Disjunction returns the disjunction of the expressions in the list; false if the list is empty and the single
// element if the list has length one.
func Disjunction(list []Expr) Expr {
	switch len(list) {
	case 0:
		return False
	case 1:
		return list[0]
	default:
		return Or(list...)
	}
}
