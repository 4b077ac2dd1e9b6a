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

package expr

import "fmt"

// Equal returns true if a and b are syntactically equal, modulo the empty conjunction and disjunction being
// printed as literals.
func Equal(a, b Expr) bool {
	return a.String() == b.String()
}

// Rename returns the expression e where every symbol s has been replaced by f(s).
func Rename(e Expr, f func(s *SymbolExpr) Expr) Expr {
	switch e := e.(type) {
	case *ConstantExpr:
		return e
	case *SymbolExpr:
		return f(e)
	case *NotExpr:
		return Not(Rename(e.Expr, f))
	case *NaryExpr:
		args := make([]Expr, len(e.Args))
		for i, arg := range e.Args {
			args[i] = Rename(arg, f)
		}
		return &NaryExpr{Op: e.Op, Args: args}
	case *BinaryExpr:
		return &BinaryExpr{Op: e.Op, LHS: Rename(e.LHS, f), RHS: Rename(e.RHS, f)}
	default:
		panic(fmt.Sprintf("unexpected expression %T", e))
	}
}

// Substitute replaces the symbols whose names are keys of m by the associated expression. Other symbols are
// left unchanged.
func Substitute(e Expr, m map[string]Expr) Expr {
	return Rename(e, func(s *SymbolExpr) Expr {
		if r, ok := m[s.Name]; ok {
			return r
		}
		return s
	})
}

// Symbols returns the names of the symbols of e, in order of first occurrence, without duplicates.
func Symbols(e Expr) []string {
	seen := map[string]bool{}
	var names []string
	var visit func(Expr)
	visit = func(e Expr) {
		switch e := e.(type) {
		case *SymbolExpr:
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		case *NotExpr:
			visit(e.Expr)
		case *NaryExpr:
			for _, arg := range e.Args {
				visit(arg)
			}
		case *BinaryExpr:
			visit(e.LHS)
			visit(e.RHS)
		}
	}
	visit(e)
	return names
}

// Eval evaluates e where each symbol is given the value returned by the model.
func Eval(e Expr, model func(name string) bool) bool {
	switch e := e.(type) {
	case *ConstantExpr:
		return e.Value
	case *SymbolExpr:
		return model(e.Name)
	case *NotExpr:
		return !Eval(e.Expr, model)
	case *NaryExpr:
		for _, arg := range e.Args {
			if Eval(arg, model) != (e.Op == AND) {
				return e.Op != AND
			}
		}
		return e.Op == AND
	case *BinaryExpr:
		l := Eval(e.LHS, model)
		r := Eval(e.RHS, model)
		if e.Op == IMPLIES {
			return !l || r
		}
		return l == r
	default:
		panic(fmt.Sprintf("unexpected expression %T", e))
	}
}

// Simplify folds the constants of e, flattens nested conjunctions and disjunctions, removes duplicate operands and
// double negations.
//
//gocyclo:ignore
func Simplify(e Expr) Expr {
	switch e := e.(type) {
	case *ConstantExpr, *SymbolExpr:
		return e
	case *NotExpr:
		x := Simplify(e.Expr)
		if c, ok := x.(*ConstantExpr); ok {
			return Bool(!c.Value)
		}
		if n, ok := x.(*NotExpr); ok {
			return n.Expr
		}
		return Not(x)
	case *NaryExpr:
		return simplifyNary(e.Op, e.Args)
	case *BinaryExpr:
		l := Simplify(e.LHS)
		r := Simplify(e.RHS)
		if e.Op == IMPLIES {
			switch {
			case IsFalse(l) || IsTrue(r) || Equal(l, r):
				return True
			case IsTrue(l):
				return r
			case IsFalse(r):
				return Simplify(Not(l))
			}
			return Implies(l, r)
		}
		switch {
		case Equal(l, r):
			return True
		case IsTrue(l):
			return r
		case IsTrue(r):
			return l
		case IsFalse(l):
			return Simplify(Not(r))
		case IsFalse(r):
			return Simplify(Not(l))
		}
		return Iff(l, r)
	default:
		panic(fmt.Sprintf("unexpected expression %T", e))
	}
}

func simplifyNary(op NaryOp, args []Expr) Expr {
	// neutral is the element that disappears from the operands, absorbing the one that absorbs the whole expression
	neutral, absorbing := op == AND, op != AND
	var operands []Expr
	seen := map[string]bool{}
	var add func(x Expr) bool
	add = func(x Expr) bool {
		if c, ok := x.(*ConstantExpr); ok {
			return c.Value == absorbing
		}
		if n, ok := x.(*NaryExpr); ok && n.Op == op {
			for _, y := range n.Args {
				if add(y) {
					return true
				}
			}
			return false
		}
		key := x.String()
		if seen[key] {
			return false
		}
		// x and !x together absorb the expression
		if n, ok := x.(*NotExpr); ok && seen[n.Expr.String()] {
			return true
		}
		if seen["!"+key] {
			return true
		}
		seen[key] = true
		operands = append(operands, x)
		return false
	}
	for _, arg := range args {
		if add(Simplify(arg)) {
			return Bool(absorbing)
		}
	}
	if len(operands) == 0 {
		return Bool(neutral)
	}
	if op == AND {
		return Conjunction(operands)
	}
	return Disjunction(operands)
}
