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

package solver

import (
	"fmt"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Gini is the decision procedure backed by the gini SAT solver. Expressions are encoded in an and-inverter
// circuit, which is translated to clauses when solving.
type Gini struct{}

// NewGini returns the gini decision procedure
func NewGini() *Gini {
	return &Gini{}
}

// New implements DecisionProcedure
func (*Gini) New() Instance {
	return &giniInstance{
		circuit: logic.NewC(),
		vars:    map[string]z.Lit{},
	}
}

type giniInstance struct {
	circuit *logic.C
	// vars maps symbol names to their input literal in the circuit
	vars  map[string]z.Lit
	roots []z.Lit
}

func (gi *giniInstance) Assert(constraints ...expr.Expr) {
	for _, c := range constraints {
		gi.roots = append(gi.roots, gi.encode(c))
	}
}

func (gi *giniInstance) encode(e expr.Expr) z.Lit {
	c := gi.circuit
	switch e := e.(type) {
	case *expr.ConstantExpr:
		if e.Value {
			return c.T
		}
		return c.F
	case *expr.SymbolExpr:
		if m, ok := gi.vars[e.Name]; ok {
			return m
		}
		m := c.Lit()
		gi.vars[e.Name] = m
		return m
	case *expr.NotExpr:
		return gi.encode(e.Expr).Not()
	case *expr.NaryExpr:
		ms := make([]z.Lit, len(e.Args))
		for i, arg := range e.Args {
			ms[i] = gi.encode(arg)
		}
		if e.Op == expr.AND {
			return c.Ands(ms...)
		}
		return c.Ors(ms...)
	case *expr.BinaryExpr:
		a, b := gi.encode(e.LHS), gi.encode(e.RHS)
		if e.Op == expr.IMPLIES {
			return c.Implies(a, b)
		}
		return c.Xor(a, b).Not()
	default:
		panic(fmt.Sprintf("unexpected expression %T", e))
	}
}

func (gi *giniInstance) Solve() (Result, error) {
	g := gini.New()
	gi.circuit.ToCnf(g)
	for _, m := range gi.roots {
		g.Add(m)
		g.Add(0)
	}
	// every input of the circuit must be a variable of the solver to be read in the model
	var maxVar z.Var
	for _, m := range gi.vars {
		if m.Var() > maxVar {
			maxVar = m.Var()
		}
	}
	for g.MaxVar() < maxVar {
		g.Lit()
	}

	switch g.Solve() {
	case 1:
		model := make(Model, len(gi.vars))
		for name, m := range gi.vars {
			model[name] = g.Value(m)
		}
		return Result{Status: Sat, Model: model}, nil
	case -1:
		return Result{Status: Unsat}, nil
	default:
		return Result{Status: Unknown}, ErrIndeterminate
	}
}
