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

// Package summaries defines the summaries of functions and the store holding them.
// A summary can be used in place of the body of a function at its call sites: the transformer relates the
// parameters and the input globals to the output globals, under the precondition.
package summaries

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
)

// Summary summarizes a function.
type Summary struct {
	// Params, GlobalsIn and GlobalsOut are the interface of the function. They must be the same for all the
	// summaries of a function.
	Params     []*expr.SymbolExpr
	GlobalsIn  []*expr.SymbolExpr
	GlobalsOut []*expr.SymbolExpr

	// Precondition is over Params and GlobalsIn
	Precondition expr.Expr
	// Transformer is over Params, GlobalsIn and GlobalsOut
	Transformer expr.Expr
	// Invariant is over the loop variables of the function
	Invariant expr.Expr

	// TerminationArgument is none until a ranking relation has been searched for
	TerminationArgument funcutil.Optional[expr.Expr]
	Terminates          bool
}

// New returns the default summary of a function with the given interface: everything is unconstrained, no
// termination argument, and the function is not known to terminate.
func New(params, globalsIn, globalsOut []*expr.SymbolExpr) Summary {
	return Summary{
		Params:              params,
		GlobalsIn:           globalsIn,
		GlobalsOut:          globalsOut,
		Precondition:        expr.True,
		Transformer:         expr.True,
		Invariant:           expr.True,
		TerminationArgument: funcutil.None[expr.Expr](),
	}
}

// SameInterface returns true if s and t have the same parameters, input globals and output globals
func (s Summary) SameInterface(t Summary) bool {
	return sameSymbols(s.Params, t.Params) &&
		sameSymbols(s.GlobalsIn, t.GlobalsIn) &&
		sameSymbols(s.GlobalsOut, t.GlobalsOut)
}

func sameSymbols(a, b []*expr.SymbolExpr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

func (s Summary) String() string {
	var b strings.Builder
	symbols := func(vars []*expr.SymbolExpr) string {
		return strings.Join(funcutil.Map(vars, (*expr.SymbolExpr).String), ", ")
	}
	fmt.Fprintf(&b, "params: %s\n", symbols(s.Params))
	fmt.Fprintf(&b, "globals-in: %s\n", symbols(s.GlobalsIn))
	fmt.Fprintf(&b, "globals-out: %s\n", symbols(s.GlobalsOut))
	fmt.Fprintf(&b, "precondition: %s\n", s.Precondition)
	fmt.Fprintf(&b, "transformer: %s\n", s.Transformer)
	fmt.Fprintf(&b, "invariant: %s\n", s.Invariant)
	if s.TerminationArgument != nil && s.TerminationArgument.IsSome() {
		fmt.Fprintf(&b, "termination-argument: %s\n", s.TerminationArgument.Value())
	}
	fmt.Fprintf(&b, "terminates: %t\n", s.Terminates)
	return b.String()
}
