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

// Package domain contains the template generators and the template analyzers used by the summarizer.
//
// A template generator selects, for a function body, the partitions of variables over which results are
// expressed. An analyzer computes, for a body, a starting condition and a template, one result per partition.
package domain

import (
	"fmt"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/unwind"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
)

// Partition identifies a set of variables of a template
type Partition int

const (
	// InOut are the parameters, the input globals and the output globals: the variables of the transformer
	InOut Partition = iota
	// Out are the variables of a precondition: the parameters and the input globals
	Out
	// Loop are the loop variables: the variables of the invariant
	Loop
	// CallingContext are the variables bound at a call site
	CallingContext
	// Ranking are the variables of the ranking relations of the loops
	Ranking
)

func (p Partition) String() string {
	switch p {
	case InOut:
		return "inout"
	case Out:
		return "out"
	case Loop:
		return "loop"
	case CallingContext:
		return "callingcontext"
	case Ranking:
		return "ranking"
	default:
		return fmt.Sprintf("partition(%d)", int(p))
	}
}

// Template is a set of variable partitions of a function body. The analysis of a template is performed on the
// body renamed by the unwinder of the function at the time of the analysis.
type Template struct {
	Function *localssa.Function
	Unwinder *unwind.Unwinder
	// Forward is the direction the template was generated for
	Forward bool
	vars    map[Partition][]*expr.SymbolExpr
}

// NewTemplate returns an empty template for fn. The unwinder u may be nil, in which case the body is not renamed.
func NewTemplate(fn *localssa.Function, u *unwind.Unwinder, forward bool) *Template {
	return &Template{Function: fn, Unwinder: u, Forward: forward, vars: map[Partition][]*expr.SymbolExpr{}}
}

// Add adds variables to the partition p. Variables already in p are ignored.
func (t *Template) Add(p Partition, vars ...*expr.SymbolExpr) {
	for _, v := range vars {
		if !funcutil.Exists(t.vars[p], func(w *expr.SymbolExpr) bool { return w.Name == v.Name }) {
			t.vars[p] = append(t.vars[p], v)
		}
	}
}

// Vars returns the variables of partition p
func (t *Template) Vars(p Partition) []*expr.SymbolExpr {
	return t.vars[p]
}

// Partitions returns the partitions of the template that have variables, in increasing order
func (t *Template) Partitions() []Partition {
	var ps []Partition
	for p := InOut; p <= Ranking; p++ {
		if len(t.vars[p]) > 0 {
			ps = append(ps, p)
		}
	}
	return ps
}

// AllVars returns the variables of all the partitions, without duplicates
func (t *Template) AllVars() []*expr.SymbolExpr {
	var all []*expr.SymbolExpr
	seen := map[string]bool{}
	for _, p := range t.Partitions() {
		for _, v := range t.vars[p] {
			if !seen[v.Name] {
				seen[v.Name] = true
				all = append(all, v)
			}
		}
	}
	return all
}

// Rename renames e at location loc with the unwinder of the template
func (t *Template) Rename(e expr.Expr, loc int) expr.Expr {
	if t.Unwinder == nil {
		return e
	}
	return t.Unwinder.Rename(e, loc)
}

// Formula returns the body of the function renamed by the unwinder of the template
func (t *Template) Formula() []expr.Expr {
	return t.Function.Formula(t.Rename)
}

// TemplateGenerator proposes templates for the analyses of the summarizer.
type TemplateGenerator interface {
	// Summary returns the template of the summary of fn: transformer, precondition and invariant
	Summary(fn *localssa.Function, forward bool) *Template

	// CallingContext returns the template of the context of the call callIdx of the node nodeIdx of caller. The
	// variables of the template are the ones that can be renamed in the scope of the callee.
	CallingContext(caller *localssa.Function, nodeIdx int, callIdx int, callee *localssa.Function,
		forward bool) *Template

	// Ranking returns the template of the ranking relations of the loops of fn
	Ranking(fn *localssa.Function) *Template
}

// Result is the result of an analysis
type Result interface {
	// Get returns the result for the partition p. A partition that is not in the template is unconstrained.
	Get(p Partition) expr.Expr

	// SolverCalls returns the number of calls to the decision procedure made by the analysis
	SolverCalls() int
}

// Analyzer computes results for templates
type Analyzer interface {
	// Analyze analyzes the body of the function of tmpl, starting from cond.
	Analyze(cond expr.Expr, tmpl *Template) (Result, error)
}
