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

// Package solver defines the decision procedure used by the summarizer and the domain analyzers: an instance
// accepts constraints and answers whether their conjunction is satisfiable, with a model when it is.
package solver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
)

// ErrIndeterminate is returned when the decision procedure cannot decide a query. There is no fallback.
var ErrIndeterminate = errors.New("indeterminate decision procedure result")

// Status is the outcome of a query
type Status int

const (
	// Unknown means the decision procedure gave up
	Unknown Status = iota
	// Sat means the constraints are satisfiable
	Sat
	// Unsat means the constraints are unsatisfiable
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	default:
		return "UNKNOWN"
	}
}

// Model maps symbol names to their value in a satisfying assignment. Symbols that do not occur in the constraints
// are false.
type Model map[string]bool

// Value returns the value of the symbol name in the model
func (m Model) Value(name string) bool {
	return m[name]
}

// Cube returns the conjunction of the literals of the symbols in the model
func (m Model) Cube(symbols []*expr.SymbolExpr) expr.Expr {
	lits := make([]expr.Expr, 0, len(symbols))
	for _, s := range symbols {
		if m[s.Name] {
			lits = append(lits, s)
		} else {
			lits = append(lits, expr.Not(s))
		}
	}
	return expr.Conjunction(lits)
}

func (m Model) String() string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%t", name, m[name])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Result is the result of a query. The model is only set when the status is Sat.
type Result struct {
	Status Status
	Model  Model
}

// Instance is one query to the decision procedure.
type Instance interface {
	// Assert adds constraints to the instance
	Assert(constraints ...expr.Expr)

	// Solve decides the conjunction of the constraints asserted so far. It returns ErrIndeterminate if the
	// decision procedure cannot decide. An instance can be solved several times, with more constraints
	// asserted between the calls.
	Solve() (Result, error)
}

// DecisionProcedure creates instances
type DecisionProcedure interface {
	New() Instance
}

// Statistics are the monotone counters of a decision procedure
type Statistics struct {
	// Instances is the number of instances created
	Instances int
	// Calls is the number of calls to Solve
	Calls int
}

// Counting is a decision procedure that counts the instances created and the calls to Solve of another decision
// procedure.
type Counting struct {
	dp    DecisionProcedure
	stats Statistics
}

// NewCounting returns a counting decision procedure wrapping dp
func NewCounting(dp DecisionProcedure) *Counting {
	return &Counting{dp: dp}
}

// New implements DecisionProcedure
func (c *Counting) New() Instance {
	c.stats.Instances++
	return &countingInstance{inst: c.dp.New(), stats: &c.stats}
}

// Statistics returns a copy of the counters
func (c *Counting) Statistics() Statistics {
	return c.stats
}

type countingInstance struct {
	inst  Instance
	stats *Statistics
}

func (ci *countingInstance) Assert(constraints ...expr.Expr) {
	ci.inst.Assert(constraints...)
}

func (ci *countingInstance) Solve() (Result, error) {
	ci.stats.Calls++
	return ci.inst.Solve()
}

// Check solves the conjunction of constraints in a fresh instance of dp
func Check(dp DecisionProcedure, constraints ...expr.Expr) (Result, error) {
	inst := dp.New()
	inst.Assert(constraints...)
	return inst.Solve()
}

// AssertFunction asserts the constraints of the body of fn in inst. Each constraint is renamed with rename, which
// may be nil.
func AssertFunction(inst Instance, fn *localssa.Function, rename func(e expr.Expr, loc int) expr.Expr) {
	inst.Assert(fn.Formula(rename)...)
}
