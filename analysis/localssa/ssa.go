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

// Package localssa contains the guarded SSA representation of the functions analyzed by the summarizer.
//
// A function body is an ordered sequence of nodes. Each node is a program location guarded by a boolean symbol
// that holds iff the location is reached; the node owns the constraints defining the SSA versions assigned at that
// location, the assertions that must hold when the guard holds, and the calls made at that location. Loops are
// cut at their back edge: the values carried by the back edge are free symbols, related to the values at the loop
// head by the loop invariant.
package localssa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
)

// NodeKind distinguishes the nodes of the producer from the nodes added by the summarizer
type NodeKind int

const (
	// Original nodes are created by the SSA producer
	Original NodeKind = iota
	// Inlined nodes hold the transformer of a callee replacing a call
	Inlined
	// Temporary nodes hold facts (e.g. invariants) during an analysis and are removed before it returns
	Temporary
)

func (k NodeKind) String() string {
	switch k {
	case Original:
		return "original"
	case Inlined:
		return "inlined"
	case Temporary:
		return "temporary"
	default:
		return "unknown"
	}
}

// Call is a call site. Calls are symbol-only: the callee is always a named function.
type Call struct {
	Callee string
	Args   []expr.Expr
}

func (c Call) String() string {
	return c.Callee + "(" + strings.Join(funcutil.Map(c.Args, expr.Expr.String), ", ") + ")"
}

// Node is a guarded program location
type Node struct {
	Location    int
	Guard       *expr.SymbolExpr
	Constraints []expr.Expr
	// Assertions must hold whenever Guard holds
	Assertions []expr.Expr
	Calls      []Call
	// GlobalsIn and GlobalsOut are the versions of the global objects before and after the calls of the node.
	// The return values of the callees are global objects.
	GlobalsIn  []*expr.SymbolExpr
	GlobalsOut []*expr.SymbolExpr
	// LoopHead is the location of the loop head if this node carries the back edge of a loop
	LoopHead funcutil.Optional[int]
	Kind     NodeKind
}

// IsBackEdge returns true if the node carries the back edge of a loop
func (n *Node) IsBackEdge() bool {
	return n.LoopHead != nil && n.LoopHead.IsSome()
}

// Copy returns a copy of the node. The slices of the copy can be modified without modifying the node.
func (n *Node) Copy() *Node {
	c := *n
	c.Constraints = append([]expr.Expr(nil), n.Constraints...)
	c.Assertions = append([]expr.Expr(nil), n.Assertions...)
	c.Calls = append([]Call(nil), n.Calls...)
	c.GlobalsIn = append([]*expr.SymbolExpr(nil), n.GlobalsIn...)
	c.GlobalsOut = append([]*expr.SymbolExpr(nil), n.GlobalsOut...)
	return &c
}

func (n *Node) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%d) [%s] guard %s", n.Location, n.Kind, n.Guard)
	for _, c := range n.Constraints {
		fmt.Fprintf(&b, "\n    %s", c)
	}
	for _, c := range n.Calls {
		fmt.Fprintf(&b, "\n    call %s", c)
	}
	for _, a := range n.Assertions {
		fmt.Fprintf(&b, "\n    assert %s", a)
	}
	if n.IsBackEdge() {
		fmt.Fprintf(&b, "\n    loop back to %d", n.LoopHead.Value())
	}
	return b.String()
}

// LoopVar is a loop variable: Pre is its value at the loop head, Post its value carried by the back edge
type LoopVar struct {
	Pre  *expr.SymbolExpr
	Post *expr.SymbolExpr
}

// Loop is a natural loop with a single head and a single back edge
type Loop struct {
	// Head is the location of the loop head
	Head int
	// End is the location of the node carrying the back edge
	End int
	// Guard holds iff the back edge is taken
	Guard *expr.SymbolExpr
	Vars  []LoopVar
}

// Contains returns true if the location loc is in the loop
func (l *Loop) Contains(loc int) bool {
	return l.Head <= loc && loc <= l.End
}

// Function is the guarded SSA form of a function
type Function struct {
	Name       string
	Params     []*expr.SymbolExpr
	GlobalsIn  []*expr.SymbolExpr
	GlobalsOut []*expr.SymbolExpr
	// Nodes is the body of the function. Nodes are only replaced by splicing new subsequences, see the inline
	// package.
	Nodes []*Node
	Loops []*Loop
}

// IsEmpty returns true if the function has no body
func (f *Function) IsEmpty() bool {
	return len(f.Nodes) == 0
}

// EntryGuard returns the guard of the first node, or true if the body is empty
func (f *Function) EntryGuard() expr.Expr {
	if f.IsEmpty() {
		return expr.True
	}
	return f.Nodes[0].Guard
}

// ExitGuard returns the guard of the last node (the exit of the function), or true if the body is empty
func (f *Function) ExitGuard() expr.Expr {
	if f.IsEmpty() {
		return expr.True
	}
	return f.Nodes[len(f.Nodes)-1].Guard
}

// HasLoops returns true if the function has loops
func (f *Function) HasLoops() bool {
	return len(f.Loops) > 0
}

// HasCalls returns true if some node of the function still has calls
func (f *Function) HasCalls() bool {
	return funcutil.Exists(f.Nodes, func(n *Node) bool { return len(n.Calls) > 0 })
}

// Formula returns the constraints of the body. Each constraint is passed to rename with the location of its node;
// rename may be nil.
func (f *Function) Formula(rename func(e expr.Expr, loc int) expr.Expr) []expr.Expr {
	var formula []expr.Expr
	for _, n := range f.Nodes {
		for _, c := range n.Constraints {
			if rename != nil {
				c = rename(c, n.Location)
			}
			formula = append(formula, c)
		}
	}
	return formula
}

// PushTemporary adds a temporary node holding constraints at the exit of the function
func (f *Function) PushTemporary(constraints ...expr.Expr) {
	loc := 0
	var guard *expr.SymbolExpr
	if !f.IsEmpty() {
		last := f.Nodes[len(f.Nodes)-1]
		loc, guard = last.Location, last.Guard
	}
	if guard == nil {
		guard = expr.Sym(fmt.Sprintf("%s$exit#%d", f.Name, loc))
	}
	f.Nodes = append(f.Nodes, &Node{
		Location:    loc,
		Guard:       guard,
		Constraints: constraints,
		LoopHead:    funcutil.None[int](),
		Kind:        Temporary,
	})
}

// PopTemporary removes the temporary node added last. Returns an error if the last node is not temporary.
func (f *Function) PopTemporary() error {
	if f.IsEmpty() || f.Nodes[len(f.Nodes)-1].Kind != Temporary {
		return fmt.Errorf("no temporary node at the end of %s", f.Name)
	}
	f.Nodes[len(f.Nodes)-1] = nil
	f.Nodes = f.Nodes[:len(f.Nodes)-1]
	return nil
}

// Callees returns the names of the functions called in the body, without duplicates
func (f *Function) Callees() []string {
	var callees []string
	for _, n := range f.Nodes {
		for _, c := range n.Calls {
			callees = append(callees, c.Callee)
		}
	}
	return funcutil.Uniq(callees)
}

// Copy returns a deep copy of the function body. Expressions are shared since they are immutable.
func (f *Function) Copy() *Function {
	c := *f
	c.Nodes = funcutil.Map(f.Nodes, (*Node).Copy)
	return &c
}

func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s(%s)", f.Name, strings.Join(funcutil.Map(f.Params, (*expr.SymbolExpr).String), ", "))
	fmt.Fprintf(&b, "\n  globals in: %v\n  globals out: %v", f.GlobalsIn, f.GlobalsOut)
	for _, n := range f.Nodes {
		fmt.Fprintf(&b, "\n  %s", n)
	}
	return b.String()
}

// Program is a set of functions in guarded SSA form, indexed by name
type Program struct {
	Functions map[string]*Function
}

// NewProgram returns a program containing the functions
func NewProgram(functions ...*Function) *Program {
	p := &Program{Functions: make(map[string]*Function, len(functions))}
	for _, f := range functions {
		p.Functions[f.Name] = f
	}
	return p
}

// Function returns the function with the given name
func (p *Program) Function(name string) (*Function, bool) {
	f, ok := p.Functions[name]
	return f, ok
}

// Names returns the names of the functions of the program, sorted
func (p *Program) Names() []string {
	names := make([]string, 0, len(p.Functions))
	for name := range p.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
