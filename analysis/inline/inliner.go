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

// Package inline replaces the calls of a function body by the summaries of their callees.
//
// Edits are made in three steps. Replace and Havoc stage the edits of one node; CommitNode freezes the staged edits
// of the node into fragments, which are nodes at the same location and with the same guard; CommitNodes splices
// the fragments in place of the node. The body is only modified by CommitNodes.
package inline

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/summaries"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
	"golang.org/x/tools/container/intsets"
)

// ErrSplit is returned when the fragments of a node cannot replace the node
var ErrSplit = errors.New("cannot split node")

type staged struct {
	// location and guard of the node when the first edit was staged
	location int
	guard    *expr.SymbolExpr
	// removed are the indices of the calls removed from the node
	removed intsets.Sparse
	// inlined are the nodes holding the renamed summaries
	inlined []*localssa.Node
}

// Inliner stages and commits the edits of the calls of a function body
type Inliner struct {
	staged    map[int]*staged
	committed map[int][]*localssa.Node
	// sites counts the replaced calls, to name the values local to each call site
	sites int
}

// New returns an inliner with nothing staged
func New() *Inliner {
	return &Inliner{staged: map[int]*staged{}, committed: map[int][]*localssa.Node{}}
}

func (in *Inliner) stage(fn *localssa.Function, nodeIdx int, callIdx int) (*staged, error) {
	if nodeIdx < 0 || nodeIdx >= len(fn.Nodes) {
		return nil, fmt.Errorf("%s has no node %d", fn.Name, nodeIdx)
	}
	n := fn.Nodes[nodeIdx]
	if callIdx < 0 || callIdx >= len(n.Calls) {
		return nil, fmt.Errorf("node %d of %s has no call %d", nodeIdx, fn.Name, callIdx)
	}
	st, ok := in.staged[nodeIdx]
	if !ok {
		st = &staged{location: n.Location, guard: n.Guard}
		in.staged[nodeIdx] = st
	}
	st.removed.Insert(callIdx)
	return st, nil
}

// Replace stages the replacement of the call callIdx of the node nodeIdx by the summary of its callee.
// csGlobalsIn and csGlobalsOut are the versions of the globals of the caller before and after the call.
// The transformer holds in the caller when the guard of the node holds. The precondition is assumed if sufficient,
// otherwise it is asserted.
func (in *Inliner) Replace(fn *localssa.Function, nodeIdx int, callIdx int,
	csGlobalsIn []*expr.SymbolExpr, csGlobalsOut []*expr.SymbolExpr,
	summary summaries.Summary, sufficient bool) error {
	st, err := in.stage(fn, nodeIdx, callIdx)
	if err != nil {
		return err
	}
	n := fn.Nodes[nodeIdx]
	call := n.Calls[callIdx]
	site := fmt.Sprintf("@%s:%d.%d", call.Callee, n.Location, in.sites)
	in.sites++

	// the values of the callee that are not bound at the call site are local to the callee: they are fresh at
	// each call site
	m := map[string]expr.Expr{}
	for i, p := range summary.Params {
		if i < len(call.Args) {
			m[p.Name] = call.Args[i]
		}
	}
	for name, g := range matchGlobals(csGlobalsIn, summary.GlobalsIn) {
		m[name] = g
	}
	for name, g := range matchGlobals(csGlobalsOut, summary.GlobalsOut) {
		m[name] = g
	}
	rename := func(e expr.Expr) expr.Expr {
		return expr.Rename(e, func(s *expr.SymbolExpr) expr.Expr {
			if r, ok := m[s.Name]; ok {
				return r
			}
			return expr.Sym(s.Name + site)
		})
	}

	fragment := &localssa.Node{
		Location:    n.Location,
		Guard:       n.Guard,
		Constraints: []expr.Expr{expr.Implies(n.Guard, rename(summary.Transformer))},
		LoopHead:    funcutil.None[int](),
		Kind:        localssa.Inlined,
	}
	if !expr.IsTrue(summary.Precondition) {
		pre := expr.Implies(n.Guard, rename(summary.Precondition))
		if sufficient {
			fragment.Constraints = append(fragment.Constraints, pre)
		} else {
			fragment.Assertions = append(fragment.Assertions, pre)
		}
	}
	st.inlined = append(st.inlined, fragment)
	return nil
}

// Havoc stages the removal of the call callIdx of the node nodeIdx. The values written by the call are left
// unconstrained.
func (in *Inliner) Havoc(fn *localssa.Function, nodeIdx int, callIdx int) error {
	_, err := in.stage(fn, nodeIdx, callIdx)
	return err
}

// CommitNode freezes the edits staged for the node nodeIdx into fragments. The inlined fragments come first; the
// original node, without the removed calls, is the last fragment, so that a back edge stays at the end of the
// node.
func (in *Inliner) CommitNode(fn *localssa.Function, nodeIdx int) error {
	st, ok := in.staged[nodeIdx]
	if !ok {
		return fmt.Errorf("node %d of %s: nothing staged: %w", nodeIdx, fn.Name, ErrSplit)
	}
	delete(in.staged, nodeIdx)
	orig := fn.Nodes[nodeIdx].Copy()
	var calls []localssa.Call
	for i, c := range orig.Calls {
		if !st.removed.Has(i) {
			calls = append(calls, c)
		}
	}
	orig.Calls = calls
	if orig.Location != st.location || orig.Guard.Name != st.guard.Name {
		return fmt.Errorf("node %d of %s changed since edits were staged: %w", nodeIdx, fn.Name, ErrSplit)
	}
	fragments := append(append([]*localssa.Node{}, st.inlined...), orig)
	in.committed[nodeIdx] = append(in.committed[nodeIdx], fragments...)
	return nil
}

// CommitNodes splices the fragments committed for the node nodeIdx in place of the node. It returns the index of
// the last fragment, which holds the remaining calls of the node. The body is unchanged if an error is returned.
func (in *Inliner) CommitNodes(fn *localssa.Function, nodeIdx int) (int, error) {
	fragments, ok := in.committed[nodeIdx]
	if !ok || len(fragments) == 0 {
		return nodeIdx, fmt.Errorf("node %d of %s: nothing committed: %w", nodeIdx, fn.Name, ErrSplit)
	}
	if nodeIdx >= len(fn.Nodes) {
		return nodeIdx, fmt.Errorf("%s has no node %d: %w", fn.Name, nodeIdx, ErrSplit)
	}
	n := fn.Nodes[nodeIdx]
	for i, f := range fragments {
		if f.Location != n.Location || f.Guard.Name != n.Guard.Name {
			return nodeIdx, fmt.Errorf("fragment %d at location %d does not match node at %d: %w",
				i, f.Location, n.Location, ErrSplit)
		}
		if f.IsBackEdge() && i != len(fragments)-1 {
			return nodeIdx, fmt.Errorf("back edge in fragment %d of %d at location %d: %w",
				i, len(fragments), n.Location, ErrSplit)
		}
	}
	delete(in.committed, nodeIdx)

	nodes := make([]*localssa.Node, 0, len(fn.Nodes)+len(fragments)-1)
	nodes = append(nodes, fn.Nodes[:nodeIdx]...)
	nodes = append(nodes, fragments...)
	nodes = append(nodes, fn.Nodes[nodeIdx+1:]...)
	fn.Nodes = nodes

	// the edits of the following nodes move with them
	shift := len(fragments) - 1
	if shift > 0 {
		in.staged = shiftKeys(in.staged, nodeIdx, shift)
		in.committed = shiftKeys(in.committed, nodeIdx, shift)
	}
	return nodeIdx + shift, nil
}

func shiftKeys[T any](m map[int]T, after int, shift int) map[int]T {
	res := make(map[int]T, len(m))
	for k, v := range m {
		if k > after {
			k += shift
		}
		res[k] = v
	}
	return res
}

// Pending returns true if some edits have been staged or committed but not spliced
func (in *Inliner) Pending() bool {
	return len(in.staged) > 0 || len(in.committed) > 0
}
