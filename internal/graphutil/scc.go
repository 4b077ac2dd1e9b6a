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

package graphutil

import "github.com/awslabs/ar-go-summarizer/analysis/localssa"

// tarjan is the state of Tarjan's algorithm over nodes of type T
type tarjan[T comparable] struct {
	successors func(T) []T
	index      map[T]int
	lowlink    map[T]int
	onStack    map[T]bool
	stack      []T
	sccs       [][]T
}

// StronglyConnectedComponents returns the strongly connected components of the graph over nodes whose edges are
// given by successors, using Tarjan's algorithm. Components are emitted in reverse topological order: the
// components reachable from a component come before it, which is the order of a bottom-up summary computation.
// The order of the nodes inside a component is unspecified.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	t := &tarjan[T]{
		successors: successors,
		index:      map[T]int{},
		lowlink:    map[T]int{},
		onStack:    map[T]bool{},
		sccs:       [][]T{},
	}
	for _, v := range nodes {
		if _, visited := t.index[v]; !visited {
			t.visit(v)
		}
	}
	return t.sccs
}

func (t *tarjan[T]) visit(v T) {
	n := len(t.index)
	t.index[v] = n
	t.lowlink[v] = n
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.successors(v) {
		if _, visited := t.index[w]; !visited {
			t.visit(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}
	if t.lowlink[v] != t.index[v] {
		return
	}
	// v is the root of a component: pop it
	var scc []T
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// BottomUpOrder returns the functions of the program grouped by strongly connected component of the call graph,
// callees first. Summarizing the functions in that order only recurses into callees in the same component.
func BottomUpOrder(p *localssa.Program) [][]string {
	cg := NewCallgraphIterator(p)
	return StronglyConnectedComponents(p.Names(), cg.Callees)
}
