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

import (
	"sort"

	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// CGraph is an abstraction over the call graph of a program to work with existing graph libraries. It implements
// the methods to satisfy yourbasic's graph.Iterator and Gonum's graph.Graph.
// Node ids are the indices of the functions in the sorted list of function names, so that they range over
// 0..order-1.
type CGraph struct {
	// The order of the graph
	order int

	// The program the CGraph was constructed from
	Program *localssa.Program

	// IDMap maps from node IDs to CNodes
	IDMap map[int64]CNode

	// Keys are all the node IDs
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means that IDMap[x] calls IDMap[y]
	Edges map[int64]map[int64]bool

	// ids maps function names to node IDs
	ids map[string]int64
}

// NewCallgraphIterator returns the call graph of the program. Calls to functions that are not in the program have
// no edge.
func NewCallgraphIterator(p *localssa.Program) CGraph {
	names := p.Names()
	n := len(names)
	idmap := make(map[int64]CNode, n)
	ids := make(map[string]int64, n)
	keys := make([]int64, n)
	for i, name := range names {
		keys[i] = int64(i)
		ids[name] = int64(i)
		idmap[int64(i)] = CNode{id: int64(i), Name: name}
	}

	edges := make(map[int64]map[int64]bool, n)
	for i, name := range names {
		edges[int64(i)] = map[int64]bool{}
		fn, _ := p.Function(name)
		for _, callee := range fn.Callees() {
			if j, ok := ids[callee]; ok {
				edges[int64(i)][j] = true
			}
		}
	}

	return CGraph{
		order:   n,
		Program: p,
		IDMap:   idmap,
		Edges:   edges,
		Keys:    keys,
		ids:     ids,
	}
}

// ID returns the node id of the function name
func (c CGraph) ID(name string) (int64, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order, Program and IDMap are the same as in origin, meaning that node indices will stay consistent
// across subgraphs.
func Subgraph(original CGraph, include []int64) CGraph {
	inSub := make(map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		inSub[i] = true
	}

	edges := make(map[int64]map[int64]bool, len(include))
	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if inSub[e] {
				edges[i][e] = true
			}
		}
	}

	return CGraph{
		order:   original.Order(),
		Program: original.Program,
		IDMap:   original.IDMap,
		Edges:   edges,
		Keys:    keys,
		ids:     original.ids,
	}
}

// Order implements the order of the graph.Iterator interface for the CGraph
func (c CGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for the CGraph
func (c CGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	succs, ok := c.Edges[int64(v)]
	if !ok {
		return false
	}
	// visit in a deterministic order
	ws := make([]int64, 0, len(succs))
	for w := range succs {
		ws = append(ws, w)
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i] < ws[j] })
	for _, w := range ws {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// Callees returns the names of the functions of the program called by name, sorted
func (c CGraph) Callees(name string) []string {
	id, ok := c.ids[name]
	if !ok {
		return nil
	}
	var res []string
	c.Visit(int(id), func(w int, _ int64) bool {
		res = append(res, c.IDMap[int64(w)].Name)
		return false
	})
	return res
}

// CallClosure returns the names of the functions reachable from entry in the call graph, including entry, in
// breadth-first order.
func (c CGraph) CallClosure(entry string) []string {
	id, ok := c.ids[entry]
	if !ok {
		return nil
	}
	var res []string
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { res = append(res, n.(CNode).Name) },
	}
	bf.Walk(c, c.IDMap[id], nil)
	return res
}

// Reaches returns true if there is a path of calls from caller to callee. Every function reaches itself.
func (c CGraph) Reaches(caller, callee string) bool {
	from, ok1 := c.ids[caller]
	to, ok2 := c.ids[callee]
	if !ok1 || !ok2 {
		return false
	}
	return topo.PathExistsIn(c, c.IDMap[from], c.IDMap[to])
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (c CGraph) Node(id int64) graph.Node {
	if n, ok := c.IDMap[id]; ok {
		return n
	}
	return nil
}

// Nodes returns the set of nodes in the graph
func (c CGraph) Nodes() graph.Nodes {
	keys := append([]int64(nil), c.Keys...)
	return &NodeSet{
		nodes: c.IDMap,
		ids:   keys,
		cur:   -1,
	}
}

// From returns the set of nodes reachable from the id
func (c CGraph) From(id int64) graph.Nodes {
	var keys []int64
	for out := range c.Edges[id] {
		keys = append(keys, out)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return &NodeSet{
		nodes: c.IDMap,
		ids:   keys,
		cur:   -1,
	}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (c CGraph) HasEdgeBetween(xid, yid int64) bool {
	xe := c.Edges[xid]
	ye := c.Edges[yid]
	return xe[yid] || ye[xid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c CGraph) Edge(uid, vid int64) graph.Edge {
	ue := c.Edges[uid]
	if ue != nil {
		if ue[vid] {
			return CEdge{from: c.IDMap[uid], to: c.IDMap[vid]}
		}
	}
	return nil
}

// *************** Nodes implementation **********************

// CNode is a function of the call graph. It implements the graph.Node interface
type CNode struct {
	id   int64
	Name string
}

// ID returns the id of the node
func (n CNode) ID() int64 {
	return n.id
}

func (n CNode) String() string {
	return n.Name
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	// nodes is the set of nodes in the iterator
	nodes map[int64]CNode

	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. The current node is nodes[ids[cur]]
	// invariant: -1 <= cur <= len(ids); -1 before the first call to Next
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids) {
		ns.cur++
	}
	return ns.cur < len(ns.ids)
}

// Len returns the number of nodes remaining in the set
func (ns *NodeSet) Len() int {
	if ns.cur < 0 {
		return len(ns.ids)
	}
	if ns.cur >= len(ns.ids) {
		return 0
	}
	return len(ns.ids) - ns.cur - 1
}

// Reset resets the iterator before its first node
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node return the current node in the set, nil if the iterator is not on a node
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return ns.nodes[ns.ids[ns.cur]]
}

// *************** Edge implementation **********************

// CEdge implements the graph.Edge interface
type CEdge struct {
	from CNode
	to   CNode
}

// From returns the origin of the edge
func (e CEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e CEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e CEdge) ReversedEdge() graph.Edge {
	return CEdge{from: e.to, to: e.from}
}
