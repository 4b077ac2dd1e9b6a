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

	"github.com/yourbasic/graph"
)

// FindAllElementaryCycles finds all elementary cycles of length at least two in the graph CGraph.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
//
//	cg : the graph with cycles
func FindAllElementaryCycles(cg CGraph) [][]int64 {
	s := &state{
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
		stack:   []int64{},
		cycles:  [][]int64{},
	}
	keys := append([]int64(nil), cg.Keys...)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	start := 0
	for start < len(keys) {
		// the least node of a non-trivial component of the subgraph induced by keys[start:]
		fg := Subgraph(cg, keys[start:])
		least := int64(-1)
		for _, component := range graph.StrongComponents(fg) {
			if len(component) < 2 || !inKeys(fg, component[0]) {
				continue
			}
			for _, v := range component {
				if least < 0 || int64(v) < least {
					least = int64(v)
				}
			}
		}
		if least < 0 {
			return s.cycles
		}
		s.stack = []int64{}
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(least, least, fg)
		for start < len(keys) && keys[start] <= least {
			start++
		}
	}
	return s.cycles
}

// inKeys returns true if v is a node of the subgraph (StrongComponents also returns the nodes outside of it as
// singleton components)
func inKeys(g CGraph, v int) bool {
	_, ok := g.Edges[int64(v)]
	return ok
}

// CycleNames returns the names of the functions in each cycle. A cycle ends with its first function.
func CycleNames(cg CGraph, cycles [][]int64) [][]string {
	res := make([][]string, len(cycles))
	for i, cycle := range cycles {
		for _, id := range cycle {
			res[i] = append(res[i], cg.IDMap[id].Name)
		}
	}
	return res
}

type state struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *state) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int64, i int64, g CGraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	g.Visit(int(v), func(wi int, _ int64) bool {
		w := int64(wi)
		if w == i {
			if v != i {
				stackCopy := make([]int64, len(s.stack))
				copy(stackCopy, s.stack)
				stackCopy = append(stackCopy, w)
				s.cycles = append(s.cycles, stackCopy)
			}
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g) {
				f = true
			}
		}
		return false
	})

	if f {
		s.unblock(v)
	} else {
		for w := range g.Edges[v] {
			m := s.blist[w]
			if m != nil {
				s.blist[w][v] = true
			} else {
				s.blist[w] = map[int64]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
