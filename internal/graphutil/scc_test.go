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
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

type intGraph map[int][]int

func reaches(m intGraph, x, y int) bool {
	seen := map[int]bool{x: true}
	queue := []int{x}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range m[v] {
			if w == y {
				return true
			}
			if !seen[w] {
				seen[w] = true
				queue = append(queue, w)
			}
		}
	}
	return false
}

// isToposorted checks that the components are strongly connected, cover the graph, and that callees come first
func isToposorted(m intGraph, sccs [][]int) error {
	covered := map[int]bool{}
	for i, scc := range sccs {
		for _, x := range scc {
			if covered[x] {
				return fmt.Errorf("repeated value %v\nin:%v", x, m)
			}
			covered[x] = true
			for _, y := range scc {
				if x != y && !reaches(m, x, y) {
					return fmt.Errorf("the SCC nodes are not reachable: %v %v\nin:%v", x, y, m)
				}
			}
			for j := i + 1; j < len(sccs); j++ {
				for _, y := range sccs[j] {
					if reaches(m, x, y) {
						return fmt.Errorf("node %v appears before reachable node %v\nin:%v", x, y, m)
					}
				}
			}
		}
	}
	for n := range m {
		if !covered[n] {
			return fmt.Errorf("missing node %v\nin:%v", n, m)
		}
	}
	return nil
}

func nodesOf(m intGraph) []int {
	var nodes []int
	for n := range m {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)
	return nodes
}

func TestSCC(t *testing.T) {
	for _, m := range []intGraph{
		{0: {0}},
		{0: {}},
		{0: {0, 1}, 1: {}},
		{0: {1, 2}, 1: {3}, 2: {3}, 3: {0}},
		{0: {1}, 1: {2}, 2: {1, 3}, 3: {}},
	} {
		sccs := StronglyConnectedComponents(nodesOf(m), func(n int) []int { return m[n] })
		if err := isToposorted(m, sccs); err != nil {
			t.Fatalf("Error: %v", err)
		}
	}
}

func TestSCCRandom(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		n := 1 + r.Intn(12)
		m := intGraph{}
		for v := 0; v < n; v++ {
			m[v] = []int{}
			for e := r.Intn(3); e > 0; e-- {
				m[v] = append(m[v], r.Intn(n))
			}
		}
		sccs := StronglyConnectedComponents(nodesOf(m), func(n int) []int { return m[n] })
		if err := isToposorted(m, sccs); err != nil {
			t.Fatalf("Error: %v", err)
		}
	}
}
