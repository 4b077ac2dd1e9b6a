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

package unwind

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two nested loops: the outer loop spans 2..6, the inner loop 3..4
const nestedLoops = `
functions:
  - name: nested
    params: [n#0]
    globals-out: [r#7]
    loops:
      - head: 3
        end: 4
        guard: ci#4
        vars: [{pre: y#phi3, post: y#lb3}]
      - head: 2
        end: 6
        guard: co#6
        vars: [{pre: x#phi2, post: x#lb2}]
    nodes:
      - {location: 0, guard: g#0, constraints: ["g#0"]}
      - {location: 2, guard: g#2, constraints: ["(x#phi2 <=> (n#0 || x#lb2))"]}
      - {location: 3, guard: g#3, constraints: ["(y#phi3 <=> (x#phi2 || y#lb3))"]}
      - {location: 4, guard: g#4, constraints: ["(ci#4 <=> y#phi3)", "tmp"]}
      - {location: 6, guard: g#6, constraints: ["(co#6 <=> !y#phi3)"]}
      - {location: 7, guard: g#7, constraints: ["(r#7 <=> x#phi2)"]}
`

func loadNested(t *testing.T) *localssa.Function {
	prog, err := localssa.Load([]byte(nestedLoops))
	require.NoError(t, err)
	f, ok := prog.Function("nested")
	require.True(t, ok)
	return f
}

func TestLoopHierarchy(t *testing.T) {
	u := New(loadNested(t))
	assert.Equal(t, LoopLevel{Level: 0, Loop: -1}, u.Level(0))
	assert.Equal(t, LoopLevel{Level: 1, Loop: 1}, u.Level(2))
	assert.Equal(t, LoopLevel{Level: 2, Loop: 0}, u.Level(3))
	assert.Equal(t, LoopLevel{Level: 2, Loop: 0}, u.Level(4))
	assert.Equal(t, LoopLevel{Level: 1, Loop: 1}, u.Level(6))
	assert.Equal(t, LoopLevel{Level: 0, Loop: -1}, u.Level(7))
	// not a node location
	assert.Equal(t, LoopLevel{Level: 1, Loop: 1}, u.Level(5))
}

func TestRenameIdentityWhenNotUnwinding(t *testing.T) {
	u := New(loadNested(t))
	e := expr.MustParse("(x#phi2 && y#lb3)")
	assert.Same(t, e, u.Rename(e, 3))
}

func TestRenamePushPop(t *testing.T) {
	u := New(loadNested(t))
	e := expr.MustParse("(x#phi2 && y#lb3 && n#0 && g#0 && r#7)")

	u.PushUnwinding()
	assert.Equal(t, 0, u.CurrentDepth())
	assert.Empty(t, u.Odometer())
	assert.Equal(t, "(x#phi2%0 && y#lb3%0%0 && n#0 && g#0 && r#7)", u.Rename(e, 7).String())

	u.PushUnwinding()
	assert.Equal(t, []int{0}, u.Odometer())
	assert.Equal(t, 2, u.Pushed())
	assert.Equal(t, "(x#phi2%0 && y#lb3%0%0 && n#0 && g#0 && r#7)", u.Rename(e, 7).String())

	require.NoError(t, u.PopUnwinding())
	assert.Equal(t, 0, u.CurrentDepth())
	assert.Empty(t, u.Odometer())
	require.NoError(t, u.PopUnwinding())
	assert.Equal(t, -1, u.CurrentDepth())
	assert.Equal(t, 0, u.Pushed())

	err := u.PopUnwinding()
	assert.True(t, errors.Is(err, ErrUnbalanced))
}

func TestRenameLocalWithoutLocation(t *testing.T) {
	u := New(loadNested(t))
	u.PushUnwinding()
	defer func() { require.NoError(t, u.PopUnwinding()) }()
	formula := u.RenameFunction()
	require.Len(t, formula, 7)
	// tmp has no location: it is local to the node at 4, in both loops
	assert.Equal(t, "tmp%0%0", formula[4].String())
	assert.Equal(t, "(co#6%0 <=> !y#phi3%0%0)", formula[5].String())
}

func TestUnrename(t *testing.T) {
	e := expr.MustParse("(x#phi2%1 && y#lb3%1%0 && tmp%0%0 && n#0 && a%b)")
	assert.Equal(t, "(x#phi2 && y#lb3 && tmp && n#0 && a%b)", Unrename(e).String())
}

func TestRegistry(t *testing.T) {
	f := loadNested(t)
	r := NewRegistry()
	u := r.Get(f)
	assert.Same(t, u, r.Get(f))
	assert.Same(t, f, u.Function())
	// a different function value with the same name gets a fresh unwinder
	assert.NotSame(t, u, r.Get(f.Copy()))
}
