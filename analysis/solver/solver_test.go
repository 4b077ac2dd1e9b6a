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

package solver

import (
	"testing"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiniSolve(t *testing.T) {
	for _, tc := range []struct {
		constraints []string
		want        Status
	}{
		{nil, Sat},
		{[]string{"true"}, Sat},
		{[]string{"false"}, Unsat},
		{[]string{"a", "!a"}, Unsat},
		{[]string{"(a => b)", "a", "!b"}, Unsat},
		{[]string{"(a <=> b)", "a"}, Sat},
		{[]string{"(a <=> b)", "a", "!b"}, Unsat},
		{[]string{"(a || b || c)", "!a", "!b"}, Sat},
		{[]string{"(a && (b || c))", "(c => !a)", "!b"}, Unsat},
	} {
		inst := NewGini().New()
		for _, c := range tc.constraints {
			inst.Assert(expr.MustParse(c))
		}
		res, err := inst.Solve()
		require.NoError(t, err)
		assert.Equal(t, tc.want, res.Status, "%v", tc.constraints)
	}
}

func TestGiniModel(t *testing.T) {
	constraints := []expr.Expr{
		expr.MustParse("(a <=> !b)"),
		expr.MustParse("(c => b)"),
		expr.MustParse("c"),
	}
	res, err := Check(NewGini(), constraints...)
	require.NoError(t, err)
	require.Equal(t, Sat, res.Status)
	for _, c := range constraints {
		assert.True(t, expr.Eval(c, res.Model.Value), c.String())
	}
	assert.Equal(t, "{a=false, b=true, c=true}", res.Model.String())
	cube := res.Model.Cube([]*expr.SymbolExpr{expr.Sym("a"), expr.Sym("b")})
	assert.Equal(t, "(!a && b)", cube.String())
}

func TestIncrementalSolve(t *testing.T) {
	inst := NewGini().New()
	inst.Assert(expr.MustParse("(a || b)"))
	var models []Model
	for {
		res, err := inst.Solve()
		require.NoError(t, err)
		if res.Status == Unsat {
			break
		}
		models = append(models, res.Model)
		cube := res.Model.Cube([]*expr.SymbolExpr{expr.Sym("a"), expr.Sym("b")})
		inst.Assert(expr.Not(cube))
	}
	assert.Len(t, models, 3)
}

func TestCounting(t *testing.T) {
	c := NewCounting(NewGini())
	inst := c.New()
	inst.Assert(expr.Sym("x"))
	_, err := inst.Solve()
	require.NoError(t, err)
	_, err = inst.Solve()
	require.NoError(t, err)
	_, err = Check(c, expr.False)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Instances: 2, Calls: 3}, c.Statistics())
}

func TestAssertFunction(t *testing.T) {
	prog, err := localssa.Load([]byte(`
functions:
  - name: f
    params: [a#0]
    nodes:
      - {location: 0, guard: g#0, constraints: ["g#0", "(b#0 <=> !a#0)"]}
      - {location: 1, guard: g#1, constraints: ["(g#1 <=> (g#0 && b#0))"]}
`))
	require.NoError(t, err)
	f, _ := prog.Function("f")

	inst := NewGini().New()
	AssertFunction(inst, f, nil)
	inst.Assert(expr.Sym("a#0"), expr.Sym("g#1"))
	res, err := inst.Solve()
	require.NoError(t, err)
	assert.Equal(t, Unsat, res.Status)

	var locs []int
	inst = NewGini().New()
	AssertFunction(inst, f, func(e expr.Expr, loc int) expr.Expr {
		locs = append(locs, loc)
		return e
	})
	assert.Equal(t, []int{0, 0, 1}, locs)
}
