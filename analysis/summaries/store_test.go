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

package summaries

import (
	"bytes"
	"errors"
	"testing"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/solver"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryOf(pre, transformer string) Summary {
	s := New(symbols([]string{"a#0"}), symbols([]string{"m#0"}), symbols([]string{"r#5"}))
	s.Precondition = expr.MustParse(pre)
	s.Transformer = expr.MustParse(transformer)
	return s
}

func TestStore(t *testing.T) {
	s := NewStore(JoinPrecise)
	assert.False(t, s.Exists("f"))
	_, err := s.Get("f")
	assert.True(t, errors.Is(err, ErrNoSummary))

	s.Put("g", summaryOf("true", "r#5"))
	s.Put("f", summaryOf("a#0", "true"))
	assert.True(t, s.Exists("f"))
	assert.Equal(t, []string{"f", "g"}, s.Names())

	s.Put("f", summaryOf("!a#0", "true"))
	f, err := s.Get("f")
	require.NoError(t, err)
	assert.Equal(t, "!a#0", f.Precondition.String())
	assert.Equal(t, 2, s.Len())
}

// the join never narrows the precondition: A.pre or B.pre implies join(A, B).pre
func TestJoinWidens(t *testing.T) {
	pres := []string{"true", "false", "a#0", "!a#0", "(a#0 && m#0)", "(a#0 || m#0)"}
	for _, policy := range []JoinPolicy{JoinPrecise, JoinLegacy} {
		s := NewStore(policy)
		for _, p1 := range pres {
			for _, p2 := range pres {
				a, b := summaryOf(p1, "r#5"), summaryOf(p2, "!r#5")
				j, err := s.Join(a, b)
				require.NoError(t, err)
				res, err := solver.Check(solver.NewGini(),
					expr.Or(a.Precondition, b.Precondition), expr.Not(j.Precondition))
				require.NoError(t, err)
				assert.Equal(t, solver.Unsat, res.Status, "%s | %s", p1, p2)
			}
		}
	}
}

func TestJoinPolicy(t *testing.T) {
	a, b := summaryOf("a#0", "r#5"), summaryOf("!a#0", "!r#5")
	j, err := NewStore(JoinPrecise).Join(a, b)
	require.NoError(t, err)
	assert.Equal(t, "(a#0 || !a#0)", j.Precondition.String())
	assert.Equal(t, "(r#5 && (!a#0 => !r#5))", j.Transformer.String())
	assert.Equal(t, "(true && (!a#0 => true))", j.Invariant.String())

	j, err = NewStore(JoinLegacy).Join(a, b)
	require.NoError(t, err)
	assert.Equal(t, "(r#5 || !r#5)", j.Transformer.String())
}

func TestJoinMismatch(t *testing.T) {
	s := NewStore(JoinPrecise)
	a := summaryOf("true", "true")
	b := summaryOf("true", "true")
	b.GlobalsOut = symbols([]string{"r#6"})
	_, err := s.Join(a, b)
	assert.True(t, errors.Is(err, ErrStructuralMismatch))

	s.Put("f", a)
	err = s.JoinAndPut("f", b)
	assert.True(t, errors.Is(err, ErrStructuralMismatch))
	// the stored summary is unchanged
	f, _ := s.Get("f")
	assert.Equal(t, "r#5", f.GlobalsOut[0].Name)
}

func TestReport(t *testing.T) {
	s := NewStore(JoinPrecise)
	f := summaryOf("(a#0 || m#0)", "(r#5 <=> a#0)")
	f.TerminationArgument = funcutil.Some(expr.MustParse("(c#3 => (x#phi2 && !x#lb2))"))
	f.Terminates = true
	s.Put("f", f)
	s.Put("g", New(nil, nil, nil))

	var buf bytes.Buffer
	require.NoError(t, s.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "termination-argument: (c#3 => (x#phi2 && !x#lb2))")

	read := NewStore(JoinPrecise)
	require.NoError(t, read.ReadYAML(&buf))
	assert.Equal(t, []string{"f", "g"}, read.Names())
	rf, err := read.Get("f")
	require.NoError(t, err)
	assert.Equal(t, f.String(), rf.String())
	rg, err := read.Get("g")
	require.NoError(t, err)
	assert.True(t, rg.TerminationArgument.IsNone())
	assert.False(t, rg.Terminates)
}
