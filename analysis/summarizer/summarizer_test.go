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

package summarizer

import (
	"embed"
	"errors"
	"path"
	"testing"

	"github.com/awslabs/ar-go-summarizer/analysis/config"
	"github.com/awslabs/ar-go-summarizer/analysis/domain"
	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/solver"
	"github.com/awslabs/ar-go-summarizer/analysis/summaries"
	"github.com/awslabs/ar-go-summarizer/internal/analysistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testfsys embed.FS

func load(t *testing.T, name string) (*localssa.Program, *config.Config) {
	return analysistest.LoadTest(t, testfsys, path.Join("testdata", name))
}

func newSummarizer(prog *localssa.Program, cfg *config.Config) *Summarizer {
	return New(prog, nil, DefaultDependencies(cfg), cfg, nil)
}

// equivalent fails the test if a and b are not equivalent
func equivalent(t *testing.T, a expr.Expr, b expr.Expr, msg string) {
	t.Helper()
	res, err := solver.Check(solver.NewGini(), expr.Not(expr.Iff(a, b)))
	require.NoError(t, err)
	assert.Equal(t, solver.Unsat, res.Status, "%s: %s is not equivalent to %s", msg, a, b)
}

// checkExpectations checks the summaries of the store against the annotations of the test program
func checkExpectations(t *testing.T, dir string, store *summaries.Store) {
	t.Helper()
	for name, e := range analysistest.GetExpectations(t, testfsys, path.Join("testdata", dir)) {
		summary, err := store.Get(name)
		if !assert.NoError(t, err, "%s: expected summary for %s", e.Pos, name) {
			continue
		}
		if e.Terminates != nil {
			assert.Equal(t, *e.Terminates, summary.Terminates, "%s: termination of %s", e.Pos, name)
		}
		if e.Precondition != "" {
			equivalent(t, summary.Precondition, expr.MustParse(e.Precondition), e.Pos.String())
		}
	}
}

// checkBalanced checks that no unwinding or temporary node is left in the functions of the program
func checkBalanced(t *testing.T, s *Summarizer) {
	t.Helper()
	for _, name := range s.program.Names() {
		fn, _ := s.program.Function(name)
		u := s.unwinders.Get(fn)
		assert.Equal(t, 0, u.Pushed(), name)
		assert.Equal(t, -1, u.CurrentDepth(), name)
		assert.Empty(t, u.Odometer(), name)
		for _, n := range fn.Nodes {
			assert.NotEqual(t, localssa.Temporary, n.Kind, name)
		}
	}
}

func TestLoopFree(t *testing.T) {
	prog, cfg := load(t, "straightline")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "straightline", s.Store())

	twice, err := s.Store().Get("twice")
	require.NoError(t, err)
	equivalent(t, twice.Transformer, expr.MustParse("(r#2 <=> x#0)"), "twice")
	assert.True(t, twice.TerminationArgument.IsNone())

	st := s.Statistics()
	assert.Equal(t, 2, st.SummariesUsed)
	assert.Equal(t, 0, st.Havocs)
	assert.Equal(t, 0, st.RankingSearches)
	// every call was replaced with a trivial precondition and without reachability checks
	assert.Equal(t, 0, s.dp.Statistics().Calls)
	assert.Positive(t, st.SolverCalls)

	// all calls have been inlined
	fn, _ := prog.Function("twice")
	assert.False(t, fn.HasCalls())
	checkBalanced(t, s)
}

func TestTrivialPreconditionShortcut(t *testing.T) {
	prog, cfg := load(t, "straightline")
	s := newSummarizer(prog, cfg)
	negate := summaries.New(
		[]*expr.SymbolExpr{expr.Sym("a#0")}, nil, []*expr.SymbolExpr{expr.Sym("r#1")})
	negate.Transformer = expr.MustParse("(r#1 <=> !a#0)")
	negate.Terminates = true
	s.Store().Put("negate", negate)

	fn, _ := prog.Function("twice")
	before := s.dp.Statistics()
	info, err := s.inlineSummaries(fn, false, true, false)
	require.NoError(t, err)
	assert.Equal(t, before, s.dp.Statistics())
	assert.True(t, info.hasCalls)
	assert.True(t, info.callsTerminate)
	assert.Equal(t, 2, s.Statistics().SummariesUsed)
}

func TestUnreachableCall(t *testing.T) {
	prog, cfg := load(t, "unreachable")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeFrom("main"))
	checkExpectations(t, "unreachable", s.Store())

	// the callee of an unreachable call is not summarized, and the call stays in the body
	assert.False(t, s.Store().Exists("spin"))
	fn, _ := prog.Function("main")
	assert.True(t, fn.HasCalls())
	assert.Equal(t, 0, s.Statistics().SummariesUsed)
}

func TestSelfRecursion(t *testing.T) {
	prog, cfg := load(t, "recursion")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "recursion", s.Store())

	loop, err := s.Store().Get("loop")
	require.NoError(t, err)
	assert.True(t, expr.IsFalse(loop.Precondition))
	st := s.Statistics()
	assert.Equal(t, 2, st.Havocs)
	assert.Equal(t, 0, st.RankingSearches)
}

func TestRecomputedSummaryKeepsNonTermination(t *testing.T) {
	prog, cfg := load(t, "recompute")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "recompute", s.Store())

	// the recursive call was havoc-ed by the first summary of loop and is not in the body anymore
	st := s.Statistics()
	assert.Equal(t, 1, st.Havocs)
	assert.Equal(t, 1, st.SummariesUsed)
	for _, name := range []string{"loop", "main"} {
		summary, err := s.Store().Get(name)
		require.NoError(t, err)
		assert.False(t, summary.Terminates, name)
		equivalent(t, summary.Precondition, expr.False, name)
	}
}

func TestSelfRecursionWithoutTermination(t *testing.T) {
	prog, cfg := load(t, "recursion")
	cfg.Termination = false
	s := newSummarizer(prog, cfg)
	fn, _ := prog.Function("loop")
	info, err := s.inlineSummaries(fn, false, true, false)
	require.NoError(t, err)
	assert.True(t, info.hasCalls)
	assert.False(t, info.callsTerminate)
	assert.False(t, fn.HasCalls())
}

func TestUnsafeAssumeUnknownTerminates(t *testing.T) {
	prog, cfg := load(t, "recursion")
	cfg.UnsafeAssumeUnknownTerminates = true
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	for _, name := range []string{"loop", "external"} {
		summary, err := s.Store().Get(name)
		require.NoError(t, err)
		assert.True(t, summary.Terminates, name)
	}
}

func TestLoops(t *testing.T) {
	prog, cfg := load(t, "loops")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "loops", s.Store())
	checkBalanced(t, s)

	bounded, err := s.Store().Get("bounded")
	require.NoError(t, err)
	require.True(t, bounded.TerminationArgument.IsSome())
	assert.Equal(t, "(c#3 => (x#phi2 && !x#lb2))", bounded.TerminationArgument.Value().String())

	spinning, err := s.Store().Get("spinning")
	require.NoError(t, err)
	assert.Equal(t, "(c#3 => true)", spinning.TerminationArgument.Value().String())
	assert.True(t, expr.IsFalse(spinning.Precondition))

	assert.Equal(t, 3, s.Statistics().RankingSearches)
}

var errRanking = errors.New("ranking failed")

type failingRanking struct {
	domain.Analyzer
}

func (f failingRanking) Analyze(cond expr.Expr, tmpl *domain.Template) (domain.Result, error) {
	if len(tmpl.Vars(domain.Ranking)) > 0 {
		return nil, errRanking
	}
	return f.Analyzer.Analyze(cond, tmpl)
}

func TestUnwindingBalancedOnError(t *testing.T) {
	prog, cfg := load(t, "loops")
	deps := DefaultDependencies(cfg)
	deps.Analyzer = failingRanking{deps.Analyzer}
	s := New(prog, nil, deps, cfg, nil)
	err := s.SummarizeAll()
	assert.True(t, errors.Is(err, errRanking))
	checkBalanced(t, s)
}

func TestPreconditionCheck(t *testing.T) {
	prog, cfg := load(t, "preconditions")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "preconditions", s.Store())
	assert.Equal(t, 2, s.Statistics().SummariesUsed)

	// the precondition of div is asserted at the call site of unsafe
	fn, _ := prog.Function("unsafe")
	require.Len(t, fn.Nodes, 2)
	require.Len(t, fn.Nodes[0].Assertions, 1)
	equivalent(t, fn.Nodes[0].Assertions[0], expr.MustParse("(g#0 => p#0)"), "assertion")
}

func TestSufficientPreconditions(t *testing.T) {
	prog, cfg := load(t, "sufficient")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "sufficient", s.Store())

	// the precondition of check is assumed at the call site of guarded
	fn, _ := prog.Function("guarded")
	require.Len(t, fn.Nodes, 2)
	inlined := fn.Nodes[0]
	assert.Equal(t, localssa.Inlined, inlined.Kind)
	assert.Empty(t, inlined.Assertions)
	require.Len(t, inlined.Constraints, 2)
	equivalent(t, inlined.Constraints[1], expr.MustParse("(g#0 => q#0)"), "assumption")

	// the necessary precondition of check is true
	prog, cfg = load(t, "sufficient")
	cfg.Sufficient = false
	s = newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	check, err := s.Store().Get("check")
	require.NoError(t, err)
	equivalent(t, check.Precondition, expr.True, "necessary precondition")
}

func TestHavocSummaries(t *testing.T) {
	prog, cfg := load(t, "havoc")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "havoc", s.Store())
	checkBalanced(t, s)

	negate, err := s.Store().Get("negate")
	require.NoError(t, err)
	assert.True(t, expr.IsTrue(negate.Transformer))
	assert.True(t, expr.IsTrue(negate.Invariant))
	assert.True(t, negate.TerminationArgument.IsNone())

	// the loops are still ranked
	st := s.Statistics()
	assert.Equal(t, 2, st.RankingSearches)
	assert.Equal(t, 1, st.SummariesUsed)
	spinning, err := s.Store().Get("spinning")
	require.NoError(t, err)
	assert.False(t, CheckTerminationArgument(spinning.TerminationArgument.Value()))
}

func TestLegacyJoin(t *testing.T) {
	prog, cfg := load(t, "legacy")
	s := newSummarizer(prog, cfg)
	assert.Equal(t, summaries.JoinLegacy, s.Store().Policy())
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "legacy", s.Store())

	// the transformer is not strengthened with the precondition
	div, err := s.Store().Get("div")
	require.NoError(t, err)
	equivalent(t, div.Transformer, expr.MustParse("(d#0 && ret#1)"), "legacy transformer")

	fn, _ := prog.Function("unsafe")
	require.Len(t, fn.Nodes, 2)
	inlined := fn.Nodes[0]
	equivalent(t, inlined.Constraints[0], expr.MustParse("(g#0 => (p#0 && ret#1))"), "inlined transformer")
	require.Len(t, inlined.Assertions, 1)
	equivalent(t, inlined.Assertions[0], expr.MustParse("(g#0 => p#0)"), "assertion")

	// with the precise join, the transformer only holds under the precondition
	prog, cfg = load(t, "legacy")
	cfg.JoinPolicy = config.JoinPolicyPrecise
	s = newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	div, err = s.Store().Get("div")
	require.NoError(t, err)
	equivalent(t, div.Transformer, expr.MustParse("(d#0 => ret#1)"), "precise transformer")
}

func TestTerminationWithoutPreconditionVars(t *testing.T) {
	prog, cfg := load(t, "noout")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "noout", s.Store())
	checkBalanced(t, s)

	reaching, err := s.Store().Get("reaching")
	require.NoError(t, err)
	assert.True(t, expr.IsTrue(reaching.Precondition))
	blocked, err := s.Store().Get("blocked")
	require.NoError(t, err)
	assert.True(t, expr.IsFalse(blocked.Precondition))
	assert.Equal(t, 0, s.Statistics().RankingSearches)
}

func TestStructuralMismatch(t *testing.T) {
	prog, cfg := load(t, "preconditions")
	s := newSummarizer(prog, cfg)
	div := summaries.New([]*expr.SymbolExpr{expr.Sym("q#0")}, nil, nil)
	div.Precondition = expr.Sym("q#0")
	s.Store().Put("div", div)
	err := s.SummarizeAll()
	assert.True(t, errors.Is(err, summaries.ErrStructuralMismatch))
}

func TestCallingContext(t *testing.T) {
	prog, cfg := load(t, "context")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeFrom("main"))
	checkExpectations(t, "context", s.Store())

	assert.Equal(t, "x#0", s.Precondition("id").String())
	assert.True(t, expr.IsTrue(s.Precondition("main")))
	assert.False(t, s.Store().Exists("unused"))

	// the calling context is added to the body of the callee
	id, _ := prog.Function("id")
	constraints := id.Nodes[0].Constraints
	assert.Equal(t, "x#0", constraints[len(constraints)-1].String())

	// the summary of id is inlined in main with its precondition asserted
	mainFn, _ := prog.Function("main")
	require.Len(t, mainFn.Nodes, 2)
	assert.Equal(t, localssa.Inlined, mainFn.Nodes[0].Kind)
	require.Len(t, mainFn.Nodes[0].Assertions, 1)
	assert.Equal(t, "(g#0 => a#0)", mainFn.Nodes[0].Assertions[0].String())
	equivalent(t, mainFn.Nodes[0].Constraints[0], expr.MustParse("(g#0 => (a#0 => ret#0))"), "transformer")

	assert.True(t, errors.Is(s.SummarizeFrom("nope"), ErrUnknownFunction))
}

func TestTerminationPreconditions(t *testing.T) {
	prog, cfg := load(t, "termpre")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	checkExpectations(t, "termpre", s.Store())
	checkBalanced(t, s)

	spinning, err := s.Store().Get("spinning")
	require.NoError(t, err)
	assert.True(t, expr.IsTrue(spinning.TerminationArgument.Value()))
	conditional, err := s.Store().Get("conditional")
	require.NoError(t, err)
	assert.True(t, CheckTerminationArgument(conditional.TerminationArgument.Value()))
}

func TestCallCycles(t *testing.T) {
	prog, cfg := load(t, "cycles")
	s := newSummarizer(prog, cfg)
	require.NoError(t, s.SummarizeAll())
	assert.Equal(t, 2, s.Store().Len())
	assert.Equal(t, 1, s.Statistics().Havocs)
	assert.Empty(t, s.inProgress["ping"])
	assert.Empty(t, s.inProgress["pong"])
}

func TestMaxCallDepth(t *testing.T) {
	prog, cfg := load(t, "cycles")
	cfg.DetectCallCycles = false
	cfg.MaxCallDepth = 3
	s := newSummarizer(prog, cfg)
	err := s.SummarizeAll()
	assert.True(t, errors.Is(err, ErrMaxDepth))
	assert.Equal(t, 0, s.depth)
}

func TestCheckTerminationArgument(t *testing.T) {
	for _, tc := range []struct {
		arg  string
		want bool
	}{
		{"false", true},
		{"true", false},
		{"(c#3 => true)", false},
		{"(c#3 => false)", true},
		{"(c#3 => (x#phi2 && !x#lb2))", true},
		{"((c#3 => (x#phi2 && !x#lb2)) && (c#5 => true))", false},
		{"((c#3 => true) && false)", false},
		{"(false && (c#3 => true))", true},
		{"((c#3 => (x#phi2 && !x#lb2)) && (c#5 => !y#lb4))", true},
		{"x#phi2", true},
	} {
		assert.Equal(t, tc.want, CheckTerminationArgument(expr.MustParse(tc.arg)), tc.arg)
	}
}
