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

package domain

import (
	"fmt"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/solver"
)

// ProjectionAnalyzer computes the projection of the body of a function on the variables of each partition, in the
// domain of disjunctions of cubes. The cubes are enumerated from the models of the body; when there are more than
// the maximum number of cubes, the result is true.
//
// The ranking partition is analyzed differently: for each loop, the analyzer looks for a loop variable that is true
// at the head and false on the back edge whenever the loop continues, which bounds the loop.
type ProjectionAnalyzer struct {
	dp       solver.DecisionProcedure
	maxCubes int
}

// NewProjectionAnalyzer returns an analyzer querying dp. If maxCubes is not positive, the enumeration is not bounded.
func NewProjectionAnalyzer(dp solver.DecisionProcedure, maxCubes int) *ProjectionAnalyzer {
	return &ProjectionAnalyzer{dp: dp, maxCubes: maxCubes}
}

type projectionResult struct {
	results map[Partition]expr.Expr
	calls   int
}

func (r *projectionResult) Get(p Partition) expr.Expr {
	if e, ok := r.results[p]; ok {
		return e
	}
	return expr.True
}

func (r *projectionResult) SolverCalls() int {
	return r.calls
}

// Analyze implements Analyzer
func (a *ProjectionAnalyzer) Analyze(cond expr.Expr, tmpl *Template) (Result, error) {
	res := &projectionResult{results: map[Partition]expr.Expr{}}
	body := tmpl.Formula()
	for _, p := range tmpl.Partitions() {
		var e expr.Expr
		var err error
		if p == Ranking {
			e, err = a.ranking(res, body, cond, tmpl)
		} else {
			e, err = a.project(res, body, cond, tmpl.Vars(p))
		}
		if err != nil {
			return nil, fmt.Errorf("analyzing %s partition of %s: %w", p, tmpl.Function.Name, err)
		}
		res.results[p] = e
	}
	return res, nil
}

func (a *ProjectionAnalyzer) project(res *projectionResult, body []expr.Expr, cond expr.Expr,
	vars []*expr.SymbolExpr) (expr.Expr, error) {
	inst := a.dp.New()
	inst.Assert(body...)
	inst.Assert(cond)
	var cubes []expr.Expr
	for {
		r, err := inst.Solve()
		res.calls++
		if err != nil {
			return nil, err
		}
		if r.Status == solver.Unsat {
			return expr.Simplify(expr.Disjunction(cubes)), nil
		}
		if a.maxCubes > 0 && len(cubes) >= a.maxCubes {
			return expr.True, nil
		}
		cube := r.Model.Cube(vars)
		cubes = append(cubes, cube)
		inst.Assert(expr.Not(cube))
	}
}

// ranking returns the conjunction of the ranking relations of the loops. A loop that cannot continue has the
// relation guard => false; a loop for which no relation is found has guard => true.
func (a *ProjectionAnalyzer) ranking(res *projectionResult, body []expr.Expr, cond expr.Expr,
	tmpl *Template) (expr.Expr, error) {
	candidates := map[string]bool{}
	for _, v := range tmpl.Vars(Ranking) {
		candidates[v.Name] = true
	}
	var relations []expr.Expr
	for _, l := range tmpl.Function.Loops {
		guard := tmpl.Rename(l.Guard, l.End)
		continues, err := a.sat(res, body, cond, guard)
		if err != nil {
			return nil, err
		}
		if !continues {
			relations = append(relations, expr.Implies(guard, expr.False))
			continue
		}
		relation := expr.Expr(expr.True)
		for _, v := range l.Vars {
			pre := tmpl.renameVar(v.Pre, l.Head)
			if !candidates[pre.Name] {
				continue
			}
			post := tmpl.Rename(v.Post, l.End)
			decreases := expr.And(pre, expr.Not(post))
			violated, err := a.sat(res, body, cond, guard, expr.Not(decreases))
			if err != nil {
				return nil, err
			}
			if !violated {
				relation = decreases
				break
			}
		}
		relations = append(relations, expr.Implies(guard, relation))
	}
	switch len(relations) {
	case 0:
		return expr.True, nil
	case 1:
		return relations[0], nil
	default:
		return expr.And(relations...), nil
	}
}

func (a *ProjectionAnalyzer) sat(res *projectionResult, body []expr.Expr, extra ...expr.Expr) (bool, error) {
	inst := a.dp.New()
	inst.Assert(body...)
	inst.Assert(extra...)
	r, err := inst.Solve()
	res.calls++
	if err != nil {
		return false, err
	}
	return r.Status == solver.Sat, nil
}
