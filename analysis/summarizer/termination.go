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
	"fmt"

	"github.com/awslabs/ar-go-summarizer/analysis/domain"
	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/solver"
	"github.com/awslabs/ar-go-summarizer/analysis/summaries"
	"github.com/awslabs/ar-go-summarizer/analysis/unwind"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
)

// CheckTerminationArgument returns true if the termination argument arg proves termination. The argument is a
// conjunction of per-loop ranking relations; a relation whose consequent is true means that no ranking function
// was found for the loop. The conjuncts are checked in order: the first false conjunct or unranked relation
// decides.
func CheckTerminationArgument(arg expr.Expr) bool {
	if expr.IsFalse(arg) {
		return true
	}
	switch e := arg.(type) {
	case *expr.NaryExpr:
		if e.Op != expr.AND {
			break
		}
		for _, x := range e.Args {
			if expr.IsFalse(x) {
				return true
			}
			if unranked(x) {
				return false
			}
		}
		return true
	case *expr.BinaryExpr:
		return !unranked(e)
	}
	return !expr.IsTrue(arg)
}

func unranked(e expr.Expr) bool {
	b, ok := e.(*expr.BinaryExpr)
	return ok && b.Op == expr.IMPLIES && expr.IsTrue(b.RHS)
}

// withUnwinding runs f while the unwinder of fn is pushed. The unwinder is popped on every path.
func (s *Summarizer) withUnwinding(fn *localssa.Function, f func(u *unwind.Unwinder) error) (err error) {
	u := s.unwinders.Get(fn)
	u.PushUnwinding()
	defer func() {
		if perr := u.PopUnwinding(); perr != nil && err == nil {
			err = perr
		}
	}()
	return f(u)
}

// withTemporary runs f while the invariant is added at the exit of fn. The temporary node is removed on every
// path.
func (s *Summarizer) withTemporary(fn *localssa.Function, invariant expr.Expr, f func() error) (err error) {
	fn.PushTemporary(invariant)
	defer func() {
		if perr := fn.PopTemporary(); perr != nil && err == nil {
			err = perr
		}
	}()
	return f()
}

// rankingSearch runs the analyzer on the ranking template of fn under cond. The result is unrenamed.
func (s *Summarizer) rankingSearch(fn *localssa.Function, cond expr.Expr) (expr.Expr, error) {
	s.stats.RankingSearches++
	res, err := s.analyze(cond, s.generator.Ranking(fn))
	if err != nil {
		return nil, fmt.Errorf("ranking search: %w", err)
	}
	arg := unwind.Unrename(res.Get(domain.Ranking))
	s.logger.Debugf("Termination argument for %s: %s", fn.Name, arg)
	return arg, nil
}

// doTermination looks for a termination argument of fn under the precondition of the summary
func (s *Summarizer) doTermination(fn *localssa.Function, summary *summaries.Summary) error {
	s.logger.Debugf("Computing termination argument for %s", fn.Name)
	return s.withUnwinding(fn, func(u *unwind.Unwinder) error {
		return s.withTemporary(fn, summary.Invariant, func() error {
			arg, err := s.rankingSearch(fn, summary.Precondition)
			if err != nil {
				return err
			}
			summary.TerminationArgument = funcutil.Some(arg)
			summary.Terminates = CheckTerminationArgument(arg)
			if !summary.Terminates {
				summary.Precondition = expr.False
			}
			return nil
		})
	})
}

// doTerminationWithPreconditions looks for a precondition under which the loops of fn terminate. A candidate
// precondition is bootstrapped from a model of the body that reaches the exit; if no termination argument is found
// under the candidate, the candidate is excluded and the search goes on. The precondition of the summary is then
// strengthened to the states from which the termination argument holds.
func (s *Summarizer) doTerminationWithPreconditions(fn *localssa.Function, summary *summaries.Summary) error {
	s.logger.Debugf("Computing termination precondition for %s", fn.Name)
	out := s.generator.Summary(fn, false).Vars(domain.Out)
	return s.withUnwinding(fn, func(u *unwind.Unwinder) error {
		return s.withTemporary(fn, summary.Invariant, func() error {
			bootstrap := s.dp.New()
			solver.AssertFunction(bootstrap, fn, u.Rename)
			bootstrap.Assert(summary.Precondition, u.Rename(fn.ExitGuard(), exitLocation(fn)))
			for {
				res, err := bootstrap.Solve()
				if err != nil {
					return fmt.Errorf("bootstrapping termination precondition: %w", err)
				}
				if res.Status == solver.Unsat {
					s.logger.Debugf("No termination precondition for %s", fn.Name)
					summary.TerminationArgument = funcutil.Some(expr.True)
					summary.Terminates = false
					summary.Precondition = expr.False
					return nil
				}
				candidate := res.Model.Cube(out)
				s.logger.Debugf("Candidate termination precondition for %s: %s", fn.Name, candidate)
				arg, err := s.rankingSearch(fn, expr.And(summary.Precondition, candidate))
				if err != nil {
					return err
				}
				if CheckTerminationArgument(arg) {
					summary.TerminationArgument = funcutil.Some(arg)
					break
				}
				bootstrap.Assert(expr.Not(candidate))
			}
			return s.terminationPrecondition(fn, summary, out)
		})
	})
}

// doTerminationPreconditionsOnly computes the precondition under which the calls of a loop-free fn terminate, from
// the preconditions of the callees asserted in its body
func (s *Summarizer) doTerminationPreconditionsOnly(fn *localssa.Function, summary *summaries.Summary) error {
	s.logger.Debugf("Computing termination precondition of the calls of %s", fn.Name)
	out := s.generator.Summary(fn, false).Vars(domain.Out)
	return s.withUnwinding(fn, func(u *unwind.Unwinder) error {
		return s.withTemporary(fn, summary.Invariant, func() error {
			return s.terminationPrecondition(fn, summary, out)
		})
	})
}

// terminationPrecondition strengthens the precondition of the summary with the sufficient precondition of the
// postconditions of fn, including the termination argument. Without variables to express a precondition, fn
// terminates under the precondition true if its exit is reachable with the postconditions, and the precondition is
// false otherwise. Must be called with the unwinder of fn pushed and
// the invariant at the exit of fn.
func (s *Summarizer) terminationPrecondition(fn *localssa.Function, summary *summaries.Summary,
	out []*expr.SymbolExpr) error {
	if len(out) == 0 {
		reachable, err := s.checkEndReachable(fn, summary)
		if err != nil {
			return err
		}
		summary.Terminates = reachable
		summary.Precondition = expr.Bool(reachable)
		return nil
	}

	cond := s.collectPostconditions(fn, *summary, false, true, true)
	res, err := s.analyze(cond, s.generator.Summary(fn, false))
	if err != nil {
		return fmt.Errorf("termination precondition: %w", err)
	}
	violations := unwind.Unrename(res.Get(domain.Out))
	if expr.IsTrue(summary.Precondition) {
		summary.Precondition = expr.Simplify(expr.Not(violations))
	} else {
		summary.Precondition = expr.And(summary.Precondition, expr.Not(violations))
	}
	s.logger.Debugf("Termination precondition for %s: %s", fn.Name, summary.Precondition)

	check, err := solver.Check(s.dp, summary.Precondition)
	if err != nil {
		return fmt.Errorf("checking termination precondition: %w", err)
	}
	summary.Terminates = check.Status == solver.Sat
	if !summary.Terminates {
		summary.Precondition = expr.False
	}
	return nil
}

// checkEndReachable returns true if the exit of fn is reachable under the invariant with the postconditions of fn
// holding. Must be called with the unwinder of fn pushed and the invariant at the exit of fn.
func (s *Summarizer) checkEndReachable(fn *localssa.Function, summary *summaries.Summary) (bool, error) {
	u := s.unwinders.Get(fn)
	inst := s.dp.New()
	solver.AssertFunction(inst, fn, u.Rename)
	inst.Assert(summary.Precondition, s.collectPostconditions(fn, *summary, false, false, true))
	res, err := inst.Solve()
	if err != nil {
		return false, fmt.Errorf("checking reachability of the exit of %s: %w", fn.Name, err)
	}
	return res.Status == solver.Sat, nil
}
