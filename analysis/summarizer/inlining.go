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
	"github.com/awslabs/ar-go-summarizer/analysis/inline"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/solver"
	"github.com/awslabs/ar-go-summarizer/analysis/summaries"
	"github.com/awslabs/ar-go-summarizer/analysis/unwind"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
)

// outcome is the outcome of checking the precondition of a call site
type outcome int

const (
	// recompute: the summary of the callee must be (re)computed
	recompute outcome = iota
	replaced
	havocked
)

// inlineSummaries replaces the calls of fn by the summaries of their callees, computing the summaries that are
// missing or whose precondition does not hold at the call site. Inlining stops at the first call that is not known
// to terminate.
func (s *Summarizer) inlineSummaries(fn *localssa.Function, contextSensitive bool, forward bool,
	sufficient bool) (callInfo, error) {
	info := callInfo{callsTerminate: true}
	in := inline.New()

	for ni := 0; ni < len(fn.Nodes); ni++ {
		ci := 0
		for ci < len(fn.Nodes[ni].Calls) {
			info.hasCalls = true
			callee := fn.Nodes[ni].Calls[ci].Callee

			if s.config.CheckCallReachability {
				reachable, err := s.checkCallReachable(fn, ni)
				if err != nil {
					return info, err
				}
				if !reachable {
					s.logger.Debugf("Call to %s at location %d is unreachable", callee, fn.Nodes[ni].Location)
					ci++
					continue
				}
			}

			res, last, err := s.checkPrecondition(fn, in, ni, ci, sufficient)
			if err != nil {
				return info, err
			}
			if res == recompute {
				if contextSensitive {
					if err := s.computeCallingContext(fn, ni, ci, forward); err != nil {
						return info, err
					}
				}
				s.logger.Infof("Recursively summarizing function %s", callee)
				if err := s.computeSummaryRec(callee, contextSensitive, forward, sufficient); err != nil {
					return info, err
				}
				summary, err := s.store.Get(callee)
				if err != nil {
					return info, err
				}
				s.logger.Infof("Replacing function %s", callee)
				last, err = s.replace(fn, in, ni, ci, summary, sufficient)
				if err != nil {
					return info, err
				}
			}
			// the remaining calls of the node are in the last fragment
			ni = last

			if !s.config.Termination {
				info.callsTerminate = false
				continue
			}
			terminates := s.config.UnsafeAssumeUnknownTerminates
			if res != havocked {
				summary, err := s.store.Get(callee)
				if err != nil {
					return info, err
				}
				terminates = summary.Terminates
			}
			if !terminates {
				s.logger.Debugf("Call to %s in %s may not terminate", callee, fn.Name)
				info.callsTerminate = false
				return info, nil
			}
		}
	}
	return info, nil
}

func (s *Summarizer) replace(fn *localssa.Function, in *inline.Inliner, ni int, ci int, summary summaries.Summary,
	sufficient bool) (int, error) {
	n := fn.Nodes[ni]
	if err := in.Replace(fn, ni, ci, n.GlobalsIn, n.GlobalsOut, summary, sufficient); err != nil {
		return ni, err
	}
	s.stats.SummariesUsed++
	return s.commit(fn, in, ni)
}

func (s *Summarizer) havoc(fn *localssa.Function, in *inline.Inliner, ni int, ci int) (outcome, int, error) {
	if err := in.Havoc(fn, ni, ci); err != nil {
		return havocked, ni, err
	}
	s.stats.Havocs++
	last, err := s.commit(fn, in, ni)
	return havocked, last, err
}

func (s *Summarizer) commit(fn *localssa.Function, in *inline.Inliner, ni int) (int, error) {
	if err := in.CommitNode(fn, ni); err != nil {
		return ni, err
	}
	return in.CommitNodes(fn, ni)
}

// checkCallReachable returns true if the node ni of fn is reachable
func (s *Summarizer) checkCallReachable(fn *localssa.Function, ni int) (bool, error) {
	u := s.unwinders.Get(fn)
	n := fn.Nodes[ni]
	inst := s.dp.New()
	solver.AssertFunction(inst, fn, u.Rename)
	inst.Assert(u.Rename(n.Guard, n.Location))
	res, err := inst.Solve()
	if err != nil {
		return false, fmt.Errorf("checking reachability of location %d of %s: %w", n.Location, fn.Name, err)
	}
	return res.Status == solver.Sat, nil
}

// checkPrecondition decides how the call ci of the node ni of fn is handled. The call is replaced by the summary of
// its callee if the precondition of the summary holds at the call site, and havoc-ed if the callee cannot be
// summarized. Otherwise, the summary must be computed. Returns the index of the node holding the remaining calls.
func (s *Summarizer) checkPrecondition(fn *localssa.Function, in *inline.Inliner, ni int, ci int,
	sufficient bool) (outcome, int, error) {
	n := fn.Nodes[ni]
	call := n.Calls[ci]
	s.logger.Debugf("Checking precondition of %s", call.Callee)

	if s.store.Exists(call.Callee) {
		summary, err := s.store.Get(call.Callee)
		if err != nil {
			return recompute, ni, err
		}
		if expr.IsTrue(summary.Precondition) {
			s.logger.Debugf("Precondition trivially holds, replacing by summary.")
			last, err := s.replace(fn, in, ni, ci, summary, sufficient)
			return replaced, last, err
		}

		// the precondition is violated at the call site if its negation is satisfiable with the body
		pending := expr.Not(inline.RenameToCaller(call, summary.Params, n.GlobalsIn, summary.GlobalsIn,
			summary.Precondition))
		s.logger.Debugf("Precondition assertion for function %s: %s", call.Callee, pending)
		n.Assertions = append(n.Assertions, pending)
		u := s.unwinders.Get(fn)
		inst := s.dp.New()
		solver.AssertFunction(inst, fn, u.Rename)
		inst.Assert(u.Rename(n.Guard, n.Location), u.Rename(pending, n.Location))
		res, err := inst.Solve()
		n.Assertions = n.Assertions[:len(n.Assertions)-1]
		if err != nil {
			return recompute, ni, fmt.Errorf("checking precondition of %s in %s: %w", call.Callee, fn.Name, err)
		}
		if res.Status == solver.Sat {
			s.logger.Debugf("Precondition does not hold, need to recompute summary.")
			s.logger.Tracef("Counterexample: %s", res.Model)
			return recompute, ni, nil
		}
		s.logger.Debugf("Precondition holds, replacing by summary.")
		last, err := s.replace(fn, in, ni, ci, summary, sufficient)
		return replaced, last, err
	}

	if _, ok := s.program.Function(call.Callee); !ok {
		s.logger.Infof("Function %s not found", call.Callee)
		return s.havoc(fn, in, ni, ci)
	}
	if call.Callee == fn.Name {
		s.logger.Infof("Havoc recursive function call to %s", call.Callee)
		return s.havoc(fn, in, ni, ci)
	}
	if s.config.DetectCallCycles && s.inProgress[call.Callee] > 0 {
		s.logger.Warnf("Havoc call to %s in %s: %s is being summarized", call.Callee, fn.Name, call.Callee)
		return s.havoc(fn, in, ni, ci)
	}
	s.logger.Debugf("Function %s not analyzed yet", call.Callee)
	return recompute, ni, nil
}

// computeCallingContext computes the calling context of the call ci of the node ni of fn, renames it to the scope
// of the callee and accumulates it into the precondition of the callee
func (s *Summarizer) computeCallingContext(fn *localssa.Function, ni int, ci int, forward bool) error {
	n := fn.Nodes[ni]
	call := n.Calls[ci]
	callee, ok := s.program.Function(call.Callee)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, call.Callee)
	}
	s.logger.Debugf("Computing calling context for call to %s", call.Callee)

	tmpl := s.generator.CallingContext(fn, ni, ci, callee, forward)
	res, err := s.analyze(s.Precondition(fn.Name), tmpl)
	if err != nil {
		return fmt.Errorf("calling context of %s in %s: %w", call.Callee, fn.Name, err)
	}

	// the globals of the call site are read before the call going forward, written by the call going backward
	csGlobals := n.GlobalsIn
	if !forward {
		csGlobals = n.GlobalsOut
	}
	cc := inline.RenameToCallee(call, callee.Params, csGlobals, callee.GlobalsIn,
		unwind.Unrename(res.Get(domain.CallingContext)))
	s.logger.Debugf("Calling context for call to %s: %s", call.Callee, cc)

	s.preconditions[call.Callee] = funcutil.Accumulate(s.precondition(call.Callee), cc,
		func(a, b expr.Expr) expr.Expr { return expr.Or(a, b) })
	return nil
}

func (s *Summarizer) precondition(name string) funcutil.Optional[expr.Expr] {
	if acc, ok := s.preconditions[name]; ok && acc != nil {
		return acc
	}
	return funcutil.None[expr.Expr]()
}
