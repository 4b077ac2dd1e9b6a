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

// Package summarizer computes the summaries of the functions of a program.
//
// The summary of a function is computed after the calls of its body have been replaced by the summaries of the
// callees, recursively. A summary is only used at a call site if its precondition holds there; otherwise the
// summary of the callee is recomputed, optionally in the calling context of the call site.
package summarizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-summarizer/analysis/config"
	"github.com/awslabs/ar-go-summarizer/analysis/domain"
	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/solver"
	"github.com/awslabs/ar-go-summarizer/analysis/summaries"
	"github.com/awslabs/ar-go-summarizer/analysis/unwind"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
	"github.com/awslabs/ar-go-summarizer/internal/graphutil"
)

var (
	// ErrUnknownFunction is returned when summarizing a function that is not in the program
	ErrUnknownFunction = errors.New("unknown function")
	// ErrMaxDepth is returned when the recursion of the summarizer exceeds the maximum call depth of the config
	ErrMaxDepth = errors.New("maximum call depth exceeded")
)

// Dependencies are the collaborators of the summarizer. The generator must use the same unwinders as the
// summarizer, so that its templates are renamed consistently with the queries of the summarizer.
type Dependencies struct {
	DecisionProcedure solver.DecisionProcedure
	Analyzer          domain.Analyzer
	Generator         domain.TemplateGenerator
	Unwinders         *unwind.Registry
}

// DefaultDependencies returns the gini decision procedure, the projection analyzer and the default template
// generator.
func DefaultDependencies(cfg *config.Config) Dependencies {
	reg := unwind.NewRegistry()
	dp := solver.NewGini()
	return Dependencies{
		DecisionProcedure: dp,
		Analyzer:          domain.NewProjectionAnalyzer(dp, cfg.MaxCubes),
		Generator:         domain.NewGenerator(reg),
		Unwinders:         reg,
	}
}

// NewStore returns an empty summary store with the join policy of the config
func NewStore(cfg *config.Config) *summaries.Store {
	if cfg.JoinPolicy == config.JoinPolicyLegacy {
		return summaries.NewStore(summaries.JoinLegacy)
	}
	return summaries.NewStore(summaries.JoinPrecise)
}

// Statistics are the monotone counters of a summarizer
type Statistics struct {
	// SolverInstances counts the decision procedure instances of the summarizer and the analyses
	SolverInstances int
	// SolverCalls counts the calls to the decision procedure of the summarizer and the analyses
	SolverCalls int
	// SummariesUsed counts the call sites replaced by a summary
	SummariesUsed int
	// Havocs counts the call sites havoc-ed
	Havocs int
	// RankingSearches counts the analyses of ranking templates
	RankingSearches int
}

// Summarizer holds the state of a summarization session
type Summarizer struct {
	program   *localssa.Program
	callgraph graphutil.CGraph
	store     *summaries.Store
	dp        *solver.Counting
	analyzer  domain.Analyzer
	generator domain.TemplateGenerator
	unwinders *unwind.Registry
	config    *config.Config
	logger    *config.LogGroup

	// preconditions are the calling contexts accumulated in the current pass, per function
	preconditions map[string]funcutil.Optional[expr.Expr]

	// calls is the information collected by the inlinings of each function. Inlining changes the body, so a
	// recomputation only sees the calls left by the previous inlinings.
	calls map[string]callInfo

	// inProgress counts the summaries being computed, per function
	inProgress map[string]int
	depth      int

	stats    Statistics
	analyses solver.Statistics
}

// New returns a summarizer for the functions of prog. Summaries are read from and written to store.
func New(prog *localssa.Program, store *summaries.Store, deps Dependencies, cfg *config.Config,
	logger *config.LogGroup) *Summarizer {
	if store == nil {
		store = NewStore(cfg)
	}
	if deps.Unwinders == nil {
		deps.Unwinders = unwind.NewRegistry()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	return &Summarizer{
		program:       prog,
		callgraph:     graphutil.NewCallgraphIterator(prog),
		store:         store,
		dp:            solver.NewCounting(deps.DecisionProcedure),
		analyzer:      deps.Analyzer,
		generator:     deps.Generator,
		unwinders:     deps.Unwinders,
		config:        cfg,
		logger:        logger,
		preconditions: map[string]funcutil.Optional[expr.Expr]{},
		calls:         map[string]callInfo{},
		inProgress:    map[string]int{},
	}
}

// Store returns the summary store of the summarizer
func (s *Summarizer) Store() *summaries.Store {
	return s.store
}

// Statistics returns a copy of the counters of the summarizer
func (s *Summarizer) Statistics() Statistics {
	st := s.stats
	own := s.dp.Statistics()
	st.SolverInstances = own.Instances + s.analyses.Instances
	st.SolverCalls = own.Calls + s.analyses.Calls
	return st
}

// Precondition returns the calling contexts of name accumulated in the current pass, true if none has been observed
func (s *Summarizer) Precondition(name string) expr.Expr {
	acc := s.preconditions[name]
	if acc == nil {
		return expr.True
	}
	return acc.ValueOr(expr.True)
}

func (s *Summarizer) resetPreconditions() {
	s.preconditions = map[string]funcutil.Optional[expr.Expr]{}
	for _, name := range s.program.Names() {
		s.preconditions[name] = funcutil.None[expr.Expr]()
	}
}

func (s *Summarizer) reportCycles() {
	cycles := graphutil.CycleNames(s.callgraph, graphutil.FindAllElementaryCycles(s.callgraph))
	for _, cycle := range cycles {
		if s.config.DetectCallCycles {
			s.logger.Debugf("Call cycle %s", strings.Join(cycle, " -> "))
		} else {
			s.logger.Warnf("Call cycle %s: recursion is only bounded by the maximum call depth",
				strings.Join(cycle, " -> "))
		}
	}
}

// SummarizeAll summarizes every function of the program that does not have a summary yet, without calling
// contexts. Callees are summarized before their callers where the call graph allows it.
func (s *Summarizer) SummarizeAll() error {
	s.resetPreconditions()
	s.reportCycles()
	for _, scc := range graphutil.BottomUpOrder(s.program) {
		for _, name := range scc {
			s.logger.Infof("Summarizing function %s", name)
			if s.store.Exists(name) {
				s.logger.Infof("Summary for function %s exists already", name)
				continue
			}
			if err := s.computeSummaryRec(name, false, s.config.Forward, s.config.Sufficient); err != nil {
				return err
			}
		}
	}
	return nil
}

// SummarizeFrom summarizes the function entry and the functions it calls in their calling contexts. Afterwards,
// the calling contexts accumulated for the functions called from entry are added to the constraints of their first
// node, so that the assertions of these functions can be checked under their calling contexts.
func (s *Summarizer) SummarizeFrom(entry string) error {
	if _, ok := s.program.Function(entry); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, entry)
	}
	s.resetPreconditions()
	s.reportCycles()
	s.logger.Infof("Summarizing function %s", entry)
	if s.store.Exists(entry) {
		s.logger.Infof("Summary for function %s exists already", entry)
	} else if err := s.computeSummaryRec(entry, true, s.config.Forward, s.config.Sufficient); err != nil {
		return err
	}

	for _, name := range s.callgraph.CallClosure(entry) {
		fn, _ := s.program.Function(name)
		acc := s.preconditions[name]
		if fn.IsEmpty() || acc == nil || acc.IsNone() {
			continue
		}
		fn.Nodes[0].Constraints = append(fn.Nodes[0].Constraints, acc.Value())
	}
	return nil
}

// callInfo is the information about the calls of a body collected while inlining
type callInfo struct {
	hasCalls       bool
	callsTerminate bool
}

func (s *Summarizer) computeSummaryRec(name string, contextSensitive bool, forward bool, sufficient bool) error {
	fn, ok := s.program.Function(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if s.config.ExceedsMaxDepth(s.depth + 1) {
		return fmt.Errorf("summarizing %s: %w", name, ErrMaxDepth)
	}
	s.depth++
	s.inProgress[name]++
	defer func() {
		s.depth--
		s.inProgress[name]--
	}()

	// recursively compute summaries for the calls
	info, err := s.inlineSummaries(fn, contextSensitive, forward, sufficient)
	if err != nil {
		return fmt.Errorf("inlining calls of %s: %w", name, err)
	}
	info = s.mergeCallInfo(name, info)

	s.logger.Infof("Analyzing function %s", name)
	if s.logger.Level() >= config.TraceLevel {
		s.logger.Tracef("Function body for %s to be analyzed:\n%s", name, fn)
	}

	hasLoops := s.config.Termination && fn.HasLoops()
	if s.config.Termination {
		s.logger.Debugf("function %s: has calls: %t, calls terminate: %t, has loops: %t",
			name, info.hasCalls, info.callsTerminate, hasLoops)
	}

	summary := summaries.New(fn.Params, fn.GlobalsIn, fn.GlobalsOut)
	if !s.config.Havoc {
		if err := s.doSummary(fn, &summary, forward, sufficient); err != nil {
			return fmt.Errorf("summarizing %s: %w", name, err)
		}
	}

	if s.config.Termination {
		if err := s.checkTermination(fn, &summary, info, hasLoops); err != nil {
			return fmt.Errorf("termination of %s: %w", name, err)
		}
	}

	s.logger.Infof("Summary for function %s\n%s", name, summary)
	return s.store.JoinAndPut(name, summary)
}

// mergeCallInfo merges info with the information of the previous inlinings of name: calls that were havoc-ed or
// replaced before are not in the body anymore.
func (s *Summarizer) mergeCallInfo(name string, info callInfo) callInfo {
	if prev, ok := s.calls[name]; ok {
		info.hasCalls = info.hasCalls || prev.hasCalls
		info.callsTerminate = info.callsTerminate && prev.callsTerminate
	}
	s.calls[name] = info
	return info
}

func (s *Summarizer) checkTermination(fn *localssa.Function, summary *summaries.Summary, info callInfo,
	hasLoops bool) error {
	switch {
	case !hasLoops && !(s.config.Preconditions && info.hasCalls) && info.callsTerminate:
		summary.Terminates = true
		return nil
	case !s.config.Preconditions:
		if !info.callsTerminate {
			summary.Precondition = expr.False
			summary.Terminates = false
			return nil
		}
		return s.doTermination(fn, summary)
	case hasLoops:
		return s.doTerminationWithPreconditions(fn, summary)
	default:
		return s.doTerminationPreconditionsOnly(fn, summary)
	}
}

// analyze runs the analyzer and counts its statistics
func (s *Summarizer) analyze(cond expr.Expr, tmpl *domain.Template) (domain.Result, error) {
	res, err := s.analyzer.Analyze(cond, tmpl)
	if err != nil {
		return nil, err
	}
	s.analyses.Instances++
	s.analyses.Calls += res.SolverCalls()
	return res, nil
}

func (s *Summarizer) doSummary(fn *localssa.Function, summary *summaries.Summary, forward bool,
	sufficient bool) error {
	s.logger.Debugf("Computing summary of %s", fn.Name)
	tmpl := s.generator.Summary(fn, forward)
	cond := s.collectPostconditions(fn, *summary, forward, sufficient, false)
	res, err := s.analyze(cond, tmpl)
	if err != nil {
		return err
	}

	if forward {
		summary.Precondition = s.Precondition(fn.Name)
	} else {
		summary.Precondition = res.Get(domain.Out)
		if sufficient {
			summary.Precondition = expr.Not(summary.Precondition)
		}
	}
	transformer := res.Get(domain.InOut)
	if s.store.Policy() == summaries.JoinPrecise {
		transformer = expr.Implies(summary.Precondition, transformer)
	}
	summary.Transformer = expr.Simplify(transformer)
	summary.Invariant = res.Get(domain.Loop)
	return nil
}

// collectPostconditions returns the condition the analyses start from. Forward, it is the calling context of the
// function. Backward, it is the conjunction of the assertions of the body and the reachability of the exit, with
// the termination argument if termination is set; it is negated if sufficient is set.
// The postconditions are renamed by the unwinder of the function.
func (s *Summarizer) collectPostconditions(fn *localssa.Function, summary summaries.Summary, forward bool,
	sufficient bool, termination bool) expr.Expr {
	if forward {
		return s.Precondition(fn.Name)
	}
	u := s.unwinders.Get(fn)
	var postconditions []expr.Expr
	for _, n := range fn.Nodes {
		for _, a := range n.Assertions {
			postconditions = append(postconditions, u.Rename(expr.Implies(n.Guard, a), n.Location))
		}
	}
	exit := exitLocation(fn)
	if termination && summary.TerminationArgument != nil && summary.TerminationArgument.IsSome() {
		postconditions = append(postconditions, u.Rename(summary.TerminationArgument.Value(), exit))
	}
	postconditions = append(postconditions, u.Rename(fn.ExitGuard(), exit))
	c := expr.Conjunction(postconditions)
	if sufficient {
		return expr.Not(c)
	}
	return c
}

func exitLocation(fn *localssa.Function) int {
	if fn.IsEmpty() {
		return 0
	}
	return fn.Nodes[len(fn.Nodes)-1].Location
}
