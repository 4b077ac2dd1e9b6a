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
	"errors"
	"fmt"
	"sort"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
	"golang.org/x/exp/maps"
)

var (
	// ErrNoSummary is returned when getting the summary of a function that has none
	ErrNoSummary = errors.New("no summary")
	// ErrStructuralMismatch is returned when joining summaries of functions with different interfaces
	ErrStructuralMismatch = errors.New("summaries have different parameters or globals")
)

// JoinPolicy selects how the transformers and invariants of two summaries are joined
type JoinPolicy int

const (
	// JoinPrecise conjoins the old result with the new one, restricted to the new precondition
	JoinPrecise JoinPolicy = iota
	// JoinLegacy disjoins the results
	JoinLegacy
)

// Store maps function names to their summary. The join policy is fixed when the store is created.
type Store struct {
	policy    JoinPolicy
	summaries map[string]Summary
}

// NewStore returns an empty store
func NewStore(policy JoinPolicy) *Store {
	return &Store{policy: policy, summaries: map[string]Summary{}}
}

// Policy returns the join policy of the store
func (s *Store) Policy() JoinPolicy {
	return s.policy
}

// Exists returns true if the function name has a summary
func (s *Store) Exists(name string) bool {
	_, ok := s.summaries[name]
	return ok
}

// Get returns the summary of the function name, or an error wrapping ErrNoSummary
func (s *Store) Get(name string) (Summary, error) {
	summary, ok := s.summaries[name]
	if !ok {
		return Summary{}, fmt.Errorf("function %s: %w", name, ErrNoSummary)
	}
	return summary, nil
}

// Put sets the summary of the function name, overwriting any existing summary
func (s *Store) Put(name string, summary Summary) {
	s.summaries[name] = summary
}

// Names returns the names of the functions that have a summary, sorted
func (s *Store) Names() []string {
	names := maps.Keys(s.summaries)
	sort.Strings(names)
	return names
}

// Len returns the number of summaries in the store
func (s *Store) Len() int {
	return len(s.summaries)
}

// Join returns the join of the summaries old and new of the same function. The precondition of the join is the
// disjunction of the preconditions: the join never narrows the precondition. The other fields of the join are the
// fields of new.
func (s *Store) Join(old, new Summary) (Summary, error) {
	if !old.SameInterface(new) {
		return Summary{}, ErrStructuralMismatch
	}
	joined := new
	joined.Precondition = expr.Or(old.Precondition, new.Precondition)
	switch s.policy {
	case JoinLegacy:
		joined.Transformer = expr.Or(old.Transformer, new.Transformer)
		joined.Invariant = expr.Or(old.Invariant, new.Invariant)
	default:
		joined.Transformer = expr.And(old.Transformer, expr.Implies(new.Precondition, new.Transformer))
		joined.Invariant = expr.And(old.Invariant, expr.Implies(new.Precondition, new.Invariant))
	}
	if joined.TerminationArgument == nil {
		joined.TerminationArgument = funcutil.None[expr.Expr]()
	}
	return joined, nil
}

// JoinAndPut joins summary with the existing summary of name, if any, and stores the result
func (s *Store) JoinAndPut(name string, summary Summary) error {
	if old, ok := s.summaries[name]; ok {
		joined, err := s.Join(old, summary)
		if err != nil {
			return fmt.Errorf("joining summaries of %s: %w", name, err)
		}
		summary = joined
	}
	s.Put(name, summary)
	return nil
}
