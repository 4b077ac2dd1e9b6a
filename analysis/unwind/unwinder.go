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

// Package unwind gives a depth-indexed identity to the SSA names of a function, so that the same body can be
// queried at different unwinding depths without being copied.
//
// The names defined inside k nested loops get k unwinding counters: x#3 becomes x#3%c1%...%ck. The counters of the
// outer levels are read from the odometer, the counter of the innermost levels is the current depth. A depth of -1
// means the function is not being unwound and names are not renamed.
package unwind

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/internal/graphutil"
)

// ErrUnbalanced is returned when the unwinding is popped more often than it is pushed
var ErrUnbalanced = errors.New("unbalanced unwinding pop")

// LoopLevel is the position of a location in the loop hierarchy
type LoopLevel struct {
	// Level is the number of loops enclosing the location
	Level int
	// Loop is the index of the innermost loop enclosing the location, or -1
	Loop int
}

type state struct {
	odometer     []int
	currentDepth int
}

// Unwinder holds the unwinding state of one function.
type Unwinder struct {
	fn *localssa.Function

	// hierarchy maps the locations of the body to their loop level. It is computed once, when the unwinder is built.
	hierarchy map[int]LoopLevel

	// globals are the names that are never renamed
	globals map[string]bool

	odometer     []int
	currentDepth int

	// saved is the stack of states saved by PushUnwinding
	saved []state
}

// New returns the unwinder of fn. The loop hierarchy is computed in a single preorder walk of the body.
func New(fn *localssa.Function) *Unwinder {
	u := &Unwinder{
		fn:           fn,
		hierarchy:    map[int]LoopLevel{},
		globals:      map[string]bool{},
		currentDepth: -1,
	}
	for _, vars := range [][]*expr.SymbolExpr{fn.Params, fn.GlobalsIn, fn.GlobalsOut} {
		for _, v := range vars {
			u.globals[v.Name] = true
		}
	}

	// loops are entered outermost first: by head, then by decreasing end
	loops := make([]int, len(fn.Loops))
	for i := range loops {
		loops[i] = i
	}
	sort.SliceStable(loops, func(i, j int) bool {
		li, lj := fn.Loops[loops[i]], fn.Loops[loops[j]]
		if li.Head != lj.Head {
			return li.Head < lj.Head
		}
		return li.End > lj.End
	})

	// the tree of loops, labelled by loop index, rooted at the function body (-1)
	cur := graphutil.NewTree(-1)
	next := 0
	for _, n := range fn.Nodes {
		for cur.Label >= 0 && n.Location > fn.Loops[cur.Label].End {
			cur = cur.Parent
		}
		for next < len(loops) && fn.Loops[loops[next]].Head <= n.Location {
			if fn.Loops[loops[next]].End >= n.Location {
				cur = cur.AddChild(loops[next])
			}
			next++
		}
		if _, seen := u.hierarchy[n.Location]; !seen {
			u.hierarchy[n.Location] = LoopLevel{Level: cur.Depth(), Loop: cur.Label}
		}
		for _, g := range append(append([]*expr.SymbolExpr{}, n.GlobalsIn...), n.GlobalsOut...) {
			u.globals[g.Name] = true
		}
	}
	return u
}

// Function returns the function of the unwinder
func (u *Unwinder) Function() *localssa.Function {
	return u.fn
}

// Level returns the loop level of a location. Locations that are not in the body are resolved against the loop
// bounds.
func (u *Unwinder) Level(loc int) LoopLevel {
	if l, ok := u.hierarchy[loc]; ok {
		return l
	}
	res := LoopLevel{Loop: -1}
	for i, l := range u.fn.Loops {
		if l.Contains(loc) {
			res.Level++
			if res.Loop < 0 || u.fn.Loops[res.Loop].Contains(l.Head) {
				res.Loop = i
			}
		}
	}
	return res
}

// CurrentDepth returns the current unwinding depth, -1 if the function is not being unwound
func (u *Unwinder) CurrentDepth() int {
	return u.currentDepth
}

// Odometer returns a copy of the odometer
func (u *Unwinder) Odometer() []int {
	return append([]int(nil), u.odometer...)
}

// Pushed returns the number of pushes not yet popped
func (u *Unwinder) Pushed() int {
	return len(u.saved)
}

// PushUnwinding saves the unwinding state and starts unwinding one level deeper, at depth 0. Every call must be
// paired with a call to PopUnwinding.
func (u *Unwinder) PushUnwinding() {
	u.saved = append(u.saved, state{odometer: u.Odometer(), currentDepth: u.currentDepth})
	if u.currentDepth >= 0 {
		u.odometer = append(u.odometer, u.currentDepth)
	}
	u.currentDepth = 0
}

// PopUnwinding restores the state saved by the matching PushUnwinding
func (u *Unwinder) PopUnwinding() error {
	if len(u.saved) == 0 {
		return fmt.Errorf("function %s: %w", u.fn.Name, ErrUnbalanced)
	}
	s := u.saved[len(u.saved)-1]
	u.saved = u.saved[:len(u.saved)-1]
	u.odometer = s.odometer
	u.currentDepth = s.currentDepth
	return nil
}

// counter returns the unwinding counter of level i
func (u *Unwinder) counter(i int) int {
	if i < len(u.odometer) {
		return u.odometer[i]
	}
	return u.currentDepth
}

// Rename renames the symbols of e used at location loc to their identity at the current unwinding. A symbol is
// renamed according to the loop level of the location where it is defined; symbols that carry no location are
// defined at loc unless they are global to the function.
func (u *Unwinder) Rename(e expr.Expr, loc int) expr.Expr {
	if u.currentDepth < 0 {
		return e
	}
	return expr.Rename(e, func(s *expr.SymbolExpr) expr.Expr {
		if u.globals[s.Name] {
			return s
		}
		n, ok := localssa.ParseName(s.Name)
		if ok && len(n.Unwinding) > 0 {
			return s
		}
		def := loc
		if ok {
			def = n.Location
		}
		level := u.Level(def).Level
		if level == 0 {
			return s
		}
		suffix := make([]int, level)
		for i := range suffix {
			suffix[i] = u.counter(i)
		}
		if ok {
			n.Unwinding = suffix
			return expr.Sym(n.String())
		}
		name := s.Name
		for _, c := range suffix {
			name += fmt.Sprintf("%%%d", c)
		}
		return expr.Sym(name)
	})
}

// RenameFunction returns the formula of the body of the function renamed at the current unwinding
func (u *Unwinder) RenameFunction() []expr.Expr {
	return u.fn.Formula(u.Rename)
}

// Unrename removes the unwinding counters of the symbols of e
func Unrename(e expr.Expr) expr.Expr {
	return expr.Rename(e, func(s *expr.SymbolExpr) expr.Expr {
		if base := stripCounters(s.Name); base != s.Name {
			return expr.Sym(base)
		}
		return s
	})
}

// stripCounters removes the trailing %c1%c2... of a name
func stripCounters(name string) string {
	end := len(name)
	for {
		i := strings.LastIndexByte(name[:end], '%')
		if i < 0 || i == end-1 {
			return name[:end]
		}
		if _, err := strconv.Atoi(name[i+1 : end]); err != nil {
			return name[:end]
		}
		end = i
	}
}

// Registry holds the unwinders of the functions of a program, created on demand
type Registry struct {
	unwinders map[string]*Unwinder
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{unwinders: map[string]*Unwinder{}}
}

// Get returns the unwinder of fn, creating it the first time
func (r *Registry) Get(fn *localssa.Function) *Unwinder {
	u, ok := r.unwinders[fn.Name]
	if !ok || u.fn != fn {
		u = New(fn)
		r.unwinders[fn.Name] = u
	}
	return u
}
