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
	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/unwind"
)

// Generator is the default template generator. Templates are renamed by the unwinders of the registry, so that a
// template generated while a function is being unwound refers to the names of the current unwinding.
type Generator struct {
	unwinders *unwind.Registry
}

// NewGenerator returns a generator using the unwinders of reg. If reg is nil, templates are never renamed.
func NewGenerator(reg *unwind.Registry) *Generator {
	return &Generator{unwinders: reg}
}

func (g *Generator) template(fn *localssa.Function, forward bool) *Template {
	var u *unwind.Unwinder
	if g.unwinders != nil {
		u = g.unwinders.Get(fn)
	}
	return NewTemplate(fn, u, forward)
}

// Summary implements TemplateGenerator
func (g *Generator) Summary(fn *localssa.Function, forward bool) *Template {
	t := g.template(fn, forward)
	t.Add(InOut, fn.Params...)
	t.Add(InOut, fn.GlobalsIn...)
	t.Add(InOut, fn.GlobalsOut...)
	t.Add(Out, fn.Params...)
	t.Add(Out, fn.GlobalsIn...)
	for _, l := range fn.Loops {
		for _, v := range l.Vars {
			t.Add(Loop, t.renameVar(v.Pre, l.Head))
		}
	}
	return t
}

// CallingContext implements TemplateGenerator
func (g *Generator) CallingContext(caller *localssa.Function, nodeIdx int, callIdx int, callee *localssa.Function,
	forward bool) *Template {
	t := g.template(caller, forward)
	n := caller.Nodes[nodeIdx]
	call := n.Calls[callIdx]
	for i, arg := range call.Args {
		if s, ok := arg.(*expr.SymbolExpr); ok && i < len(callee.Params) {
			t.Add(CallingContext, t.renameVar(s, n.Location))
		}
	}
	// the globals of the caller at the call site that the callee reads
	globals := n.GlobalsIn
	if !forward {
		globals = n.GlobalsOut
	}
	calleeGlobals := map[string]bool{}
	for _, cg := range callee.GlobalsIn {
		calleeGlobals[localssa.BaseName(cg.Name)] = true
	}
	for _, cs := range globals {
		if calleeGlobals[localssa.BaseName(cs.Name)] {
			t.Add(CallingContext, cs)
		}
	}
	return t
}

// Ranking implements TemplateGenerator. The variables of the ranking partition are the loop variables, paired
// by the analyzer with their value on the back edge.
func (g *Generator) Ranking(fn *localssa.Function) *Template {
	t := g.template(fn, true)
	for _, l := range fn.Loops {
		for _, v := range l.Vars {
			t.Add(Ranking, t.renameVar(v.Pre, l.Head))
		}
	}
	return t
}

func (t *Template) renameVar(v *expr.SymbolExpr, loc int) *expr.SymbolExpr {
	if s, ok := t.Rename(v, loc).(*expr.SymbolExpr); ok {
		return s
	}
	return v
}
