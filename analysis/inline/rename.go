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

package inline

import (
	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
)

// RenameToCaller renames e from the scope of the callee of call to the scope of the caller: the parameters are
// replaced by the arguments and the globals of the callee by the globals of the caller with the same variable.
// Other symbols are unchanged.
func RenameToCaller(call localssa.Call, params []*expr.SymbolExpr, csGlobals []*expr.SymbolExpr,
	globals []*expr.SymbolExpr, e expr.Expr) expr.Expr {
	m := map[string]expr.Expr{}
	for i, p := range params {
		if i < len(call.Args) {
			m[p.Name] = call.Args[i]
		}
	}
	for name, g := range matchGlobals(csGlobals, globals) {
		m[name] = g
	}
	return expr.Substitute(e, m)
}

// RenameToCallee renames e from the scope of the caller at call to the scope of the callee: the arguments that are
// symbols are replaced by the parameters and the globals of the caller by the globals of the callee with the same
// variable. Other symbols are unchanged.
func RenameToCallee(call localssa.Call, params []*expr.SymbolExpr, csGlobals []*expr.SymbolExpr,
	globals []*expr.SymbolExpr, e expr.Expr) expr.Expr {
	m := map[string]expr.Expr{}
	for i, arg := range call.Args {
		if s, ok := arg.(*expr.SymbolExpr); ok && i < len(params) {
			m[s.Name] = params[i]
		}
	}
	for name, g := range matchGlobals(globals, csGlobals) {
		m[name] = g
	}
	return expr.Substitute(e, m)
}

// matchGlobals maps the names of from to the symbols of to that are versions of the same variable
func matchGlobals(to []*expr.SymbolExpr, from []*expr.SymbolExpr) map[string]*expr.SymbolExpr {
	byBase := map[string]*expr.SymbolExpr{}
	for _, g := range to {
		byBase[localssa.BaseName(g.Name)] = g
	}
	res := map[string]*expr.SymbolExpr{}
	for _, g := range from {
		if t, ok := byBase[localssa.BaseName(g.Name)]; ok {
			res[g.Name] = t
		}
	}
	return res
}
