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

package localssa

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// The yaml representation of a program. Expressions are written in the syntax of expr.Parse.
//
//	functions:
//	  - name: f
//	    params: [a#0]
//	    globals-in: [g#0]
//	    globals-out: [g#5]
//	    loops:
//	      - head: 2
//	        end: 4
//	        guard: cont#4
//	        vars: [{pre: x#phi2, post: x#lb2}]
//	    nodes:
//	      - location: 0
//	        guard: guard#0
//	        constraints: ["guard#0"]
//	      - location: 1
//	        guard: guard#1
//	        constraints: ["(guard#1 <=> guard#0)"]
//	        calls: [{callee: h, args: ["a#0"]}]
//	        globals-in: [g#0]
//	        globals-out: [g#1]
//	        assertions: ["a#0"]
type programYaml struct {
	Functions []functionYaml `yaml:"functions"`
}

type functionYaml struct {
	Name       string     `yaml:"name"`
	Params     []string   `yaml:"params"`
	GlobalsIn  []string   `yaml:"globals-in"`
	GlobalsOut []string   `yaml:"globals-out"`
	Loops      []loopYaml `yaml:"loops"`
	Nodes      []nodeYaml `yaml:"nodes"`
}

type loopYaml struct {
	Head  int    `yaml:"head"`
	End   int    `yaml:"end"`
	Guard string `yaml:"guard"`
	Vars  []struct {
		Pre  string `yaml:"pre"`
		Post string `yaml:"post"`
	} `yaml:"vars"`
}

type nodeYaml struct {
	Location    int        `yaml:"location"`
	Guard       string     `yaml:"guard"`
	Constraints []string   `yaml:"constraints"`
	Assertions  []string   `yaml:"assertions"`
	Calls       []callYaml `yaml:"calls"`
	GlobalsIn   []string   `yaml:"globals-in"`
	GlobalsOut  []string   `yaml:"globals-out"`
}

type callYaml struct {
	Callee string   `yaml:"callee"`
	Args   []string `yaml:"args"`
}

// LoadFile loads the program in the yaml file filename
func LoadFile(filename string) (*Program, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program file: %w", err)
	}
	return Load(b)
}

// Load loads a program from its yaml representation
func Load(b []byte) (*Program, error) {
	var py programYaml
	if err := yaml.Unmarshal(b, &py); err != nil {
		return nil, fmt.Errorf("could not unmarshal program: %w", err)
	}
	prog := NewProgram()
	for _, fy := range py.Functions {
		if _, exists := prog.Functions[fy.Name]; exists {
			return nil, fmt.Errorf("function %s is defined twice", fy.Name)
		}
		f, err := fy.build()
		if err != nil {
			return nil, fmt.Errorf("in function %s: %w", fy.Name, err)
		}
		prog.Functions[f.Name] = f
	}
	return prog, nil
}

func symbols(names []string) []*expr.SymbolExpr {
	return funcutil.Map(names, expr.Sym)
}

func parseAll(exprs []string) ([]expr.Expr, error) {
	var res []expr.Expr
	for _, s := range exprs {
		e, err := expr.Parse(s)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

func (fy functionYaml) build() (*Function, error) {
	if fy.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	f := &Function{
		Name:       fy.Name,
		Params:     symbols(fy.Params),
		GlobalsIn:  symbols(fy.GlobalsIn),
		GlobalsOut: symbols(fy.GlobalsOut),
	}
	prev := -1
	for _, ny := range fy.Nodes {
		if ny.Location < prev {
			return nil, fmt.Errorf("node locations must be increasing, %d after %d", ny.Location, prev)
		}
		prev = ny.Location
		if ny.Guard == "" {
			return nil, fmt.Errorf("node at %d has no guard", ny.Location)
		}
		n := &Node{
			Location:   ny.Location,
			Guard:      expr.Sym(ny.Guard),
			GlobalsIn:  symbols(ny.GlobalsIn),
			GlobalsOut: symbols(ny.GlobalsOut),
			LoopHead:   funcutil.None[int](),
			Kind:       Original,
		}
		var err error
		if n.Constraints, err = parseAll(ny.Constraints); err != nil {
			return nil, fmt.Errorf("constraint at %d: %w", ny.Location, err)
		}
		if n.Assertions, err = parseAll(ny.Assertions); err != nil {
			return nil, fmt.Errorf("assertion at %d: %w", ny.Location, err)
		}
		for _, cy := range ny.Calls {
			args, err := parseAll(cy.Args)
			if err != nil {
				return nil, fmt.Errorf("argument of call to %s at %d: %w", cy.Callee, ny.Location, err)
			}
			n.Calls = append(n.Calls, Call{Callee: cy.Callee, Args: args})
		}
		f.Nodes = append(f.Nodes, n)
	}
	for _, ly := range fy.Loops {
		if ly.Head > ly.End {
			return nil, fmt.Errorf("loop head %d after loop end %d", ly.Head, ly.End)
		}
		l := &Loop{Head: ly.Head, End: ly.End, Guard: expr.Sym(ly.Guard)}
		for _, v := range ly.Vars {
			l.Vars = append(l.Vars, LoopVar{Pre: expr.Sym(v.Pre), Post: expr.Sym(v.Post)})
		}
		// the back edge is carried by the last node at the end location
		end := -1
		for i, n := range f.Nodes {
			if n.Location == ly.End {
				end = i
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("no node at the end location %d of loop %d", ly.End, ly.Head)
		}
		f.Nodes[end].LoopHead = funcutil.Some(ly.Head)
		f.Loops = append(f.Loops, l)
	}
	return f, nil
}
