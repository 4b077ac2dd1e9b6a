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
	"fmt"
	"io"

	"github.com/awslabs/ar-go-summarizer/analysis/expr"
	"github.com/awslabs/ar-go-summarizer/internal/funcutil"
	"gopkg.in/yaml.v3"
)

type summaryYaml struct {
	Name                string   `yaml:"name"`
	Params              []string `yaml:"params,omitempty"`
	GlobalsIn           []string `yaml:"globals-in,omitempty"`
	GlobalsOut          []string `yaml:"globals-out,omitempty"`
	Precondition        string   `yaml:"precondition"`
	Transformer         string   `yaml:"transformer"`
	Invariant           string   `yaml:"invariant"`
	TerminationArgument string   `yaml:"termination-argument,omitempty"`
	Terminates          bool     `yaml:"terminates"`
}

type reportYaml struct {
	Summaries []summaryYaml `yaml:"summaries"`
}

func symbolNames(vars []*expr.SymbolExpr) []string {
	return funcutil.Map(vars, func(v *expr.SymbolExpr) string { return v.Name })
}

func symbols(names []string) []*expr.SymbolExpr {
	return funcutil.Map(names, expr.Sym)
}

// WriteYAML writes all the summaries of the store to w, in the order of the function names
func (s *Store) WriteYAML(w io.Writer) error {
	var report reportYaml
	for _, name := range s.Names() {
		summary := s.summaries[name]
		sy := summaryYaml{
			Name:                name,
			Params:              symbolNames(summary.Params),
			GlobalsIn:           symbolNames(summary.GlobalsIn),
			GlobalsOut:          symbolNames(summary.GlobalsOut),
			Precondition:        summary.Precondition.String(),
			Transformer:         summary.Transformer.String(),
			Invariant:           summary.Invariant.String(),
			TerminationArgument: funcutil.MapOption(summary.TerminationArgument, expr.Expr.String).ValueOr(""),
			Terminates:          summary.Terminates,
		}
		report.Summaries = append(report.Summaries, sy)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("could not write summaries: %w", err)
	}
	return enc.Close()
}

// ReadYAML reads summaries written by WriteYAML and puts them in the store, overwriting existing summaries
func (s *Store) ReadYAML(r io.Reader) error {
	var report reportYaml
	if err := yaml.NewDecoder(r).Decode(&report); err != nil {
		return fmt.Errorf("could not read summaries: %w", err)
	}
	for _, sy := range report.Summaries {
		summary := New(symbols(sy.Params), symbols(sy.GlobalsIn), symbols(sy.GlobalsOut))
		summary.Terminates = sy.Terminates
		fields := []struct {
			text string
			dst  *expr.Expr
		}{
			{sy.Precondition, &summary.Precondition},
			{sy.Transformer, &summary.Transformer},
			{sy.Invariant, &summary.Invariant},
		}
		for _, f := range fields {
			if f.text == "" {
				continue
			}
			e, err := expr.Parse(f.text)
			if err != nil {
				return fmt.Errorf("summary of %s: %w", sy.Name, err)
			}
			*f.dst = e
		}
		if sy.TerminationArgument != "" {
			e, err := expr.Parse(sy.TerminationArgument)
			if err != nil {
				return fmt.Errorf("summary of %s: %w", sy.Name, err)
			}
			summary.TerminationArgument = funcutil.Some(e)
		}
		s.Put(sy.Name, summary)
	}
	return nil
}
