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

// Package cycles implements the front-end printing the call cycles of a program.
package cycles

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/cmd/summarize/tools"
	"github.com/awslabs/ar-go-summarizer/internal/formatutil"
	"github.com/awslabs/ar-go-summarizer/internal/graphutil"
)

// Usage is the usage of the cycles sub-command
const Usage = `Print the elementary cycles and the bottom-up order of the call graph of a program.

Usage:
  summarize cycles [options] program.yaml

With -from, only the cycles reachable from the given function are printed.
`

// Flags represents the flags of the cycles sub-command.
type Flags struct {
	tools.CommonFlags
	from string
}

// NewFlags returns parsed flags for cycles.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("cycles")
	from := flags.FlagSet.String("from", "", "only print the cycles reachable from this function")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command cycles with args %v: %v", args, err)
	}
	if flags.FlagSet.NArg() != 1 {
		return Flags{}, fmt.Errorf("expected one program file, got unexpected arguments: %v", flags.FlagSet.Args())
	}
	return Flags{CommonFlags: flags.Parsed(), from: *from}, nil
}

// Run prints the call cycles of the program of flags.
func Run(flags Flags) error {
	prog, err := localssa.LoadFile(flags.FlagSet.Arg(0))
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	if flags.from != "" {
		if _, ok := prog.Function(flags.from); !ok {
			return fmt.Errorf("function %s not found", flags.from)
		}
	}
	cg := graphutil.NewCallgraphIterator(prog)
	var cycles [][]string
	for _, cycle := range graphutil.CycleNames(cg, graphutil.FindAllElementaryCycles(cg)) {
		if flags.from == "" || cg.Reaches(flags.from, cycle[0]) {
			cycles = append(cycles, cycle)
		}
	}
	fmt.Printf("%s %d\n", formatutil.Bold("Call cycles:"), len(cycles))
	for _, cycle := range cycles {
		fmt.Printf("  %s\n", strings.Join(cycle, " -> "))
	}
	fmt.Println(formatutil.Bold("Bottom-up order:"))
	for i, scc := range graphutil.BottomUpOrder(prog) {
		if flags.Verbose || len(scc) > 1 {
			fmt.Printf("  %d: %s\n", i, strings.Join(scc, ", "))
		}
	}
	return nil
}
