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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-summarizer/cmd/summarize/cycles"
	"github.com/awslabs/ar-go-summarizer/cmd/summarize/run"
	"github.com/awslabs/ar-go-summarizer/cmd/summarize/tools"
	"github.com/awslabs/ar-go-summarizer/internal/formatutil"
)

const version = "v0.1.0"

const usage = `Summarize: interprocedural summaries of programs in guarded SSA form
Usage:
  summarize [tool] [options] <program.yaml>
Tools:
  - run: computes the summaries of the functions of the program, with termination if requested
  - cycles: prints the call cycles and the bottom-up order of the call graph
Examples:
  Summarize all functions: summarize run -config config.yaml program.yaml
  Summarize from main: summarize run -config config.yaml -entry main program.yaml`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "run":
		flags, err := run.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := run.Run(flags); err != nil {
			errExit(err)
		}
	case "cycles":
		flags, err := cycles.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := cycles.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", formatutil.Red("error:"), err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
