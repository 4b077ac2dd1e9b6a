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

// Package run implements the front-end of the summarizer.
package run

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/awslabs/ar-go-summarizer/analysis/config"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
	"github.com/awslabs/ar-go-summarizer/analysis/summarizer"
	"github.com/awslabs/ar-go-summarizer/analysis/summaries"
	"github.com/awslabs/ar-go-summarizer/cmd/summarize/tools"
	"github.com/awslabs/ar-go-summarizer/internal/formatutil"
)

// Usage is the usage of the run sub-command
const Usage = `Summarize the functions of a program in guarded SSA form.

Usage:
  summarize run [options] program.yaml

Without entrypoints, every function is summarized without calling contexts. With entrypoints (in the config or
with -entry), the functions reachable from each entrypoint are summarized in their calling contexts.

Examples:
% summarize run -config config.yaml program.yaml
% summarize run -entry main -summaries previous.yaml program.yaml
`

// Flags represents the flags of the run sub-command.
type Flags struct {
	tools.CommonFlags
	entrypoints   []string
	summariesPath string
	outputPath    string
}

type entrypoints []string

func (e *entrypoints) String() string {
	if e == nil {
		return ""
	}
	return strings.Join(*e, ",")
}

func (e *entrypoints) Set(value string) error {
	*e = append(*e, value)
	return nil
}

// NewFlags returns parsed flags for run.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("run")
	var entries entrypoints
	flags.FlagSet.Var(&entries, "entry", "function to summarize in its calling contexts (repeatable)")
	summariesPath := flags.FlagSet.String("summaries", "", "yaml file of summaries computed by a previous run")
	outputPath := flags.FlagSet.String("o", "", "file to write the summaries to, instead of the standard output")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command run with args %v: %v", args, err)
	}
	if flags.FlagSet.NArg() != 1 {
		return Flags{}, fmt.Errorf("expected one program file, got unexpected arguments: %v", flags.FlagSet.Args())
	}
	return Flags{
		CommonFlags:   flags.Parsed(),
		entrypoints:   entries,
		summariesPath: *summariesPath,
		outputPath:    *outputPath,
	}, nil
}

// Run summarizes the program of flags and writes the summaries.
func Run(flags Flags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	logger := config.NewLogGroup(cfg)

	logger.Infof("%s", formatutil.Faint("Reading program"))
	prog, err := localssa.LoadFile(flags.FlagSet.Arg(0))
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}

	store := summarizer.NewStore(cfg)
	if flags.summariesPath != "" {
		if err := readSummaries(store, flags.summariesPath); err != nil {
			return err
		}
		logger.Infof("Loaded %d summaries from %s", store.Len(), flags.summariesPath)
	}

	s := summarizer.New(prog, store, summarizer.DefaultDependencies(cfg), cfg, logger)
	entries := flags.entrypoints
	if len(entries) == 0 {
		entries = cfg.Entrypoints
	}
	logger.Infof("%s", formatutil.Faint("Summarizing"))
	if len(entries) == 0 {
		err = s.SummarizeAll()
	} else {
		for _, entry := range entries {
			if err = s.SummarizeFrom(entry); err != nil {
				break
			}
		}
	}
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	reportStatistics(logger, s.Statistics())
	reportTermination(logger, store)
	return writeSummaries(cfg, logger, store, flags.outputPath)
}

func readSummaries(store *summaries.Store, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open summaries: %w", err)
	}
	defer f.Close()
	return store.ReadYAML(f)
}

func reportStatistics(logger *config.LogGroup, st summarizer.Statistics) {
	logger.Infof("Summaries used: %d, havoc-ed calls: %d, ranking searches: %d",
		st.SummariesUsed, st.Havocs, st.RankingSearches)
	logger.Infof("Solver instances: %d, solver calls: %d", st.SolverInstances, st.SolverCalls)
}

func reportTermination(logger *config.LogGroup, store *summaries.Store) {
	for _, name := range store.Names() {
		summary, _ := store.Get(name)
		if summary.Terminates {
			logger.Infof("%s %s", formatutil.Termination(true), name)
		} else {
			logger.Warnf("%s %s", formatutil.Termination(false), name)
		}
	}
}

// writeSummaries writes the summaries to the output file if any, to the standard output otherwise. If the config
// asks for reports, the summaries are also written in the reports directory.
func writeSummaries(cfg *config.Config, logger *config.LogGroup, store *summaries.Store, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("could not create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := store.WriteYAML(w); err != nil {
		return err
	}
	if !cfg.ReportSummaries {
		return nil
	}
	f, err := os.CreateTemp(cfg.ReportsDir, "summaries-*.yaml")
	if err != nil {
		return fmt.Errorf("could not create report file: %w", err)
	}
	defer f.Close()
	logger.Infof("Writing summaries report in %s", f.Name())
	return store.WriteYAML(f)
}
