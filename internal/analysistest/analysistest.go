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

// Package analysistest loads the test programs of the analyses. A test program is a directory containing a
// program.yaml and a config.yaml; the expected results are annotations in the comments of program.yaml.
package analysistest

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-summarizer/analysis/config"
	"github.com/awslabs/ar-go-summarizer/analysis/localssa"
)

// LoadTest loads the program in the directory dir of fsys, looking for a program.yaml and a config.yaml
func LoadTest(t *testing.T, fsys fs.FS, dir string) (*localssa.Program, *config.Config) {
	t.Helper()
	programFile := path.Join(dir, "program.yaml")
	b, err := fs.ReadFile(fsys, programFile)
	if err != nil {
		t.Fatalf("error reading %s: %v", programFile, err)
	}
	prog, err := localssa.Load(b)
	if err != nil {
		t.Fatalf("error loading program %s: %v", programFile, err)
	}

	configFile := path.Join(dir, "config.yaml")
	b, err = fs.ReadFile(fsys, configFile)
	if err != nil {
		t.Fatalf("error reading %s: %v", configFile, err)
	}
	cfg, err := config.Load(configFile, b)
	if err != nil {
		t.Fatalf("error loading config %s: %v", configFile, err)
	}
	return prog, cfg
}

// Match annotations of the form "@Terminates(f1, f2)", "@NonTerminating(f1, f2)" and "@Precondition(f, expr)"
var (
	TerminatesRegex     = regexp.MustCompile(`#.*@Terminates\(((?:\s*[\w.$]+\s*,?)+)\)`)
	NonTerminatingRegex = regexp.MustCompile(`#.*@NonTerminating\(((?:\s*[\w.$]+\s*,?)+)\)`)
	PreconditionRegex   = regexp.MustCompile(`#.*@Precondition\(\s*([\w.$]+)\s*,\s*(.+)\)\s*$`)
)

// LPos is the position of an annotation
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// Expectation is the expected summary of a function
type Expectation struct {
	Pos LPos
	// Terminates is set if the function is annotated with @Terminates or @NonTerminating
	Terminates *bool
	// Precondition is the expected precondition, empty if not annotated
	Precondition string
}

// GetExpectations reads the annotations in the comments of the program.yaml of dir, and returns the expectations
// indexed by function name
func GetExpectations(t *testing.T, fsys fs.FS, dir string) map[string]*Expectation {
	t.Helper()
	filename := path.Join(dir, "program.yaml")
	b, err := fs.ReadFile(fsys, filename)
	if err != nil {
		t.Fatalf("error reading %s: %v", filename, err)
	}
	expectations := map[string]*Expectation{}
	get := func(name string, pos LPos) *Expectation {
		e, ok := expectations[name]
		if !ok {
			e = &Expectation{Pos: pos}
			expectations[name] = e
		}
		return e
	}
	setTerminates := func(ids string, pos LPos, terminates bool) {
		for _, ident := range strings.Split(ids, ",") {
			v := terminates
			get(strings.TrimSpace(ident), pos).Terminates = &v
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(b))
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		pos := LPos{Filename: filename, Line: line}
		if a := TerminatesRegex.FindStringSubmatch(text); len(a) > 1 {
			setTerminates(a[1], pos, true)
		}
		if a := NonTerminatingRegex.FindStringSubmatch(text); len(a) > 1 {
			setTerminates(a[1], pos, false)
		}
		if a := PreconditionRegex.FindStringSubmatch(text); len(a) > 2 {
			get(a[1], pos).Precondition = strings.TrimSpace(a[2])
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning %s: %v", filename, err)
	}
	return expectations
}
