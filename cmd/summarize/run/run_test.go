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

package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/awslabs/ar-go-summarizer/analysis/summaries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `
functions:
  - name: main
    nodes:
      - location: 0
        guard: g#0
        constraints: ["g#0", "a#0"]
        calls: [{callee: id, args: ["a#0"]}]
  - name: id
    params: [x#0]
    globals-out: [ret#1]
    nodes:
      - {location: 1, guard: g#1, constraints: ["g#1", "(ret#1 <=> x#0)"]}
`

const cfg = `
options:
  termination: true
  log-level: 1
`

func writeFile(t *testing.T, dir string, name string, content string) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	prog := writeFile(t, dir, "program.yaml", program)
	config := writeFile(t, dir, "config.yaml", cfg)
	output := filepath.Join(dir, "summaries.yaml")

	flags, err := NewFlags([]string{"-config", config, "-entry", "main", "-o", output, prog})
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, flags.entrypoints)
	require.NoError(t, Run(flags))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	store := summaries.NewStore(summaries.JoinPrecise)
	require.NoError(t, store.ReadYAML(f))
	assert.Equal(t, []string{"id", "main"}, store.Names())
	id, err := store.Get("id")
	require.NoError(t, err)
	assert.Equal(t, "x#0", id.Precondition.String())
	assert.True(t, id.Terminates)

	// the summaries of a previous run are reused
	flags, err = NewFlags([]string{"-config", config, "-summaries", output, "-o", filepath.Join(dir, "again.yaml"),
		prog})
	require.NoError(t, err)
	require.NoError(t, Run(flags))
}

func TestRunErrors(t *testing.T) {
	_, err := NewFlags([]string{"a.yaml", "b.yaml"})
	assert.Error(t, err)

	flags, err := NewFlags([]string{filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)
	assert.ErrorContains(t, Run(flags), "could not load program")
}
