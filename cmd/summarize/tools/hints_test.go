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

package tools

import (
	"strings"
	"testing"
)

func validateHint(t *testing.T, errorMsg string, containedHint string) {
	hint := HintForErrorMessage(errorMsg)
	if !strings.Contains(hint, containedHint) {
		t.Fatalf("incorrect hint for %q: %q", errorMsg, hint)
	}
}

func TestHintForFlagAfterProgram(t *testing.T) {
	validateHint(t, "unexpected arguments: [-verbose]", "flags should be before the path")
}

func TestHintForFailedLoadProgram(t *testing.T) {
	validateHint(t, "could not load program: yaml: line 3: did not find expected key",
		"must be a yaml file")
}

func TestHintForMaxDepth(t *testing.T) {
	validateHint(t, "inlining calls of ping: summarizing pong: maximum call depth exceeded",
		"detect-call-cycles")
}

func TestHintForMismatch(t *testing.T) {
	validateHint(t, "f: summaries have different parameters or globals", "-summaries")
}

func TestNoHint(t *testing.T) {
	if hint := HintForErrorMessage("something else"); hint != "" {
		t.Fatalf("unexpected hint %q", hint)
	}
}
