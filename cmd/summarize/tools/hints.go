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

import "regexp"

// Captures errors happening before any analysis starts (program could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program")

// Captures the kind of error that happens when a flag is put after the program file
var flagAfterProgram = regexp.MustCompile("unexpected arguments: .*-(\\w)")

// Captures errors of the summarizer caused by deep or cyclic call chains
var maxDepthExceeded = regexp.MustCompile("maximum call depth exceeded")

// Captures join failures between summaries of different interfaces
var structuralMismatch = regexp.MustCompile("different parameters or globals")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if flagAfterProgram.MatchString(errMsg) {
		return "all command line flags should be before the path to the program file"
	}
	if regexCouldNotLoad.MatchString(errMsg) {
		return "the program must be a yaml file listing functions in guarded SSA form"
	}
	if maxDepthExceeded.MatchString(errMsg) {
		return "the call graph may have cycles; set detect-call-cycles or raise max-call-depth in the config"
	}
	if structuralMismatch.MatchString(errMsg) {
		return "the summaries loaded with -summaries do not match the functions of the program"
	}
	return ""
}
