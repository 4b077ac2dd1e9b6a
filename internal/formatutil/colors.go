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

// Package formatutil colors the output of the front ends when it is a terminal.
package formatutil

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Colorizer formats its arguments like fmt.Sprint, with a color when the standard output is a terminal
type Colorizer func(args ...any) string

var (
	Bold   = color(1)
	Faint  = color(2)
	Red    = color(31)
	Green  = color(32)
	Yellow = color(33)
)

func color(code int) Colorizer {
	return func(args ...any) string {
		s := fmt.Sprint(args...)
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return s
		}
		return fmt.Sprintf("\033[%dm%s\033[0m", code, s)
	}
}

// Termination returns the colored termination status of a summary
func Termination(terminates bool) string {
	if terminates {
		return Green("terminates:")
	}
	return Yellow("may not terminate:")
}
