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


package funcutil

import (
	"strings"
	"testing"
)

func TestAccumulate(t *testing.T) {
	join := func(a, b string) string { return a + "|" + b }
	acc := Accumulate(nil, "a", join)
	if !acc.IsSome() || acc.Value() != "a" {
		t.Fatalf("first value should replace none, got %v", acc)
	}
	acc = Accumulate(acc, "b", join)
	if acc.Value() != "a|b" {
		t.Errorf("second value should be joined, got %v", acc)
	}
	if None[string]().ValueOr("default") != "default" {
		t.Errorf("none should return the default value")
	}
}

func TestMapOption(t *testing.T) {
	x := MapOption(Some("abc"), strings.ToUpper)
	if x.Value() != "ABC" {
		t.Errorf("expected ABC, got %v", x)
	}
	if MapOption(None[string](), strings.ToUpper).IsSome() {
		t.Errorf("map of none should be none")
	}
}

func TestUniqReverse(t *testing.T) {
	u := Uniq([]string{"x", "y", "x", "z", "y"})
	if strings.Join(u, ",") != "x,y,z" {
		t.Errorf("unexpected Uniq result %v", u)
	}
	Reverse(u)
	if strings.Join(u, ",") != "z,y,x" {
		t.Errorf("unexpected Reverse result %v", u)
	}
	if !Contains(u, "y") || Contains(u, "w") {
		t.Errorf("unexpected Contains result on %v", u)
	}
}
