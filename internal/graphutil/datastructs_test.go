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


package graphutil

import "testing"

func TestTree(t *testing.T) {
	root := NewTree("body")
	outer := root.AddChild("outer")
	inner := outer.AddChild("inner")
	outer.AddChild("sibling")
	if inner.Depth() != 2 || root.Depth() != 0 {
		t.Errorf("unexpected depths %d %d", inner.Depth(), root.Depth())
	}
	if len(outer.Children) != 2 {
		t.Errorf("outer should have two children")
	}
	chain := inner.Ancestors(-1)
	if len(chain) != 3 || chain[0].Label != "body" || chain[2].Label != "inner" {
		t.Errorf("unexpected ancestors %v", chain)
	}
	if c := inner.Ancestors(2); len(c) != 2 || c[0].Label != "outer" {
		t.Errorf("unexpected two closest ancestors %v", c)
	}
}
