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

package localssa

import (
	"strconv"
	"strings"
)

// Name is the decomposition of an SSA name base#[kind]loc[%c1%c2...]
//
// For example, x#3 is the version of x defined at location 3, x#phi2 the phi node of x at the loop head at location
// 2, x#lb2 the value of x carried by the back edge of the loop at location 2, and x#3%1%0 the copy of x#3 at
// unwinding 1 of the outer loop and 0 of the inner loop.
type Name struct {
	// Base is the name of the variable
	Base string
	// Kind is the optional kind of version, e.g. "phi" or "lb"
	Kind string
	// Location is the location where the version is defined
	Location int
	// Unwinding is the list of unwinding counters, empty if the name has not been renamed by an unwinder
	Unwinding []int
}

// ParseName decomposes name. Returns false if name has no location, in which case it is global to the function
// (parameters, global objects or nondeterministic inputs that are not versioned).
func ParseName(name string) (Name, bool) {
	i := strings.LastIndexByte(name, '#')
	if i < 0 {
		return Name{Base: name}, false
	}
	n := Name{Base: name[:i]}
	version := name[i+1:]
	parts := strings.Split(version, "%")
	v := parts[0]
	j := 0
	for j < len(v) && (v[j] < '0' || v[j] > '9') {
		j++
	}
	loc, err := strconv.Atoi(v[j:])
	if err != nil {
		return Name{Base: name}, false
	}
	n.Kind = v[:j]
	n.Location = loc
	for _, c := range parts[1:] {
		k, err := strconv.Atoi(c)
		if err != nil {
			return Name{Base: name}, false
		}
		n.Unwinding = append(n.Unwinding, k)
	}
	return n, true
}

// String returns the SSA name
func (n Name) String() string {
	var b strings.Builder
	b.WriteString(n.Base)
	b.WriteByte('#')
	b.WriteString(n.Kind)
	b.WriteString(strconv.Itoa(n.Location))
	for _, c := range n.Unwinding {
		b.WriteByte('%')
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}

// BaseName returns the name of the variable of an SSA name, i.e. the SSA name without its version
func BaseName(name string) string {
	if i := strings.LastIndexByte(name, '#'); i >= 0 {
		return name[:i]
	}
	return name
}
