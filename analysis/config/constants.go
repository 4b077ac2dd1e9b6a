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

package config

const (
	// DefaultMaxCallDepth is the default maximum recursion depth of the summarizer.
	// -1 means that depth limit is ignored
	DefaultMaxCallDepth = -1
	// DefaultMaxCubes is the default bound on the number of models enumerated per domain query
	DefaultMaxCubes = 64
	// JoinPolicyPrecise joins transformers and invariants as old && (pre => new)
	JoinPolicyPrecise = "precise"
	// JoinPolicyLegacy joins transformers and invariants as old || new
	JoinPolicyLegacy = "legacy"
)
