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

// Package ordering implements the atomic correlation detector: it pairs the
// producer and consumer sides of release/acquire handshakes across the call
// graph, infers the minimum memory ordering each side needs, and reports
// the operations declared weaker than that minimum.
package ordering

import (
	"github.com/K-Jay-3000/Chain-Fox/analysis/callgraph"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"github.com/K-Jay-3000/Chain-Fox/analysis/locations"
	"golang.org/x/tools/go/ssa"
)

// CoverageGaps counts the places where the analysis knowingly
// under-approximated. Gaps degrade recall, never correctness, and are
// surfaced for audit instead of vanishing silently.
type CoverageGaps struct {
	// OpaqueBodies counts functions reachable in the call graph whose body
	// was unavailable.
	OpaqueBodies int

	// MalformedBodies counts function bodies whose walk failed and was
	// recovered; the function is skipped.
	MalformedBodies int

	// SkippedGroups counts location groups whose correlation step was
	// abandoned because the pairwise budget was exceeded.
	SkippedGroups int
}

// Total returns the overall number of gaps in the run.
func (g CoverageGaps) Total() int {
	return g.OpaqueBodies + g.MalformedBodies + g.SkippedGroups
}

// State is all run-scoped data of one analysis: built once per compilation
// unit, owned by Analyze, passed by reference to each phase. Nothing here
// survives the run.
type State struct {
	Config *config.Config
	Logger *config.LogGroup
	Prog   *ssa.Program

	Graph  *callgraph.Graph
	Groups []*locations.Group

	// Entries holds every correlation entry formed, in deterministic order.
	Entries []*Entry

	// Report holds the deduplicated bug records.
	Report *Report

	Gaps CoverageGaps

	// inferences holds the per-operation requirement accumulation, ordered
	// by operation ID, feeding the report and the diagnostic dump.
	inferences []inference
}
