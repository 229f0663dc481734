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

package ordering

import (
	"github.com/K-Jay-3000/Chain-Fox/analysis/atomics"
)

// AtomicInfo identifies one atomic operation in the diagnostic dump.
type AtomicInfo struct {
	AtomicPlace    string   `json:"atomic_place"`
	AtomicValue    []string `json:"atomic_value"`
	AtomicOperate  string   `json:"atomic_operate"`
	CallerInstance uint32   `json:"caller_instance"`
	Ordering       []string `json:"ordering"`
	SourceInfo     string   `json:"source_info"`
}

// DumpEntry maps one correlated operation to the minimum ordering set the
// analysis inferred for it and the number of matched pairs backing that
// inference. The dump is a debugging contract: downstream tooling parses
// it, so the schema is stable.
type DumpEntry struct {
	Atomic          AtomicInfo `json:"atomic"`
	MinimumOrdering []string   `json:"minimum_ordering"`
	Multiplicity    int        `json:"multiplicity"`
}

// inference is the per-operation accumulation kept for reporting and the
// dump.
type inference struct {
	op    atomics.Op
	needs atomics.OrderingSet
	pairs int
}

// Dump renders every correlated operation's inference, ordered by
// operation ID.
func (s *State) Dump() []DumpEntry {
	entries := make([]DumpEntry, 0, len(s.inferences))
	for _, inf := range s.inferences {
		op := inf.op
		var operands []string
		for _, p := range op.Payload {
			operands = append(operands, p.String())
		}
		for _, p := range op.Guarded {
			operands = append(operands, p.String())
		}
		var mins []string
		for _, o := range inf.needs.Maxima() {
			mins = append(mins, o.String())
		}
		entries = append(entries, DumpEntry{
			Atomic: AtomicInfo{
				AtomicPlace:    op.Target.String(),
				AtomicValue:    operands,
				AtomicOperate:  op.Kind.String(),
				CallerInstance: op.Owner,
				Ordering:       []string{op.Ordering.String()},
				SourceInfo:     op.Span(),
			},
			MinimumOrdering: mins,
			Multiplicity:    inf.pairs,
		})
	}
	return entries
}
