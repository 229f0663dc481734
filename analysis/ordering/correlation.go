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
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"github.com/K-Jay-3000/Chain-Fox/analysis/locations"
)

// Entry is one correlated producer/consumer handshake: the producer writes
// a payload slot non-atomically and signals through the atomic cell, the
// consumer observes the cell and reads the same slot. For the program to be
// correct the producer side needs at least Release and the consumer side at
// least Acquire.
type Entry struct {
	Producer atomics.Op
	Consumer atomics.Op

	// Multiplicity counts the concrete payload slot matches backing the
	// entry.
	Multiplicity int
}

// groupResult is the outcome of correlating one location group.
type groupResult struct {
	Entries []*Entry

	// needs accumulates, per operation ID, the ordering requirements the
	// operation collected over all entries it participates in. More entries
	// can only add bits, so the derived minimum only ever rises.
	needs map[int]atomics.OrderingSet

	// pairs counts, per operation ID, the matched pairs the operation
	// appears in.
	pairs map[int]int

	// skipped is set when the group exceeded the pairwise budget and its
	// correlation was abandoned.
	skipped bool
}

// correlateGroup forms every producer/consumer pair within one group that
// shares a payload slot. Groups are disjoint, so group correlations need no
// coordination with each other.
func correlateGroup(cfg *config.Config, grp *locations.Group) groupResult {
	var writes, reads []atomics.Op
	for _, op := range grp.Ops {
		if op.Kind.Writes() && len(op.Payload) > 0 {
			writes = append(writes, op)
		}
		if op.Kind.Reads() && len(op.Guarded) > 0 {
			reads = append(reads, op)
		}
	}

	if cfg.ExceedsPairBudget(len(writes) * len(reads)) {
		return groupResult{skipped: true}
	}

	res := groupResult{
		needs: map[int]atomics.OrderingSet{},
		pairs: map[int]int{},
	}
	for _, w := range writes {
		for _, r := range reads {
			if w.ID == r.ID {
				continue
			}
			m := slotMatches(w.Payload, r.Guarded)
			if m == 0 {
				continue
			}
			res.Entries = append(res.Entries, &Entry{
				Producer:     w,
				Consumer:     r,
				Multiplicity: m,
			})
			res.needs[w.ID] = res.needs[w.ID].Add(atomics.Release)
			res.needs[r.ID] = res.needs[r.ID].Add(atomics.Acquire)
			res.pairs[w.ID]++
			res.pairs[r.ID]++
		}
	}
	return res
}

// slotMatches counts the payload slots the two operand lists have in
// common.
func slotMatches(payload, guarded []atomics.Place) int {
	n := 0
	for _, p := range payload {
		for _, q := range guarded {
			if p.SameSlot(q) {
				n++
			}
		}
	}
	return n
}
