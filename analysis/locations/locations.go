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

// Package locations groups atomic operations that may target the same
// memory cell at runtime. Grouping is an equivalence over abstract place
// signatures, closed under a conservative merge for places the signature
// cannot separate: over-merging only inflates groups, it never drops a
// real correlation.
package locations

import (
	"sort"
	"strconv"

	"github.com/K-Jay-3000/Chain-Fox/analysis/atomics"
	"github.com/K-Jay-3000/Chain-Fox/analysis/callgraph"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	uf "github.com/spakin/disjoint"
)

// Group is one set of operations over a single abstract location. Ops is
// sorted by operation ID, so group contents are stable across runs.
type Group struct {
	// Key is the lexicographically smallest member signature, suffixed with
	// a discriminator when call-graph partitioning splits one signature
	// into several groups.
	Key string

	// CellType is the atomic cell type shared by all members.
	CellType string

	Ops []atomics.Op
}

// Resolve partitions the operations recorded on g's nodes into location
// groups. Two operations land in the same group when their place
// signatures unify (identical keys, or an indirect place merged with every
// place of the same cell type) and their owning nodes may interact at
// runtime.
func Resolve(g *callgraph.Graph, cfg *config.Config, logger *config.LogGroup) []*Group {
	var ops []atomics.Op
	for _, n := range g.Nodes {
		ops = append(ops, n.Ops...)
	}
	if len(ops) == 0 {
		return nil
	}

	// First pass: unify place signatures. Indirect places carry no base
	// identity, so each one is merged with every signature of its cell
	// type.
	keyElem := map[string]*uf.Element{}
	keysByCell := map[string][]string{}
	for _, op := range ops {
		k := op.Target.Key()
		if _, ok := keyElem[k]; ok {
			continue
		}
		el := uf.NewElement()
		el.Data = k
		keyElem[k] = el
		keysByCell[op.Target.CellType] = append(keysByCell[op.Target.CellType], k)
	}
	for _, op := range ops {
		if !op.Target.Indirect {
			continue
		}
		this := keyElem[op.Target.Key()]
		for _, other := range keysByCell[op.Target.CellType] {
			uf.Union(this, keyElem[other])
		}
	}

	// Second pass: within each signature class, split by call-graph
	// connectivity of the owners. Owners sharing an ancestor or both
	// spawn-reachable stay together.
	bySig := map[*uf.Element][]atomics.Op{}
	for _, op := range ops {
		rep := keyElem[op.Target.Key()].Find()
		bySig[rep] = append(bySig[rep], op)
	}

	var groups []*Group
	for _, sigOps := range bySig {
		groups = append(groups, splitByConnectivity(g, sigOps)...)
	}
	finalizeKeys(groups)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	logger.Debugf("location resolution: %d operations in %d groups", len(ops), len(groups))
	return groups
}

func splitByConnectivity(g *callgraph.Graph, ops []atomics.Op) []*Group {
	owners := map[uint32]*uf.Element{}
	for _, op := range ops {
		if _, ok := owners[op.Owner]; !ok {
			el := uf.NewElement()
			el.Data = op.Owner
			owners[op.Owner] = el
		}
	}
	ids := make([]uint32, 0, len(owners))
	for id := range owners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if g.MayCorrelate(g.NodeAt(ids[i]), g.NodeAt(ids[j])) {
				uf.Union(owners[ids[i]], owners[ids[j]])
			}
		}
	}

	byComp := map[*uf.Element]*Group{}
	var out []*Group
	for _, op := range ops {
		rep := owners[op.Owner].Find()
		grp, ok := byComp[rep]
		if !ok {
			grp = &Group{CellType: op.Target.CellType}
			byComp[rep] = grp
			out = append(out, grp)
		}
		grp.Ops = append(grp.Ops, op)
	}
	for _, grp := range out {
		sort.Slice(grp.Ops, func(i, j int) bool { return grp.Ops[i].ID < grp.Ops[j].ID })
	}
	return out
}

// finalizeKeys assigns each group the smallest member signature, adding a
// numeric suffix where connectivity splitting produced several groups with
// the same signature.
func finalizeKeys(groups []*Group) {
	for _, grp := range groups {
		min := grp.Ops[0].Target.Key()
		for _, op := range grp.Ops[1:] {
			if k := op.Target.Key(); k < min {
				min = k
			}
		}
		grp.Key = min
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Key != groups[j].Key {
			return groups[i].Key < groups[j].Key
		}
		return groups[i].Ops[0].ID < groups[j].Ops[0].ID
	})
	seen := map[string]int{}
	for _, grp := range groups {
		n := seen[grp.Key]
		seen[grp.Key] = n + 1
		if n > 0 {
			grp.Key += "#" + strconv.Itoa(n)
		}
	}
}
