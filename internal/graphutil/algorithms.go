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

import (
	"sort"

	"github.com/yourbasic/graph"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// StrongComponents returns the strongly connected components of g, each
// component sorted, components ordered by smallest member.
func StrongComponents(g *CGraph) [][]int {
	comps := graph.StrongComponents(g)
	for _, c := range comps {
		sort.Ints(c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}

// ReachableFrom returns the set of vertices reachable from any of the
// roots, including the roots themselves.
func ReachableFrom(g *CGraph, roots ...int) map[int]bool {
	reached := make(map[int]bool, len(roots))
	for _, r := range roots {
		if reached[r] {
			continue
		}
		bfs := traverse.BreadthFirst{
			Visit: func(n gonum.Node) { reached[int(n.ID())] = true },
		}
		bfs.Walk(g, vnode(r), nil)
	}
	return reached
}
