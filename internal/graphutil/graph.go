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

// Package graphutil provides a compact directed graph over dense integer
// vertices, bridged to the graph algorithm packages used by the analyses.
package graphutil

import (
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// CGraph is a directed graph on vertices 0..n-1 with sorted adjacency
// lists. It satisfies both the yourbasic/graph Iterator interface and the
// gonum directed-graph interface, so either package's algorithms apply.
type CGraph struct {
	succs [][]int
	preds [][]int
}

// NewCGraph returns an empty graph with n vertices.
func NewCGraph(n int) *CGraph {
	return &CGraph{
		succs: make([][]int, n),
		preds: make([][]int, n),
	}
}

// AddEdge inserts a directed edge from u to v. Duplicate edges are ignored.
func (g *CGraph) AddEdge(u, v int) {
	if contains(g.succs[u], v) {
		return
	}
	g.succs[u] = insertSorted(g.succs[u], v)
	g.preds[v] = insertSorted(g.preds[v], u)
}

// Order returns the number of vertices.
func (g *CGraph) Order() int { return len(g.succs) }

// Visit calls do for each out-neighbor of v in increasing order, stopping
// early if do returns true. This is the yourbasic/graph iteration contract;
// edge costs are uniformly zero.
func (g *CGraph) Visit(v int, do func(w int, c int64) bool) bool {
	for _, w := range g.succs[v] {
		if do(w, 0) {
			return true
		}
	}
	return false
}

// Succs returns the sorted out-neighbors of v. The slice is shared, not a
// copy.
func (g *CGraph) Succs(v int) []int { return g.succs[v] }

// Preds returns the sorted in-neighbors of v. The slice is shared, not a
// copy.
func (g *CGraph) Preds(v int) []int { return g.preds[v] }

func contains(s []int, v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// vnode adapts a vertex index to the gonum node interface.
type vnode int64

func (n vnode) ID() int64 { return int64(n) }

// Node implements gonum graph.Graph.
func (g *CGraph) Node(id int64) gonum.Node {
	if id < 0 || id >= int64(len(g.succs)) {
		return nil
	}
	return vnode(id)
}

// Nodes implements gonum graph.Graph.
func (g *CGraph) Nodes() gonum.Nodes {
	all := make([]gonum.Node, len(g.succs))
	for i := range all {
		all[i] = vnode(i)
	}
	return iterator.NewOrderedNodes(all)
}

// From implements gonum graph.Graph.
func (g *CGraph) From(id int64) gonum.Nodes {
	return g.nodeList(g.succs[id])
}

// To implements gonum graph.Directed.
func (g *CGraph) To(id int64) gonum.Nodes {
	return g.nodeList(g.preds[id])
}

func (g *CGraph) nodeList(ids []int) gonum.Nodes {
	out := make([]gonum.Node, len(ids))
	for i, v := range ids {
		out[i] = vnode(v)
	}
	return iterator.NewOrderedNodes(out)
}

// HasEdgeBetween implements gonum graph.Graph.
func (g *CGraph) HasEdgeBetween(xid, yid int64) bool {
	return contains(g.succs[xid], int(yid)) || contains(g.succs[yid], int(xid))
}

// HasEdgeFromTo implements gonum graph.Directed.
func (g *CGraph) HasEdgeFromTo(uid, vid int64) bool {
	return contains(g.succs[uid], int(vid))
}

// cedge is a cost-free directed edge.
type cedge struct{ f, t int64 }

func (e cedge) From() gonum.Node         { return vnode(e.f) }
func (e cedge) To() gonum.Node           { return vnode(e.t) }
func (e cedge) ReversedEdge() gonum.Edge { return cedge{e.t, e.f} }

// Edge implements gonum graph.Graph.
func (g *CGraph) Edge(uid, vid int64) gonum.Edge {
	if !g.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return cedge{uid, vid}
}
