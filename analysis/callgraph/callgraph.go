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

// Package callgraph builds a deterministic, indexed view of the program's
// call graph, annotated with the atomic operations each function contains
// and a coloring of the functions that may run on a spawned goroutine.
package callgraph

import (
	"sort"

	"github.com/K-Jay-3000/Chain-Fox/analysis/atomics"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	tcg "golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Node is one function instance in the graph. Nodes are append-only during
// extraction and read-only afterwards.
type Node struct {
	// Index is the node's position in discovery order. Two runs over the
	// same input assign identical indices.
	Index uint32

	Func *ssa.Function

	Out []*Edge
	In  []*Edge

	// Ops are the atomic operations extracted from the function body.
	Ops []atomics.Op

	// Opaque is set when the function has no body available; it contributes
	// no operations and no outgoing edges.
	Opaque bool

	// rootMask records which roots reach this node, one bit per root.
	rootMask uint64
}

// Edge is a call from Caller to Callee at Site. Spawn is set when the site
// is a go instruction.
type Edge struct {
	Caller *Node
	Callee *Node
	Site   ssa.CallInstruction
	Spawn  bool
}

// Graph is the analysis call graph. Nodes holds every discovered node in
// index order.
type Graph struct {
	Prog  *ssa.Program
	Nodes []*Node
	Roots []*Node

	// OpaqueLeaves counts functions represented without a body, a silent
	// under-approximation surfaced in coverage reporting.
	OpaqueLeaves int

	byFunc  map[*ssa.Function]*Node
	spawned map[*Node]bool
}

// Build computes the call graph for prog under the configured mode, indexes
// it deterministically from the entry points, and colors spawn-reachable
// nodes.
func Build(prog *ssa.Program, cfg *config.Config, logger *config.LogGroup) (*Graph, error) {
	mode, err := ParseBuildMode(cfg.Options.CallgraphMode)
	if err != nil {
		return nil, err
	}
	logger.Debugf("building callgraph (mode %s)", mode)
	tg, err := computeCallgraph(prog, mode)
	if err != nil {
		return nil, err
	}
	tg.DeleteSyntheticNodes()

	g := &Graph{
		Prog:    prog,
		byFunc:  map[*ssa.Function]*Node{},
		spawned: map[*Node]bool{},
	}
	g.index(tg, cfg, entryPoints(prog))
	g.propagateRootMasks()
	g.colorSpawned()
	logger.Debugf("callgraph: %d nodes, %d roots, %d opaque leaves",
		len(g.Nodes), len(g.Roots), g.OpaqueLeaves)
	return g, nil
}

// entryPoints returns the init and main functions of the main packages,
// sorted by name. For a program without a main package it falls back to
// every source function, so library units are still covered.
func entryPoints(prog *ssa.Program) []*ssa.Function {
	var roots []*ssa.Function
	for _, m := range ssautil.MainPackages(prog.AllPackages()) {
		if f := m.Func("init"); f != nil {
			roots = append(roots, f)
		}
		if f := m.Func("main"); f != nil {
			roots = append(roots, f)
		}
	}
	if len(roots) == 0 {
		for f := range ssautil.AllFunctions(prog) {
			if f.Blocks != nil && f.Parent() == nil {
				roots = append(roots, f)
			}
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })
	return roots
}

// index runs a breadth-first discovery from the roots, assigning indices in
// first-discovery order. Outgoing edges of each node are visited in sorted
// order so the traversal is independent of map iteration.
func (g *Graph) index(tg *tcg.Graph, cfg *config.Config, roots []*ssa.Function) {
	var queue []*Node
	for i, f := range roots {
		n := g.getNode(f)
		n.rootMask |= rootBit(i)
		g.Roots = append(g.Roots, n)
		queue = append(queue, n)
	}

	visited := map[*Node]bool{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true

		if n.Opaque || !retained(cfg, n.Func) {
			continue
		}
		tn := tg.Nodes[n.Func]
		if tn == nil {
			continue
		}
		for _, te := range sortedEdges(tn) {
			callee := g.getNode(te.Callee.Func)
			_, spawn := te.Site.(*ssa.Go)
			e := &Edge{Caller: n, Callee: callee, Site: te.Site, Spawn: spawn}
			n.Out = append(n.Out, e)
			callee.In = append(callee.In, e)
			callee.rootMask |= n.rootMask
			queue = append(queue, callee)
		}
	}
}

func (g *Graph) getNode(f *ssa.Function) *Node {
	if n, ok := g.byFunc[f]; ok {
		return n
	}
	n := &Node{Index: uint32(len(g.Nodes)), Func: f}
	if f.Blocks == nil {
		n.Opaque = true
		g.OpaqueLeaves++
	}
	g.Nodes = append(g.Nodes, n)
	g.byFunc[f] = n
	return n
}

// sortedEdges orders a node's outgoing edges by callee name, then by call
// site position, deduplicating same-callee same-site entries.
func sortedEdges(tn *tcg.Node) []*tcg.Edge {
	edges := make([]*tcg.Edge, len(tn.Out))
	copy(edges, tn.Out)
	sort.SliceStable(edges, func(i, j int) bool {
		ci, cj := edges[i].Callee.Func.String(), edges[j].Callee.Func.String()
		if ci != cj {
			return ci < cj
		}
		return edgePos(edges[i]) < edgePos(edges[j])
	})
	out := edges[:0]
	for i, e := range edges {
		if i > 0 && e.Callee.Func == edges[i-1].Callee.Func && e.Site == edges[i-1].Site {
			continue
		}
		out = append(out, e)
	}
	return out
}

func edgePos(e *tcg.Edge) int {
	if e.Site == nil {
		return -1
	}
	return int(e.Site.Pos())
}

// retained reports whether a function belongs to a package the
// configuration keeps in scope. Synthetic functions without a package are
// always retained.
func retained(cfg *config.Config, f *ssa.Function) bool {
	if f.Pkg == nil || f.Pkg.Pkg == nil {
		return true
	}
	return cfg.RetainPackage(f.Pkg.Pkg.Path())
}

// propagateRootMasks closes the root reachability bits over all edges. The
// discovery pass seeds masks along first-discovery paths only; the fixpoint
// here accounts for nodes shared between roots.
func (g *Graph) propagateRootMasks() {
	for changed := true; changed; {
		changed = false
		for _, n := range g.Nodes {
			for _, e := range n.Out {
				if m := e.Callee.rootMask | n.rootMask; m != e.Callee.rootMask {
					e.Callee.rootMask = m
					changed = true
				}
			}
		}
	}
}

// colorSpawned computes the set of nodes that may execute on a goroutine
// other than the main one: the targets of go instructions and everything
// they transitively call.
func (g *Graph) colorSpawned() {
	var queue []*Node
	for _, n := range g.Nodes {
		for _, e := range n.Out {
			if e.Spawn && !g.spawned[e.Callee] {
				g.spawned[e.Callee] = true
				queue = append(queue, e.Callee)
			}
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range n.Out {
			if !g.spawned[e.Callee] {
				g.spawned[e.Callee] = true
				queue = append(queue, e.Callee)
			}
		}
	}
}

// SpawnReachable reports whether n may run on a spawned goroutine.
func (g *Graph) SpawnReachable(n *Node) bool { return g.spawned[n] }

// NodeByFunc returns the node for f, or nil when f was not discovered.
func (g *Graph) NodeByFunc(f *ssa.Function) *Node { return g.byFunc[f] }

// NodeAt returns the node with the given index.
func (g *Graph) NodeAt(i uint32) *Node { return g.Nodes[i] }

// MayCorrelate reports whether operations owned by a and b could interact
// at runtime: the nodes share a common ancestor in the call graph, or both
// may run on spawned goroutines. Erring towards true only inflates groups;
// it never drops a real correlation.
func (g *Graph) MayCorrelate(a, b *Node) bool {
	if a == b {
		return true
	}
	if a.rootMask&b.rootMask != 0 {
		return true
	}
	return g.spawned[a] && g.spawned[b]
}

func rootBit(i int) uint64 {
	if i > 63 {
		i = 63
	}
	return 1 << uint(i)
}
