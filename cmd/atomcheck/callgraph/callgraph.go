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

// Package callgraph implements the atomcheck sub-command that prints the
// indexed call graph the detector works on.
package callgraph

import (
	"fmt"
	"os"

	"github.com/K-Jay-3000/Chain-Fox/analysis"
	"github.com/K-Jay-3000/Chain-Fox/analysis/callgraph"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"github.com/K-Jay-3000/Chain-Fox/cmd/atomcheck/tools"
	"github.com/K-Jay-3000/Chain-Fox/internal/formatutil"
	"github.com/K-Jay-3000/Chain-Fox/internal/graphutil"
	"golang.org/x/tools/go/ssa"
)

// Usage is the help message of the callgraph sub-command.
const Usage = `Print the deterministic call graph used by the detectors: one line per
node with its index, plus the strongly connected components.

Usage:
  atomcheck callgraph package...
  atomcheck callgraph source.go

Use the -help flag to display the options.
`

// Run builds and prints the call graph.
func Run(flags tools.CommonFlags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	logger := config.NewLogGroup(cfg)

	fmt.Fprintf(os.Stderr, formatutil.Faint("Reading sources")+"\n")
	program, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, flags.WithTest, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("failed to load program: %s", err)
	}

	g, err := callgraph.Build(program.Program, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build callgraph: %s", err)
	}

	for _, n := range g.Nodes {
		marks := ""
		if n.Opaque {
			marks += " [opaque]"
		}
		if g.SpawnReachable(n) {
			marks += " [go]"
		}
		fmt.Printf("%4d %s%s\n", n.Index, n.Func.String(), marks)
	}

	cg := graphutil.NewCGraph(len(g.Nodes))
	for _, n := range g.Nodes {
		for _, e := range n.Out {
			cg.AddEdge(int(e.Caller.Index), int(e.Callee.Index))
		}
	}
	nontrivial := 0
	for _, comp := range graphutil.StrongComponents(cg) {
		if len(comp) > 1 {
			nontrivial++
			fmt.Printf("scc of %d nodes: %v\n", len(comp), comp)
		}
	}
	roots := make([]int, len(g.Roots))
	for i, r := range g.Roots {
		roots[i] = int(r.Index)
	}
	reached := graphutil.ReachableFrom(cg, roots...)
	fmt.Printf("%d nodes (%d reachable from the roots), %d roots, %d opaque leaves, %d non-trivial sccs\n",
		len(g.Nodes), len(reached), len(g.Roots), g.OpaqueLeaves, nontrivial)
	return nil
}
