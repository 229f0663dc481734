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

package callgraph_test

import (
	"os"
	"path"
	"runtime"
	"testing"

	"github.com/K-Jay-3000/Chain-Fox/analysis/callgraph"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"github.com/K-Jay-3000/Chain-Fox/internal/analysistest"
)

func TestParseBuildMode(t *testing.T) {
	tests := []struct {
		in   string
		want callgraph.BuildMode
		ok   bool
	}{
		{"", callgraph.ModeCHA, true},
		{"cha", callgraph.ModeCHA, true},
		{"static", callgraph.ModeStatic, true},
		{"rta", callgraph.ModeRTA, true},
		{"vta", callgraph.ModeVTA, true},
		{"pointer", callgraph.ModePointer, true},
		{"magic", callgraph.ModeCHA, false},
	}
	for _, tt := range tests {
		got, err := callgraph.ParseBuildMode(tt.in)
		if (err == nil) != tt.ok || (err == nil && got != tt.want) {
			t.Errorf("ParseBuildMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func buildScenario(t *testing.T) (*callgraph.Graph, *config.Config) {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../../testdata/src/ordering/scenarioA")
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	program, cfg := analysistest.LoadTest(t, ".", []string{})
	g, err := callgraph.Build(program, cfg, config.NewLogGroup(cfg))
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	return g, cfg
}

func find(t *testing.T, g *callgraph.Graph, name string) *callgraph.Node {
	t.Helper()
	for _, n := range g.Nodes {
		if n.Func.String() == name {
			return n
		}
	}
	t.Fatalf("node %s not found", name)
	return nil
}

func TestSpawnColoring(t *testing.T) {
	g, _ := buildScenario(t)
	produce := find(t, g, "command-line-arguments.produce")
	consume := find(t, g, "command-line-arguments.consume")
	main := find(t, g, "command-line-arguments.main")

	if !g.SpawnReachable(produce) {
		t.Errorf("produce is the target of a go instruction, it must be spawn-reachable")
	}
	if g.SpawnReachable(main) {
		t.Errorf("main only runs on the main goroutine")
	}
	if !g.MayCorrelate(produce, consume) {
		t.Errorf("produce and consume share main as ancestor, they may correlate")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	g1, _ := buildScenario(t)
	g2, _ := buildScenario(t)

	if len(g1.Nodes) != len(g2.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(g1.Nodes), len(g2.Nodes))
	}
	for i := range g1.Nodes {
		if g1.Nodes[i].Func.String() != g2.Nodes[i].Func.String() {
			t.Errorf("index %d: %s vs %s", i,
				g1.Nodes[i].Func.String(), g2.Nodes[i].Func.String())
		}
		if len(g1.Nodes[i].Out) != len(g2.Nodes[i].Out) {
			t.Errorf("index %d: out-degree differs", i)
		}
	}
	if len(g1.Roots) != len(g2.Roots) {
		t.Errorf("root counts differ")
	}
}

func TestRootsAreEntryPoints(t *testing.T) {
	g, _ := buildScenario(t)
	if len(g.Roots) == 0 {
		t.Fatal("no roots")
	}
	seen := map[string]bool{}
	for _, r := range g.Roots {
		seen[r.Func.Name()] = true
	}
	if !seen["main"] || !seen["init"] {
		t.Errorf("roots = %v, want main and init", seen)
	}
}
