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
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"github.com/K-Jay-3000/Chain-Fox/internal/analysistest"
)

func loadScenario(t *testing.T, subDir string) *State {
	// Change directory to the testdata folder to be able to load packages
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../../testdata/src/ordering/", subDir)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	program, cfg := analysistest.LoadTest(t, ".", []string{})
	state, err := Analyze(cfg, config.NewLogGroup(cfg), program)
	if err != nil {
		t.Fatalf("ordering analysis returned error %v", err)
	}
	return state
}

// spanLPos extracts the file base name and start line from a report span
// "<file>:<line>:<col>: <line>:<col>".
func spanLPos(t *testing.T, span string) analysistest.LPos {
	t.Helper()
	head := strings.SplitN(span, ": ", 2)[0]
	parts := strings.Split(head, ":")
	if len(parts) < 3 {
		t.Fatalf("malformed span %q", span)
	}
	line, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		t.Fatalf("malformed span %q: %s", span, err)
	}
	file := strings.Join(parts[:len(parts)-2], ":")
	return analysistest.LPos{Filename: filepath.Base(file), Line: line}
}

// checkExpected compares the report against the @Violation annotations of
// the test program.
func checkExpected(t *testing.T, state *State) {
	expected := analysistest.GetExpectedViolations(t, ".")
	if len(state.Report.Records) != len(expected) {
		t.Errorf("got %d records, want %d", len(state.Report.Records), len(expected))
	}
	for _, r := range state.Report.Records {
		pos := spanLPos(t, r.AtomicSpan())
		want, ok := expected[pos]
		if !ok {
			t.Errorf("unexpected violation at %s: %s", pos, r.Explanation)
			continue
		}
		if !strings.Contains(r.Explanation, "Using "+want+" is sufficient") {
			t.Errorf("violation at %s cites %q, want %s", pos, r.Explanation, want)
		}
		if r.BugKind != AtomicCorrelationViolation {
			t.Errorf("bug kind = %q", r.BugKind)
		}
	}
}

func TestRelaxedStorePairedWithAcquireLoad(t *testing.T) {
	state := loadScenario(t, "scenarioA")
	if len(state.Entries) == 0 {
		t.Fatal("the store/load handshake must produce a correlation entry")
	}
	checkExpected(t, state)
}

func TestRelaxedLoadPairedWithReleaseStore(t *testing.T) {
	state := loadScenario(t, "scenarioB")
	if len(state.Entries) == 0 {
		t.Fatal("the store/load handshake must produce a correlation entry")
	}
	checkExpected(t, state)
}

func TestSeqCstDominatesInferredMinimum(t *testing.T) {
	state := loadScenario(t, "seqcst")
	if len(state.Entries) == 0 {
		t.Fatal("the handshake must still correlate")
	}
	if n := len(state.Report.Records); n != 0 {
		t.Errorf("got %d records, want none: declared SeqCst dominates the minimum", n)
	}
}

func TestDisjointLocationsNeverCorrelate(t *testing.T) {
	state := loadScenario(t, "disjoint")
	if len(state.Groups) != 2 {
		t.Errorf("got %d location groups, want 2", len(state.Groups))
	}
	if len(state.Entries) != 0 {
		t.Errorf("got %d correlation entries, want none", len(state.Entries))
	}
	if len(state.Report.Records) != 0 {
		t.Errorf("got %d records, want none", len(state.Report.Records))
	}
}

func TestRefcountNeedsAcqRel(t *testing.T) {
	state := loadScenario(t, "refcount")
	if len(state.Entries) != 2 {
		t.Errorf("got %d entries, want 2 (one per orientation)", len(state.Entries))
	}
	checkExpected(t, state)
}

func TestPairCutoffSkipsGroup(t *testing.T) {
	state := loadScenario(t, "budget")
	if state.Config.MaxGroupPairs != 1 {
		t.Fatalf("MaxGroupPairs = %d, want 1 from the config file", state.Config.MaxGroupPairs)
	}
	if state.Gaps.SkippedGroups != 1 {
		t.Errorf("got %d skipped groups, want 1: two writers and two readers exceed the cutoff", state.Gaps.SkippedGroups)
	}
	if len(state.Entries) != 0 {
		t.Errorf("got %d entries, want none from a skipped group", len(state.Entries))
	}
	if len(state.Report.Records) != 0 {
		t.Errorf("got %d records, want none from a skipped group", len(state.Report.Records))
	}
}

func TestNoDefinitelyRecords(t *testing.T) {
	for _, subDir := range []string{"scenarioA", "scenarioB", "seqcst", "disjoint", "refcount"} {
		state := loadScenario(t, subDir)
		for _, r := range state.Report.Records {
			if r.Possibility != Possibly {
				t.Errorf("%s: record at %s has possibility %q; grouping is conservative, only Possibly is allowed",
					subDir, r.AtomicSpan(), r.Possibility)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	run := func() (map[string]uint32, []byte, []DumpEntry) {
		state := loadScenario(t, "scenarioA")
		indices := map[string]uint32{}
		for _, n := range state.Graph.Nodes {
			indices[n.Func.String()] = n.Index
		}
		report, err := json.Marshal(state.Report)
		if err != nil {
			t.Fatal(err)
		}
		return indices, report, state.Dump()
	}

	idx1, rep1, dump1 := run()
	idx2, rep2, dump2 := run()

	if len(idx1) != len(idx2) {
		t.Fatalf("node counts differ: %d vs %d", len(idx1), len(idx2))
	}
	for f, i := range idx1 {
		if idx2[f] != i {
			t.Errorf("node index for %s differs: %d vs %d", f, i, idx2[f])
		}
	}
	if string(rep1) != string(rep2) {
		t.Errorf("reports differ:\n%s\n%s", rep1, rep2)
	}
	if len(dump1) != len(dump2) {
		t.Fatalf("dump lengths differ")
	}
	for i := range dump1 {
		if dump1[i].Multiplicity != dump2[i].Multiplicity ||
			dump1[i].Atomic.SourceInfo != dump2[i].Atomic.SourceInfo {
			t.Errorf("dump entry %d differs", i)
		}
	}
}

func TestStatsLines(t *testing.T) {
	state := loadScenario(t, "scenarioA")
	lines := state.Report.StatsLines()
	if len(lines) != 1 {
		t.Fatalf("got %d stats lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "atomic_correlation_violation: { possibly: 1 }") {
		t.Errorf("unexpected stats line %q", lines[0])
	}
}

func TestCoverageGapsAreCounted(t *testing.T) {
	state := loadScenario(t, "scenarioA")
	// The program links the runtime, so some reachable functions have no
	// bodies available.
	if state.Gaps.Total() != state.Gaps.OpaqueBodies+state.Gaps.MalformedBodies+state.Gaps.SkippedGroups {
		t.Errorf("gap total must be the sum of its parts")
	}
	if state.Gaps.MalformedBodies != 0 {
		t.Errorf("no malformed bodies expected in the test program")
	}
}
