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
	"fmt"
	"runtime"
	"sort"

	"github.com/K-Jay-3000/Chain-Fox/analysis/atomics"
	"github.com/K-Jay-3000/Chain-Fox/analysis/callgraph"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"github.com/K-Jay-3000/Chain-Fox/analysis/locations"
	"github.com/K-Jay-3000/Chain-Fox/internal/funcutil"
	"golang.org/x/tools/go/ssa"
)

// Analyze runs the atomic correlation detector over one program: call graph
// construction, parallel extraction, location resolution after a global
// barrier, parallel per-group correlation, then a single-writer merge into
// the final report. The returned state owns everything the run computed.
//
// Extraction and resolution failures degrade recall and are recorded as
// coverage gaps; only configuration and call graph errors abort the run.
func Analyze(cfg *config.Config, logger *config.LogGroup, prog *ssa.Program) (*State, error) {
	if !cfg.RunsDetector(config.AtomicOrderingDetector) {
		return nil, fmt.Errorf("detector %q is not selected", config.AtomicOrderingDetector)
	}

	graph, err := callgraph.Build(prog, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("callgraph construction failed: %w", err)
	}

	s := &State{
		Config: cfg,
		Logger: logger,
		Prog:   prog,
		Graph:  graph,
	}
	s.Gaps.OpaqueBodies = graph.OpaqueLeaves

	workers := cfg.NumWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s.extract(workers)
	s.Groups = locations.Resolve(graph, cfg, logger)
	s.correlate(workers)

	if n := s.Gaps.Total(); n > 0 {
		logger.Infof("analysis finished with %d coverage gaps (%d opaque, %d malformed, %d budget-skipped groups)",
			n, s.Gaps.OpaqueBodies, s.Gaps.MalformedBodies, s.Gaps.SkippedGroups)
	}
	return s, nil
}

// extract scans every node body in parallel and attaches the operations to
// the nodes. Each worker owns a disjoint set of nodes, so no locking is
// needed; operation IDs are assigned afterwards in node index order, which
// makes them deterministic.
func (s *State) extract(workers int) {
	rec := atomics.NewRecognizer(s.Config.AtomicAPIRegexps())
	results := funcutil.MapParallel(s.Graph.Nodes, func(n *callgraph.Node) atomics.Extraction {
		if n.Opaque {
			return atomics.Extraction{}
		}
		if n.Func.Pkg != nil && !s.Config.RetainPackage(n.Func.Pkg.Pkg.Path()) {
			return atomics.Extraction{}
		}
		return atomics.ExtractFunction(s.Prog, n.Index, n.Func, rec)
	}, workers)

	id := 0
	total := 0
	for i, ex := range results {
		if ex.Malformed {
			s.Gaps.MalformedBodies++
			s.Logger.Warnf("skipping malformed body of %s", s.Graph.Nodes[i].Func.String())
			continue
		}
		for j := range ex.Ops {
			ex.Ops[j].ID = id
			id++
		}
		s.Graph.Nodes[i].Ops = ex.Ops
		total += len(ex.Ops)
	}
	s.Logger.Debugf("extraction: %d atomic operations in %d functions", total, len(s.Graph.Nodes))
}

// correlate pairs producers and consumers group by group in parallel, then
// merges the buffers sequentially into entries, inferences and the report.
func (s *State) correlate(workers int) {
	results := funcutil.MapParallel(s.Groups, func(grp *locations.Group) groupResult {
		return correlateGroup(s.Config, grp)
	}, workers)

	byID := map[int]atomics.Op{}
	for _, n := range s.Graph.Nodes {
		for _, op := range n.Ops {
			byID[op.ID] = op
		}
	}

	var records []BugRecord
	for i, res := range results {
		if res.skipped {
			s.Gaps.SkippedGroups++
			s.Logger.Warnf("pair budget exceeded for location group %s, correlation skipped", s.Groups[i].Key)
			continue
		}
		s.Entries = append(s.Entries, res.Entries...)

		ids := make([]int, 0, len(res.needs))
		for id := range res.needs {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			op := byID[id]
			inf := inference{op: op, needs: res.needs[id], pairs: res.pairs[id]}
			s.inferences = append(s.inferences, inf)
			if r, ok := s.check(op, inf.needs); ok {
				records = append(records, r)
			}
		}
	}
	s.Report = newReport(records)
}

// check compares the declared ordering of op against the minimum its
// correlations require. Only a declaration strictly below the minimum is a
// violation; a declaration above it is a strength note logged at debug
// level, and the incomparable Acquire/Release pair never flags.
func (s *State) check(op atomics.Op, needs atomics.OrderingSet) (BugRecord, bool) {
	min, ok := needs.MinimumSufficient()
	if !ok {
		return BugRecord{}, false
	}
	if min.Lt(op.Ordering) {
		s.Logger.Debugf("%s: declared %s exceeds required %s", op.Span(), op.Ordering, min)
		return BugRecord{}, false
	}
	if !op.Ordering.Lt(min) {
		return BugRecord{}, false
	}
	return BugRecord{
		BugKind:     AtomicCorrelationViolation,
		Possibility: Possibly,
		Diagnosis:   map[string]string{"atomic": op.Span()},
		Explanation: explanationFor(min),
		pkg:         s.ownerPkg(op),
	}, true
}

func (s *State) ownerPkg(op atomics.Op) string {
	f := s.Graph.NodeAt(op.Owner).Func
	if f.Pkg != nil && f.Pkg.Pkg != nil {
		return f.Pkg.Pkg.Path()
	}
	return "(synthetic)"
}
