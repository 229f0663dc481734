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
	"fmt"
	"sort"
)

// BugKind names a category of reported defect. The enumeration is open:
// future detectors add kinds without changing the report schema.
type BugKind string

const (
	// AtomicCorrelationViolation flags an atomic operation declared weaker
	// than the minimum its correlations require.
	AtomicCorrelationViolation BugKind = "AtomicCorrelationViolation"
)

// Possibility qualifies the confidence of a record. Location grouping is
// conservative and may include spurious pairs, so every record this
// detector emits carries Possibly.
type Possibility string

const (
	Possibly   Possibility = "Possibly"
	Definitely Possibility = "Definitely"
)

// BugRecord is one reported defect. It serializes as an object keyed by its
// bug kind, with the kind repeated inside.
type BugRecord struct {
	BugKind     BugKind
	Possibility Possibility
	Diagnosis   map[string]string
	Explanation string

	pkg string
}

// AtomicSpan returns the source span of the flagged operation.
func (r BugRecord) AtomicSpan() string { return r.Diagnosis["atomic"] }

// MarshalJSON implements the report schema:
// {"<BugKind>": {"bug_kind": ..., "possibility": ..., "diagnosis": {...}, "explanation": ...}}.
func (r BugRecord) MarshalJSON() ([]byte, error) {
	type body struct {
		BugKind     BugKind           `json:"bug_kind"`
		Possibility Possibility       `json:"possibility"`
		Diagnosis   map[string]string `json:"diagnosis"`
		Explanation string            `json:"explanation"`
	}
	return json.Marshal(map[string]body{
		string(r.BugKind): {
			BugKind:     r.BugKind,
			Possibility: r.Possibility,
			Diagnosis:   r.Diagnosis,
			Explanation: r.Explanation,
		},
	})
}

// Report is the ordered, deduplicated sequence of bug records of one run.
type Report struct {
	Records []BugRecord
}

// newReport sorts the records by span then kind and drops records citing a
// span and kind already reported, so each real location appears once per
// run.
func newReport(records []BugRecord) *Report {
	sort.SliceStable(records, func(i, j int) bool {
		si, sj := records[i].AtomicSpan(), records[j].AtomicSpan()
		if si != sj {
			return si < sj
		}
		return records[i].BugKind < records[j].BugKind
	})
	out := records[:0]
	seen := map[string]bool{}
	for _, r := range records {
		k := string(r.BugKind) + "|" + r.AtomicSpan()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return &Report{Records: out}
}

// MarshalJSON renders the report as an ordered JSON array.
func (rep *Report) MarshalJSON() ([]byte, error) {
	if rep.Records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rep.Records)
}

// StatsLines summarizes the report per package, one line per package that
// produced at least one record, sorted by package path.
func (rep *Report) StatsLines() []string {
	counts := map[string]int{}
	for _, r := range rep.Records {
		counts[r.pkg]++
	}
	pkgs := make([]string, 0, len(counts))
	for p := range counts {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)
	var lines []string
	for _, p := range pkgs {
		lines = append(lines,
			fmt.Sprintf("package %s contains atomic_correlation_violation: { possibly: %d }", p, counts[p]))
	}
	return lines
}

// explanationFor renders the record text naming the sufficient ordering.
func explanationFor(min fmt.Stringer) string {
	return fmt.Sprintf("Using an atomic operation with a weaker memory ordering than necessary "+
		"can lead to an inconsistent memory state. Using %s is sufficient to ensure the "+
		"program's correctness.", min)
}
