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

// Package atomics models atomic operations and their memory orderings, and
// extracts them from function bodies.
package atomics

import "fmt"

// Ordering is a memory-ordering annotation carried by an atomic operation.
//
// Orderings form a partial order of synchronization strength:
//
//	Relaxed < Acquire, Relaxed < Release,
//	Acquire < AcqRel, Release < AcqRel, AcqRel < SeqCst.
//
// Acquire and Release are incomparable to each other.
type Ordering uint8

const (
	Relaxed Ordering = iota
	Acquire
	Release
	AcqRel
	SeqCst
)

func (o Ordering) String() string {
	switch o {
	case Relaxed:
		return "Relaxed"
	case Acquire:
		return "Acquire"
	case Release:
		return "Release"
	case AcqRel:
		return "AcqRel"
	case SeqCst:
		return "SeqCst"
	default:
		return fmt.Sprintf("Ordering(%d)", uint8(o))
	}
}

// ParseOrdering maps an ordering token to its Ordering value.
func ParseOrdering(s string) (Ordering, bool) {
	switch s {
	case "Relaxed":
		return Relaxed, true
	case "Acquire":
		return Acquire, true
	case "Release":
		return Release, true
	case "AcqRel":
		return AcqRel, true
	case "SeqCst":
		return SeqCst, true
	default:
		return Relaxed, false
	}
}

// Leq returns true when o is at most other in the partial order (o <= other).
func (o Ordering) Leq(other Ordering) bool {
	if o == other || o == Relaxed || other == SeqCst {
		return true
	}
	if (o == Acquire || o == Release) && other == AcqRel {
		return true
	}
	return false
}

// Lt returns true when o is strictly below other in the partial order.
func (o Ordering) Lt(other Ordering) bool {
	return o != other && o.Leq(other)
}

// Comparable returns true when o and other are related in the partial order.
// The only incomparable pair is Acquire/Release.
func (o Ordering) Comparable(other Ordering) bool {
	return o.Leq(other) || other.Leq(o)
}

// OrderingSet is a small set of orderings, used to accumulate the
// requirements an operation collects across its correlations.
type OrderingSet uint8

// NewOrderingSet returns a set containing the given orderings.
func NewOrderingSet(os ...Ordering) OrderingSet {
	var s OrderingSet
	for _, o := range os {
		s = s.Add(o)
	}
	return s
}

// Add returns the set with o added.
func (s OrderingSet) Add(o Ordering) OrderingSet {
	return s | (1 << uint8(o))
}

// Union returns the union of the two sets.
func (s OrderingSet) Union(other OrderingSet) OrderingSet {
	return s | other
}

// Has returns true when o is in the set.
func (s OrderingSet) Has(o Ordering) bool {
	return s&(1<<uint8(o)) != 0
}

// Empty returns true when the set has no element.
func (s OrderingSet) Empty() bool {
	return s == 0
}

// Elems returns the set's elements in increasing rank order.
func (s OrderingSet) Elems() []Ordering {
	var es []Ordering
	for o := Relaxed; o <= SeqCst; o++ {
		if s.Has(o) {
			es = append(es, o)
		}
	}
	return es
}

// Maxima returns the elements of the set that have no strictly greater
// element in the set. The result has more than one element exactly when the
// set's strongest requirements are the incomparable Acquire/Release pair.
func (s OrderingSet) Maxima() []Ordering {
	var maxes []Ordering
	for _, o := range s.Elems() {
		dominated := false
		for _, other := range s.Elems() {
			if o.Lt(other) {
				dominated = true
				break
			}
		}
		if !dominated {
			maxes = append(maxes, o)
		}
	}
	return maxes
}

// MinimumSufficient computes the weakest single ordering that satisfies every
// requirement in the set. When the maxima are the incomparable Acquire and
// Release (the operation occupies both ends of a handshake) the answer is
// AcqRel. Returns false on the empty set: it places no requirement at all.
//
// Accumulating more requirements into the set can only raise the result or
// hold it equal, never lower it.
func (s OrderingSet) MinimumSufficient() (Ordering, bool) {
	maxes := s.Maxima()
	switch len(maxes) {
	case 0:
		return Relaxed, false
	case 1:
		return maxes[0], true
	default:
		return AcqRel, true
	}
}

// Strings formats the set's elements, for reports and dumps.
func (s OrderingSet) Strings() []string {
	var out []string
	for _, o := range s.Elems() {
		out = append(out, o.String())
	}
	return out
}
