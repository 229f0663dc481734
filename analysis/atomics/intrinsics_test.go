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

package atomics

import (
	"regexp"
	"testing"
)

func TestStdAtomicOp(t *testing.T) {
	tests := []struct {
		name string
		kind OpKind
		ok   bool
	}{
		{"sync/atomic.LoadUint32", KindLoad, true},
		{"sync/atomic.StoreInt64", KindStore, true},
		{"sync/atomic.AddUint64", KindRMW, true},
		{"sync/atomic.SwapPointer", KindRMW, true},
		{"sync/atomic.CompareAndSwapUint32", KindRMW, true},
		{"(*sync/atomic.Uint32).Load", KindLoad, true},
		{"(*sync/atomic.Int64).Store", KindStore, true},
		{"(*sync/atomic.Bool).CompareAndSwap", KindRMW, true},
		{"sync.(*Mutex).Lock", 0, false},
		{"command-line-arguments.LoadAcquire", 0, false},
	}
	for _, tt := range tests {
		kind, ok := stdAtomicOp(tt.name)
		if ok != tt.ok || (ok && kind != tt.kind) {
			t.Errorf("stdAtomicOp(%q) = %s, %v, want %s, %v", tt.name, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestShimPattern(t *testing.T) {
	tests := []struct {
		name string
		kind OpKind
		ord  Ordering
		ok   bool
	}{
		{"example.com/internal/atomics.LoadAcquire", KindLoad, Acquire, true},
		{"example.com/pkg/atomic.StoreRelease", KindStore, Release, true},
		{"example.com/pkg/atomic.AddRelaxed", KindRMW, Relaxed, true},
		{"example.com/pkg/atomic.CasAcqRel", KindRMW, AcqRel, true},
		{"example.com/pkg/atomic.CompareAndSwapSeqCst", KindRMW, SeqCst, true},
		// No ordering suffix, not a shim.
		{"example.com/pkg/atomic.Load", 0, 0, false},
		// Package path does not end in atomic(s).
		{"example.com/pkg/sync.LoadAcquire", 0, 0, false},
	}
	for _, tt := range tests {
		in, ok := matchShim(defaultShimPattern, tt.name)
		if ok != tt.ok {
			t.Errorf("matchShim(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && (in.Kind != tt.kind || in.Ordering != tt.ord) {
			t.Errorf("matchShim(%q) = %s %s, want %s %s", tt.name, in.Kind, in.Ordering, tt.kind, tt.ord)
		}
	}
}

func TestConfiguredPattern(t *testing.T) {
	re := regexp.MustCompile(`^command-line-arguments\.(?P<op>Load|Store|Add|Sub|Swap|CompareAndSwap)(?P<ord>Relaxed|Acquire|Release|AcqRel|SeqCst)$`)
	in, ok := matchShim(re, "command-line-arguments.SubRelaxed")
	if !ok || in.Kind != KindRMW || in.Ordering != Relaxed {
		t.Errorf("matchShim = %v %v, %v", in.Kind, in.Ordering, ok)
	}
	if _, ok := matchShim(re, "command-line-arguments.produce"); ok {
		t.Errorf("non-shim function must not match")
	}
}

func TestPlaceKeys(t *testing.T) {
	a := Place{BaseType: "example.packet", FieldPath: "1", CellType: "uint32"}
	b := Place{BaseType: "example.packet", FieldPath: "1", CellType: "uint32"}
	c := Place{BaseType: "example.packet", FieldPath: "0", CellType: "uint32"}
	d := Place{CellType: "uint32", Indirect: true}
	g := Place{Global: "example.counter", CellType: "uint64"}

	if a.Key() != b.Key() {
		t.Errorf("identical places must share a key")
	}
	if a.Key() == c.Key() {
		t.Errorf("different fields must have different keys")
	}
	if a.Key() == d.Key() || a.Key() == g.Key() {
		t.Errorf("place classes must not collide: %q %q %q", a.Key(), d.Key(), g.Key())
	}
	if !a.SameSlot(b) || a.SameSlot(c) {
		t.Errorf("SameSlot must compare base type and field path")
	}
	if d.SameSlot(a) {
		t.Errorf("an indirect place has no slot identity")
	}
}
