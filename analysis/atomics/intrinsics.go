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
	"strings"

	"golang.org/x/tools/go/ssa"
)

// Intrinsic describes a recognized atomic primitive: its kind and the
// ordering its name or provenance declares.
type Intrinsic struct {
	Kind     OpKind
	Ordering Ordering
}

// Recognizer maps callee functions to atomic intrinsics. It knows the
// standard sync/atomic surface (always SeqCst, Go's atomics are sequentially
// consistent) and the ordering-suffix shim convention, and accepts
// project-specific patterns from the configuration.
type Recognizer struct {
	extra []*regexp.Regexp
}

// The shim convention: a package whose import path ends in atomic/atomics
// exposing operations with an explicit ordering suffix, e.g. LoadAcquire,
// StoreRelease, AddRelaxed, CompareAndSwapAcqRel.
var defaultShimPattern = regexp.MustCompile(
	`(?:^|/)atomics?\.(?P<op>Load|Store|Add|Sub|Swap|Or|And|Cas|CompareAndSwap|CompareExchange)(?P<ord>Relaxed|Acquire|Release|AcqRel|SeqCst)$`)

// NewRecognizer returns a recognizer using the built-in rules plus the
// compiled project-specific patterns. Each extra pattern must carry the "op"
// and "ord" named groups (validated at configuration load).
func NewRecognizer(extra []*regexp.Regexp) *Recognizer {
	return &Recognizer{extra: extra}
}

// Recognize reports whether f is an atomic primitive and, if so, its kind and
// declared ordering.
func (r *Recognizer) Recognize(f *ssa.Function) (Intrinsic, bool) {
	if f == nil {
		return Intrinsic{}, false
	}
	name := f.String()

	if op, ok := stdAtomicOp(name); ok {
		return Intrinsic{Kind: op, Ordering: SeqCst}, true
	}

	for _, re := range append([]*regexp.Regexp{defaultShimPattern}, r.extra...) {
		if in, ok := matchShim(re, name); ok {
			return in, true
		}
	}
	return Intrinsic{}, false
}

// stdAtomicOp classifies the sync/atomic package surface: both the function
// forms (LoadUint32, StoreInt64, ...) and the typed forms
// ((*sync/atomic.Int32).Load, ...).
func stdAtomicOp(qualified string) (OpKind, bool) {
	var op string
	switch {
	case strings.HasPrefix(qualified, "sync/atomic."):
		op = strings.TrimPrefix(qualified, "sync/atomic.")
	case strings.HasPrefix(qualified, "(*sync/atomic."):
		i := strings.Index(qualified, ").")
		if i < 0 {
			return 0, false
		}
		op = qualified[i+2:]
	default:
		return 0, false
	}
	return opFromName(op)
}

func opFromName(op string) (OpKind, bool) {
	switch {
	case strings.HasPrefix(op, "Load"):
		return KindLoad, true
	case strings.HasPrefix(op, "Store"):
		return KindStore, true
	case strings.HasPrefix(op, "Add"),
		strings.HasPrefix(op, "Sub"),
		strings.HasPrefix(op, "Swap"),
		strings.HasPrefix(op, "And"),
		strings.HasPrefix(op, "Or"),
		strings.HasPrefix(op, "Cas"),
		strings.HasPrefix(op, "CompareAndSwap"),
		strings.HasPrefix(op, "CompareExchange"):
		return KindRMW, true
	default:
		return 0, false
	}
}

func matchShim(re *regexp.Regexp, qualified string) (Intrinsic, bool) {
	m := re.FindStringSubmatch(qualified)
	if m == nil {
		return Intrinsic{}, false
	}
	var opTok, ordTok string
	for i, name := range re.SubexpNames() {
		switch name {
		case "op":
			opTok = m[i]
		case "ord":
			ordTok = m[i]
		}
	}
	op, ok := opFromName(opTok)
	if !ok {
		return Intrinsic{}, false
	}
	ord, ok := ParseOrdering(ordTok)
	if !ok {
		return Intrinsic{}, false
	}
	return Intrinsic{Kind: op, Ordering: ord}, true
}
