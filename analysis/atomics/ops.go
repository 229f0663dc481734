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
	"fmt"
	"go/token"
	"strings"
)

// OpKind classifies an atomic operation by how it touches the cell: a Load
// only reads it, a Store only writes it, a read-modify-write does both.
type OpKind uint8

const (
	KindLoad OpKind = iota
	KindStore
	KindRMW
)

func (k OpKind) String() string {
	switch k {
	case KindLoad:
		return "Load"
	case KindStore:
		return "Store"
	case KindRMW:
		return "RMW"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// Reads returns true when the operation observes the cell's value.
func (k OpKind) Reads() bool { return k == KindLoad || k == KindRMW }

// Writes returns true when the operation updates the cell's value.
func (k OpKind) Writes() bool { return k == KindStore || k == KindRMW }

// Place is the abstract description of the memory location an operation
// targets: a variable/field chain, possibly behind indirection. Places are
// equivalence keys, not points-to results; two places with the same Key may
// denote the same storage cell, and provably different keys never do.
type Place struct {
	// Global is the qualified name of the package-level variable owning the
	// cell, when the base object is a global.
	Global string

	// BaseType is the type of the base object owning the cell (the
	// shared-ownership handle), when one could be recovered.
	BaseType string

	// FieldPath is the dot-joined field index chain from the base object to
	// the cell. Empty when the cell is the whole object.
	FieldPath string

	// CellType is the type of the atomic cell itself.
	CellType string

	// Indirect marks a place whose base object could not be resolved behind
	// indirection. Indirect places of the same cell type are merged
	// conservatively.
	Indirect bool
}

// Key returns the abstract-location signature of the place: type + access
// path + aliasing class. Operations whose keys provably differ are never
// grouped; equal or merged keys group conservatively.
func (p Place) Key() string {
	switch {
	case p.Global != "":
		return "global:" + p.Global + "/" + p.FieldPath + ":" + p.CellType
	case p.BaseType != "":
		return "field:" + p.BaseType + "." + p.FieldPath + ":" + p.CellType
	default:
		return "indirect:" + p.CellType
	}
}

func (p Place) String() string {
	switch {
	case p.Global != "":
		if p.FieldPath != "" {
			return p.Global + "." + p.FieldPath
		}
		return p.Global
	case p.BaseType != "":
		return "(" + p.BaseType + ")." + p.FieldPath
	default:
		return "*(" + p.CellType + ")"
	}
}

// SameSlot returns true when the two places name the same field slot of the
// same base: the payload-matching criterion between a producer's alongside
// writes and a consumer's guarded reads.
func (p Place) SameSlot(other Place) bool {
	if p.Global != "" || other.Global != "" {
		return p.Global == other.Global && p.FieldPath == other.FieldPath
	}
	if p.BaseType == "" || other.BaseType == "" {
		return false
	}
	return p.BaseType == other.BaseType && p.FieldPath == other.FieldPath
}

// Op is one atomic operation fact, recorded once during extraction and
// read-only afterward.
type Op struct {
	// ID is unique and stable within a run.
	ID int

	// Kind classifies the operation.
	Kind OpKind

	// Ordering is the ordering the program declares on the operation.
	Ordering Ordering

	// Owner is the index of the call graph node containing the operation.
	Owner uint32

	// OwnerName is the owner function's qualified name, for diagnostics.
	OwnerName string

	// Target is the place the operation acts on.
	Target Place

	// Payload lists the places written non-atomically alongside the
	// operation (same block, before a write): release-payload candidates.
	Payload []Place

	// Guarded lists the places read non-atomically under the guard of the
	// operation's result: acquire-payload candidates.
	Guarded []Place

	// Pos is the operation's source position.
	Pos token.Position
}

// Span renders the operation's source range in the report format
// "<file>:<startLine>:<startCol>: <endLine>:<endCol>".
func (o Op) Span() string {
	return fmt.Sprintf("%s:%d:%d: %d:%d", o.Pos.Filename, o.Pos.Line, o.Pos.Column, o.Pos.Line, o.Pos.Column)
}

func (o Op) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s, %s)@%s", o.Kind, o.Target, o.Ordering, o.OwnerName)
	return b.String()
}
