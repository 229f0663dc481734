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
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/K-Jay-3000/Chain-Fox/analysis/lang"
	"golang.org/x/tools/go/ssa"
)

// Extraction is the result of scanning one function body.
type Extraction struct {
	// Ops are the operations found, in block order then instruction order.
	Ops []Op

	// Malformed is set when the body could not be walked; the function is
	// skipped for extraction purposes and the rest of the run continues.
	Malformed bool
}

// ExtractFunction scans one function body and records a fact for every
// statement recognized as an atomic primitive. It never mutates anything
// beyond the returned extraction, so it is safe to run one extraction per
// function concurrently.
func ExtractFunction(prog *ssa.Program, owner uint32, fn *ssa.Function, rec *Recognizer) (ex Extraction) {
	defer func() {
		if r := recover(); r != nil {
			ex = Extraction{Malformed: true}
		}
	}()

	if !lang.HasBody(fn) {
		return Extraction{}
	}
	// A recognized shim is the primitive's implementation; its operations are
	// attributed to callers, not extracted from its own body.
	if _, isShim := rec.Recognize(fn); isShim {
		return Extraction{}
	}

	for _, block := range fn.Blocks {
		for idx, instr := range block.Instrs {
			call, ok := instr.(*ssa.Call)
			if !ok {
				continue
			}
			callee := lang.CalleeOf(call.Common())
			intr, ok := rec.Recognize(callee)
			if !ok {
				continue
			}
			args := call.Common().Args
			if len(args) == 0 {
				continue
			}
			target, base := placeOf(args[0])

			op := Op{
				Kind:      intr.Kind,
				Ordering:  intr.Ordering,
				Owner:     owner,
				OwnerName: fn.String(),
				Target:    target,
				Pos:       lang.InstructionPosition(prog, call),
			}
			if intr.Kind.Writes() {
				op.Payload = alongsideWrites(block, idx, base, target)
			}
			if intr.Kind.Reads() {
				op.Guarded = guardedReads(call, block, idx, base, target)
			}
			ex.Ops = append(ex.Ops, op)
		}
	}
	return ex
}

// alongsideWrites collects the places written non-atomically in the same
// block before the atomic write: the candidate payload a release-style store
// is meant to publish.
func alongsideWrites(block *ssa.BasicBlock, idx int, base ssa.Value, target Place) []Place {
	var out []Place
	seen := map[string]bool{}
	for _, ins := range block.Instrs[:idx] {
		st, ok := ins.(*ssa.Store)
		if !ok {
			continue
		}
		p, b := placeOf(st.Addr)
		if !adjacentSlot(b, base, p, target) {
			continue
		}
		if k := p.Key() + "/" + p.FieldPath; !seen[k] {
			seen[k] = true
			out = append(out, p)
		}
	}
	return out
}

// guardedReads collects the places read non-atomically after the atomic
// read, either later in the same block or in the successor blocks of a
// branch conditioned on the read's result: the candidate payload an
// acquire-style load is meant to observe.
func guardedReads(call *ssa.Call, block *ssa.BasicBlock, idx int, base ssa.Value, target Place) []Place {
	var out []Place
	seen := map[string]bool{}
	collect := func(instrs []ssa.Instruction) {
		for _, ins := range instrs {
			u, ok := ins.(*ssa.UnOp)
			if !ok || u.Op != token.MUL {
				continue
			}
			p, b := placeOf(u.X)
			if !adjacentSlot(b, base, p, target) {
				continue
			}
			if k := p.Key() + "/" + p.FieldPath; !seen[k] {
				seen[k] = true
				out = append(out, p)
			}
		}
	}

	collect(block.Instrs[idx+1:])

	// Follow the guard: the call's result feeding an If, directly or through
	// a comparison, guards the branch targets.
	refs := call.Referrers()
	if refs == nil {
		return out
	}
	for _, r := range *refs {
		switch u := r.(type) {
		case *ssa.If:
			for _, succ := range u.Block().Succs {
				collect(succ.Instrs)
			}
		case *ssa.BinOp:
			rr := u.Referrers()
			if rr == nil {
				continue
			}
			for _, r2 := range *rr {
				if iff, ok := r2.(*ssa.If); ok {
					for _, succ := range iff.Block().Succs {
						collect(succ.Instrs)
					}
				}
			}
		}
	}
	return out
}

// adjacentSlot returns true when place p denotes a different field slot of
// the same base object as the atomic target: same base value, or same
// recovered base type when the values differ.
func adjacentSlot(b ssa.Value, base ssa.Value, p Place, target Place) bool {
	if p.FieldPath == target.FieldPath && p.Key() == target.Key() {
		return false
	}
	if b != nil && b == base {
		return true
	}
	return p.BaseType != "" && p.BaseType == target.BaseType
}

// placeOf resolves an address value to an abstract place and the base value
// the field chain hangs off.
func placeOf(v ssa.Value) (Place, ssa.Value) {
	var path []int
	cur := v
loop:
	for {
		switch x := cur.(type) {
		case *ssa.FieldAddr:
			path = append([]int{x.Field}, path...)
			cur = x.X
		case *ssa.IndexAddr:
			// Element index is erased: all elements of one array/slice share
			// a slot, which merges conservatively.
			path = append([]int{-1}, path...)
			cur = x.X
		default:
			break loop
		}
	}

	cell := derefTypeString(v.Type())
	switch b := cur.(type) {
	case *ssa.Global:
		return Place{
			Global:    b.Pkg.Pkg.Path() + "." + b.Name(),
			FieldPath: pathString(path),
			CellType:  cell,
		}, cur
	default:
		if len(path) > 0 {
			return Place{
				BaseType:  derefTypeString(cur.Type()),
				FieldPath: pathString(path),
				CellType:  cell,
			}, cur
		}
		return Place{CellType: cell, Indirect: true}, cur
	}
}

func pathString(path []int) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, f := range path {
		if f < 0 {
			parts[i] = "*"
		} else {
			parts[i] = strconv.Itoa(f)
		}
	}
	return strings.Join(parts, ".")
}

func derefTypeString(t types.Type) string {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem().String()
	}
	return t.String()
}
