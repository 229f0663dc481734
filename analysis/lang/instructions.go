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

// Package lang adapts the SSA form produced by golang.org/x/tools into the
// shape the extraction phase consumes: callee resolution and position
// lookup over function bodies.
package lang

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// HasBody returns false for opaque functions: foreign or body-less functions
// that the analysis represents as leaves with no contained operations.
func HasBody(function *ssa.Function) bool {
	return function != nil && function.Blocks != nil
}

// CalleeOf returns the statically resolved callee of a call instruction, or
// nil for calls through interfaces or function values.
func CalleeOf(common *ssa.CallCommon) *ssa.Function {
	if common == nil {
		return nil
	}
	return common.StaticCallee()
}

// InstructionPosition returns the source position of an instruction using the
// program's file set.
func InstructionPosition(prog *ssa.Program, instr ssa.Instruction) token.Position {
	return prog.Fset.Position(instr.Pos())
}
