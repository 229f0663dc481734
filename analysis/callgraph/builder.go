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

package callgraph

import (
	"fmt"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// BuildMode selects the algorithm used to approximate call targets.
type BuildMode string

const (
	// ModeStatic only resolves static call sites.
	ModeStatic BuildMode = "static"
	// ModeCHA uses class hierarchy analysis. This is the default.
	ModeCHA BuildMode = "cha"
	// ModeRTA uses rapid type analysis; requires a main package.
	ModeRTA BuildMode = "rta"
	// ModeVTA uses variable type analysis.
	ModeVTA BuildMode = "vta"
	// ModePointer uses the inclusion-based pointer analysis; requires a main
	// package.
	ModePointer BuildMode = "pointer"
)

// ParseBuildMode maps a config string to a build mode, defaulting to CHA
// for the empty string.
func ParseBuildMode(s string) (BuildMode, error) {
	switch BuildMode(s) {
	case "":
		return ModeCHA, nil
	case ModeStatic, ModeCHA, ModeRTA, ModeVTA, ModePointer:
		return BuildMode(s), nil
	default:
		return ModeCHA, fmt.Errorf("unknown callgraph mode %q", s)
	}
}

// computeCallgraph runs the selected algorithm over the whole program.
func computeCallgraph(prog *ssa.Program, mode BuildMode) (*callgraph.Graph, error) {
	switch mode {
	case ModeStatic:
		return static.CallGraph(prog), nil
	case ModeCHA:
		return cha.CallGraph(prog), nil
	case ModeRTA:
		mains := ssautil.MainPackages(prog.AllPackages())
		if len(mains) == 0 {
			return nil, fmt.Errorf("rta requires a main package")
		}
		var roots []*ssa.Function
		for _, m := range mains {
			roots = append(roots, m.Func("init"), m.Func("main"))
		}
		return rta.Analyze(roots, true).CallGraph, nil
	case ModeVTA:
		return vta.CallGraph(ssautil.AllFunctions(prog), cha.CallGraph(prog)), nil
	case ModePointer:
		mains := ssautil.MainPackages(prog.AllPackages())
		if len(mains) == 0 {
			return nil, fmt.Errorf("pointer analysis requires a main package")
		}
		result, err := pointer.Analyze(&pointer.Config{
			Mains:          mains,
			BuildCallGraph: true,
		})
		if err != nil {
			return nil, fmt.Errorf("pointer analysis: %w", err)
		}
		return result.CallGraph, nil
	default:
		return nil, fmt.Errorf("unknown callgraph mode %q", mode)
	}
}
