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

// Package analysistest provides utilities for loading the test programs
// under testdata and reading their expectation annotations.
package analysistest

import (
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/K-Jay-3000/Chain-Fox/analysis"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"golang.org/x/tools/go/ssa"
)

// LoadTest loads the program in the directory dir, looking for a main.go and a config.yaml. If additional files
// are specified as extraFiles, the program will be loaded using those files too.
func LoadTest(t *testing.T, dir string, extraFiles []string) (*ssa.Program, *config.Config) {
	configFile := filepath.Join(dir, "config.yaml")
	config.SetGlobalConfig(configFile)
	files := []string{filepath.Join(dir, "./main.go")}
	for _, extraFile := range extraFiles {
		files = append(files, filepath.Join(dir, extraFile))
	}

	loaded, err := analysis.LoadProgram(nil, "", ssa.BuilderMode(0), false, files)
	if err != nil {
		t.Fatalf("error loading packages: %s", err)
	}
	cfg, err := config.LoadGlobal()
	if err != nil {
		t.Fatalf("error loading global config: %s", err)
	}
	return loaded.Program, cfg
}

// ViolationRegex matches annotations of the form "@Violation(Release)": the
// line carries an atomic operation expected to be flagged, with the named
// ordering cited as sufficient.
var ViolationRegex = regexp.MustCompile(`//.*@Violation\((\w+)\)`)

// LPos is a filename and line, the granularity the expectations use.
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// RemoveColumn drops the column from a position.
func RemoveColumn(pos token.Position) LPos {
	return LPos{Line: pos.Line, Filename: pos.Filename}
}

// GetExpectedViolations parses the test program files and collects the
// @Violation annotations: a map from annotated position to the ordering the
// explanation must cite.
func GetExpectedViolations(t *testing.T, dir string) map[LPos]string {
	expected := map[LPos]string{}
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, nil, parser.ParseComments)
	if err != nil {
		t.Fatalf("error parsing directory %s: %s", dir, err)
	}
	for _, pkg := range pkgs {
		for _, f := range pkg.Files {
			for _, c := range f.Comments {
				for _, c1 := range c.List {
					a := ViolationRegex.FindStringSubmatch(c1.Text)
					if len(a) > 1 {
						pos := fset.Position(c1.Pos())
						expected[RemoveColumn(pos)] = strings.TrimSpace(a[1])
					}
				}
			}
		}
	}
	return expected
}
