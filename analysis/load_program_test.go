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

package analysis

import (
	"os"
	"path"
	"runtime"
	"testing"

	"golang.org/x/tools/go/ssa"
)

func programLoadTest(t *testing.T, subDir string, withTest bool, files []string) {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../testdata/src/ordering/", subDir)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("could not change to test dir: %s", err)
	}

	loaded, err := LoadProgram(nil, "", ssa.BuilderMode(0), withTest, files)
	if err != nil {
		t.Fatalf("error loading packages: %s", err)
	}
	if loaded.Program == nil {
		t.Fatal("nil program")
	}
	if len(loaded.Packages) == 0 {
		t.Fatal("no packages loaded")
	}
	mains := 0
	for _, pkg := range loaded.Packages {
		t.Logf("%s loaded", pkg)
		if pkg.Name == "main" {
			mains++
		}
	}
	if mains != 1 {
		t.Errorf("got %d main packages, want 1", mains)
	}
}

func TestLoadScenarioA(t *testing.T) {
	programLoadTest(t, "scenarioA", false, []string{"main.go"})
}

func TestLoadRefcount(t *testing.T) {
	programLoadTest(t, "refcount", false, []string{"main.go"})
}

func TestLoadWithTests(t *testing.T) {
	programLoadTest(t, "scenarioA", true, []string{"main.go"})
}

func TestLoadMissingFile(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../testdata/src/ordering/scenarioA")
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProgram(nil, "", ssa.BuilderMode(0), false, []string{"nonexistent.go"}); err == nil {
		t.Error("loading a missing file must fail")
	}
}
