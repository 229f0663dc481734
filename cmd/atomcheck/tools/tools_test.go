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

package tools

import (
	"testing"

	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
)

func TestNewCommonFlags(t *testing.T) {
	flags, err := NewCommonFlags("ordering",
		[]string{"-config", "cfg.yaml", "-verbose", "-with-test", "main.go"}, "usage")
	if err != nil {
		t.Fatalf("NewCommonFlags: %s", err)
	}
	if flags.ConfigPath != "cfg.yaml" {
		t.Errorf("ConfigPath = %q, want cfg.yaml", flags.ConfigPath)
	}
	if !flags.Verbose {
		t.Errorf("-verbose must set Verbose")
	}
	if !flags.WithTest {
		t.Errorf("-with-test must set WithTest")
	}
	if args := flags.FlagSet.Args(); len(args) != 1 || args[0] != "main.go" {
		t.Errorf("Args = %v, want [main.go]", args)
	}
}

func TestLoadConfigVerboseOverride(t *testing.T) {
	cfg, err := LoadConfig("", true)
	if err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}
	if cfg.LogLevel != int(config.DebugLevel) {
		t.Errorf("LogLevel = %d, want %d", cfg.LogLevel, int(config.DebugLevel))
	}
	if !cfg.Verbose() {
		t.Errorf("-verbose must make the configuration verbose")
	}
}
