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

// Package ordering implements the front-end of the atomic correlation
// detector.
package ordering

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/K-Jay-3000/Chain-Fox/analysis"
	"github.com/K-Jay-3000/Chain-Fox/analysis/config"
	"github.com/K-Jay-3000/Chain-Fox/analysis/ordering"
	"github.com/K-Jay-3000/Chain-Fox/cmd/atomcheck/tools"
	"github.com/K-Jay-3000/Chain-Fox/internal/formatutil"
	"golang.org/x/tools/go/ssa"
)

// Flags represents the parsed flags for the ordering sub-command.
type Flags struct {
	tools.CommonFlags
	outputJSON bool
	dump       bool
}

// NewFlags creates parsed ordering sub-command flags for args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("ordering")
	outputJSON := flags.FlagSet.Bool("json", false, "output the bug report as JSON")
	dump := flags.FlagSet.Bool("dump", false, "also output the correlation dump for manual audit")
	tools.SetUsage(flags.FlagSet, usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command ordering with args %v: %v", args, err)
	}

	return Flags{
		CommonFlags: tools.CommonFlags{
			FlagSet:    flags.FlagSet,
			ConfigPath: *flags.ConfigPath,
			Verbose:    *flags.Verbose,
			WithTest:   *flags.WithTest,
		},
		outputJSON: *outputJSON,
		dump:       *dump,
	}, nil
}

const usage = `Detect atomic operations declared with a weaker memory ordering than their
release/acquire correlations require.

Usage:
  atomcheck ordering package...
  atomcheck ordering source.go

Use the -help flag to display the options.

Examples:
% atomcheck ordering -config config.yaml main.go
`

// Run runs the ordering analysis with flags.
func Run(flags Flags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	logger := config.NewLogGroup(cfg)

	fmt.Fprintf(os.Stderr, formatutil.Faint("Reading sources")+"\n")
	program, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, flags.WithTest, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("failed to load program: %s", err)
	}

	fmt.Fprintf(os.Stderr, formatutil.Faint("Analyzing")+"\n")
	state, err := ordering.Analyze(cfg, logger, program.Program)
	if err != nil {
		return fmt.Errorf("analysis failed: %s", err)
	}

	if flags.outputJSON {
		if err := writeJSON(state, flags.dump || cfg.DumpCorrelations); err != nil {
			return err
		}
	} else {
		writeText(state)
	}
	return nil
}

// writeJSON emits the machine-readable report and, when requested, the
// correlation dump, both on standard output.
func writeJSON(state *ordering.State, dump bool) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state.Report); err != nil {
		return fmt.Errorf("failed to encode report: %s", err)
	}
	if dump {
		if err := enc.Encode(state.Dump()); err != nil {
			return fmt.Errorf("failed to encode correlation dump: %s", err)
		}
	}
	return nil
}

// writeText renders the terminal report.
func writeText(state *ordering.State) {
	if len(state.Report.Records) == 0 {
		fmt.Println(formatutil.Green("no atomic correlation violations found"))
		return
	}
	for _, r := range state.Report.Records {
		fmt.Printf("%s %s\n", formatutil.Red(string(r.BugKind)), formatutil.Faint(string(r.Possibility)))
		fmt.Printf("  at %s\n", formatutil.Sanitize(r.AtomicSpan()))
		fmt.Printf("  %s\n", r.Explanation)
	}
	for _, line := range state.Report.StatsLines() {
		fmt.Println(formatutil.Yellow(line))
	}
}
