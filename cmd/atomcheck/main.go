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

package main

import (
	"fmt"
	"os"

	"github.com/K-Jay-3000/Chain-Fox/analysis"
	"github.com/K-Jay-3000/Chain-Fox/cmd/atomcheck/callgraph"
	"github.com/K-Jay-3000/Chain-Fox/cmd/atomcheck/ordering"
	"github.com/K-Jay-3000/Chain-Fox/cmd/atomcheck/tools"
)

const usage = `Atomcheck: atomic memory-ordering analysis for Go programs
Usage:
  atomcheck [tool] [options] <Go file path(s)>
Tools:
  - ordering: detects atomic operations declared weaker than their correlations require
  - callgraph: prints the deterministic call graph the detectors work on
Examples:
  Run the ordering detector: atomcheck ordering -config=config.yaml main.go
  Print the call graph: atomcheck callgraph main.go`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "ordering":
		flags, err := ordering.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := ordering.Run(flags); err != nil {
			errExit(err)
		}
	case "callgraph":
		flags, err := tools.NewCommonFlags("callgraph", args, callgraph.Usage)
		if err != nil {
			errExit(err)
		}
		if err := callgraph.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(2)
}
