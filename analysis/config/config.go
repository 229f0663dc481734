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

package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/K-Jay-3000/Chain-Fox/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// DetectorKind identifies one of the detectors the tool can run. The set of
// kinds is open: new detectors add a constant here and a case in
// ValidateDetectorKind.
type DetectorKind string

const (
	// AtomicOrderingDetector is the atomic correlation / memory-ordering detector.
	AtomicOrderingDetector DetectorKind = "atomic-ordering"
)

// ValidateDetectorKind returns an error if k does not name a known detector.
func ValidateDetectorKind(k DetectorKind) error {
	switch k {
	case AtomicOrderingDetector:
		return nil
	default:
		return fmt.Errorf("unknown detector kind %q", string(k))
	}
}

// PkgFilterMode selects whether the package list is a blacklist or a whitelist.
type PkgFilterMode string

const (
	// PkgBlacklist retains every package except those in the list.
	PkgBlacklist PkgFilterMode = "blacklist"
	// PkgWhitelist retains only the packages in the list.
	PkgWhitelist PkgFilterMode = "whitelist"
)

// Config contains the detector selection, the package filtering list and the
// knobs of the ordering analysis.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// Detectors lists the detector kinds to run. Defaults to the atomic
	// ordering detector when empty.
	Detectors []DetectorKind `yaml:"detectors"`

	// PkgFilterMode is either "blacklist" or "whitelist" and controls how
	// PkgList is interpreted. Defaults to "blacklist".
	PkgFilterMode PkgFilterMode `yaml:"pkg-filter-mode"`

	// PkgList is the list of package path patterns filtered before extraction.
	PkgList []string `yaml:"pkg-list"`

	// AtomicAPIPatterns is a list of regexes matched against qualified
	// function names to recognize project-specific atomic shims. Each regex
	// must define the named capture groups "op" and "ord".
	AtomicAPIPatterns []string `yaml:"atomic-api-patterns"`

	pkgListRegexps   []*regexp.Regexp
	atomicAPIRegexps []*regexp.Regexp
}

// Options groups the scalar knobs of the analysis.
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// DumpCorrelations enables the secondary output: every correlation entry
	// with its inferred minimum ordering and multiplicity.
	DumpCorrelations bool `yaml:"dump-correlations"`

	// MaxGroupPairs bounds the number of producer/consumer pairs examined
	// within one location group. When a group exceeds the budget its
	// correlation step is skipped and counted as a coverage gap.
	// If MaxGroupPairs <= 0 the default budget applies.
	MaxGroupPairs int `yaml:"max-group-pairs"`

	// NumWorkers is the number of goroutines used for extraction and
	// per-group correlation. If <= 0, one worker per CPU is used.
	NumWorkers int `yaml:"num-workers"`

	// CallgraphMode selects how call edges are resolved: "cha" (default),
	// "static", "rta", "vta" or "pointer".
	CallgraphMode string `yaml:"callgraph-mode"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:        "",
		Detectors:         []DetectorKind{AtomicOrderingDetector},
		PkgFilterMode:     PkgBlacklist,
		PkgList:           nil,
		AtomicAPIPatterns: nil,
		Options: Options{
			LogLevel:         int(InfoLevel),
			DumpCorrelations: false,
			MaxGroupPairs:    DefaultMaxGroupPairs,
			NumWorkers:       0,
			CallgraphMode:    "cha",
			SilenceWarn:      false,
		},
	}
}

// Load reads a configuration from a file. Configuration errors (unknown
// detector kind, invalid filter mode, malformed patterns) are fatal to the
// invocation and reported here, before any analysis starts.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration surface and compiles the regexes.
// It is called by Load and can be called on hand-built configs.
func (c *Config) Validate() error {
	if len(c.Detectors) == 0 {
		c.Detectors = []DetectorKind{AtomicOrderingDetector}
	}
	for _, d := range c.Detectors {
		if err := ValidateDetectorKind(d); err != nil {
			return err
		}
	}

	switch c.PkgFilterMode {
	case "", PkgBlacklist:
		c.PkgFilterMode = PkgBlacklist
	case PkgWhitelist:
	default:
		return fmt.Errorf("invalid pkg-filter-mode %q: want %q or %q",
			c.PkgFilterMode, PkgBlacklist, PkgWhitelist)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if c.LogLevel == 0 {
		c.LogLevel = int(InfoLevel)
	}

	if c.MaxGroupPairs <= 0 {
		c.MaxGroupPairs = DefaultMaxGroupPairs
	}

	switch c.CallgraphMode {
	case "":
		c.CallgraphMode = "cha"
	case "cha", "static", "rta", "vta", "pointer":
	default:
		return fmt.Errorf("invalid callgraph-mode %q: want cha, static, rta, vta or pointer", c.CallgraphMode)
	}

	c.pkgListRegexps = c.pkgListRegexps[:0]
	for _, p := range c.PkgList {
		r, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid pkg-list pattern %q: %w", p, err)
		}
		c.pkgListRegexps = append(c.pkgListRegexps, r)
	}

	c.atomicAPIRegexps = c.atomicAPIRegexps[:0]
	for _, p := range c.AtomicAPIPatterns {
		r, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid atomic-api-pattern %q: %w", p, err)
		}
		if !hasGroups(r, "op", "ord") {
			return fmt.Errorf("atomic-api-pattern %q must define named groups \"op\" and \"ord\"", p)
		}
		c.atomicAPIRegexps = append(c.atomicAPIRegexps, r)
	}
	return nil
}

func hasGroups(r *regexp.Regexp, names ...string) bool {
	sub := r.SubexpNames()
	return !funcutil.Exists(names, func(name string) bool { return !funcutil.Contains(sub, name) })
}

// RetainPackage returns true if operations from the package path pkg should be
// kept for extraction, according to the blacklist/whitelist selection.
func (c Config) RetainPackage(pkg string) bool {
	matched := funcutil.Exists(c.pkgListRegexps,
		func(r *regexp.Regexp) bool { return r.MatchString(pkg) })
	if c.PkgFilterMode == PkgWhitelist {
		// An empty whitelist retains everything.
		return len(c.pkgListRegexps) == 0 || matched
	}
	return !matched
}

// RunsDetector returns true if the detector kind k has been selected.
func (c Config) RunsDetector(k DetectorKind) bool {
	return funcutil.Contains(c.Detectors, k)
}

// AtomicAPIRegexps returns the compiled project-specific atomic shim patterns.
func (c Config) AtomicAPIRegexps() []*regexp.Regexp {
	return c.atomicAPIRegexps
}

// Verbose returns true if the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsPairBudget returns true if examining n pairs within one location
// group would exceed the configured budget.
func (c Config) ExceedsPairBudget(n int) bool {
	return n > c.MaxGroupPairs
}
