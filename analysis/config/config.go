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
	"path"

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
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Load(configFile, b)
}

// Config contains the options of the summarizer.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it keeps its default value (see NewDefault).
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options

	sourceFile string

	// Entrypoints lists the functions to summarize context-sensitively. If empty, all functions are summarized.
	Entrypoints []string `yaml:"entrypoints"`
}

// Options are the switches of the summarizer. The yaml key of each option is given by its tag.
type Options struct {
	// ReportsDir is the directory where all the reports will be stored. If the yaml config file this config struct has
	// been loaded does not specify a ReportsDir but sets ReportSummaries to true, then ReportsDir will be created
	// in the folder of the config file. A relative ReportsDir is relative to the folder of the config file.
	ReportsDir string `yaml:"reports-dir"`

	// ReportSummaries can be set to true, in which case summaries will be written to a file named summaries-*.yaml in
	// the reports directory
	ReportSummaries bool `yaml:"report-summaries"`

	// Termination enables the synthesis of termination arguments and the termination preconditions
	Termination bool `yaml:"termination"`

	// Preconditions enables the synthesis of preconditions under which the functions terminate. Only relevant when
	// Termination is set.
	Preconditions bool `yaml:"preconditions"`

	// Havoc skips the synthesis of transformers, preconditions and invariants: summaries only carry termination
	// information.
	Havoc bool `yaml:"havoc"`

	// Forward selects forward analysis: preconditions are read from the calling contexts instead of being synthesized
	// backwards from the assertions.
	Forward bool `yaml:"forward"`

	// Sufficient requests sufficient preconditions instead of necessary ones in backward mode
	Sufficient bool `yaml:"sufficient"`

	// JoinPolicy is the policy used by the summary store to join summaries: "precise" (default) or "legacy"
	JoinPolicy string `yaml:"join-policy"`

	// CheckCallReachability asks the solver whether a call site is reachable before inlining a summary at it.
	// Unreachable call sites are left in place and their callees are not summarized.
	CheckCallReachability bool `yaml:"check-call-reachability"`

	// DetectCallCycles havocs calls to functions that are being summarized. When false, indirect recursion is not
	// detected and only bounded by MaxCallDepth.
	DetectCallCycles bool `yaml:"detect-call-cycles"`

	// MaxCallDepth bounds the recursion depth of the summarizer. If MaxCallDepth is <= 0, then it is ignored.
	MaxCallDepth int `yaml:"max-call-depth"`

	// MaxCubes bounds the number of models enumerated by the reference domain analyzer per query
	MaxCubes int `yaml:"max-cubes"`

	// UnsafeAssumeUnknownTerminates treats havoc-ed calls as terminating. This is unsound for termination.
	UnsafeAssumeUnknownTerminates bool `yaml:"unsafe-assume-unknown-terminates"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:  "",
		Entrypoints: nil,
		Options: Options{
			ReportsDir:                    "",
			ReportSummaries:               false,
			Termination:                   false,
			Preconditions:                 false,
			Havoc:                         false,
			Forward:                       true,
			Sufficient:                    false,
			JoinPolicy:                    JoinPolicyPrecise,
			CheckCallReachability:         true,
			DetectCallCycles:              true,
			MaxCallDepth:                  DefaultMaxCallDepth,
			MaxCubes:                      DefaultMaxCubes,
			UnsafeAssumeUnknownTerminates: false,
			LogLevel:                      int(InfoLevel),
		},
	}
}

// Load reads a configuration from the content b of the file filename
func Load(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	if cfg.ReportSummaries {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	switch cfg.JoinPolicy {
	case "":
		cfg.JoinPolicy = JoinPolicyPrecise
	case JoinPolicyPrecise, JoinPolicyLegacy:
	default:
		return nil, fmt.Errorf("unknown join policy %q (expected %q or %q)",
			cfg.JoinPolicy, JoinPolicyPrecise, JoinPolicyLegacy)
	}

	if cfg.MaxCubes <= 0 {
		cfg.MaxCubes = DefaultMaxCubes
	}

	if cfg.Preconditions && !cfg.Termination {
		return nil, fmt.Errorf("option preconditions requires option termination")
	}

	return cfg, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports: %w", err)
		}
		c.ReportsDir = tmpdir
	} else {
		if !path.IsAbs(c.ReportsDir) {
			c.ReportsDir = c.RelPath(c.ReportsDir)
		}
		err := os.Mkdir(c.ReportsDir, 0750)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("could not create directory %s", c.ReportsDir)
			}
		}
	}
	return nil
}

// RelPath returns the path of filename relative to the directory of the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// Verbose returns true if the log level is Debug or Trace
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxDepth returns true if the input exceeds the maximum depth parameter of the configuration.
// (this implements the logic for using maximum depth; if the configuration setting is <= 0, then this returns false)
func (c Config) ExceedsMaxDepth(d int) bool {
	if c.MaxCallDepth <= 0 {
		return false
	} else {
		return d > c.MaxCallDepth
	}
}
