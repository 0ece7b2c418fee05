// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the command-line surface the driver offers to
// host tools, plus the optional exclusion list that keeps a function's
// body out of inter-procedural analysis even when it is available.
package config

import (
	"flag"
	"fmt"
	"io/ioutil"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/config/regexp"
)

// FlagSet should be used by host analyzers to pick up the flags the
// driver understands.
var FlagSet flag.FlagSet

var (
	configFile    string
	gotoUnsafe    bool
	libConfigPath string
	debugTrace    bool
	debugDir      string
	annotateDB    string
	report        bool
)

func init() {
	FlagSet.StringVar(&configFile, "config", "", "path to a YAML file listing functions to exclude from inter-procedural analysis")
	FlagSet.BoolVar(&gotoUnsafe, "goto-unsafe", false, "accepted but has no effect: no analysis stage reads it, and a block with an unanalysed, non-loop predecessor never fails the analysis (that predecessor contributes an empty state)")
	FlagSet.StringVar(&libConfigPath, "lib-config", "", "path to a YAML file of library signature overrides, merged onto the built-in registry")
	FlagSet.BoolVar(&debugTrace, "debug", false, "print per-function traversal tracing and write DOT graphs for analysed functions")
	FlagSet.StringVar(&debugDir, "debug-dir", "debugout", "directory DOT graphs are written to when -debug is set")
	FlagSet.StringVar(&annotateDB, "annotate-db", "", "path to a SQLite database the per-instruction/block/function tags are written to")
	FlagSet.BoolVar(&report, "report", false, "print a statistics table of the dependency counts after analysis")
}

// GotoUnsafe reports whether the -goto-unsafe flag was set. No analysis
// stage consults it.
func GotoUnsafe() bool { return gotoUnsafe }

// LibConfigPath returns the configured path to library signature
// overrides, or the empty string if the host did not supply one.
func LibConfigPath() string { return libConfigPath }

// Debug reports whether the -debug flag was set.
func Debug() bool { return debugTrace }

// DebugDir returns the directory DOT graphs should be written to when
// Debug is true.
func DebugDir() string { return debugDir }

// AnnotateDBPath returns the configured path to a SQLite database that
// per-instruction/block/function tags should be persisted to, or the
// empty string if the host did not supply one.
func AnnotateDBPath() string { return annotateDB }

// Report reports whether the -report flag was set.
func Report() bool { return report }

// Config is the optional exclusion list loaded from the "config" flag.
type Config struct {
	// Exclude lists functions that are never walked inter-procedurally;
	// a call to one is always resolved through the library signature
	// registry, as if its body were unavailable.
	Exclude []funcMatcher
}

// funcMatcher matches a function by the path of its declaring package and
// its name. An unset field (the zero Regexp) matches everything, so a
// matcher giving only PackageRE excludes every function in that package.
type funcMatcher struct {
	PackageRE regexp.Regexp
	NameRE    regexp.Regexp
}

func (fm funcMatcher) match(pkg, name string) bool {
	return fm.PackageRE.MatchString(pkg) && fm.NameRE.MatchString(name)
}

// IsExcluded reports whether the named function, declared in package pkg,
// should be excluded from inter-procedural analysis.
func (c Config) IsExcluded(pkg, name string) bool {
	for _, fm := range c.Exclude {
		if fm.match(pkg, name) {
			return true
		}
	}
	return false
}

var (
	readFileOnce     = new(sync.Once)
	readConfigCached *Config
	readConfigErr    error
)

// ReadConfig loads the file named by the "config" flag, caching the
// result for the life of the process. An unset path is not an error; it
// yields a Config that excludes nothing.
func ReadConfig() (*Config, error) {
	readFileOnce.Do(func() {
		if configFile == "" {
			readConfigCached = &Config{}
			return
		}
		data, err := ioutil.ReadFile(configFile)
		if err != nil {
			readConfigErr = fmt.Errorf("reading analysis config: %w", err)
			return
		}
		c := &Config{}
		if err := yaml.UnmarshalStrict(data, c); err != nil {
			readConfigErr = fmt.Errorf("parsing analysis config: %w", err)
			return
		}
		readConfigCached = c
	})
	return readConfigCached, readConfigErr
}

// SetConfig installs c directly, bypassing the "config" flag and file
// read. It is meant for tests and for hosts that already have a parsed
// Config in hand.
func SetConfig(c *Config) {
	readFileOnce = new(sync.Once)
	readFileOnce.Do(func() {})
	readConfigCached = c
	readConfigErr = nil
}

// SetBytes parses data as YAML and installs the result the same way
// SetConfig does.
func SetBytes(data []byte) error {
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parsing analysis config: %w", err)
	}
	SetConfig(c)
	return nil
}
