// Copyright 2019 Google LLC
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

// Package debug gates optional per-function tracing and DOT export behind
// the config package's -debug flag, the way the teacher's dump package
// gated SSA/CFG dumps behind file-writing helpers.
package debug

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/config"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/dotrender"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

// Tracef prints a tracing line to stderr when -debug is set; a no-op
// otherwise.
func Tracef(format string, args ...interface{}) {
	if !config.Debug() {
		return
	}
	fmt.Fprintf(os.Stderr, "[inputdep] "+format+"\n", args...)
}

// DOT writes fn's dependency-colored DOT graph under config.DebugDir()
// when -debug is set; a no-op otherwise.
func DOT(fn *ssa.Function, r *result.Result) {
	if !config.Debug() {
		return
	}
	dir := config.DebugDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "debug: could not create %s: %v\n", dir, err)
		return
	}
	name := filepath.Join(dir, fn.RelString(nil)+".dot")
	if err := ioutil.WriteFile(name, []byte(dotrender.Render(fn, r)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "debug: could not write %s: %v\n", name, err)
	}
}
