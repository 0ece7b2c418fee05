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

package debug_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callgraph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/config"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/debug"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/module"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

func TestDOTWritesFileOnlyWhenDebugEnabled(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", `package t
func F(n int) int { return n }
`, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pkg := types.NewPackage("t", "")
	ssaPkg, _, err := ssautil.BuildPackage(
		&types.Config{Importer: importer.Default()}, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatalf("build SSA: %v", err)
	}
	var fn *ssa.Function
	var fns []*ssa.Function
	for _, m := range ssaPkg.Members {
		if fv, ok := m.(*ssa.Function); ok {
			fns = append(fns, fv)
			fn = fv
		}
	}

	oracle := callgraph.BuildCHA(ssaPkg.Prog)
	r := result.New(module.Analyse(fns, oracle, module.Options{}))

	dir := t.TempDir()
	if err := config.FlagSet.Set("debug-dir", dir); err != nil {
		t.Fatalf("set debug-dir: %v", err)
	}

	debug.DOT(fn, r)
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Error("expected no DOT file written while -debug is unset")
	}

	if err := config.FlagSet.Set("debug", "true"); err != nil {
		t.Fatalf("set debug: %v", err)
	}
	defer func() { _ = config.FlagSet.Set("debug", "false") }()

	debug.DOT(fn, r)
	out := filepath.Join(dir, fn.RelString(nil)+".dot")
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected DOT file at %s: %v", out, err)
	}
}
