// Copyright 2021 Google LLC
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

package persist_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callgraph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/module"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/persist"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

func build(t *testing.T, src string) (*ssa.Program, []*ssa.Function) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pkg := types.NewPackage("t", "")
	ssaPkg, _, err := ssautil.BuildPackage(
		&types.Config{Importer: importer.Default()}, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatalf("build SSA: %v", err)
	}
	var fns []*ssa.Function
	for _, m := range ssaPkg.Members {
		if fn, ok := m.(*ssa.Function); ok {
			fns = append(fns, fn)
		}
	}
	return ssaPkg.Prog, fns
}

func TestWriteThenReadTagsRoundTrips(t *testing.T) {
	prog, fns := build(t, `package t
func F(n int) int { return n + 1 }
`)
	oracle := callgraph.BuildCHA(prog)
	m := module.Analyse(fns, oracle, module.Options{})
	r := result.New(m)

	dbPath := filepath.Join(t.TempDir(), "annotations.sqlite")
	store, err := persist.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	runID, err := store.Write(r, fns)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if runID == "" {
		t.Fatal("expected a non-empty run ID")
	}

	var fn *ssa.Function
	for _, f := range fns {
		if f.Name() == "F" {
			fn = f
		}
	}
	tags, err := store.ReadTags(persist.FuncID(fn))
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	if len(tags) == 0 {
		t.Error("expected at least one tag recorded for F")
	}
}
