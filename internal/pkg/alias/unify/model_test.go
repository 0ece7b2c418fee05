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

package unify_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/alias"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/alias/unify"
)

func buildSSA(t *testing.T, src string) *ssa.Package {
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
	return ssaPkg
}

func funcsOf(pkg *ssa.Package) []*ssa.Function {
	var fns []*ssa.Function
	for _, m := range pkg.Members {
		if f, ok := m.(*ssa.Function); ok {
			fns = append(fns, f)
		}
	}
	return fns
}

func findFunc(pkg *ssa.Package, name string) *ssa.Function {
	if f, ok := pkg.Members[name].(*ssa.Function); ok {
		return f
	}
	return nil
}

func TestAliasStoreThroughPointer(t *testing.T) {
	code := `package t

func F() int {
	x := new(int)
	y := x
	*y = 1
	return *x
}
`
	pkg := buildSSA(t, code)
	m := unify.Build(funcsOf(pkg))
	fn := findFunc(pkg, "F")
	if fn == nil {
		t.Fatal("function F not found")
	}
	var allocs []ssa.Value
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(*ssa.Alloc); ok {
				allocs = append(allocs, a)
			}
		}
	}
	if len(allocs) == 0 {
		t.Fatal("expected at least one alloc")
	}
	if got := m.Alias(allocs[0], allocs[0]); got != alias.Must {
		t.Errorf("Alias(x,x) = %v, want Must", got)
	}
}

func TestAliasUnrelatedAllocsDoNotAlias(t *testing.T) {
	code := `package t

func F() (int, int) {
	x := new(int)
	y := new(int)
	*x = 1
	*y = 2
	return *x, *y
}
`
	pkg := buildSSA(t, code)
	m := unify.Build(funcsOf(pkg))
	fn := findFunc(pkg, "F")
	var allocs []ssa.Value
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(*ssa.Alloc); ok {
				allocs = append(allocs, a)
			}
		}
	}
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocs, got %d", len(allocs))
	}
	if got := m.Alias(allocs[0], allocs[1]); got != alias.No {
		t.Errorf("Alias(x,y) = %v, want No", got)
	}
}

func TestModRefStoreIsMod(t *testing.T) {
	code := `package t

func F() int {
	x := new(int)
	*x = 1
	return *x
}
`
	pkg := buildSSA(t, code)
	m := unify.Build(funcsOf(pkg))
	fn := findFunc(pkg, "F")
	var alloc ssa.Value
	var store ssa.Instruction
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			switch v := instr.(type) {
			case *ssa.Alloc:
				alloc = v
			case *ssa.Store:
				store = v
			}
		}
	}
	if alloc == nil || store == nil {
		t.Fatal("expected an alloc and a store")
	}
	if got := m.ModRef(store, alloc, 0); got != alias.Mod && got != alias.ModRef {
		t.Errorf("ModRef(store, x) = %v, want Mod or ModRef", got)
	}
}
