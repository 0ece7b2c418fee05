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

package result_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callgraph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/module"
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

func funcNamed(fns []*ssa.Function, name string) *ssa.Function {
	for _, f := range fns {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func TestIsInputDepFunctionWhenReturnIsArgDep(t *testing.T) {
	prog, fns := build(t, `package t
func F(n int) int { return n + 1 }
`)
	oracle := callgraph.BuildCHA(prog)
	m := module.Analyse(fns, oracle, module.Options{})
	r := result.New(m)

	f := funcNamed(fns, "F")
	if !r.IsInputDepFunction(f) {
		t.Error("expected F to be classified input-dependent")
	}
}

func TestIsInputIndependentFunctionWhenReturnIsConstant(t *testing.T) {
	prog, fns := build(t, `package t
func F(n int) int { return 7 }
`)
	oracle := callgraph.BuildCHA(prog)
	m := module.Analyse(fns, oracle, module.Options{})
	r := result.New(m)

	f := funcNamed(fns, "F")
	if r.IsInputDepFunction(f) {
		t.Error("expected F to be classified input-independent")
	}
}

func TestControlDependentBlockMarksStoresAsControlDependent(t *testing.T) {
	prog, fns := build(t, `package t
func F(n int) int {
	y := 0
	if n > 0 {
		y = 1
	} else {
		y = 2
	}
	return y
}
`)
	oracle := callgraph.BuildCHA(prog)
	m := module.Analyse(fns, oracle, module.Options{})
	r := result.New(m)

	f := funcNamed(fns, "F")
	sawControlDep := false
	for _, b := range f.Blocks {
		if r.IsInputDependentBlock(f, b) {
			sawControlDep = true
		}
	}
	if !sawControlDep {
		t.Error("expected at least one block to be classified control-dependent")
	}
}
