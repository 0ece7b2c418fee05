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

package funcanalysis_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/block"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/funcanalysis"
)

func buildFunc(t *testing.T, src, name string) *ssa.Function {
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
	fn, ok := ssaPkg.Members[name].(*ssa.Function)
	if !ok {
		t.Fatalf("function %s not found", name)
	}
	return fn
}

func TestReturnDependsOnArgPlaceholder(t *testing.T) {
	fn := buildFunc(t, `package t
func F(n int) int {
	return n + 1
}
`, "F")
	summary := funcanalysis.Analyse(fn, &block.Resolver{})
	if summary.NumResults() != 1 {
		t.Fatalf("expected one result, got %d", summary.NumResults())
	}
	if !summary.Returns[0].IsArgDep() {
		t.Errorf("expected the return to be arg-dependent on n, got %v", summary.Returns[0])
	}
}

func TestResultSpecializesAgainstActualArgument(t *testing.T) {
	fn := buildFunc(t, `package t
func F(n int) int {
	return n + 1
}
`, "F")
	summary := funcanalysis.Analyse(fn, &block.Resolver{})

	indep := summary.Result(0, []*depinfo.ValueDepInfo{depinfo.IndepValue()})
	if !indep.IsInputIndep() {
		t.Errorf("expected independent input to give an independent result, got %v", indep)
	}

	dep := summary.Result(0, []*depinfo.ValueDepInfo{depinfo.NewValueDepInfo(depinfo.Input())})
	if !dep.IsInputDep() {
		t.Errorf("expected input-dependent argument to give an input-dependent result, got %v", dep)
	}
}

func TestBranchOnArgumentMakesReturnArgDependent(t *testing.T) {
	fn := buildFunc(t, `package t
func F(n int) int {
	x := 0
	if n > 0 {
		x = 1
	}
	return x
}
`, "F")
	summary := funcanalysis.Analyse(fn, &block.Resolver{})
	if !summary.Returns[0].IsArgDep() {
		t.Errorf("expected the control-dependent return to be arg-dependent, got %v", summary.Returns[0])
	}
}
