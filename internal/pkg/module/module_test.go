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

package module_test

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
)

func buildFuncs(t *testing.T, src string) (*ssa.Program, []*ssa.Function) {
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

func TestBottomUpOrderResolvesCalleeSummaryForCaller(t *testing.T) {
	prog, fns := buildFuncs(t, `package t
func Leaf(n int) int { return n }
func Caller(n int) int { return Leaf(n) + 1 }
`)
	oracle := callgraph.BuildCHA(prog)
	m := module.Analyse(fns, oracle, module.Options{})

	caller := funcNamed(fns, "Caller")
	summary, ok := m.Summaries[caller]
	if !ok {
		t.Fatal("expected a summary for Caller")
	}
	// Caller has no caller of its own, so finalization binds its formal to
	// InputDep; that resolution must propagate transitively through Leaf's
	// own finalized summary rather than leaving either return ArgDep.
	if !summary.Returns[0].IsInputDep() {
		t.Errorf("expected Caller's return to be fully resolved to input-dependent, got %v", summary.Returns[0])
	}

	leaf := funcNamed(fns, "Leaf")
	leafSummary, ok := m.Summaries[leaf]
	if !ok {
		t.Fatal("expected a summary for Leaf")
	}
	if !leafSummary.Returns[0].IsInputDep() {
		t.Errorf("expected Leaf's return to be fully resolved to input-dependent once Caller propagates its own finalization, got %v", leafSummary.Returns[0])
	}
}

func TestMutualRecursionConverges(t *testing.T) {
	prog, fns := buildFuncs(t, `package t
func IsEven(n int) bool {
	if n == 0 {
		return true
	}
	return IsOdd(n - 1)
}
func IsOdd(n int) bool {
	if n == 0 {
		return false
	}
	return IsEven(n - 1)
}
`)
	oracle := callgraph.BuildCHA(prog)
	m := module.Analyse(fns, oracle, module.Options{})

	even := funcNamed(fns, "IsEven")
	if _, ok := m.Summaries[even]; !ok {
		t.Fatal("expected a summary for IsEven despite mutual recursion")
	}
}
