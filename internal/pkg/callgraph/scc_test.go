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

package callgraph_test

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

// staticOnlyOracle resolves only direct static calls, never virtual ones.
type staticOnlyOracle struct{}

func (staticOnlyOracle) StaticCallee(call *ssa.CallCommon) (*ssa.Function, bool) {
	if call.IsInvoke() {
		return nil, false
	}
	if fn, ok := call.Value.(*ssa.Function); ok {
		return fn, true
	}
	return nil, false
}

func (staticOnlyOracle) DynamicCallees(call *ssa.CallCommon) []*ssa.Function { return nil }

func TestBottomUpSCCsLinearChain(t *testing.T) {
	code := `package t

func Leaf() int { return 1 }
func Mid() int { return Leaf() }
func Top() int { return Mid() }
`
	pkg := buildSSA(t, code)
	sccs := callgraph.BottomUpSCCs(funcsOf(pkg), staticOnlyOracle{})

	order := map[string]int{}
	for i, scc := range sccs {
		for _, f := range scc.Funcs {
			order[f.Name()] = i
			if scc.Recursive {
				t.Errorf("%s: expected non-recursive SCC", f.Name())
			}
		}
	}
	if order["Leaf"] >= order["Mid"] {
		t.Errorf("Leaf (%d) should precede Mid (%d)", order["Leaf"], order["Mid"])
	}
	if order["Mid"] >= order["Top"] {
		t.Errorf("Mid (%d) should precede Top (%d)", order["Mid"], order["Top"])
	}
}

func TestBottomUpSCCsMutualRecursion(t *testing.T) {
	code := `package t

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
`
	pkg := buildSSA(t, code)
	sccs := callgraph.BottomUpSCCs(funcsOf(pkg), staticOnlyOracle{})

	var found bool
	for _, scc := range sccs {
		if len(scc.Funcs) == 2 {
			found = true
			if !scc.Recursive {
				t.Error("expected the mutually-recursive pair to be marked Recursive")
			}
		}
	}
	if !found {
		t.Error("expected IsEven/IsOdd to be merged into one SCC")
	}
}

func TestBottomUpSCCsSelfRecursion(t *testing.T) {
	code := `package t

func Fact(n int) int {
	if n == 0 {
		return 1
	}
	return n * Fact(n-1)
}
`
	pkg := buildSSA(t, code)
	sccs := callgraph.BottomUpSCCs(funcsOf(pkg), staticOnlyOracle{})
	var fact *callgraph.SCC
	for i := range sccs {
		for _, f := range sccs[i].Funcs {
			if f.Name() == "Fact" {
				fact = &sccs[i]
			}
		}
	}
	if fact == nil {
		t.Fatal("Fact not found in any SCC")
	}
	if !fact.Recursive {
		t.Error("expected self-recursive Fact to be marked Recursive")
	}
}
