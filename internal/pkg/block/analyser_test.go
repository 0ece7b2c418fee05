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

package block_test

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
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callsite"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/registry"
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

func analyseEntry(fn *ssa.Function, in *block.State, r *block.Resolver) *block.State {
	return block.Analyse(fn.Blocks[0], in, r, nil)
}

func TestAllocIsIndependent(t *testing.T) {
	fn := buildFunc(t, `package t
func keep(p *int) {}
func F() int {
	x := 0
	keep(&x)
	return x
}
`, "F")
	out := analyseEntry(fn, block.NewState(), nil)
	alloc := fn.Blocks[0].Instrs[0].(*ssa.Alloc)
	if !out.Get(alloc).IsInputIndep() {
		t.Errorf("expected alloc to be input-independent, got %v", out.Get(alloc))
	}
}

func TestStoreThenLoadPropagatesDependency(t *testing.T) {
	fn := buildFunc(t, `package t
func keep(p *int) {}
func F(n int) int {
	x := n
	keep(&x)
	return x
}
`, "F")
	in := block.NewState()
	param := fn.Params[0]
	in.Set(param, depinfo.NewValueDepInfo(depinfo.Input()))
	out := analyseEntry(fn, in, nil)

	var load *ssa.UnOp
	for _, instr := range fn.Blocks[0].Instrs {
		if u, ok := instr.(*ssa.UnOp); ok && u.Op == token.MUL {
			load = u
		}
	}
	if load == nil {
		t.Fatal("expected a load instruction")
	}
	if !out.Get(load).IsInputDep() {
		t.Errorf("expected loaded value to be input-dependent, got %v", out.Get(load))
	}
}

func TestBinOpJoinsOperands(t *testing.T) {
	fn := buildFunc(t, `package t
func F(a, b int) int {
	return a + b
}
`, "F")
	in := block.NewState()
	in.Set(fn.Params[0], depinfo.NewValueDepInfo(depinfo.Input()))
	in.Set(fn.Params[1], depinfo.IndepValue())
	out := analyseEntry(fn, in, nil)

	var add *ssa.BinOp
	for _, instr := range fn.Blocks[0].Instrs {
		if b, ok := instr.(*ssa.BinOp); ok {
			add = b
		}
	}
	if add == nil {
		t.Fatal("expected a binop instruction")
	}
	if !out.Get(add).IsInputDep() {
		t.Errorf("expected sum to be input-dependent, got %v", out.Get(add))
	}
}

func TestRegistrySignatureDrivesCallResult(t *testing.T) {
	fn := buildFunc(t, `package t
import "fmt"
func F(s string) string {
	return fmt.Sprintf("%s", s)
}
`, "F")
	in := block.NewState()
	in.Set(fn.Params[0], depinfo.NewValueDepInfo(depinfo.Input()))
	r := &block.Resolver{Registry: registry.Default()}
	out := analyseEntry(fn, in, r)

	var call *ssa.Call
	for _, instr := range fn.Blocks[0].Instrs {
		if c, ok := instr.(*ssa.Call); ok {
			call = c
		}
	}
	if call == nil {
		t.Fatal("expected a call instruction")
	}
	if !out.Get(call).IsInputDep() {
		t.Errorf("expected fmt.Sprintf result to be input-dependent, got %v", out.Get(call))
	}
}

func TestUnresolvedCalleeRecordsCallSite(t *testing.T) {
	fn := buildFunc(t, `package t
func g(x int) int { return x }
func F(n int) int {
	return g(n)
}
`, "F")
	var g *ssa.Function
	for _, m := range fn.Pkg.Members {
		if f, ok := m.(*ssa.Function); ok && f.Name() == "g" {
			g = f
		}
	}
	if g == nil {
		t.Fatal("expected to find function g")
	}

	in := block.NewState()
	in.Set(fn.Params[0], depinfo.NewValueDepInfo(depinfo.Input()))
	cs := callsite.NewRegistry()
	r := &block.Resolver{Registry: registry.Default(), CallSites: cs}
	analyseEntry(fn, in, r)

	info, ok := cs.Callees[g]
	if !ok || len(info.Sites) != 1 {
		t.Fatalf("expected exactly one recorded call site for g, got %+v", cs.Callees[g])
	}
}

func TestSortSliceCallbackIsRecordedInputDep(t *testing.T) {
	fn := buildFunc(t, `package t
import "sort"
func less(i, j int) bool { return i < j }
func F(xs []int) {
	sort.Slice(xs, less)
}
`, "F")
	var less *ssa.Function
	for _, m := range fn.Pkg.Members {
		if f, ok := m.(*ssa.Function); ok && f.Name() == "less" {
			less = f
		}
	}
	if less == nil {
		t.Fatal("expected to find function less")
	}

	in := block.NewState()
	cs := callsite.NewRegistry()
	r := &block.Resolver{Registry: registry.Default(), CallSites: cs}
	analyseEntry(fn, in, r)

	info, ok := cs.Callees[less]
	if !ok || len(info.Sites) != 1 {
		t.Fatalf("expected exactly one recorded call site for less, got %+v", cs.Callees[less])
	}
	argDeps, _ := info.Merge()
	for i := 0; i < 2; i++ {
		if d, ok := argDeps[i]; !ok || !d.IsInputDep() {
			t.Errorf("expected sort.Slice's less callback to be invoked with InputDep arg %d, got %v", i, d)
		}
	}
	if !info.HasCallback() {
		t.Error("expected the recorded call site to be flagged as a callback")
	}
}
