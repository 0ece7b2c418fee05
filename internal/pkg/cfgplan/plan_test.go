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

package cfgplan_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/cfgplan"
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

func TestBuildOrdersPredecessorsBeforeSuccessors(t *testing.T) {
	fn := buildFunc(t, `package t

func F(cond bool) int {
	x := 0
	if cond {
		x = 1
	} else {
		x = 2
	}
	return x
}
`, "F")
	plan := cfgplan.Build(fn)
	seen := map[*ssa.BasicBlock]bool{}
	for _, item := range plan.Items {
		for _, p := range item.Block.Preds {
			if plan.BlockLoop[item.Block] != nil && plan.BlockLoop[item.Block].Header == item.Block {
				continue // back-edge predecessors aren't waited on
			}
			if _, isBackEdge := isBackEdgeFromLoop(plan, p, item.Block); isBackEdge {
				continue
			}
			if !seen[p] {
				t.Errorf("block %s scheduled before predecessor %s", item.Block, p)
			}
		}
		seen[item.Block] = true
	}
}

func isBackEdgeFromLoop(plan *cfgplan.Plan, pred, succ *ssa.BasicBlock) (*cfgplan.Loop, bool) {
	lp := plan.BlockLoop[succ]
	if lp != nil && lp.Header == succ && lp.Body[pred] {
		return lp, true
	}
	return nil, false
}

func TestBuildDetectsLoop(t *testing.T) {
	fn := buildFunc(t, `package t

func F(n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += i
	}
	return sum
}
`, "F")
	plan := cfgplan.Build(fn)
	if len(plan.Loops) == 0 {
		t.Fatal("expected at least one loop to be detected")
	}
	lp := plan.Loops[0]
	if len(lp.Body) < 2 {
		t.Errorf("loop body too small: %v", lp.Body)
	}
	if len(lp.Latches) == 0 {
		t.Error("expected at least one latch")
	}
}

func TestIsNonDeterministic(t *testing.T) {
	fn := buildFunc(t, `package t

func F(cond bool) int {
	x := 0
	if cond {
		x = 1
	}
	return x
}
`, "F")
	plan := cfgplan.Build(fn)
	entry := fn.Blocks[0]
	var mergeBlock *ssa.BasicBlock
	for _, b := range fn.Blocks {
		if len(b.Preds) > 1 {
			mergeBlock = b
		}
	}
	if mergeBlock == nil {
		t.Fatal("expected a merge block with multiple predecessors")
	}
	if plan.IsNonDeterministic(entry) {
		t.Error("entry block should not be non-deterministic")
	}
	if plan.IsNonDeterministic(mergeBlock) {
		t.Error("merge block after a conditional post-dominates the entry and should be deterministic")
	}
	var thenBlock *ssa.BasicBlock
	for _, b := range fn.Blocks {
		if b != mergeBlock && len(b.Preds) == 1 && b.Preds[0] == entry {
			thenBlock = b
		}
	}
	if thenBlock == nil {
		t.Fatal("expected a then-block reached only from the entry")
	}
	if !plan.IsNonDeterministic(thenBlock) {
		t.Error("then-block of a conditional should be non-deterministic")
	}
}

func TestUnreachableBlocksFlagged(t *testing.T) {
	fn := buildFunc(t, `package t

func F() int {
	return 1
	//lint:ignore
}
`, "F")
	plan := cfgplan.Build(fn)
	total := len(fn.Blocks)
	scheduled := len(plan.Items)
	if scheduled+len(plan.Unreachable) != total {
		t.Errorf("scheduled(%d) + unreachable(%d) != total(%d)", scheduled, len(plan.Unreachable), total)
	}
}
