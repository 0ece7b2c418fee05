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

package dotrender_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callgraph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/dotrender"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/module"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

func TestRenderProducesValidDotSkeleton(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", `package t
func F(n int) int { return n + 1 }
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
	var fns []*ssa.Function
	var fn *ssa.Function
	for _, m := range ssaPkg.Members {
		if f, ok := m.(*ssa.Function); ok {
			fns = append(fns, f)
			if f.Name() == "F" {
				fn = f
			}
		}
	}

	oracle := callgraph.BuildCHA(ssaPkg.Prog)
	m := module.Analyse(fns, oracle, module.Options{})
	r := result.New(m)

	out := dotrender.Render(fn, r)
	if !strings.HasPrefix(out, "digraph {\n") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("expected well-formed digraph wrapper, got %q", out)
	}
	if !strings.Contains(out, "fillcolor=") {
		t.Error("expected at least one colored node")
	}
}
