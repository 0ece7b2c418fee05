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

// Package dotrender emits DOT source for a function's SSA graph with
// every node colored by its dependency classification, so a developer
// can eyeball which instructions the analysis considers input-tainted.
// It reuses the SSA graph walk the plain debug renderer is built on,
// substituting a dependency-driven color for that renderer's
// type-driven shape.
package dotrender

import (
	"fmt"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/debug/graph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/debug/node"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

// Render produces DOT source for fn's SSA graph, coloring each
// instruction node by r's classification of it.
func Render(fn *ssa.Function, r *result.Result) string {
	g := graph.New(fn)
	rr := &renderer{g: g, fn: fn, r: r}
	return rr.render()
}

type renderer struct {
	strings.Builder
	g  *graph.FuncGraph
	fn *ssa.Function
	r  *result.Result
}

func (rr *renderer) render() string {
	_, _ = rr.WriteString("digraph {\n")
	rr.writeSubgraphs()
	rr.writeEdges()
	_, _ = rr.WriteString("}\n")
	return rr.String()
}

func (rr *renderer) writeSubgraphs() {
	for bi, b := range rr.fn.Blocks {
		label := b.Comment
		if rr.r.IsInputDependentBlock(rr.fn, b) {
			label += " [input-dep]"
		}
		_, _ = rr.WriteString(fmt.Sprintf("\tsubgraph cluster_%d {\ncolor=black;\nlabel=%q;\n", bi, label))
		for _, i := range b.Instrs {
			n := i.(ssa.Node)
			_, _ = rr.WriteString(fmt.Sprintf("\t\t%q [shape=box,style=filled,fillcolor=%s];\n", renderNode(n), colorFor(rr.r, rr.fn, i)))
		}
		_, _ = rr.WriteString("}\n")
	}
}

func (rr *renderer) writeEdges() {
	for from, children := range rr.g.Children {
		for _, to := range children {
			color := "orange"
			if to.R == graph.Referrer {
				color = "red"
			}
			_, _ = rr.WriteString(fmt.Sprintf("\t%q -> %q [color=%s];\n", renderNode(from), renderNode(to.N), color))
		}
	}
}

// colorFor maps an instruction's dependency classification to a DOT
// fill color: red for fully input-dependent, orange for merely
// control-dependent, yellow for still argument-dependent (unfinalized),
// and green for proven input-independent.
func colorFor(r *result.Result, fn *ssa.Function, instr ssa.Instruction) string {
	switch {
	case r.IsInputDependent(fn, instr):
		return "lightcoral"
	case r.IsControlDependent(fn, instr):
		return "orange"
	case r.IsArgumentDependent(fn, instr):
		return "lightyellow"
	case r.IsInputIndependent(fn, instr):
		return "lightgreen"
	default:
		return "white"
	}
}

func renderNode(n ssa.Node) string {
	return fmt.Sprintf("%s\n(%s)", node.CanonicalName(n), node.TrimmedType(n))
}
