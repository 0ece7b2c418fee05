// Copyright 2019 Google LLC
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

// Package graph builds the operand/referrer adjacency the dot renderer
// walks to draw one function's SSA instructions as a graph.
package graph

import (
	"golang.org/x/tools/go/ssa"
)

type relationship int

const (
	// Referrer marks an edge to a node that reads the parent as an operand.
	Referrer relationship = iota
	// Operand marks an edge to a node the parent itself reads as an operand.
	Operand
)

// Node is one SSA node reached while walking the graph, tagged with how
// it relates to whichever node led the walk to it.
type Node struct {
	N ssa.Node
	R relationship
}

// FuncGraph is the operand/referrer adjacency of every instruction and
// value reachable from a function's entry block.
type FuncGraph struct {
	F        *ssa.Function
	Children map[ssa.Node][]Node
	seen     map[ssa.Node]bool
}

// New walks f's blocks and returns the resulting FuncGraph.
func New(f *ssa.Function) *FuncGraph {
	g := &FuncGraph{
		F:        f,
		Children: map[ssa.Node][]Node{},
		seen:     map[ssa.Node]bool{},
	}
	for _, b := range f.Blocks {
		g.walkFrom(b.Instrs[0].(ssa.Node))
	}
	return g
}

// walkFrom explores every node reachable from root through operand and
// referrer edges, in either direction, recording each edge exactly once.
func (g *FuncGraph) walkFrom(root ssa.Node) {
	g.seen[root] = true
	pending := []ssa.Node{root}
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		pending = g.expandOperands(n, pending)
		pending = g.expandReferrers(n, pending)
	}
}

func (g *FuncGraph) expandOperands(n ssa.Node, pending []ssa.Node) []ssa.Node {
	var ops []*ssa.Value
	for _, op := range n.Operands(ops) {
		on, ok := (*op).(ssa.Node)
		if !ok {
			continue
		}
		g.link(n, on, Operand)
		if !g.seen[on] {
			g.seen[on] = true
			pending = append(pending, on)
		}
	}
	return pending
}

func (g *FuncGraph) expandReferrers(n ssa.Node, pending []ssa.Node) []ssa.Node {
	refs := n.Referrers()
	if refs == nil {
		return pending
	}
	for _, ref := range *refs {
		rn := ref.(ssa.Node)
		g.link(n, rn, Referrer)
		if !g.seen[rn] {
			g.seen[rn] = true
			pending = append(pending, rn)
		}
	}
	return pending
}

func (g *FuncGraph) link(from, to ssa.Node, r relationship) {
	g.Children[from] = append(g.Children[from], Node{N: to, R: r})
}
