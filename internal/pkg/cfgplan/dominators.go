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

// Package cfgplan computes the traversal order, loop structure, and
// dominance facts the function and loop analysers need: a block order
// where every non-loop predecessor is analysed before its successor and
// loop headers are flagged, plus dominator/post-dominator trees used to
// classify blocks as deterministic or non-deterministic.
package cfgplan

import (
	"golang.org/x/tools/go/ssa"
)

// DomTree maps each block to its immediate dominator. The entry block
// maps to itself.
type DomTree map[*ssa.BasicBlock]*ssa.BasicBlock

// rpo returns the blocks reachable from entry in reverse postorder, and
// reports which blocks were unreachable.
func rpo(fn *ssa.Function) (order []*ssa.BasicBlock, reachable map[*ssa.BasicBlock]bool) {
	if len(fn.Blocks) == 0 {
		return nil, nil
	}
	entry := fn.Blocks[0]
	reachable = map[*ssa.BasicBlock]bool{}
	var post []*ssa.BasicBlock
	var visit func(b *ssa.BasicBlock)
	visit = func(b *ssa.BasicBlock) {
		if reachable[b] {
			return
		}
		reachable[b] = true
		for _, s := range b.Succs {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)
	order = make([]*ssa.BasicBlock, len(post))
	for i, b := range post {
		order[len(post)-1-i] = b
	}
	return order, reachable
}

// BuildDominators computes the immediate-dominator tree for fn using the
// iterative Cooper-Harvey-Kennedy algorithm over the public Preds/Succs
// fields, since the ssa package's own dominator computation is internal.
func BuildDominators(fn *ssa.Function) DomTree {
	order, reachable := rpo(fn)
	if len(order) == 0 {
		return DomTree{}
	}
	rpoIndex := make(map[*ssa.BasicBlock]int, len(order))
	for i, b := range order {
		rpoIndex[b] = i
	}
	idom := make(DomTree, len(order))
	entry := order[0]
	idom[entry] = entry

	intersect := func(a, b *ssa.BasicBlock) *ssa.BasicBlock {
		for a != b {
			for rpoIndex[a] > rpoIndex[b] {
				a = idom[a]
			}
			for rpoIndex[b] > rpoIndex[a] {
				b = idom[b]
			}
		}
		return a
	}

	changed := true
	for changed {
		changed = false
		for _, b := range order[1:] {
			var newIdom *ssa.BasicBlock
			for _, p := range b.Preds {
				if !reachable[p] {
					continue
				}
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p)
			}
			if newIdom == nil {
				continue
			}
			if idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

// Dominates reports whether a dominates b in tree.
func (t DomTree) Dominates(a, b *ssa.BasicBlock) bool {
	if a == b {
		return true
	}
	cur, ok := t[b]
	if !ok {
		return false
	}
	for {
		if cur == a {
			return true
		}
		parent, ok := t[cur]
		if !ok || parent == cur {
			return cur == a
		}
		cur = parent
	}
}
