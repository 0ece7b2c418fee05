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

package cfgplan

import (
	"golang.org/x/tools/go/ssa"
)

// virtualExit is the root of the post-dominator tree: every block with no
// successors (a return, or a block ending in a call to a noreturn
// function) is treated as flowing into it.
var virtualExit *ssa.BasicBlock

// PostDomTree maps each block to its immediate post-dominator. Exit
// blocks map to the virtual exit (nil).
type PostDomTree map[*ssa.BasicBlock]*ssa.BasicBlock

// BuildPostDominators computes the immediate post-dominator tree for fn
// using the same Cooper-Harvey-Kennedy iteration as BuildDominators, run
// over the reversed graph with a synthetic root connecting every exit
// block.
func BuildPostDominators(fn *ssa.Function) PostDomTree {
	if len(fn.Blocks) == 0 {
		return PostDomTree{}
	}

	var exits []*ssa.BasicBlock
	for _, b := range fn.Blocks {
		if len(b.Succs) == 0 {
			exits = append(exits, b)
		}
	}
	if len(exits) == 0 {
		// No block returns (e.g. an infinite loop); nothing can
		// post-dominate anything beyond itself.
		return PostDomTree{}
	}

	// Reverse postorder of the predecessor graph, seeded from every exit,
	// with the virtual root ordered first.
	visited := map[*ssa.BasicBlock]bool{}
	var post []*ssa.BasicBlock
	var visit func(b *ssa.BasicBlock)
	visit = func(b *ssa.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, p := range b.Preds {
			visit(p)
		}
		post = append(post, b)
	}
	for _, e := range exits {
		visit(e)
	}
	order := make([]*ssa.BasicBlock, 0, len(post)+1)
	order = append(order, virtualExit)
	for i := len(post) - 1; i >= 0; i-- {
		order = append(order, post[i])
	}

	rank := make(map[*ssa.BasicBlock]int, len(order))
	for i, b := range order {
		rank[b] = i
	}

	ipdom := make(PostDomTree, len(order))
	ipdom[virtualExit] = virtualExit
	for _, e := range exits {
		ipdom[e] = virtualExit
	}

	intersect := func(a, b *ssa.BasicBlock) *ssa.BasicBlock {
		for a != b {
			for rank[a] > rank[b] {
				a = ipdom[a]
			}
			for rank[b] > rank[a] {
				b = ipdom[b]
			}
		}
		return a
	}

	changed := true
	for changed {
		changed = false
		for _, b := range order[1:] {
			if b == virtualExit {
				continue
			}
			isExit := len(b.Succs) == 0
			if isExit {
				continue
			}
			var newIdom *ssa.BasicBlock
			haveAny := false
			for _, s := range b.Succs {
				if !visited[s] {
					continue
				}
				if _, ok := ipdom[s]; !ok {
					continue
				}
				if !haveAny {
					newIdom = s
					haveAny = true
					continue
				}
				newIdom = intersect(newIdom, s)
			}
			if !haveAny {
				continue
			}
			if cur, ok := ipdom[b]; !ok || cur != newIdom {
				ipdom[b] = newIdom
				changed = true
			}
		}
	}
	return ipdom
}

// PostDominates reports whether a post-dominates b.
func (t PostDomTree) PostDominates(a, b *ssa.BasicBlock) bool {
	if a == b {
		return true
	}
	cur, ok := t[b]
	if !ok {
		return false
	}
	for cur != virtualExit {
		if cur == a {
			return true
		}
		next, ok := t[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}
