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

// Item is one step of a function's analysis order: either an ordinary
// block, or (when Loop is non-nil and Block is its header) the point at
// which the whole loop should be handed to the loop analyser.
type Item struct {
	Block *ssa.BasicBlock
	Loop  *Loop // nil outside any loop
}

// Plan is the traversal planner's output: the order to analyse blocks
// in, the loop each block belongs to (if any), and the set of blocks
// that were unreachable from entry and must be skipped.
type Plan struct {
	Items       []Item
	BlockLoop   map[*ssa.BasicBlock]*Loop
	Loops       []*Loop
	Unreachable map[*ssa.BasicBlock]bool
	Dom         DomTree
	PostDom     PostDomTree
}

// Build computes a Plan for fn in CFG mode: an order from entry where a
// block comes after every predecessor, except predecessors reached only
// via a back edge into a loop header, which are never waited on. This
// order places loop headers before the rest of their body and every
// non-loop predecessor before its successors; reverse postorder over the
// graph with back edges removed satisfies exactly this contract, so Build
// emits that reverse postorder directly.
func Build(fn *ssa.Function) *Plan {
	dom := BuildDominators(fn)
	pdom := BuildPostDominators(fn)
	loops, blockLoop := DetectLoops(fn, dom)

	order, reachable := rpo(fn)
	unreachable := map[*ssa.BasicBlock]bool{}
	for _, b := range fn.Blocks {
		if !reachable[b] {
			unreachable[b] = true
		}
	}

	items := make([]Item, 0, len(order))
	for _, b := range order {
		items = append(items, Item{Block: b, Loop: blockLoop[b]})
	}

	return &Plan{
		Items:       items,
		BlockLoop:   blockLoop,
		Loops:       loops,
		Unreachable: unreachable,
		Dom:         dom,
		PostDom:     pdom,
	}
}

// SCCItem groups a plan step produced by treating the CFG's strongly
// connected components as units: singleton SCCs are ordinary blocks;
// multi-block SCCs are collapsed into the unit headed by their loop
// header, matching Build's grouping for reducible CFGs but derived
// independently (SCC mode, per the traversal planner's two-mode
// contract).
type SCCItem struct {
	Blocks []*ssa.BasicBlock
	Header *ssa.BasicBlock // first block in program order; the loop header for multi-block SCCs
}

// BuildSCC computes the same ordering contract as Build but by
// collapsing the CFG's strongly connected components, rather than by
// consulting loop/dominator information directly.
func BuildSCC(fn *ssa.Function) []SCCItem {
	_, reachable := rpo(fn)
	var blocks []*ssa.BasicBlock
	for _, b := range fn.Blocks {
		if reachable[b] {
			blocks = append(blocks, b)
		}
	}

	index := map[*ssa.BasicBlock]int{}
	low := map[*ssa.BasicBlock]int{}
	onStack := map[*ssa.BasicBlock]bool{}
	var stack []*ssa.BasicBlock
	counter := 0
	var sccs [][]*ssa.BasicBlock

	var strongConnect func(b *ssa.BasicBlock)
	strongConnect = func(b *ssa.BasicBlock) {
		index[b] = counter
		low[b] = counter
		counter++
		stack = append(stack, b)
		onStack[b] = true

		for _, s := range b.Succs {
			if !reachable[s] {
				continue
			}
			if _, visited := index[s]; !visited {
				strongConnect(s)
				if low[s] < low[b] {
					low[b] = low[s]
				}
			} else if onStack[s] {
				if index[s] < low[b] {
					low[b] = index[s]
				}
			}
		}

		if low[b] == index[b] {
			var scc []*ssa.BasicBlock
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == b {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}
	for _, b := range blocks {
		if _, visited := index[b]; !visited {
			strongConnect(b)
		}
	}

	items := make([]SCCItem, 0, len(sccs))
	for i := len(sccs) - 1; i >= 0; i-- {
		scc := sccs[i]
		header := scc[len(scc)-1]
		for _, b := range scc {
			if b.Index < header.Index {
				header = b
			}
		}
		items = append(items, SCCItem{Blocks: scc, Header: header})
	}
	return items
}
