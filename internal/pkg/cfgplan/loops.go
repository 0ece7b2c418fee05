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

// Loop is a natural loop: a header dominating every block in its body,
// reached back from at least one latch.
type Loop struct {
	Header  *ssa.BasicBlock
	Body    map[*ssa.BasicBlock]bool // includes Header
	Latches []*ssa.BasicBlock
	Exits   []*ssa.BasicBlock // blocks outside Body with a predecessor inside it
	Parent  *Loop
}

// DetectLoops finds every natural loop in fn using dom to recognize back
// edges (n -> h is a back edge iff h dominates n), merging back edges
// that share a header into a single loop. It returns the loops ordered
// outermost-first and a map from every block to its innermost enclosing
// loop (absent for blocks outside any loop).
func DetectLoops(fn *ssa.Function, dom DomTree) (loops []*Loop, blockLoop map[*ssa.BasicBlock]*Loop) {
	byHeader := map[*ssa.BasicBlock]*Loop{}
	var order []*ssa.BasicBlock // header discovery order, for determinism

	for _, b := range fn.Blocks {
		for _, s := range b.Succs {
			if !dom.Dominates(s, b) {
				continue
			}
			// b -> s is a back edge; s is the loop header.
			lp, ok := byHeader[s]
			if !ok {
				lp = &Loop{Header: s, Body: map[*ssa.BasicBlock]bool{s: true}}
				byHeader[s] = lp
				order = append(order, s)
			}
			lp.Latches = append(lp.Latches, b)
			addToLoopBody(lp, b)
		}
	}

	blockLoop = map[*ssa.BasicBlock]*Loop{}
	for _, h := range order {
		lp := byHeader[h]
		for b := range lp.Body {
			blockLoop[b] = lp
		}
		loops = append(loops, lp)
	}

	// Nest loops: a loop L1 is nested in L2 if L1's header is in L2's body
	// and L1 != L2; assign each block's innermost loop by body size.
	for _, inner := range loops {
		for _, outer := range loops {
			if inner == outer {
				continue
			}
			if outer.Body[inner.Header] && len(outer.Body) > len(inner.Body) {
				if inner.Parent == nil || len(inner.Parent.Body) > len(outer.Body) {
					inner.Parent = outer
				}
			}
		}
	}
	// Recompute blockLoop picking, per block, the loop with the smallest
	// body that contains it (innermost).
	blockLoop = map[*ssa.BasicBlock]*Loop{}
	for _, lp := range loops {
		for b := range lp.Body {
			cur, ok := blockLoop[b]
			if !ok || len(lp.Body) < len(cur.Body) {
				blockLoop[b] = lp
			}
		}
	}

	for _, lp := range loops {
		for b := range lp.Body {
			for _, s := range b.Succs {
				if !lp.Body[s] {
					lp.Exits = append(lp.Exits, s)
				}
			}
		}
	}

	return loops, blockLoop
}

// addToLoopBody walks predecessors backward from the latch until the
// header is reached, adding every block found to the loop body (the
// standard natural-loop construction).
func addToLoopBody(lp *Loop, latch *ssa.BasicBlock) {
	if lp.Body[latch] {
		return
	}
	stack := []*ssa.BasicBlock{latch}
	for len(stack) > 0 {
		n := len(stack) - 1
		b := stack[n]
		stack = stack[:n]
		if lp.Body[b] {
			continue
		}
		lp.Body[b] = true
		for _, p := range b.Preds {
			if !lp.Body[p] {
				stack = append(stack, p)
			}
		}
	}
}
