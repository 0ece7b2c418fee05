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

package callgraph

import (
	"golang.org/x/tools/go/ssa"
)

// SCC is a maximal set of mutually-recursive functions. A singleton SCC
// whose sole member doesn't call itself is an ordinary, non-recursive
// function.
type SCC struct {
	Funcs     []*ssa.Function
	Recursive bool
}

// EdgesOf returns, for each function in funcs, the set of functions it
// directly calls among funcs (calls leaving the set are omitted), using
// every call instruction's static callee and the oracle's resolution of
// virtual/indirect calls.
func EdgesOf(funcs []*ssa.Function, oracle Oracle) map[*ssa.Function][]*ssa.Function {
	inSet := make(map[*ssa.Function]bool, len(funcs))
	for _, f := range funcs {
		inSet[f] = true
	}
	edges := make(map[*ssa.Function][]*ssa.Function, len(funcs))
	for _, f := range funcs {
		seen := map[*ssa.Function]bool{}
		for _, b := range f.Blocks {
			for _, instr := range b.Instrs {
				call, ok := instr.(ssa.CallInstruction)
				if !ok {
					continue
				}
				common := call.Common()
				var callees []*ssa.Function
				if callee, ok := oracle.StaticCallee(common); ok {
					callees = []*ssa.Function{callee}
				} else {
					callees = oracle.DynamicCallees(common)
				}
				for _, callee := range callees {
					if inSet[callee] && !seen[callee] {
						seen[callee] = true
						edges[f] = append(edges[f], callee)
					}
				}
			}
		}
	}
	return edges
}

// BottomUpSCCs returns the strongly-connected components of the call
// graph restricted to funcs, in bottom-up order (callees before their
// callers): SCCs[0] contains only leaves (or the bottom of a recursive
// cycle), and the last entry contains the program's roots.
func BottomUpSCCs(funcs []*ssa.Function, oracle Oracle) []SCC {
	edges := EdgesOf(funcs, oracle)
	t := &tarjan{
		edges: edges,
		index: map[*ssa.Function]int{},
		low:   map[*ssa.Function]int{},
		onStk: map[*ssa.Function]bool{},
	}
	for _, f := range funcs {
		if _, visited := t.index[f]; !visited {
			t.strongConnect(f)
		}
	}
	// Tarjan emits SCCs in reverse topological order relative to edge
	// direction (caller -> callee), which is already bottom-up: a callee's
	// SCC is discovered and popped before its caller's.
	sccs := make([]SCC, len(t.sccs))
	for i, members := range t.sccs {
		recursive := len(members) > 1
		if !recursive && len(members) == 1 {
			for _, callee := range edges[members[0]] {
				if callee == members[0] {
					recursive = true
					break
				}
			}
		}
		sccs[i] = SCC{Funcs: members, Recursive: recursive}
	}
	return sccs
}

type tarjan struct {
	edges   map[*ssa.Function][]*ssa.Function
	index   map[*ssa.Function]int
	low     map[*ssa.Function]int
	onStk   map[*ssa.Function]bool
	stack   []*ssa.Function
	counter int
	sccs    [][]*ssa.Function
}

func (t *tarjan) strongConnect(v *ssa.Function) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStk[v] = true

	for _, w := range t.edges[v] {
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStk[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] == t.index[v] {
		var scc []*ssa.Function
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStk[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}
