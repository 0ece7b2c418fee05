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

// Package loopanalysis runs a natural loop's body to a fixpoint: the
// dependency lattice has finite height, so repeatedly re-analysing the
// body with the state flowing back from its latches joined into the
// header's incoming state is guaranteed to converge, and converges
// monotonically (every iteration's state is >= the previous one).
package loopanalysis

import (
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/block"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/cfgplan"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
)

// maxIterations bounds pathological cases (it should never be hit: the
// lattice's height times the loop's field count is the real bound, but
// that number isn't known up front).
const maxIterations = 100

// Result is the outcome of running a loop to a fixpoint.
type Result struct {
	// BlockOut is every loop-body block's post-state on the final,
	// converged iteration.
	BlockOut map[*ssa.BasicBlock]*block.State
	// Exit is the state flowing out of the loop, joined across every
	// exiting block's contribution on the final iteration.
	Exit *block.State
}

// Analyse runs lp's body against headerIn (the state reaching the header
// from outside the loop) until the state flowing back through its
// latches stops changing, consulting plan for non-deterministic control
// dependency and r for alias/call resolution exactly as the per-block
// step does outside loops.
func Analyse(lp *cfgplan.Loop, plan *cfgplan.Plan, headerIn *block.State, r *block.Resolver) Result {
	order := bodyOrder(lp, plan)

	blockOut := map[*ssa.BasicBlock]*block.State{}
	var prevLatch *block.State

	for iter := 0; iter < maxIterations; iter++ {
		headerEntry := headerIn
		if prevLatch != nil {
			headerEntry = block.Join(headerIn, prevLatch)
		}
		newOut := runOnce(order, lp, plan, headerEntry, blockOut, r)
		latch := joinLatchStates(lp, newOut)

		converged := prevLatch != nil && statesEqual(latch, prevLatch)
		blockOut = newOut
		prevLatch = latch
		if converged {
			break
		}
	}

	return Result{BlockOut: blockOut, Exit: joinExitStates(lp, blockOut, plan)}
}

// bodyOrder returns lp's blocks ordered the way plan's overall traversal
// would visit them (header first, respecting forward edges within the
// body).
func bodyOrder(lp *cfgplan.Loop, plan *cfgplan.Plan) []*ssa.BasicBlock {
	var out []*ssa.BasicBlock
	for _, item := range plan.Items {
		if lp.Body[item.Block] {
			out = append(out, item.Block)
		}
	}
	return out
}

// runOnce analyses every block in order once, given the header's entry
// state for this iteration and the previous iteration's full block-out
// map (consulted for predecessors not yet reached this iteration, i.e.
// forward references arising from irreducible control flow).
func runOnce(order []*ssa.BasicBlock, lp *cfgplan.Loop, plan *cfgplan.Plan, headerEntry *block.State, prevOut map[*ssa.BasicBlock]*block.State, r *block.Resolver) map[*ssa.BasicBlock]*block.State {
	out := map[*ssa.BasicBlock]*block.State{}
	ctrlDeps := map[*ssa.BasicBlock]*depinfo.ValueDepInfo{}
	ctrlOf := func(p *ssa.BasicBlock) *depinfo.ValueDepInfo { return ctrlDeps[p] }

	for _, b := range order {
		in := inStateFor(b, lp, headerEntry, out, prevOut)

		computed := block.Analyse(b, in, r, ctrlOf)
		if plan.IsNonDeterministic(b) {
			dep := controllingDep(b, plan, out, prevOut)
			block.ApplyControlDep(computed, in, dep)
			ctrlDeps[b] = dep
		}
		out[b] = computed
	}
	return out
}

func inStateFor(b *ssa.BasicBlock, lp *cfgplan.Loop, headerEntry *block.State, out, prevOut map[*ssa.BasicBlock]*block.State) *block.State {
	if b == lp.Header {
		return headerEntry
	}
	var acc *block.State
	for _, p := range b.Preds {
		if !lp.Body[p] {
			continue // only reachable if b == header, handled above
		}
		var ps *block.State
		if s, ok := out[p]; ok {
			ps = s
		} else if s, ok := prevOut[p]; ok {
			ps = s
		} else {
			ps = block.NewState()
		}
		if acc == nil {
			acc = ps
		} else {
			acc = block.Join(acc, ps)
		}
	}
	if acc == nil {
		return block.NewState()
	}
	return acc
}

// controllingDep returns the join of the branch-condition dependency at
// every controlling predecessor of b, read from that predecessor's
// already-computed state this iteration (or the previous iteration's, if
// not yet reached).
func controllingDep(b *ssa.BasicBlock, plan *cfgplan.Plan, out, prevOut map[*ssa.BasicBlock]*block.State) *depinfo.ValueDepInfo {
	acc := depinfo.IndepValue()
	for _, p := range plan.ControllingPreds(b) {
		ifInstr, ok := lastIf(p)
		if !ok {
			continue
		}
		var ps *block.State
		if s, ok := out[p]; ok {
			ps = s
		} else if s, ok := prevOut[p]; ok {
			ps = s
		} else {
			continue
		}
		acc.MergeFrom(ps.Get(ifInstr.Cond))
	}
	return acc
}

func lastIf(b *ssa.BasicBlock) (*ssa.If, bool) {
	if len(b.Instrs) == 0 {
		return nil, false
	}
	last := b.Instrs[len(b.Instrs)-1]
	ifInstr, ok := last.(*ssa.If)
	return ifInstr, ok
}

func joinLatchStates(lp *cfgplan.Loop, out map[*ssa.BasicBlock]*block.State) *block.State {
	var acc *block.State
	for _, latch := range lp.Latches {
		s, ok := out[latch]
		if !ok {
			continue
		}
		if acc == nil {
			acc = s
		} else {
			acc = block.Join(acc, s)
		}
	}
	if acc == nil {
		return block.NewState()
	}
	return acc
}

func joinExitStates(lp *cfgplan.Loop, out map[*ssa.BasicBlock]*block.State, plan *cfgplan.Plan) *block.State {
	var acc *block.State
	for b := range lp.Body {
		s, ok := out[b]
		if !ok {
			continue
		}
		hasExitSucc := false
		for _, succ := range b.Succs {
			if !lp.Body[succ] {
				hasExitSucc = true
				break
			}
		}
		if !hasExitSucc {
			continue
		}
		if acc == nil {
			acc = s
		} else {
			acc = block.Join(acc, s)
		}
	}
	if acc == nil {
		return block.NewState()
	}
	return acc
}

// statesEqual compares two States structurally: same tracked values and
// stores, with equal DepInfo (field maps included via Flatten, which is
// sufficient for detecting that nothing changed between iterations since
// fields only ever grow or widen monotonically).
func statesEqual(a, b *block.State) bool {
	if len(a.Values) != len(b.Values) || len(a.Mem.Stores) != len(b.Mem.Stores) {
		return false
	}
	for v, d := range a.Values {
		od, ok := b.Values[v]
		if !ok || !d.Flatten().Equal(od.Flatten()) {
			return false
		}
	}
	for addr, d := range a.Mem.Stores {
		od, ok := b.Mem.Stores[addr]
		if !ok || !d.Flatten().Equal(od.Flatten()) {
			return false
		}
	}
	return true
}
