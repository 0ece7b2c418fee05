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

// Package funcanalysis drives the per-block and per-loop analysers across
// one function's whole body and distills the result into a Summary: each
// return value's dependency as a function of the formal arguments
// (left as ArgDep placeholders, substituted once a caller's actual
// arguments are known) and of any global a call later needs finalized
// against. A function is analysed once per module-driver pass; its
// Summary is what lets a caller avoid re-walking the callee's body.
package funcanalysis

import (
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/block"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/cfgplan"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/loopanalysis"
)

// Summary is a function's dependency contract: every formal argument is
// left as a named ArgDep placeholder in Returns/Globals (free variables
// are seeded input-independent), and
// Result specializes a single return position against a call site's
// actual argument dependencies.
type Summary struct {
	Fn      *ssa.Function
	Returns []depinfo.DepInfo
	// Globals is the dependency written, across the whole function body,
	// to each package-level global the function stores through.
	Globals map[*ssa.Global]depinfo.DepInfo
	// OutArgDeps is, for every pointer-typed formal, the dependency
	// written to its pointee across the whole function body: what a
	// caller passing &actual in that position should merge into actual's
	// own dependency once the call returns.
	OutArgDeps map[*ssa.Parameter]*depinfo.ValueDepInfo
	// States is every reachable block's post-state on the converged
	// analysis, kept so the result layer can answer per-instruction
	// queries without re-running the analysis.
	States map[*ssa.BasicBlock]*block.State
	// ControlDeps holds, for every non-deterministic block outside a
	// loop, the control-dependency term merged into its instructions;
	// absent for deterministic blocks and for blocks inside a loop
	// (loopanalysis merges per-iteration control dep directly into its
	// states without surfacing the term separately).
	ControlDeps map[*ssa.BasicBlock]*depinfo.ValueDepInfo
}

// NumResults implements block.CalleeSummary.
func (s *Summary) NumResults() int { return len(s.Returns) }

// Result implements block.CalleeSummary: it substitutes every ArgDep
// placeholder naming one of Fn's formals with the dependency observed for
// the corresponding actual argument at the call site.
func (s *Summary) Result(i int, args []*depinfo.ValueDepInfo) *depinfo.ValueDepInfo {
	if i < 0 || i >= len(s.Returns) {
		return depinfo.IndepValue()
	}
	d := s.Returns[i]
	for pos, a := range args {
		d = depinfo.SubstituteArg(d, depinfo.ArgRef{Fn: s.Fn, Pos: pos}, a.DepInfo)
	}
	return depinfo.NewValueDepInfo(d)
}

// OutArg implements block.CalleeSummary: it reports the dependency written
// to the pointee of formal argument pos across the function body, with
// every ArgDep placeholder naming one of Fn's own formals substituted by
// args exactly as Result does for a return value.
func (s *Summary) OutArg(pos int, args []*depinfo.ValueDepInfo) *depinfo.ValueDepInfo {
	if pos < 0 || pos >= len(s.Fn.Params) {
		return depinfo.IndepValue()
	}
	d, ok := s.OutArgDeps[s.Fn.Params[pos]]
	if !ok {
		return depinfo.IndepValue()
	}
	out := d.DepInfo
	for apos, a := range args {
		out = depinfo.SubstituteArg(out, depinfo.ArgRef{Fn: s.Fn, Pos: apos}, a.DepInfo)
	}
	return depinfo.NewValueDepInfo(out)
}

// Finalize substitutes every ArgDep naming one of Fn's own formals with
// callerArgs' corresponding dependency, and every ValueDep naming a
// global with callerGlobals' dependency, throughout every return value,
// out-argument, global write, control-dependency term and per-instruction
// state the summary carries. Once finalized, a Summary's per-instruction
// queries reflect the function's real callers instead of the symbolic
// placeholders it was analysed with.
func (s *Summary) Finalize(callerArgs map[int]*depinfo.ValueDepInfo, callerGlobals map[*ssa.Global]*depinfo.ValueDepInfo) {
	subst := func(d depinfo.DepInfo) depinfo.DepInfo {
		for pos, a := range callerArgs {
			d = depinfo.SubstituteArg(d, depinfo.ArgRef{Fn: s.Fn, Pos: pos}, a.DepInfo)
		}
		for g, a := range callerGlobals {
			d = depinfo.SubstituteValue(d, depinfo.ValueRef{Value: g}, a.DepInfo)
		}
		return d
	}

	for i, d := range s.Returns {
		s.Returns[i] = subst(d)
	}
	for g, d := range s.Globals {
		s.Globals[g] = subst(d)
	}
	for p, d := range s.OutArgDeps {
		s.OutArgDeps[p] = substituteValueDep(d, subst)
	}
	for b, d := range s.ControlDeps {
		s.ControlDeps[b] = substituteValueDep(d, subst)
	}
	for _, st := range s.States {
		for v, d := range st.Values {
			st.Values[v] = substituteValueDep(d, subst)
		}
		for addr, d := range st.Mem.Stores {
			st.Mem.Stores[addr] = substituteValueDep(d, subst)
		}
	}
}

// substituteValueDep applies subst to v's own DepInfo and, recursively, to
// every field it carries.
func substituteValueDep(v *depinfo.ValueDepInfo, subst func(depinfo.DepInfo) depinfo.DepInfo) *depinfo.ValueDepInfo {
	if v == nil {
		return nil
	}
	out := depinfo.NewValueDepInfo(subst(v.DepInfo))
	if len(v.Fields) > 0 {
		out.Fields = make(map[depinfo.Field]*depinfo.ValueDepInfo, len(v.Fields))
		for f, sub := range v.Fields {
			out.Fields[f] = substituteValueDep(sub, subst)
		}
	}
	return out
}

// Analyse walks fn's whole body to a fixpoint (recursing into
// loopanalysis for each natural loop) and distills a Summary. r's
// Summary callback is consulted for every call whose callee isn't a
// registry-known stdlib function; fn itself is analysed with its own
// formal arguments left symbolic, so Analyse can run once per
// module-driver pass regardless of which callers exist yet.
func Analyse(fn *ssa.Function, r *block.Resolver) *Summary {
	plan := cfgplan.Build(fn)
	states := map[*ssa.BasicBlock]*block.State{}
	controlDeps := map[*ssa.BasicBlock]*depinfo.ValueDepInfo{}

	if len(fn.Blocks) == 0 {
		return buildSummary(fn, states, controlDeps)
	}

	entry := fn.Blocks[0]
	seed := seedState(fn)

	for _, item := range plan.Items {
		b := item.Block
		if _, done := states[b]; done {
			continue
		}
		if item.Loop != nil && item.Loop.Header == b {
			in := mergeIncoming(b, entry, plan, states, seed)
			res := loopanalysis.Analyse(item.Loop, plan, in, r)
			for lb, st := range res.BlockOut {
				states[lb] = st
			}
			continue
		}

		in := mergeIncoming(b, entry, plan, states, seed)
		ctrlOf := func(p *ssa.BasicBlock) *depinfo.ValueDepInfo { return controlDeps[p] }
		out := block.Analyse(b, in, r, ctrlOf)
		if plan.IsNonDeterministic(b) {
			dep := controlDepAt(b, plan, states)
			block.ApplyControlDep(out, in, dep)
			controlDeps[b] = dep
		}
		states[b] = out
	}

	return buildSummary(fn, states, controlDeps)
}

func seedState(fn *ssa.Function) *block.State {
	s := block.NewState()
	for i, p := range fn.Params {
		s.Set(p, depinfo.NewValueDepInfo(depinfo.OfArg(depinfo.ArgRef{Fn: fn, Pos: i})))
	}
	for _, fv := range fn.FreeVars {
		s.Set(fv, depinfo.IndepValue())
	}
	return s
}

// mergeIncoming joins the post-states of every non-back-edge predecessor
// of b; the function's entry block instead starts from seed.
func mergeIncoming(b, entry *ssa.BasicBlock, plan *cfgplan.Plan, states map[*ssa.BasicBlock]*block.State, seed *block.State) *block.State {
	if b == entry {
		return seed
	}
	var acc *block.State
	for _, p := range b.Preds {
		if plan.Dom.Dominates(b, p) {
			continue // back edge
		}
		ps, ok := states[p]
		if !ok {
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

func controlDepAt(b *ssa.BasicBlock, plan *cfgplan.Plan, states map[*ssa.BasicBlock]*block.State) *depinfo.ValueDepInfo {
	acc := depinfo.IndepValue()
	for _, p := range plan.ControllingPreds(b) {
		if len(p.Instrs) == 0 {
			continue
		}
		ifInstr, ok := p.Instrs[len(p.Instrs)-1].(*ssa.If)
		if !ok {
			continue
		}
		ps, ok := states[p]
		if !ok {
			continue
		}
		acc.MergeFrom(ps.Get(ifInstr.Cond))
	}
	return acc
}

func buildSummary(fn *ssa.Function, states map[*ssa.BasicBlock]*block.State, controlDeps map[*ssa.BasicBlock]*depinfo.ValueDepInfo) *Summary {
	n := 0
	if fn.Signature.Results() != nil {
		n = fn.Signature.Results().Len()
	}
	rets := make([]depinfo.DepInfo, n)
	for i := range rets {
		rets[i] = depinfo.Indep()
	}
	globals := map[*ssa.Global]depinfo.DepInfo{}
	outArgs := map[*ssa.Parameter]*depinfo.ValueDepInfo{}
	for _, p := range fn.Params {
		if _, ok := p.Type().Underlying().(*types.Pointer); ok {
			outArgs[p] = depinfo.IndepValue()
		}
	}

	for _, st := range states {
		for addr, d := range st.Mem.Stores {
			if g, ok := addr.(*ssa.Global); ok {
				globals[g] = depinfo.Join(globals[g], d.Flatten())
				continue
			}
			if p, ok := addr.(*ssa.Parameter); ok {
				if acc, tracked := outArgs[p]; tracked {
					acc.MergeFrom(d)
				}
			}
		}
	}
	for b, st := range states {
		for _, instr := range b.Instrs {
			ret, ok := instr.(*ssa.Return)
			if !ok {
				continue
			}
			for i, v := range ret.Results {
				if i >= len(rets) {
					break
				}
				rets[i] = depinfo.Join(rets[i], st.Get(v).Flatten())
			}
		}
	}

	return &Summary{Fn: fn, Returns: rets, Globals: globals, OutArgDeps: outArgs, States: states, ControlDeps: controlDeps}
}
