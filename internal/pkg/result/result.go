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

// Package result wraps a converged module.Module into the read-only
// query surface downstream clients (cloning, extraction, reporting)
// consult, plus the one mutator the cloning client needs: rewriting a
// call site's recorded callee after it splits or inlines a function.
package result

import (
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/module"
)

// Counters tallies how many instructions/blocks fell into each category,
// for statistics reporting.
type Counters struct {
	InputDepInstrs, InputIndepInstrs   int
	ControlDepInstrs, DataDepInstrs    int
	ArgDepInstrs, GlobalDepInstrs      int
	InputDepBlocks, InputIndepBlocks   int
	UnreachableBlocks, UnreachableFuncs int
}

// Result is the immutable (except for RewriteCallee) query surface over
// a converged Module.
type Result struct {
	mod *module.Module
}

// New wraps mod for querying.
func New(mod *module.Module) *Result {
	return &Result{mod: mod}
}

// IsInputDepFunction reports whether every formal argument of fn, bound
// to InputDep, would make fn's return value InputDep: a function is
// "input-dependent" when its contract is not a constant with respect to
// its own inputs once those inputs are themselves tainted.
func (r *Result) IsInputDepFunction(fn *ssa.Function) bool {
	s, ok := r.mod.Summaries[fn]
	if !ok {
		return false
	}
	for i := range s.Returns {
		args := make([]*depinfo.ValueDepInfo, len(fn.Params))
		for j := range args {
			args[j] = depinfo.NewValueDepInfo(depinfo.Input())
		}
		if s.Result(i, args).IsInputDep() {
			return true
		}
	}
	return false
}

// IsInputDependentBlock reports whether b carries a non-trivial
// control-dependency term, i.e. it is reached non-deterministically
// under an input-dependent or argument-dependent branch.
func (r *Result) IsInputDependentBlock(fn *ssa.Function, b *ssa.BasicBlock) bool {
	s, ok := r.mod.Summaries[fn]
	if !ok {
		return false
	}
	dep, ok := s.ControlDeps[b]
	if !ok {
		return false
	}
	return !dep.IsInputIndep()
}

func (r *Result) valueDep(fn *ssa.Function, v ssa.Value) (*depinfo.ValueDepInfo, bool) {
	s, ok := r.mod.Summaries[fn]
	if !ok {
		return nil, false
	}
	b := instrBlock(v)
	if b == nil {
		return nil, false
	}
	st, ok := s.States[b]
	if !ok {
		return nil, false
	}
	return st.Get(v), true
}

func instrBlock(v ssa.Value) *ssa.BasicBlock {
	instr, ok := v.(ssa.Instruction)
	if !ok {
		return nil
	}
	return instr.Block()
}

// IsInputDependent reports whether instruction i's computed value is
// InputDep. Instructions producing no value (branches, returns) are
// never input-dependent by this predicate; use IsControlDependent for
// terminators.
func (r *Result) IsInputDependent(fn *ssa.Function, i ssa.Instruction) bool {
	v, ok := i.(ssa.Value)
	if !ok {
		return false
	}
	d, ok := r.valueDep(fn, v)
	if !ok {
		return false
	}
	return d.IsInputDep()
}

// IsInputIndependent reports whether instruction i's computed value is
// InputIndep.
func (r *Result) IsInputIndependent(fn *ssa.Function, i ssa.Instruction) bool {
	v, ok := i.(ssa.Value)
	if !ok {
		return false
	}
	d, ok := r.valueDep(fn, v)
	if !ok {
		return false
	}
	return d.IsInputIndep()
}

// IsControlDependent reports whether i's own operands are independent
// but its enclosing block is input-dependent for other reasons (it
// executes, or doesn't, depending on tainted control flow).
func (r *Result) IsControlDependent(fn *ssa.Function, i ssa.Instruction) bool {
	b := i.Block()
	if b == nil || !r.IsInputDependentBlock(fn, b) {
		return false
	}
	operandsIndep := true
	for _, op := range i.Operands(nil) {
		if op == nil || *op == nil {
			continue
		}
		if d, ok := r.valueDep(fn, *op); ok && !d.IsInputIndep() {
			operandsIndep = false
		}
	}
	return operandsIndep
}

// IsDataDependent reports whether at least one of i's operands is itself
// InputDep or ArgDep.
func (r *Result) IsDataDependent(fn *ssa.Function, i ssa.Instruction) bool {
	for _, op := range i.Operands(nil) {
		if op == nil || *op == nil {
			continue
		}
		d, ok := r.valueDep(fn, *op)
		if !ok {
			continue
		}
		if d.IsInputDep() || d.IsArgDep() {
			return true
		}
	}
	return false
}

// IsArgumentDependent reports whether instruction i's computed value
// still carries an unresolved ArgDep term (the enclosing function has
// not been finalized against a concrete caller context).
func (r *Result) IsArgumentDependent(fn *ssa.Function, i ssa.Instruction) bool {
	v, ok := i.(ssa.Value)
	if !ok {
		return false
	}
	d, ok := r.valueDep(fn, v)
	if !ok {
		return false
	}
	return d.IsArgDep()
}

// IsGlobalDependent reports whether i's computed value carries an
// unresolved ValueDep naming at least one global.
func (r *Result) IsGlobalDependent(fn *ssa.Function, i ssa.Instruction) bool {
	v, ok := i.(ssa.Value)
	if !ok {
		return false
	}
	d, ok := r.valueDep(fn, v)
	if !ok {
		return false
	}
	return d.IsOnlyGlobalValueDep()
}

// Counts tallies instruction/block categories across every analysed
// function, for statistics reporting.
func (r *Result) Counts(funcs []*ssa.Function) Counters {
	var c Counters
	for _, fn := range funcs {
		s, ok := r.mod.Summaries[fn]
		if !ok {
			c.UnreachableFuncs++
			continue
		}
		for _, b := range fn.Blocks {
			st, ok := s.States[b]
			if !ok {
				c.UnreachableBlocks++
				continue
			}
			if r.IsInputDependentBlock(fn, b) {
				c.InputDepBlocks++
			} else {
				c.InputIndepBlocks++
			}
			for _, instr := range b.Instrs {
				v, ok := instr.(ssa.Value)
				if !ok {
					continue
				}
				d := st.Get(v)
				switch {
				case d.IsInputDep():
					c.InputDepInstrs++
				case d.IsInputIndep():
					c.InputIndepInstrs++
				case d.IsArgDep():
					c.ArgDepInstrs++
				case d.IsOnlyGlobalValueDep():
					c.GlobalDepInstrs++
				}
				if r.IsControlDependent(fn, instr) {
					c.ControlDepInstrs++
				}
				if r.IsDataDependent(fn, instr) {
					c.DataDepInstrs++
				}
			}
		}
	}
	return c
}

// RewriteCallee implements the callee-replacement contract: i's recorded
// call-site facts move from oldCallee's entry to newCallee's, and
// oldCallee drops out of the called-functions set once it has no sites
// left.
func (r *Result) RewriteCallee(i ssa.CallInstruction, oldCallee, newCallee *ssa.Function) {
	r.mod.CallSites.RewriteCallee(i, oldCallee, newCallee)
}
