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

package block

import (
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/registry"
)

// recordCallSite saves this call's actual-argument dependencies against
// callee, for the module driver to fold in once callee's own summary is
// (re)computed. results, when non-nil, is what callee's summary predicted
// this call returns given the current argument dependencies; it has no
// bearing on the recorded facts, only on whether the caller needs to be
// revisited once callee's summary changes.
func recordCallSite(instr ssa.CallInstruction, callee *ssa.Function, results []*depinfo.ValueDepInfo, s *State, r *Resolver) {
	if r == nil || r.CallSites == nil {
		return
	}
	argDeps := map[int]*depinfo.ValueDepInfo{}
	for i, a := range instr.Common().Args {
		argDeps[i] = s.Get(a).Clone()
	}
	r.CallSites.For(callee).AddCall(instr, argDeps, nil, false)
}

// recordCallback handles a call through a func-typed value whose target
// isn't statically known: it records a callback-flagged site keyed by the
// target resolveClosureTarget finds when the called value is a
// *ssa.Function constant or a *ssa.MakeClosure over one, so closures
// created and immediately passed within the same function aren't treated
// as fully opaque, and by a nil callee otherwise (every dynamic call site
// with no resolvable target shares that bucket). A value wrapped in a
// MakeInterface is not unwrapped.
func recordCallback(instr ssa.CallInstruction, common *ssa.CallCommon, s *State, r *Resolver) {
	if r == nil || r.CallSites == nil {
		return
	}
	callee := resolveClosureTarget(common.Value)
	argDeps := map[int]*depinfo.ValueDepInfo{}
	for i, a := range common.Args {
		argDeps[i] = s.Get(a).Clone()
	}
	r.CallSites.For(callee).AddCall(instr, argDeps, nil, true)
}

// recordSignatureCallbacks handles a registry signature's CallbackArgs: for
// each named position that resolves to a statically known function, the
// library is assumed to invoke it with input-dependent actuals, so its
// call site is recorded with every argument forced to InputDep regardless
// of what the caller could prove about the values actually in scope.
func recordSignatureCallbacks(sig registry.Signature, instr ssa.CallInstruction, common *ssa.CallCommon, r *Resolver) {
	if len(sig.CallbackArgs) == 0 || r == nil || r.CallSites == nil {
		return
	}
	offset := 0
	if common.IsInvoke() {
		offset = 1
	}
	for _, pos := range sig.CallbackArgs {
		idx := pos - offset
		if idx < 0 || idx >= len(common.Args) {
			continue
		}
		callee := resolveClosureTarget(common.Args[idx])
		if callee == nil {
			continue
		}
		argDeps := map[int]*depinfo.ValueDepInfo{}
		for i := range callee.Params {
			argDeps[i] = depinfo.NewValueDepInfo(depinfo.Input())
		}
		r.CallSites.For(callee).AddCall(instr, argDeps, nil, true)
	}
}

// resolveClosureTarget unwraps the common shapes a callback value takes in
// SSA form: a direct *ssa.Function constant, or a *ssa.MakeClosure over
// one. Returns nil when the value truly isn't statically known (e.g. it
// came from a parameter or a map lookup).
func resolveClosureTarget(v ssa.Value) *ssa.Function {
	switch t := v.(type) {
	case *ssa.Function:
		return t
	case *ssa.MakeClosure:
		if fn, ok := t.Fn.(*ssa.Function); ok {
			return fn
		}
	}
	return nil
}
