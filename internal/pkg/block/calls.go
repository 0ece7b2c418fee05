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
	"go/types"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/registry"
)

func argDepsOf(common *ssa.CallCommon, s *State) []*depinfo.ValueDepInfo {
	var args []*depinfo.ValueDepInfo
	if common.IsInvoke() {
		args = append(args, s.Get(common.Value))
	}
	for _, a := range common.Args {
		args = append(args, s.Get(a))
	}
	return args
}

func numResults(common *ssa.CallCommon) int {
	res := common.Signature().Results()
	if res == nil {
		return 0
	}
	return res.Len()
}

// applySignature evaluates sig against the dependency observed for each
// actual argument, producing one result per return position: if any
// triggering position carries more than input-independent dependency, the
// positions sig names as dependent become the join of every triggering
// argument; everything else stays input-independent.
func applySignature(sig registry.Signature, args []*depinfo.ValueDepInfo, n int) []*depinfo.ValueDepInfo {
	trigger := depinfo.IndepValue()
	triggered := false
	for i, a := range args {
		if sig.Matters(i) && !a.IsInputIndep() {
			trigger.MergeFrom(a)
			triggered = true
		}
	}
	results := make([]*depinfo.ValueDepInfo, n)
	for i := range results {
		results[i] = depinfo.IndepValue()
	}
	if !triggered {
		return results
	}
	for _, ri := range sig.DepRets {
		if ri >= 0 && ri < n {
			results[ri] = trigger.Clone()
		}
	}
	return results
}

// applySignatureArgWrites reports, for the arguments sig marks as
// receiving propagated dependency (e.g. an io.Writer or *[]byte that the
// call writes through), the dependency each should be merged with.
func applySignatureArgWrites(sig registry.Signature, args []*depinfo.ValueDepInfo) map[int]*depinfo.ValueDepInfo {
	trigger := depinfo.IndepValue()
	triggered := false
	for i, a := range args {
		if sig.Matters(i) && !a.IsInputIndep() {
			trigger.MergeFrom(a)
			triggered = true
		}
	}
	if !triggered {
		return nil
	}
	out := map[int]*depinfo.ValueDepInfo{}
	for _, ai := range sig.DepArgs {
		if ai >= 0 && ai < len(args) {
			out[ai] = trigger.Clone()
		}
	}
	return out
}

func conservativeJoin(args []*depinfo.ValueDepInfo, n int) []*depinfo.ValueDepInfo {
	acc := depinfo.IndepValue()
	for _, a := range args {
		acc.MergeFrom(a)
	}
	results := make([]*depinfo.ValueDepInfo, n)
	for i := range results {
		results[i] = acc.Clone()
	}
	return results
}

func interfaceSigString(sig *types.Signature) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < sig.Params().Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(sig.Params().At(i).Type().String())
	}
	b.WriteString(")(")
	if res := sig.Results(); res != nil {
		for i := 0; i < res.Len(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(res.At(i).Type().String())
		}
	}
	b.WriteByte(')')
	return b.String()
}

// callResult evaluates a call/go/defer instruction's callee and returns
// the dependency of each result, applying argument-write-back through the
// state in the process (storeTo for any by-reference out-argument a
// signature or callee summary marks as written).
func callResult(instr ssa.CallInstruction, common *ssa.CallCommon, s *State, r *Resolver) []*depinfo.ValueDepInfo {
	args := argDepsOf(common, s)
	n := numResults(common)

	if common.IsInvoke() {
		if r != nil && r.Registry != nil {
			if sig, ok := r.Registry.LookupInterface(common.Method.Name(), interfaceSigString(common.Method.Type().(*types.Signature))); ok {
				writeBackArgs(sig, common, args, s)
				recordSignatureCallbacks(sig, instr, common, r)
				return applySignature(sig, args, n)
			}
		}
		return conservativeJoin(args, n)
	}

	callee := common.StaticCallee()
	if callee == nil {
		recordCallback(instr, common, s, r)
		return conservativeJoin(args, n)
	}

	if r != nil && r.Registry != nil {
		if sig, ok := r.Registry.Lookup(qualifiedName(callee)); ok {
			writeBackArgs(sig, common, args, s)
			recordSignatureCallbacks(sig, instr, common, r)
			return applySignature(sig, args, n)
		}
	}

	if r != nil && r.Summary != nil {
		if summary, ok := r.Summary(callee); ok {
			results := make([]*depinfo.ValueDepInfo, summary.NumResults())
			for i := range results {
				results[i] = summary.Result(i, args)
			}
			writeBackOutArgs(summary, common, args, s)
			recordCallSite(instr, callee, results, s, r)
			return results
		}
	}

	recordCallSite(instr, callee, nil, s, r)
	results := make([]*depinfo.ValueDepInfo, n)
	for i := range results {
		results[i] = depinfo.IndepValue()
	}
	return results
}

// writeBackOutArgs merges each actual argument's post-call dependency, as
// predicted by the callee's own summary for that formal's pointee, into
// the caller's state: the in-module equivalent of writeBackArgs for calls
// the registry doesn't know about. Non-pointer formals and formals the
// callee never writes through both report IndepValue, so the merge is a
// no-op for them.
func writeBackOutArgs(summary CalleeSummary, common *ssa.CallCommon, args []*depinfo.ValueDepInfo, s *State) {
	for pos, actual := range common.Args {
		d := summary.OutArg(pos, args)
		if d == nil || d.IsInputIndep() {
			continue
		}
		s.MergeInto(actual, d)
	}
}

func writeBackArgs(sig registry.Signature, common *ssa.CallCommon, args []*depinfo.ValueDepInfo, s *State) {
	writes := applySignatureArgWrites(sig, args)
	if len(writes) == 0 {
		return
	}
	offset := 0
	if common.IsInvoke() {
		offset = 1
	}
	for pos, d := range writes {
		idx := pos - offset
		if idx < 0 || idx >= len(common.Args) {
			continue
		}
		s.MergeInto(common.Args[idx], d)
	}
}

// applyCallResults records a *ssa.Call's own result(s) into the state: a
// single-result call's value is the call instruction itself, while a
// multi-result call's value is a tuple read back out through ssa.Extract,
// modelled as an aggregate ValueDepInfo whose per-index fields hold each
// result's dependency.
func applyCallResults(call *ssa.Call, results []*depinfo.ValueDepInfo, s *State) {
	if len(results) == 1 {
		s.Set(call, results[0])
		return
	}
	agg := depinfo.IndepValue()
	for i, d := range results {
		agg.FieldWrite(extractFieldFor(i), d)
	}
	s.Set(call, agg)
}

func extractFieldFor(i int) depinfo.Field {
	return depinfo.Field{Name: extractName(i)}
}
