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

// Package callsite records, per callee and per call instruction, the
// dependency of every actual argument and referenced global at that
// call site, so the module driver can later merge a caller's call-site
// facts into the dependency it hands the callee at finalization.
package callsite

import (
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
)

// Site is the set of facts recorded at one call instruction.
type Site struct {
	ArgDeps    map[int]*depinfo.ValueDepInfo
	GlobalDeps map[*ssa.Global]*depinfo.ValueDepInfo
	IsCallback bool
}

func newSite() *Site {
	return &Site{
		ArgDeps:    map[int]*depinfo.ValueDepInfo{},
		GlobalDeps: map[*ssa.Global]*depinfo.ValueDepInfo{},
	}
}

// FunctionCallDepInfo is keyed by callee and holds one Site per call
// instruction reaching it from a given caller function.
type FunctionCallDepInfo struct {
	Sites map[ssa.CallInstruction]*Site
}

// New returns an empty FunctionCallDepInfo.
func New() *FunctionCallDepInfo {
	return &FunctionCallDepInfo{Sites: map[ssa.CallInstruction]*Site{}}
}

// AddCall records (or updates) the facts for call site i.
func (f *FunctionCallDepInfo) AddCall(i ssa.CallInstruction, argDeps map[int]*depinfo.ValueDepInfo, globalDeps map[*ssa.Global]*depinfo.ValueDepInfo, isCallback bool) {
	s := newSite()
	for k, v := range argDeps {
		s.ArgDeps[k] = v
	}
	for k, v := range globalDeps {
		s.GlobalDeps[k] = v
	}
	s.IsCallback = isCallback
	f.Sites[i] = s
}

// RemoveCall drops call site i's recorded facts.
func (f *FunctionCallDepInfo) RemoveCall(i ssa.CallInstruction) {
	delete(f.Sites, i)
}

// Merge returns the per-argument, per-global join across every recorded
// call site: the dependency a callee should assume for a formal or
// global that any of its call sites supplies.
func (f *FunctionCallDepInfo) Merge() (argDeps map[int]*depinfo.ValueDepInfo, globalDeps map[*ssa.Global]*depinfo.ValueDepInfo) {
	argDeps = map[int]*depinfo.ValueDepInfo{}
	globalDeps = map[*ssa.Global]*depinfo.ValueDepInfo{}
	for _, s := range f.Sites {
		for pos, d := range s.ArgDeps {
			if cur, ok := argDeps[pos]; ok {
				cur.MergeFrom(d)
			} else {
				argDeps[pos] = d.Clone()
			}
		}
		for g, d := range s.GlobalDeps {
			if cur, ok := globalDeps[g]; ok {
				cur.MergeFrom(d)
			} else {
				globalDeps[g] = d.Clone()
			}
		}
	}
	return argDeps, globalDeps
}

// HasCallback reports whether any recorded call site passed a
// callback-style function argument.
func (f *FunctionCallDepInfo) HasCallback() bool {
	for _, s := range f.Sites {
		if s.IsCallback {
			return true
		}
	}
	return false
}

// Registry maps every callee a function calls to its accumulated
// call-site facts, and supports moving a callee's entry under the
// callee-replacement contract.
type Registry struct {
	Callees map[*ssa.Function]*FunctionCallDepInfo
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{Callees: map[*ssa.Function]*FunctionCallDepInfo{}}
}

// For returns (creating if absent) the FunctionCallDepInfo for callee.
func (r *Registry) For(callee *ssa.Function) *FunctionCallDepInfo {
	f, ok := r.Callees[callee]
	if !ok {
		f = New()
		r.Callees[callee] = f
	}
	return f
}

// Merge folds other's per-callee call-site facts into r, unioning sites
// recorded against the same callee (used when combining facts gathered
// in different blocks or loop iterations of the same function).
func (r *Registry) Merge(other *Registry) {
	for callee, info := range other.Callees {
		dst := r.For(callee)
		for instr, site := range info.Sites {
			dst.Sites[instr] = site
		}
	}
}

// RewriteCallee moves every call-site fact recorded for instruction i
// under oldCallee into newCallee, implementing the callee-replacement
// contract: i's entry is relocated, old is dropped from the called-set
// only if it has no other sites left, and new always ends up recorded.
func (r *Registry) RewriteCallee(i ssa.CallInstruction, oldCallee, newCallee *ssa.Function) {
	oldInfo, ok := r.Callees[oldCallee]
	if !ok {
		r.For(newCallee) // ensure newCallee is present even with nothing moved
		return
	}
	site, ok := oldInfo.Sites[i]
	if !ok {
		r.For(newCallee)
		return
	}
	delete(oldInfo.Sites, i)
	if len(oldInfo.Sites) == 0 {
		delete(r.Callees, oldCallee)
	}
	r.For(newCallee).Sites[i] = site
}
