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

// Package module drives funcanalysis across an entire program: functions
// are grouped into call-graph strongly-connected components and analysed
// bottom-up, so that by the time a caller is analysed every non-recursive
// callee it reaches already has a finished Summary to query. A recursive
// SCC is instead iterated in place, re-analysing every member against
// the group's own still-settling summaries until they stop changing.
package module

import (
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/alias"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/block"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callgraph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callsite"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/funcanalysis"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/registry"
)

// maxSCCIterations bounds a recursive component's internal fixpoint; the
// lattice's finite height guarantees termination well before this.
const maxSCCIterations = 50

// Module is the converged result of analysing a whole call graph: every
// function's Summary, plus the call-site bookkeeping accumulated along
// the way (consulted by the result layer to answer "what if the caller
// of X passed input-dependent data").
type Module struct {
	Summaries map[*ssa.Function]*funcanalysis.Summary
	CallSites *callsite.Registry
}

// Options configures how the driver resolves calls; Registry and Alias
// may be nil. A nil Registry is replaced by registry.Default(); with a
// nil Alias the block analyser treats only identical addresses as
// aliases.
type Options struct {
	Registry *registry.Registry
	Alias    alias.Oracle
}

// Analyse runs funcanalysis over every function in funcs, ordered
// bottom-up by oracle's call graph, and returns the converged Module.
func Analyse(funcs []*ssa.Function, oracle callgraph.Oracle, opts Options) *Module {
	sccs := callgraph.BottomUpSCCs(funcs, oracle)
	m := &Module{
		Summaries: map[*ssa.Function]*funcanalysis.Summary{},
		CallSites: callsite.NewRegistry(),
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}

	for _, scc := range sccs {
		if !scc.Recursive {
			fn := scc.Funcs[0]
			m.Summaries[fn] = funcanalysis.Analyse(fn, m.resolverFor(reg, opts.Alias))
			continue
		}
		m.analyseRecursiveSCC(scc.Funcs, reg, opts.Alias)
	}

	m.finalize(sccs)

	return m
}

// finalize runs the analysis's second phase, walking sccs in reverse —
// callers before callees, the mirror of the bottom-up order Analyse built
// them in — so that by the time a function's own caller_arg_deps/
// caller_global_deps are gathered from CallSites, every caller that fed
// them has itself already been finalized against its own real callers.
// A function none of whose formals any real call site ever supplied (most
// commonly one with no caller at all) is finalized with that formal bound
// to InputDep, so its body is analysed as if driven entirely by
// attacker-controlled input.
func (m *Module) finalize(sccs []callgraph.SCC) {
	for i := len(sccs) - 1; i >= 0; i-- {
		for _, fn := range sccs[i].Funcs {
			summary, ok := m.Summaries[fn]
			if !ok {
				continue
			}
			argDeps := map[int]*depinfo.ValueDepInfo{}
			globalDeps := map[*ssa.Global]*depinfo.ValueDepInfo{}
			if info, ok := m.CallSites.Callees[fn]; ok {
				argDeps, globalDeps = info.Merge()
			}
			for p := range fn.Params {
				if _, ok := argDeps[p]; !ok {
					argDeps[p] = depinfo.NewValueDepInfo(depinfo.Input())
				}
			}
			summary.Finalize(argDeps, globalDeps)
			m.propagateCallSites(fn, argDeps, globalDeps)
		}
	}
}

// propagateCallSites substitutes fn's own formals and globals, now that
// fn has been finalized, into every call-site fact recorded against a
// callee from a call instruction inside fn's own body: without this, a
// callee's caller_arg_deps would still read the raw ArgDep placeholder
// fn was analysed with instead of what fn's own finalization resolved it
// to, and finalization would stop propagating after a single hop.
func (m *Module) propagateCallSites(fn *ssa.Function, argDeps map[int]*depinfo.ValueDepInfo, globalDeps map[*ssa.Global]*depinfo.ValueDepInfo) {
	subst := func(d depinfo.DepInfo) depinfo.DepInfo {
		for pos, a := range argDeps {
			d = depinfo.SubstituteArg(d, depinfo.ArgRef{Fn: fn, Pos: pos}, a.DepInfo)
		}
		for g, a := range globalDeps {
			d = depinfo.SubstituteValue(d, depinfo.ValueRef{Value: g}, a.DepInfo)
		}
		return d
	}
	for _, info := range m.CallSites.Callees {
		for instr, site := range info.Sites {
			if instr.Parent() != fn {
				continue
			}
			for pos, d := range site.ArgDeps {
				site.ArgDeps[pos] = depinfo.NewValueDepInfo(subst(d.DepInfo))
			}
			for g, d := range site.GlobalDeps {
				site.GlobalDeps[g] = depinfo.NewValueDepInfo(subst(d.DepInfo))
			}
		}
	}
}

// analyseRecursiveSCC re-analyses every member of a mutually-recursive
// component against the group's own summaries-in-progress until no
// member's Returns change, then commits the result.
func (m *Module) analyseRecursiveSCC(funcs []*ssa.Function, reg *registry.Registry, ao alias.Oracle) {
	for _, fn := range funcs {
		m.Summaries[fn] = &funcanalysis.Summary{Fn: fn, Returns: make([]depinfo.DepInfo, numResults(fn))}
		for i := range m.Summaries[fn].Returns {
			m.Summaries[fn].Returns[i] = depinfo.Indep()
		}
	}

	for iter := 0; iter < maxSCCIterations; iter++ {
		changed := false
		for _, fn := range funcs {
			next := funcanalysis.Analyse(fn, m.resolverFor(reg, ao))
			if !summaryEqual(m.Summaries[fn], next) {
				changed = true
			}
			m.Summaries[fn] = next
		}
		if !changed {
			break
		}
	}
}

func numResults(fn *ssa.Function) int {
	if fn.Signature.Results() == nil {
		return 0
	}
	return fn.Signature.Results().Len()
}

func summaryEqual(a, b *funcanalysis.Summary) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Returns) != len(b.Returns) {
		return false
	}
	for i := range a.Returns {
		if !a.Returns[i].Equal(b.Returns[i]) {
			return false
		}
	}
	return true
}

// resolverFor builds a block.Resolver whose Summary callback reads from
// this Module's summaries map, picking up whatever has been computed so
// far (including the in-progress members of the SCC currently being
// iterated).
func (m *Module) resolverFor(reg *registry.Registry, ao alias.Oracle) *block.Resolver {
	return &block.Resolver{
		Alias:     ao,
		Registry:  reg,
		CallSites: m.CallSites,
		Summary: func(fn *ssa.Function) (block.CalleeSummary, bool) {
			s, ok := m.Summaries[fn]
			if !ok {
				return nil, false
			}
			return s, true
		},
	}
}
