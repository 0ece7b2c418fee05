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

// Package runctx bundles the collaborators a full analysis run needs —
// the alias oracle, the call graph, the library signature registry, and
// the traversal plans computed along the way — behind one explicit
// handle, rather than closing over them ad hoc in each stage.
package runctx

import (
	"sync"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/alias"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callgraph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/cfgplan"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/module"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/registry"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

// AnalysisCtx is the context every stage of a run is handed: the
// read-only collaborators (alias, call graph, library registry) plus the
// module driver's output once it has run.
type AnalysisCtx struct {
	Alias     alias.Oracle
	Callgraph callgraph.Oracle
	Libs      *registry.Registry

	plansMu sync.Mutex
	plans   map[*ssa.Function]*cfgplan.Plan

	mod *module.Module
	res *result.Result
}

// New runs the module driver over funcs and returns a context holding the
// completed result alongside the collaborators that produced it.
func New(funcs []*ssa.Function, cg callgraph.Oracle, ao alias.Oracle, libs *registry.Registry) *AnalysisCtx {
	if libs == nil {
		libs = registry.Default()
	}
	ctx := &AnalysisCtx{
		Alias:     ao,
		Callgraph: cg,
		Libs:      libs,
		plans:     map[*ssa.Function]*cfgplan.Plan{},
	}
	ctx.mod = module.Analyse(funcs, cg, module.Options{Registry: libs, Alias: ao})
	ctx.res = result.New(ctx.mod)
	return ctx
}

// Result returns the public query surface over the completed analysis.
func (c *AnalysisCtx) Result() *result.Result { return c.res }

// Module returns the per-function summaries and call-site registry
// backing Result, for clients that need more than the query surface
// (persistence, DOT export).
func (c *AnalysisCtx) Module() *module.Module { return c.mod }

// Plan returns fn's traversal plan, building and caching it on first
// request so repeated queries (statistics, DOT export) don't redo
// dominance and loop-structure computation.
func (c *AnalysisCtx) Plan(fn *ssa.Function) *cfgplan.Plan {
	c.plansMu.Lock()
	defer c.plansMu.Unlock()
	if p, ok := c.plans[fn]; ok {
		return p
	}
	p := cfgplan.Build(fn)
	c.plans[fn] = p
	return p
}
