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

// Package callgraph defines the call-graph contract the rest of the
// analysis consults to resolve a call instruction to its possible
// targets, and provides a default implementation over class-hierarchy
// analysis plus the strongly-connected-component ordering the module
// driver needs to process functions bottom-up.
package callgraph

import (
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Oracle resolves a call instruction's possible callees.
type Oracle interface {
	// StaticCallee returns the single statically-known target of a direct
	// call, if any.
	StaticCallee(call *ssa.CallCommon) (*ssa.Function, bool)
	// DynamicCallees returns the (possibly conservative) set of targets of
	// a virtual or indirect call, resolved by whole-program analysis.
	DynamicCallees(call *ssa.CallCommon) []*ssa.Function
}

// CHAOracle implements Oracle using class-hierarchy analysis over the
// whole ssa.Program.
type CHAOracle struct {
	graph *callgraph.Graph
}

// BuildCHA constructs a CHAOracle for prog. All packages that should
// contribute to virtual-call resolution must already be built.
func BuildCHA(prog *ssa.Program) *CHAOracle {
	return &CHAOracle{graph: cha.CallGraph(prog)}
}

func (o *CHAOracle) StaticCallee(call *ssa.CallCommon) (*ssa.Function, bool) {
	if call.IsInvoke() {
		return nil, false
	}
	if fn := call.StaticCallee(); fn != nil {
		return fn, true
	}
	return nil, false
}

func (o *CHAOracle) DynamicCallees(call *ssa.CallCommon) []*ssa.Function {
	if o.graph == nil {
		return nil
	}
	var targets []*ssa.Function
	seen := map[*ssa.Function]bool{}
	for _, n := range o.graph.Nodes {
		for _, e := range n.Out {
			if e.Site == nil {
				continue
			}
			if e.Site.Common() == call && e.Callee.Func != nil && !seen[e.Callee.Func] {
				seen[e.Callee.Func] = true
				targets = append(targets, e.Callee.Func)
			}
		}
	}
	return targets
}

// AllFunctions returns every function reachable in the program used to
// build the oracle, including synthetic wrappers, which callers may wish
// to filter before handing to the SCC builder.
func AllFunctions(prog *ssa.Program) []*ssa.Function {
	var fns []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		fns = append(fns, fn)
	}
	return fns
}
