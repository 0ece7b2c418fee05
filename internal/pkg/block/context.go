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

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/alias"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callsite"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/registry"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/utils"
)

// CalleeSummary is what the block analyser needs to know about a
// user-defined callee it does not itself walk: the dependency each return
// carries as a function of its own argument/global dependencies, expressed
// by letting the caller ask "what if formal i had dependency d".
type CalleeSummary interface {
	// Result returns the dependency of return value retIdx given the
	// dependency observed for every actual argument at this call site.
	Result(retIdx int, args []*depinfo.ValueDepInfo) *depinfo.ValueDepInfo
	// NumResults reports how many values the callee returns.
	NumResults() int
	// OutArg returns the dependency written back to the pointee of formal
	// argument pos by the end of the callee's body, given the dependency
	// observed for every actual argument at this call site.
	OutArg(pos int, args []*depinfo.ValueDepInfo) *depinfo.ValueDepInfo
}

// Resolver supplies everything the block analyser needs about the rest of
// the program: how two values alias, what a call to a not-yet-analysed or
// external function does to its arguments, and where to record call-site
// facts for later module-level reconciliation.
type Resolver struct {
	Alias     alias.Oracle
	Registry  *registry.Registry
	CallSites *callsite.Registry
	// Summary looks up a previously computed summary for a user-defined
	// function; returns false for functions not yet analysed (the module
	// driver re-runs the caller once the callee's SCC stabilizes).
	Summary func(fn *ssa.Function) (CalleeSummary, bool)
}

// qualifiedName renders fn the way the registry tables key stdlib
// functions and methods: "path.Func" or "(*path.Recv).Method".
func qualifiedName(fn *ssa.Function) string {
	if fn == nil {
		return ""
	}
	path, recv, name := utils.DecomposeFunction(fn)
	if recv != "" {
		return "(*" + path + "." + recv + ")." + name
	}
	return path + "." + name
}
