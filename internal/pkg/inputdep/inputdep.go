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

// Package inputdep wires the dependency engine (module, result, the
// alias and call-graph oracles, and the stdlib signature registry) into
// a golang.org/x/tools/go/analysis.Analyzer, the way the teacher wires
// its own dataflow passes. A callee whose body lives in an already
// analysed package (import, not the current one) never gets its own
// *ssa.Function body walked here; its summary instead crosses the
// package boundary as an analysis.Fact, the way cfa.Analyzer carries its
// own per-function facts.
package inputdep

import (
	"fmt"
	"reflect"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/alias/unify"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/callgraph"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/config"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/debug"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/funcanalysis"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/module"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/persist"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/registry"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/runctx"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/utils"
)

// ResultType is the query surface every function in the analysed
// package's dependency results can be asked about.
type ResultType = *result.Result

// funcFact is the cross-package summary of one function, distilled down
// to a registry.Signature: which formal parameters (or the receiver, at
// position 0) being input-dependent makes a return value input-dependent
// too. It is necessarily an approximation of the full per-return
// argument substitution a same-package call gets from funcanalysis —
// the same approximation the registry already makes for stdlib calls —
// but it is what an analysis.Fact can carry across a package boundary.
type funcFact struct {
	registry.Signature
}

func (f *funcFact) AFact() {}

var Analyzer = &analysis.Analyzer{
	Name:       "inputdep",
	Doc:        "reports, for every analysed function, whether its result depends on its inputs",
	Flags:      config.FlagSet,
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	ResultType: reflect.TypeOf(new(ResultType)).Elem(),
	FactTypes:  []analysis.Fact{new(funcFact)},
}

func run(pass *analysis.Pass) (interface{}, error) {
	conf, err := config.ReadConfig()
	if err != nil {
		return nil, err
	}

	ssaInput := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	funcs := excludeConfigured(conf, ssaInput.SrcFuncs)

	libs, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	importCrossPackageSignatures(pass, libs, funcs)

	oracle := callgraph.BuildCHA(ssaInput.Pkg.Prog)
	aliasModel := unify.Build(funcs)

	ctx := runctx.New(funcs, oracle, aliasModel, libs)
	r := ctx.Result()
	mod := ctx.Module()

	for _, fn := range funcs {
		debug.Tracef("analysed %s", fn.RelString(nil))
		debug.DOT(fn, r)
		exportFact(pass, mod, fn)
		if r.IsInputDepFunction(fn) {
			pass.Reportf(fn.Pos(), "%s is input-dependent", fn.RelString(nil))
		}
	}

	if path := config.AnnotateDBPath(); path != "" {
		if err := persistResults(path, r, funcs); err != nil {
			return nil, err
		}
	}

	if config.Report() {
		printReport(r.Counts(funcs))
	}

	return r, nil
}

// excludeConfigured drops every function the exclusion list names from
// the set the module driver walks; a call to one resolves through the
// library registry instead, as if its body were unavailable.
func excludeConfigured(conf *config.Config, funcs []*ssa.Function) []*ssa.Function {
	kept := make([]*ssa.Function, 0, len(funcs))
	for _, fn := range funcs {
		path, _, name := utils.DecomposeFunction(fn)
		if conf.IsExcluded(path, name) {
			continue
		}
		kept = append(kept, fn)
	}
	return kept
}

// loadRegistry builds the signature table module.Analyse resolves calls
// to unanalysed functions against: the builtin stdlib table, optionally
// overlaid with a host-supplied lib-config file.
func loadRegistry() (*registry.Registry, error) {
	libs := registry.Default()
	if path := config.LibConfigPath(); path != "" {
		overrides, err := registry.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading library signatures: %w", err)
		}
		libs.Merge(overrides)
	}
	return libs, nil
}

// importCrossPackageSignatures consults the facts exported by an
// already-analysed imported package for every callee funcs reaches whose
// own body isn't among funcs, and overlays the resulting signatures onto
// libs so module.Analyse treats those calls the same way it treats a
// stdlib call with a known registry entry.
func importCrossPackageSignatures(pass *analysis.Pass, libs *registry.Registry, funcs []*ssa.Function) {
	local := make(map[*ssa.Function]bool, len(funcs))
	for _, fn := range funcs {
		local[fn] = true
	}

	overlay := registry.New()
	seen := map[*ssa.Function]bool{}
	for _, fn := range funcs {
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				call, ok := instr.(ssa.CallInstruction)
				if !ok {
					continue
				}
				callee := call.Common().StaticCallee()
				if callee == nil || local[callee] || seen[callee] || callee.Object() == nil {
					continue
				}
				seen[callee] = true
				var fact funcFact
				if !pass.ImportObjectFact(callee.Object(), &fact) {
					continue
				}
				overlay.Set(qualifiedName(callee), fact.Signature)
			}
		}
	}
	libs.Merge(overlay)
}

// exportFact distills fn's converged summary into a registry.Signature
// fact so a downstream package's analysis of a caller of fn can resolve
// the call without re-walking fn's body.
func exportFact(pass *analysis.Pass, mod *module.Module, fn *ssa.Function) {
	if fn.Object() == nil {
		return
	}
	s, ok := mod.Summaries[fn]
	if !ok {
		return
	}
	pass.ExportObjectFact(fn.Object(), &funcFact{Signature: approximateSignature(s)})
}

// approximateSignature tests each formal parameter in isolation against
// an otherwise input-independent call, the way a library signature
// describes a function whose body is never walked: bit i of IfDep is
// set when driving parameter i to InputDep alone is enough to make some
// return value InputDep.
func approximateSignature(s *funcanalysis.Summary) registry.Signature {
	n := len(s.Fn.Params)
	var sig registry.Signature
	for i := 0; i < n && i < 64; i++ {
		if paramMakesResultDep(s, i) {
			sig.IfDep |= 1 << uint(i)
			sig.DepRets = allResultPositions(s)
		}
	}
	return sig
}

func paramMakesResultDep(s *funcanalysis.Summary, pos int) bool {
	args := make([]*depinfo.ValueDepInfo, len(s.Fn.Params))
	for i := range args {
		args[i] = depinfo.IndepValue()
	}
	if pos < len(args) {
		args[pos] = depinfo.NewValueDepInfo(depinfo.Input())
	}
	for i := range s.Returns {
		if s.Result(i, args).IsInputDep() {
			return true
		}
	}
	return false
}

func allResultPositions(s *funcanalysis.Summary) []int {
	pos := make([]int, len(s.Returns))
	for i := range pos {
		pos[i] = i
	}
	return pos
}

// qualifiedName renders fn the way the registry tables key stdlib
// functions and methods: "path.Func" or "(*path.Recv).Method".
func qualifiedName(fn *ssa.Function) string {
	path, recv, name := utils.DecomposeFunction(fn)
	if recv != "" {
		return "(*" + path + "." + recv + ")." + name
	}
	return path + "." + name
}

func persistResults(path string, r *result.Result, funcs []*ssa.Function) error {
	store, err := persist.Open(path)
	if err != nil {
		return fmt.Errorf("opening annotation database: %w", err)
	}
	defer func() { _ = store.Close() }()
	if _, err := store.Write(r, funcs); err != nil {
		return fmt.Errorf("writing annotations: %w", err)
	}
	return nil
}
