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

package unify

import (
	"go/types"
	"strconv"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/alias"
)

// Model is a whole-program, context-insensitive alias.Oracle built once from
// every analysed function's body.
type Model struct {
	parents parent
	loc     map[ssa.Value]location // value -> the location it denotes or points to
	escaped map[location]bool      // locations reachable from a parameter, global, or call result
}

// Build scans every instruction of every function in fns (which should be
// ssaInput.SrcFuncs, the package's analysable function bodies) and returns
// the resulting Model.
func Build(fns []*ssa.Function) *Model {
	m := &Model{
		parents: parent{},
		loc:     map[ssa.Value]location{},
		escaped: map[location]bool{},
	}
	for _, fn := range fns {
		m.visitFunc(fn)
	}
	return m
}

func mayShareObject(t types.Type) bool {
	switch t.Underlying().(type) {
	case *types.Pointer, *types.Interface, *types.Map, *types.Chan, *types.Slice:
		return true
	}
	return false
}

func (m *Model) visitFunc(fn *ssa.Function) {
	for _, p := range fn.Params {
		if mayShareObject(p.Type()) {
			m.setLoc(p, location{base: p})
			m.markEscaped(m.parents.find(location{base: p}))
		}
	}
	for _, fv := range fn.FreeVars {
		if mayShareObject(fv.Type()) {
			m.setLoc(fv, location{base: fv})
			m.markEscaped(m.parents.find(location{base: fv}))
		}
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			m.visitInstr(instr)
		}
	}
}

func (m *Model) markEscaped(l location) { m.escaped[l] = true }

// setLoc records that v denotes location l, merging with any location
// already recorded for v.
func (m *Model) setLoc(v ssa.Value, l location) {
	if existing, ok := m.loc[v]; ok {
		m.parents.union(existing, l)
		return
	}
	m.loc[v] = l
	m.parents.find(l) // ensure it's registered
}

func (m *Model) locOf(v ssa.Value) (location, bool) {
	l, ok := m.loc[v]
	if !ok {
		return location{}, false
	}
	return m.parents.find(l), true
}

// alias unifies v1 and v2's locations, i.e. they henceforth denote the same
// abstract object. Used for must-alias producing instructions (Phi operands,
// conversions, bitcasts).
func (m *Model) alias(v1, v2 ssa.Value) {
	if !mayShareObject(v1.Type()) || !mayShareObject(v2.Type()) {
		return
	}
	l1, ok1 := m.locOf(v1)
	l2, ok2 := m.locOf(v2)
	switch {
	case ok1 && ok2:
		m.parents.union(l1, l2)
	case ok1:
		m.setLoc(v2, l1)
	case ok2:
		m.setLoc(v1, l2)
	default:
		l := location{base: v1}
		m.setLoc(v1, l)
		m.setLoc(v2, l)
	}
}

// field records that addr is a field/index access rooted at base.
func (m *Model) field(addr ssa.Value, base ssa.Value, name string) {
	if !mayShareObject(addr.Type()) {
		return
	}
	bl, ok := m.locOf(base)
	if !ok {
		bl = location{base: base}
		m.setLoc(base, bl)
	}
	m.setLoc(addr, location{base: bl.base, field: joinField(bl.field, name)})
}

func joinField(existing, name string) string {
	if existing == "" {
		return name
	}
	if existing == "*" || name == "*" {
		return "*"
	}
	if existing == name {
		return existing
	}
	return "*"
}

func constIndexName(idx ssa.Value) string {
	if c, ok := idx.(*ssa.Const); ok {
		return c.Name()
	}
	return "*"
}

func (m *Model) visitInstr(instr ssa.Instruction) {
	switch i := instr.(type) {
	case *ssa.FieldAddr:
		m.field(i, i.X, strconv.Itoa(i.Field))
	case *ssa.Field:
		m.field(i, i.X, strconv.Itoa(i.Field))
	case *ssa.IndexAddr:
		m.field(i, i.X, constIndexName(i.Index))
	case *ssa.Index:
		m.field(i, i.X, constIndexName(i.Index))
	case *ssa.Lookup:
		if !i.CommaOk {
			m.field(i, i.X, constIndexName(i.Index))
		}
	case *ssa.MapUpdate:
		m.field(i.Map, i.Map, constIndexName(i.Key))
		if mayShareObject(i.Value.Type()) {
			l, ok := m.locOf(i.Map)
			if ok {
				m.setLoc(i.Value, location{base: l.base, field: joinField(l.field, constIndexName(i.Key))})
			}
		}
	case *ssa.Phi:
		for _, e := range i.Edges {
			m.alias(i, e)
		}
	case *ssa.Store:
		if mayShareObject(i.Val.Type()) {
			m.field(i.Addr, i.Addr, "*ptr")
			l, _ := m.locOf(i.Addr)
			m.setLoc(i.Val, location{base: l.base, field: joinField(l.field, "*ptr")})
		}
	case *ssa.UnOp:
		if i.Op.String() == "*" {
			m.field(i, i.X, "*ptr")
		}
		if i.Op.String() == "<-" {
			m.field(i, i.X, "*")
		}
	case *ssa.Convert, *ssa.ChangeType, *ssa.ChangeInterface, *ssa.MakeInterface:
		if v, ok := instr.(ssa.Value); ok {
			for _, op := range i.(interface{ Operands([]*ssa.Value) []*ssa.Value }).Operands(nil) {
				if *op != nil {
					m.alias(v, *op)
				}
			}
		}
	case *ssa.Slice:
		m.alias(i, i.X)
	case *ssa.Extract:
		// conservatively unify with the tuple-producing instruction's base
		// location; precise per-index tracking isn't needed by this oracle.
		if mayShareObject(i.Type()) {
			if base, ok := i.Tuple.(ssa.Value); ok {
				m.field(i, base, "extract."+strconv.Itoa(i.Index))
			}
		}
	case *ssa.Alloc:
		m.setLoc(i, location{base: i})
	case *ssa.MakeClosure, *ssa.MakeMap, *ssa.MakeChan, *ssa.MakeSlice:
		if v, ok := instr.(ssa.Value); ok {
			m.setLoc(v, location{base: v})
		}
	case *ssa.Call:
		if mayShareObject(i.Type()) {
			m.setLoc(i, location{base: i})
			m.markEscaped(m.parents.find(location{base: i}))
		}
		for _, a := range i.Call.Args {
			if mayShareObject(a.Type()) {
				if l, ok := m.locOf(a); ok {
					m.markEscaped(l)
				}
			}
		}
	}
}

// Alias implements alias.Oracle.
func (m *Model) Alias(p, q ssa.Value) alias.Relation {
	if p == q {
		return alias.Must
	}
	lp, okp := m.locOf(p)
	lq, okq := m.locOf(q)
	if !okp || !okq {
		return alias.No
	}
	if lp.base != lq.base {
		return alias.No
	}
	if lp.field == lq.field {
		return alias.Must
	}
	if lp.field == "*" || lq.field == "*" {
		return alias.Partial
	}
	return alias.No
}

// ModRef implements alias.Oracle. The unify model doesn't track individual
// instructions per location, so it answers conservatively: a Store/MapUpdate/
// Send/Call that could plausibly touch q's location is ModRef; a Load/UnOp
// dereference is Ref; anything unrelated is NoModRef.
func (m *Model) ModRef(instr ssa.Instruction, q ssa.Value, size int64) alias.ModRefKind {
	lq, ok := m.locOf(q)
	if !ok {
		return alias.NoModRef
	}
	touches := func(v ssa.Value) bool {
		lv, ok := m.locOf(v)
		if !ok {
			return false
		}
		return lv.base == lq.base
	}
	switch i := instr.(type) {
	case *ssa.Store:
		if touches(i.Addr) {
			return alias.Mod
		}
	case *ssa.MapUpdate:
		if touches(i.Map) {
			return alias.Mod
		}
	case *ssa.Send:
		if touches(i.Chan) {
			return alias.Mod
		}
	case *ssa.UnOp:
		if i.Op.String() == "*" && touches(i.X) {
			return alias.Ref
		}
	case *ssa.Call:
		for _, a := range i.Call.Args {
			if touches(a) {
				return alias.ModRef
			}
		}
	}
	return alias.NoModRef
}

var _ alias.Oracle = (*Model)(nil)
