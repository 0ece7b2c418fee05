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
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/utils"
)

// Analyse runs every instruction of b against in, returning the resulting
// State. in is never mutated; the returned State is a fresh clone advanced
// by one block. ctrlOf, when non-nil, looks up a predecessor block's own
// control dependency, consulted only by the Phi case: an incoming edge
// whose value never appears as a tracked entry (a literal constant lifted
// directly onto the edge) still needs to pick up whatever branch decided
// that edge was taken.
func Analyse(b *ssa.BasicBlock, in *State, r *Resolver, ctrlOf func(*ssa.BasicBlock) *depinfo.ValueDepInfo) *State {
	s := in.Clone()
	for _, instr := range b.Instrs {
		step(instr, s, r, ctrlOf)
	}
	return s
}

func step(instr ssa.Instruction, s *State, r *Resolver, ctrlOf func(*ssa.BasicBlock) *depinfo.ValueDepInfo) {
	switch t := instr.(type) {
	case *ssa.Alloc:
		s.Set(t, depinfo.IndepValue())

	case *ssa.Store:
		storeTo(t.Addr, t.Val, s, r)

	case *ssa.UnOp:
		if t.Op == token.MUL {
			s.Set(t, loadFrom(t.X, s, r))
		} else {
			s.Set(t, s.Get(t.X).Clone())
		}

	case *ssa.BinOp:
		d := depinfo.JoinValue(s.Get(t.X), s.Get(t.Y))
		s.Set(t, d)

	case *ssa.Phi:
		acc := depinfo.IndepValue()
		preds := t.Block().Preds
		for i, e := range t.Edges {
			ed := s.Get(e).Clone()
			if ctrlOf != nil && i < len(preds) {
				if pd := ctrlOf(preds[i]); pd != nil {
					ed.MergeFrom(pd)
				}
			}
			acc = depinfo.JoinValue(acc, ed)
		}
		s.Set(t, acc)

	case *ssa.FieldAddr:
		// Computing a field's address isn't itself a read: the field's
		// data dependency is tracked in Mem, keyed on this instruction
		// (as an address), once something loads or stores through it.
		s.Set(t, s.Get(t.X).Clone())

	case *ssa.Field:
		base := s.Get(t.X)
		_, _, fieldName := utils.DecomposeField(t.X.Type(), t.Field)
		sub := base.FieldRead(depinfo.Field{Name: fieldName})
		s.Set(t, sub)

	case *ssa.IndexAddr:
		d := s.Get(t.X).Clone()
		d.MergeFrom(s.Get(t.Index))
		s.Set(t, d)

	case *ssa.Index:
		base := s.Get(t.X)
		f := constIndexField(t.Index)
		s.Set(t, depinfo.JoinValue(base.FieldRead(f), s.Get(t.Index)))

	case *ssa.Lookup:
		base := s.Get(t.X)
		f := constIndexField(t.Index)
		valDep := depinfo.JoinValue(base.FieldRead(f), s.Get(t.Index))
		if !t.CommaOk {
			s.Set(t, valDep)
			break
		}
		agg := depinfo.IndepValue()
		agg.FieldWrite(extractFieldFor(0), valDep)
		agg.FieldWrite(extractFieldFor(1), s.Get(t.Index).Clone())
		s.Set(t, agg)

	case *ssa.MapUpdate:
		base := s.Ensure(t.Map)
		f := constIndexField(t.Key)
		val := depinfo.JoinValue(s.Get(t.Value), s.Get(t.Key))
		base.FieldWrite(f, val)

	case *ssa.Convert:
		s.Set(t, s.Get(t.X).Clone())
	case *ssa.ChangeType:
		s.Set(t, s.Get(t.X).Clone())
	case *ssa.ChangeInterface:
		s.Set(t, s.Get(t.X).Clone())
	case *ssa.MakeInterface:
		s.Set(t, s.Get(t.X).Clone())

	case *ssa.Slice:
		d := s.Get(t.X).Clone()
		for _, bound := range []ssa.Value{t.Low, t.High, t.Max} {
			if bound != nil {
				d.MergeFrom(s.Get(bound))
			}
		}
		// Slicing an array reads its elements: fold in whatever was stored
		// through an element address of that same array.
		for addr, sd := range s.Mem.Stores {
			if ia, ok := addr.(*ssa.IndexAddr); ok && ia.X == t.X {
				d.MergeFrom(sd)
			}
		}
		s.Set(t, d)

	case *ssa.Extract:
		s.Set(t, s.Get(t.Tuple).FieldRead(depinfo.Field{Name: extractName(t.Index)}))

	case *ssa.MakeClosure:
		d := depinfo.IndepValue()
		for _, fv := range t.Bindings {
			d.MergeFrom(s.Get(fv))
		}
		s.Set(t, d)

	case *ssa.MakeMap, *ssa.MakeChan, *ssa.MakeSlice:
		s.Set(t.(ssa.Value), depinfo.IndepValue())

	case *ssa.TypeAssert:
		xd := s.Get(t.X)
		if !t.CommaOk {
			s.Set(t, xd.Clone())
			break
		}
		agg := depinfo.IndepValue()
		agg.FieldWrite(extractFieldFor(0), xd.Clone())
		agg.FieldWrite(extractFieldFor(1), xd.Clone())
		s.Set(t, agg)

	case *ssa.Next:
		d := depinfo.JoinValue(s.Get(t.Iter), depinfo.IndepValue())
		s.Set(t, d)

	case *ssa.Select:
		acc := depinfo.IndepValue()
		for _, st := range t.States {
			acc.MergeFrom(s.Get(st.Chan))
			if st.Send != nil {
				acc.MergeFrom(s.Get(st.Send))
			}
		}
		s.Set(t, acc)

	case *ssa.Send:
		storeTo(t.Chan, t.X, s, r)

	case *ssa.Call:
		results := callResult(t, &t.Call, s, r)
		applyCallResults(t, results, s)

	case *ssa.Go:
		callResult(t, &t.Call, s, r)
	case *ssa.Defer:
		callResult(t, &t.Call, s, r)

	case *ssa.Return, *ssa.Jump, *ssa.If, *ssa.Panic, *ssa.RunDefers, *ssa.DebugRef:
		// No SSA value produced; return/branch dependency is handled by the
		// function/loop analyser, which reads the operands directly.

	default:
		if v, ok := instr.(ssa.Value); ok {
			acc := depinfo.IndepValue()
			for _, op := range instr.Operands(nil) {
				if op != nil && *op != nil {
					acc.MergeFrom(s.Get(*op))
				}
			}
			s.Set(v, acc)
		}
	}
}

// constIndexField derives a Field key for an index operand: a constant
// index gets a stable per-position name so repeated accesses agree, a
// non-constant index (or a non-int constant, e.g. a map key) widens to
// depinfo.AnyField.
func constIndexField(index ssa.Value) depinfo.Field {
	c, ok := index.(*ssa.Const)
	if !ok || c.Value == nil {
		return depinfo.AnyField
	}
	return depinfo.Field{Name: "#" + c.Value.String()}
}

// extractName names the field under which Extract reads one element of a
// tuple-valued instruction's result (e.g. a multi-return Call).
func extractName(index int) string {
	return "#" + strconv.Itoa(index)
}
