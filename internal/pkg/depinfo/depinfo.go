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

// Package depinfo implements the dependency lattice that the rest of the
// analysis is built on: Unknown < InputIndep < ValueDep < ArgDep < InputDep,
// with join taking the maximum and unioning the side set that names the
// unresolved arguments or values of the resulting ArgDep/ValueDep level.
package depinfo

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// Level is a point in the dependency lattice.
type Level int

const (
	// Unknown is the bottom element; it must never leak into a finalized result.
	Unknown Level = iota
	// InputIndep means the value is derived only from constants and non-input globals.
	InputIndep
	// ValueDep means the value depends on a named set of SSA values whose own
	// dependency has not yet been resolved; the named values may be
	// package-level globals (see ValueRef).
	ValueDep
	// ArgDep means the value depends on a named set of the enclosing function's
	// formal arguments; resolved at finalization using caller context.
	ArgDep
	// InputDep means the value is transitively derived from program input.
	InputDep
)

func (l Level) String() string {
	switch l {
	case Unknown:
		return "unknown"
	case InputIndep:
		return "input-indep"
	case ValueDep:
		return "value-dep"
	case ArgDep:
		return "arg-dep"
	case InputDep:
		return "input-dep"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ArgRef names a formal argument of a specific function.
type ArgRef struct {
	Fn  *ssa.Function
	Pos int
}

func (a ArgRef) String() string {
	name := "?"
	if a.Fn != nil && a.Pos < len(a.Fn.Params) {
		name = a.Fn.Params[a.Pos].Name()
	}
	return fmt.Sprintf("%s#%d(%s)", fnName(a.Fn), a.Pos, name)
}

func fnName(fn *ssa.Function) string {
	if fn == nil {
		return "<nil>"
	}
	return fn.String()
}

// ValueRef names an SSA value whose dependency is, for now, unresolved.
// It is also used to name a global, in which case Value is an *ssa.Global.
type ValueRef struct {
	Value ssa.Value
}

func (v ValueRef) String() string {
	if v.Value == nil {
		return "<nil>"
	}
	return v.Value.Name()
}

// IsGlobal reports whether this ValueRef names a package-level global.
func (v ValueRef) IsGlobal() bool {
	_, ok := v.Value.(*ssa.Global)
	return ok
}

// DepInfo is the triple (level, args, values) every dataflow fact is made of.
//
// Invariants:
//   - level == InputIndep  => both sets empty
//   - level == ArgDep      => args non-empty
//   - level == ValueDep    => values non-empty
type DepInfo struct {
	Level  Level
	Args   map[ArgRef]struct{}
	Values map[ValueRef]struct{}
}

// Indep returns the InputIndep element.
func Indep() DepInfo { return DepInfo{Level: InputIndep} }

// Input returns the InputDep element.
func Input() DepInfo { return DepInfo{Level: InputDep} }

// OfArg returns an ArgDep element naming a single formal argument.
func OfArg(ref ArgRef) DepInfo {
	return DepInfo{Level: ArgDep, Args: map[ArgRef]struct{}{ref: {}}}
}

// OfValue returns a ValueDep element naming a single unresolved value.
func OfValue(ref ValueRef) DepInfo {
	return DepInfo{Level: ValueDep, Values: map[ValueRef]struct{}{ref: {}}}
}

// Join computes the least upper bound of a and b: the level is the max of
// the two levels. Only the side set belonging to that level is kept, as
// the union of both operands' sets (Args for ArgDep, Values for ValueDep);
// every other set, including one carried by the lower-level operand, is
// dropped. Join is idempotent, commutative and associative.
func Join(a, b DepInfo) DepInfo {
	lvl := a.Level
	if b.Level > lvl {
		lvl = b.Level
	}
	out := DepInfo{Level: lvl}
	if lvl == ArgDep {
		out.Args = unionArgs(a.Args, b.Args)
	}
	if lvl == ValueDep {
		out.Values = unionValues(a.Values, b.Values)
	}
	return out
}

func unionArgs(a, b map[ArgRef]struct{}) map[ArgRef]struct{} {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[ArgRef]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func unionValues(a, b map[ValueRef]struct{}) map[ValueRef]struct{} {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[ValueRef]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// IsInputDep reports whether d is InputDep.
func (d DepInfo) IsInputDep() bool { return d.Level == InputDep }

// IsArgDep reports whether d is ArgDep.
func (d DepInfo) IsArgDep() bool { return d.Level == ArgDep }

// IsInputIndep reports whether d is InputIndep.
func (d DepInfo) IsInputIndep() bool { return d.Level == InputIndep }

// IsValueDep reports whether d is ValueDep.
func (d DepInfo) IsValueDep() bool { return d.Level == ValueDep }

// IsOnlyGlobalValueDep reports whether d is ValueDep and every named value is a global.
func (d DepInfo) IsOnlyGlobalValueDep() bool {
	if d.Level != ValueDep || len(d.Values) == 0 {
		return false
	}
	for v := range d.Values {
		if !v.IsGlobal() {
			return false
		}
	}
	return true
}

// Equal reports structural equality between d and o.
func (d DepInfo) Equal(o DepInfo) bool {
	if d.Level != o.Level {
		return false
	}
	if len(d.Args) != len(o.Args) {
		return false
	}
	for k := range d.Args {
		if _, ok := o.Args[k]; !ok {
			return false
		}
	}
	if len(d.Values) != len(o.Values) {
		return false
	}
	for k := range d.Values {
		if _, ok := o.Values[k]; !ok {
			return false
		}
	}
	return true
}

// String renders a DepInfo for debugging.
func (d DepInfo) String() string {
	switch d.Level {
	case ArgDep:
		return "ArgDep" + setString(argsToStrings(d.Args))
	case ValueDep:
		return "ValueDep" + setString(valuesToStrings(d.Values))
	default:
		return d.Level.String()
	}
}

func argsToStrings(m map[ArgRef]struct{}) []string {
	var out []string
	for k := range m {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}

func valuesToStrings(m map[ValueRef]struct{}) []string {
	var out []string
	for k := range m {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}

func setString(elems []string) string {
	return "{" + strings.Join(elems, ",") + "}"
}

// SubstituteArg replaces every ArgDep element naming `from` with `with`,
// joining `with` into the result. Used when a callee's summary is
// specialized against a call site's actual argument dependencies.
func SubstituteArg(d DepInfo, from ArgRef, with DepInfo) DepInfo {
	if d.Level != ArgDep {
		return d
	}
	if _, ok := d.Args[from]; !ok {
		return d
	}
	rest := DepInfo{Level: ArgDep, Args: map[ArgRef]struct{}{}}
	for a := range d.Args {
		if a != from {
			rest.Args[a] = struct{}{}
		}
	}
	if len(rest.Args) == 0 {
		return with
	}
	return Join(rest, with)
}

// SubstituteValue replaces every ValueDep element naming `from` with `with`,
// joining `with` into the result. Used by loop reflection once a value's
// own dependency resolves, and when finalizing dependencies on globals.
func SubstituteValue(d DepInfo, from ValueRef, with DepInfo) DepInfo {
	if d.Level != ValueDep {
		return d
	}
	if _, ok := d.Values[from]; !ok {
		return d
	}
	rest := DepInfo{Level: ValueDep, Values: map[ValueRef]struct{}{}}
	for v := range d.Values {
		if v != from {
			rest.Values[v] = struct{}{}
		}
	}
	if len(rest.Values) == 0 {
		return with
	}
	return Join(rest, with)
}
