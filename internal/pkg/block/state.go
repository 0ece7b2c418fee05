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

// Package block implements the per-block abstract interpreter: given an
// incoming dataflow State and a basic block, it produces the State that
// holds after every instruction in the block has executed, consulting an
// alias.Oracle for store/load propagation and a registry.Registry/
// callgraph.Oracle for calls whose body isn't walked directly.
package block

import (
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
)

// Mem records the dependency last written to an address, keyed by the SSA
// value that served as that address. Reads consult every entry that may
// alias the address being loaded from, per an alias.Oracle.
type Mem struct {
	Stores map[ssa.Value]*depinfo.ValueDepInfo
}

func newMem() *Mem {
	return &Mem{Stores: map[ssa.Value]*depinfo.ValueDepInfo{}}
}

// Clone returns a copy of m with an independent map and a clone of every
// entry, since stores and control-dependency merges mutate entries in
// place.
func (m *Mem) Clone() *Mem {
	out := newMem()
	for k, v := range m.Stores {
		out.Stores[k] = v.Clone()
	}
	return out
}

// State is the abstract state tracked across one function's blocks: a
// dependency for every SSA value computed so far, plus the memory model.
type State struct {
	Values map[ssa.Value]*depinfo.ValueDepInfo
	Mem    *Mem
}

// NewState returns an empty State.
func NewState() *State {
	return &State{Values: map[ssa.Value]*depinfo.ValueDepInfo{}, Mem: newMem()}
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	out := NewState()
	for k, v := range s.Values {
		out.Values[k] = v.Clone()
	}
	out.Mem = s.Mem.Clone()
	return out
}

// Get returns v's dependency, defaulting to input-independent when v has no
// recorded entry (e.g. a constant, or a value from a block not yet visited).
func (s *State) Get(v ssa.Value) *depinfo.ValueDepInfo {
	if d, ok := s.Values[v]; ok {
		return d
	}
	return depinfo.IndepValue()
}

// Set records v's dependency, overwriting any prior entry.
func (s *State) Set(v ssa.Value, d *depinfo.ValueDepInfo) {
	s.Values[v] = d
}

// Ensure returns v's stored ValueDepInfo, creating and storing an
// input-independent default first if v has no entry yet. Unlike Get, the
// returned pointer is always the one held in the map, so callers that
// intend to mutate it in place (e.g. FieldWrite on a map/struct base) see
// their mutation persist.
func (s *State) Ensure(v ssa.Value) *depinfo.ValueDepInfo {
	d, ok := s.Values[v]
	if !ok {
		d = depinfo.IndepValue()
		s.Values[v] = d
	}
	return d
}

// MergeInto joins d into v's current dependency and stores the result,
// creating v's entry if this is its first write (e.g. an out-argument a
// call writes through without v ever being the target of its own Alloc).
func (s *State) MergeInto(v ssa.Value, d *depinfo.ValueDepInfo) {
	cur := s.Get(v).Clone()
	cur.MergeFrom(d)
	s.Set(v, cur)
}

// Join merges two states reaching the same program point, producing the
// pointwise join of every tracked value and memory entry; a value or store
// present on only one side joins against an implicit input-independent
// default, matching the "missing means not yet observed" convention.
func Join(a, b *State) *State {
	out := NewState()
	for v, d := range a.Values {
		out.Values[v] = d.Clone()
	}
	for v, d := range b.Values {
		if cur, ok := out.Values[v]; ok {
			cur.MergeFrom(d)
		} else {
			out.Values[v] = d.Clone()
		}
	}
	for addr, d := range a.Mem.Stores {
		out.Mem.Stores[addr] = d.Clone()
	}
	for addr, d := range b.Mem.Stores {
		if cur, ok := out.Mem.Stores[addr]; ok {
			cur.MergeFrom(d)
		} else {
			out.Mem.Stores[addr] = d.Clone()
		}
	}
	return out
}

// ApplyControlDep joins dep into every value and store tracked in s,
// modelling the control dependency a non-deterministically reached block
// imposes on everything it computes: a value computed only because a
// branch went one way is at least as dependent as the branch condition
// itself. This applies to every entry s carries, including ones already
// present before the block ran (e.g. an address-taken local overwritten
// under the branch), not just ones the block newly introduced — a value
// reassigned under a tainted branch is exactly as control-dependent as one
// computed there for the first time.
func ApplyControlDep(s, base *State, dep *depinfo.ValueDepInfo) {
	for _, d := range s.Values {
		d.MergeFrom(dep)
	}
	for _, d := range s.Mem.Stores {
		d.MergeFrom(dep)
	}
}
