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
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/depinfo"
)

// aliasOf reports how addr relates to q, falling back to pointer identity
// when no oracle was supplied (e.g. from a unit test exercising a single
// opcode in isolation).
func aliasOf(r *Resolver, addr, q ssa.Value) alias.Relation {
	if r == nil || r.Alias == nil {
		if addr == q {
			return alias.Must
		}
		return alias.No
	}
	return r.Alias.Alias(addr, q)
}

// storeTo applies writing val through addr: every existing entry that may
// alias addr is weakened by joining val's dependency in (a may-write can't
// be ruled out), and addr's own entry is replaced outright, since the
// store just performed is the most recent write through that exact value.
func storeTo(addr, val ssa.Value, s *State, r *Resolver) {
	vd := s.Get(val).Clone()
	for k, d := range s.Mem.Stores {
		if k == addr {
			continue
		}
		switch aliasOf(r, addr, k) {
		case alias.May, alias.Partial, alias.Must:
			d.MergeFrom(vd)
		}
	}
	s.Mem.Stores[addr] = vd
}

// loadFrom returns the dependency observed when reading through addr: the
// join of every memory entry that might be the same storage, since any of
// them could be the one a non-strong alias analysis failed to rule out.
func loadFrom(addr ssa.Value, s *State, r *Resolver) *depinfo.ValueDepInfo {
	acc := depinfo.IndepValue()
	for k, d := range s.Mem.Stores {
		if k == addr {
			acc.MergeFrom(d)
			continue
		}
		switch aliasOf(r, addr, k) {
		case alias.May, alias.Partial, alias.Must:
			acc.MergeFrom(d)
		}
	}
	return acc
}
