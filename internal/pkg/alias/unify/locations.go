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

// Package unify builds a context-insensitive, whole-program approximation
// of the alias.Oracle contract out of a union-find partitioning of abstract
// memory locations. Locations are unified, never given field-sensitive
// sub-partitions beyond a single constant-or-any field tag, trading some
// precision for an implementation that stays small and fast to build.
package unify

import (
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// location is an abstract memory location: either the object an
// address-producing instruction/value refers to, or a (base, field)
// pair reached through it.
type location struct {
	base  ssa.Value // canonicalizing value: Alloc, Global, FreeVar, Parameter, or a heap-producing call
	field string    // "" for the base object itself, a field/index name, or "*" for any-index
}

// parent implements union-find path-compressed lookup over locations.
type parent map[location]location

func (p parent) find(l location) location {
	root := l
	for {
		next, ok := p[root]
		if !ok {
			p[root] = root
			return root
		}
		if next == root {
			return root
		}
		root = next
	}
}

func (p parent) union(a, b location) {
	ra, rb := p.find(a), p.find(b)
	if ra == rb {
		return
	}
	p[ra] = rb
}
