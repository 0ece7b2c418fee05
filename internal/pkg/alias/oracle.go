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

// Package alias defines the alias/modref contract the block analyser
// consults whenever a store or call might affect a value it's tracking,
// independent of whatever memory model backs the answer.
package alias

import (
	"golang.org/x/tools/go/ssa"
)

// Relation is the result of an alias query between two pointer-like values.
type Relation int

const (
	No Relation = iota
	May
	Partial
	Must
)

func (r Relation) String() string {
	switch r {
	case No:
		return "no"
	case May:
		return "may"
	case Partial:
		return "partial"
	case Must:
		return "must"
	default:
		return "?"
	}
}

// ModRefKind describes how an instruction touches a memory location.
type ModRefKind int

const (
	NoModRef ModRefKind = iota
	Ref
	Mod
	ModRef
)

func (m ModRefKind) String() string {
	switch m {
	case NoModRef:
		return "none"
	case Ref:
		return "ref"
	case Mod:
		return "mod"
	case ModRef:
		return "modref"
	default:
		return "?"
	}
}

// Oracle is the external alias/modref contract the dataflow pass queries.
// Querying it never mutates analysis state; implementations are read-only
// during the dataflow pass.
type Oracle interface {
	// Alias classifies the relationship between two pointer-typed values.
	Alias(p, q ssa.Value) Relation
	// ModRef classifies how instr touches the memory location named by q,
	// where size is the byte size of the access (0 if unknown/whole-object).
	ModRef(instr ssa.Instruction, q ssa.Value, size int64) ModRefKind
}
