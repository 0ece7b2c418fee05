// Copyright 2019 Google LLC
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

// Package node formats SSA nodes for the dot renderer's node labels.
package node

import (
	"fmt"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// CanonicalName formats n the way it reads in source: "x = instr" for an
// instruction that also produces a value, the bare value name for a
// value that produces nothing else worth printing, the bare instruction
// text for one that produces no value (a store, a jump), and a package
// member's name for anything else (a free variable, a global).
func CanonicalName(n ssa.Node) string {
	value, isValue := n.(ssa.Value)
	instr, isInstr := n.(ssa.Instruction)
	switch {
	case isValue && isInstr:
		return fmt.Sprintf("%s = %s", value.Name(), instr.String())
	case isValue:
		return value.Name()
	case isInstr:
		return instr.String()
	}
	member, isMember := n.(ssa.Member)
	if !isMember {
		return ""
	}
	return member.Name()
}

// TrimmedType strips the "*ssa." package prefix go/ssa's concrete node
// types all share, leaving just the node kind ("Call", "BinOp", ...).
func TrimmedType(n ssa.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ssa.")
}
