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

// Package registry describes the dependency contract of functions whose
// bodies the analysis never walks: standard-library and other
// pre-compiled code. Each entry says which formal parameters (including
// the receiver, when present, at position 0) make the call's results
// input-dependent if the caller passes an input-dependent argument in
// one of a fixed set of positions.
package registry

// Signature captures how dependency flows through a function whose body
// isn't analysed directly.
//
// As an example, consider fmt.Sprintf:
//   func Sprintf(format string, a ...interface{}) string
// Its signature is:
//   "fmt.Sprintf": {IfDep: 0b11, DepRets: []int{0}}
// meaning: if the format string or the variadic slice is input-dependent,
// the returned string is too.
type Signature struct {
	// IfDep is a bitset over parameter positions (receiver at 0 when the
	// function has one); bit i set means "parameter i matters".
	IfDep int64
	// DepArgs names the parameter positions that become input-dependent
	// when one of the IfDep positions is.
	DepArgs []int
	// DepRets names the return positions that become input-dependent
	// when one of the IfDep positions is.
	DepRets []int
	// CallbackArgs names the parameter positions that are function
	// values the library itself invokes with input-dependent actuals
	// (e.g. sort.Slice's less func, run against input-dependent
	// elements). A statically resolvable function passed in one of
	// these positions is treated as called with InputDep arguments,
	// regardless of what the caller could prove about its own actuals.
	CallbackArgs []int
}

// Matters reports whether position i is one of the positions this
// signature triggers on.
func (s Signature) Matters(i int) bool {
	if i < 0 || i >= 64 {
		return false
	}
	return s.IfDep&(1<<uint(i)) != 0
}

var fromFirstArgToFirstRet = Signature{
	IfDep:   0b1,
	DepRets: []int{0},
}

// funcKey names an interface method by its name and a stringified
// signature, so that a dynamic dispatch on an interface value and a
// static call to a concrete method satisfying that interface resolve to
// the same entry.
type funcKey struct {
	name, signature string
}

// Registry holds the combined builtin and user-supplied function
// signatures consulted whenever analysis reaches a call whose callee
// body isn't walked.
type Registry struct {
	byQualifiedName map[string]Signature
	byInterfaceKey  map[funcKey]Signature
}

// New returns an empty Registry, ready for Set and Merge.
func New() *Registry {
	return &Registry{
		byQualifiedName: map[string]Signature{},
		byInterfaceKey:  map[funcKey]Signature{},
	}
}

// Set installs sig under qualifiedName, the same key Lookup consults.
func (r *Registry) Set(qualifiedName string, sig Signature) {
	r.byQualifiedName[qualifiedName] = sig
}

// Default returns a Registry pre-loaded with the builtin standard-library
// table.
func Default() *Registry {
	r := &Registry{
		byQualifiedName: make(map[string]Signature, len(builtinFuncSignatures)),
		byInterfaceKey:  make(map[funcKey]Signature, len(builtinInterfaceSignatures)),
	}
	for k, v := range builtinFuncSignatures {
		r.byQualifiedName[k] = v
	}
	for k, v := range builtinInterfaceSignatures {
		r.byInterfaceKey[k] = v
	}
	return r
}

// Lookup finds the signature for a statically resolved call by its fully
// qualified name, e.g. "fmt.Sprintf" or "(*bytes.Buffer).WriteString".
func (r *Registry) Lookup(qualifiedName string) (Signature, bool) {
	s, ok := r.byQualifiedName[qualifiedName]
	return s, ok
}

// LookupInterface finds the signature for a call dispatched (statically
// or dynamically) against an interface method, identified by its name
// and a signature string of the shape "(argType,argType)(retType,retType)".
func (r *Registry) LookupInterface(name, signature string) (Signature, bool) {
	s, ok := r.byInterfaceKey[funcKey{name: name, signature: signature}]
	return s, ok
}

// Merge overlays other's entries onto r, letting user configuration
// override or add to the builtin table.
func (r *Registry) Merge(other *Registry) {
	for k, v := range other.byQualifiedName {
		r.byQualifiedName[k] = v
	}
	for k, v := range other.byInterfaceKey {
		r.byInterfaceKey[k] = v
	}
}
