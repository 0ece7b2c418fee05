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

package registry

import (
	"fmt"
	"io/ioutil"

	"sigs.k8s.io/yaml"
)

// entry is the YAML-facing shape of a Signature, keyed by the function's
// name (qualified by package/receiver) or, for an interface method, by
// name plus signature string.
type entry struct {
	Func      string `json:"func,omitempty"`
	Name      string `json:"name,omitempty"`
	Signature string `json:"signature,omitempty"`
	IfDep     int64  `json:"ifDep"`
	DepArgs   []int  `json:"depArgs,omitempty"`
	DepRets   []int  `json:"depRets,omitempty"`
}

type document struct {
	Functions  []entry `json:"functions,omitempty"`
	Interfaces []entry `json:"interfaces,omitempty"`
}

// Load reads a YAML file describing additional (or overriding) function
// signatures and returns a Registry containing only those entries; use
// Merge to layer it onto Default().
func Load(path string) (*Registry, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry config %s: %w", path, err)
	}
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing registry config %s: %w", path, err)
	}
	r := &Registry{
		byQualifiedName: make(map[string]Signature, len(doc.Functions)),
		byInterfaceKey:  make(map[funcKey]Signature, len(doc.Interfaces)),
	}
	for _, e := range doc.Functions {
		r.byQualifiedName[e.Func] = Signature{IfDep: e.IfDep, DepArgs: e.DepArgs, DepRets: e.DepRets}
	}
	for _, e := range doc.Interfaces {
		r.byInterfaceKey[funcKey{name: e.Name, signature: e.Signature}] = Signature{IfDep: e.IfDep, DepArgs: e.DepArgs, DepRets: e.DepRets}
	}
	return r, nil
}
