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

// Package regexp wraps the standard library's regexp so a pattern can be
// unmarshalled straight out of a JSON or YAML configuration field.
package regexp

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Regexp is a *regexp.Regexp that knows how to unmarshal itself from a
// quoted pattern string.
type Regexp struct {
	re *regexp.Regexp
}

// New compiles pattern into a Regexp.
func New(pattern string) (Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regexp{}, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}
	return Regexp{re: re}, nil
}

// MatchString reports whether s contains any match of the pattern. A zero
// Regexp (an omitted config field) matches everything, so an unset
// matcher behaves as a wildcard rather than an always-false filter.
func (r Regexp) MatchString(s string) bool {
	if r.re == nil {
		return true
	}
	return r.re.MatchString(s)
}

// String returns the source pattern, or the empty string for a zero Regexp.
func (r Regexp) String() string {
	if r.re == nil {
		return ""
	}
	return r.re.String()
}

// UnmarshalJSON compiles the quoted pattern string. sigs.k8s.io/yaml
// converts YAML to JSON before decoding, so this also backs YAML configs.
func (r *Regexp) UnmarshalJSON(data []byte) error {
	var pattern string
	if err := json.Unmarshal(data, &pattern); err != nil {
		return fmt.Errorf("unmarshalling regexp pattern: %w", err)
	}
	compiled, err := New(pattern)
	if err != nil {
		return err
	}
	*r = compiled
	return nil
}

// MarshalJSON renders the Regexp back to its source pattern.
func (r Regexp) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
