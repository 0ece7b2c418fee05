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

package config

import (
	"io/ioutil"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/config/regexp"
)

func mustRE(t *testing.T, pattern string) regexp.Regexp {
	t.Helper()
	re, err := regexp.New(pattern)
	if err != nil {
		t.Fatalf("compiling %q: %v", pattern, err)
	}
	return re
}

func TestIsExcludedMatchesOnPackageAndName(t *testing.T) {
	c := Config{
		Exclude: []funcMatcher{
			{PackageRE: mustRE(t, "^crypto/"), NameRE: mustRE(t, "^New")},
		},
	}
	if !c.IsExcluded("crypto/rand", "NewReader") {
		t.Error("expected crypto/rand.NewReader to be excluded")
	}
	if c.IsExcluded("crypto/rand", "Read") {
		t.Error("did not expect crypto/rand.Read to be excluded")
	}
	if c.IsExcluded("net/http", "NewRequest") {
		t.Error("did not expect net/http.NewRequest to be excluded")
	}
}

func TestIsExcludedUnsetFieldMatchesEverything(t *testing.T) {
	c := Config{Exclude: []funcMatcher{{PackageRE: mustRE(t, "^crypto/")}}}
	if !c.IsExcluded("crypto/rand", "AnythingAtAll") {
		t.Error("expected an unset NameRE to act as a wildcard")
	}
}

func TestReadConfigFromFile(t *testing.T) {
	readFileOnce = new(sync.Once)
	dir := t.TempDir()
	path := filepath.Join(dir, "exclude.yaml")
	if err := ioutil.WriteFile(path, []byte("Exclude:\n- PackageRE: \"^crypto/\"\n"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	configFile = path
	defer func() { configFile = "" }()

	c, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if !c.IsExcluded("crypto/rand", "Read") {
		t.Error("expected the loaded exclusion rule to apply")
	}
}

func TestReadConfigEmptyPathExcludesNothing(t *testing.T) {
	readFileOnce = new(sync.Once)
	configFile = ""

	c, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if c.IsExcluded("any/pkg", "AnyFunc") {
		t.Error("expected an empty config to exclude nothing")
	}
}

func TestSetConfigBypassesFile(t *testing.T) {
	set := &Config{Exclude: []funcMatcher{{PackageRE: mustRE(t, "^only/")}}}
	SetConfig(set)

	read, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if !read.IsExcluded("only/this", "F") {
		t.Error("expected the directly-installed config to take effect")
	}
}

func TestSetBytesParsesYAML(t *testing.T) {
	if err := SetBytes([]byte("Exclude:\n- PackageRE: \"^only/\"\n")); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	read, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if !read.IsExcluded("only/this", "F") {
		t.Error("expected the YAML-parsed config to take effect")
	}
}

func TestSetBytesRejectsUnknownFields(t *testing.T) {
	if err := SetBytes([]byte("Bogus: true\n")); err == nil {
		t.Error("expected strict unmarshalling to reject an unknown field")
	}
}
