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

// Package inputdep exports the inputdep Analyzer.
package inputdep

import (
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/config"
	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/inputdep"
)

// Analyzer reports, for every analysed function, whether its result
// depends on its inputs.
var Analyzer = inputdep.Analyzer

// SetConfigBytes is a wrapper around the config package's SetBytes function.
var SetConfigBytes = config.SetBytes
