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

package cfgplan

import (
	"golang.org/x/tools/go/ssa"
)

// ControllingPreds returns, for block b, the predecessors whose branch
// makes b's execution conditional: a predecessor p controls b when p has
// more than one successor and b does not post-dominate p (so reaching b
// isn't guaranteed merely by reaching p).
func (pl *Plan) ControllingPreds(b *ssa.BasicBlock) []*ssa.BasicBlock {
	var out []*ssa.BasicBlock
	for _, p := range b.Preds {
		if len(p.Succs) <= 1 {
			continue
		}
		if pl.PostDom.PostDominates(b, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsNonDeterministic reports whether b is reached only under a branch
// whose outcome isn't guaranteed by reaching one of its predecessors,
// i.e. it has at least one controlling predecessor.
func (pl *Plan) IsNonDeterministic(b *ssa.BasicBlock) bool {
	return len(pl.ControllingPreds(b)) > 0
}
