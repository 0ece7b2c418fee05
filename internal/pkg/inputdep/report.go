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

package inputdep

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

// printReport prints c as a table of labeled, comma-grouped counts, the
// way a -report-flagged CLI tool summarizes a run.
func printReport(c result.Counters) {
	w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	row := func(label string, n int) {
		fmt.Fprintf(w, "%s\t%s\n", label, humanize.Comma(int64(n)))
	}
	row("input-dependent instructions", c.InputDepInstrs)
	row("input-independent instructions", c.InputIndepInstrs)
	row("control-dependent instructions", c.ControlDepInstrs)
	row("data-dependent instructions", c.DataDepInstrs)
	row("argument-dependent instructions", c.ArgDepInstrs)
	row("global-dependent instructions", c.GlobalDepInstrs)
	row("input-dependent blocks", c.InputDepBlocks)
	row("input-independent blocks", c.InputIndepBlocks)
	row("unreachable blocks", c.UnreachableBlocks)
	row("unreachable functions", c.UnreachableFuncs)
}
