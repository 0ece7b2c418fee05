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

// Package persist writes the result layer's classification out to a
// SQLite side-channel keyed by stable textual IDs, so a later process
// can reconstruct which instructions/blocks/functions were found
// input-dependent without re-running the analysis. Each write is
// stamped with a fresh run ID, so successive analyses of an evolving
// program don't silently blend their tags together.
package persist

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/tools/go/ssa"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/tum-i4/input-dependency-analyzer-sub000/internal/pkg/result"
)

// Tag is one entry of the annotation vocabulary the query surface emits.
type Tag string

const (
	TagInputDepInstr      Tag = "input-dep-instr"
	TagInputIndepInstr    Tag = "input-indep-instr"
	TagControlDepInstr    Tag = "control-dep-instr"
	TagDataDepInstr       Tag = "data-dep-instr"
	TagDataIndepInstr     Tag = "data-indep-instr"
	TagArgDepInstr        Tag = "arg-dep-instr"
	TagGlobalDepInstr     Tag = "global-dep-instr"
	TagInputDepBlock      Tag = "input-dep-block"
	TagInputIndepBlock    Tag = "input-indep-block"
	TagInputDepFunction   Tag = "input-dep-function"
	TagInputIndepFunction Tag = "input-indep-function"
	TagExtracted          Tag = "extracted"
	TagUnreachable        Tag = "unreachable"
	TagUnknown            Tag = "unknown"
)

// Store is a handle to the annotation database.
type Store struct {
	conn *sqlite.Conn
}

// Open creates (if needed) and opens the annotation database at path.
func Open(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("open annotation db: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS annotations (
    run_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    tag TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_annotations_subject ON annotations(subject_id);
CREATE INDEX IF NOT EXISTS idx_annotations_run ON annotations(run_id);
`

// InstrID renders a stable textual key for an instruction: its
// function's qualified name, block index, and position within the
// block.
func InstrID(i ssa.Instruction) string {
	b := i.Block()
	if b == nil {
		return fmt.Sprintf("%s:?:?", FuncID(nil))
	}
	for idx, instr := range b.Instrs {
		if instr == i {
			return fmt.Sprintf("%s:%d:%d", FuncID(b.Parent()), b.Index, idx)
		}
	}
	return fmt.Sprintf("%s:%d:?", FuncID(b.Parent()), b.Index)
}

// BlockID renders a stable textual key for a basic block.
func BlockID(b *ssa.BasicBlock) string {
	return fmt.Sprintf("%s:%d", FuncID(b.Parent()), b.Index)
}

// FuncID renders a stable textual key for a function.
func FuncID(fn *ssa.Function) string {
	if fn == nil {
		return "<nil>"
	}
	return fn.RelString(nil)
}

// Write classifies every function in funcs and every block and
// instruction in it (unreachable blocks included) against r and persists
// the result under a freshly generated run
// ID, which is returned so the caller can report it.
func (s *Store) Write(r *result.Result, funcs []*ssa.Function) (runID string, err error) {
	runID = uuid.NewString()

	endFn, err := sqlitex.ImmediateTransaction(s.conn)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer endFn(&err)

	insertRun, err := s.conn.Prepare(`INSERT INTO runs (id) VALUES (?)`)
	if err != nil {
		return "", err
	}
	insertRun.BindText(1, runID)
	if _, err = insertRun.Step(); err != nil {
		_ = insertRun.Finalize()
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err = insertRun.Finalize(); err != nil {
		return "", err
	}

	insert, err := s.conn.Prepare(`INSERT INTO annotations (run_id, subject_id, kind, tag) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() { _ = insert.Finalize() }()

	put := func(subjectID, kind string, tag Tag) error {
		insert.BindText(1, runID)
		insert.BindText(2, subjectID)
		insert.BindText(3, kind)
		insert.BindText(4, string(tag))
		if _, stepErr := insert.Step(); stepErr != nil {
			return stepErr
		}
		return insert.Reset()
	}

	for _, fn := range funcs {
		funcTag := TagInputIndepFunction
		if r.IsInputDepFunction(fn) {
			funcTag = TagInputDepFunction
		}
		if err = put(FuncID(fn), "function", funcTag); err != nil {
			return "", fmt.Errorf("annotate function %s: %w", FuncID(fn), err)
		}

		for _, b := range fn.Blocks {
			blockTag := TagInputIndepBlock
			if r.IsInputDependentBlock(fn, b) {
				blockTag = TagInputDepBlock
			}
			if err = put(BlockID(b), "block", blockTag); err != nil {
				return "", fmt.Errorf("annotate block %s: %w", BlockID(b), err)
			}

			for _, instr := range b.Instrs {
				id := InstrID(instr)
				for _, tag := range instrTags(r, fn, instr) {
					if err = put(id, "instruction", tag); err != nil {
						return "", fmt.Errorf("annotate instr %s: %w", id, err)
					}
				}
			}
		}
	}

	return runID, nil
}

func instrTags(r *result.Result, fn *ssa.Function, instr ssa.Instruction) []Tag {
	var tags []Tag
	switch {
	case r.IsInputDependent(fn, instr):
		tags = append(tags, TagInputDepInstr)
	case r.IsInputIndependent(fn, instr):
		tags = append(tags, TagInputIndepInstr)
	default:
		tags = append(tags, TagUnknown)
	}
	if r.IsControlDependent(fn, instr) {
		tags = append(tags, TagControlDepInstr)
	}
	if r.IsDataDependent(fn, instr) {
		tags = append(tags, TagDataDepInstr)
	} else {
		tags = append(tags, TagDataIndepInstr)
	}
	if r.IsArgumentDependent(fn, instr) {
		tags = append(tags, TagArgDepInstr)
	}
	if r.IsGlobalDependent(fn, instr) {
		tags = append(tags, TagGlobalDepInstr)
	}
	return tags
}

// ReadTags returns every tag recorded for subjectID across all runs,
// most recent run first.
func (s *Store) ReadTags(subjectID string) ([]string, error) {
	stmt, err := s.conn.Prepare(
		`SELECT a.tag FROM annotations a
		 JOIN runs r ON r.id = a.run_id
		 WHERE a.subject_id = ?
		 ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("prepare tag query: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	stmt.BindText(1, subjectID)
	var tags []string
	for {
		hasRow, stepErr := stmt.Step()
		if stepErr != nil {
			return nil, fmt.Errorf("read tags for %s: %w", subjectID, stepErr)
		}
		if !hasRow {
			break
		}
		tags = append(tags, stmt.ColumnText(0))
	}
	return tags, nil
}
