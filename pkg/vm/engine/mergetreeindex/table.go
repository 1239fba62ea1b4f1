// Copyright 2021 - 2022 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mergetreeindex exposes the primary-key index and mark metadata of
// a MergeTree table's parts as a read-only virtual table.
package mergetreeindex

import (
	"context"

	"go.uber.org/zap"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
	"github.com/LordVoldebug/ClickHouse/pkg/container/batch"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
	"github.com/LordVoldebug/ClickHouse/pkg/logutil"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine/mergetree"
)

const (
	// PartNameColumn holds the part name of every row of that part.
	PartNameColumn = "part_name"
	// MarkNumberColumn counts marks 0..N-1 within a part.
	MarkNumberColumn = "mark_number"
	// RowsInGranuleColumn holds the row count covered by each mark.
	RowsInGranuleColumn = "rows_in_granule"

	// MarkSuffix is the nested suffix selecting the marks of an underlying
	// column: "<column>.mark".
	MarkSuffix = "mark"
)

// Table is the virtual table bound to one source MergeTree table.  The part
// snapshot and primary-key schema are captured once at construction and
// shared read-only by every scan.
type Table struct {
	name      string
	source    mergetree.IndexProvider
	withMarks bool

	parts    []*mergetree.DataPart
	keyAttrs []engine.Attribute
	attrs    []engine.Attribute
}

var _ engine.Relation = new(Table)

// NewTable binds the virtual table to source.  The source must implement
// the index-provider capability; anything else fails with a configuration
// error naming the table.
func NewTable(ctx context.Context, name string, source engine.Relation, withMarks bool) (*Table, error) {
	provider, ok := source.(mergetree.IndexProvider)
	if !ok {
		return nil, moerr.NewBadArguments(ctx,
			"storage MergeTreeIndex expected MergeTree table, got: %s", source.Name())
	}
	t := &Table{
		name:      name,
		source:    provider,
		withMarks: withMarks,
		parts:     provider.DataParts(),
		keyAttrs:  provider.PrimaryKey(),
	}
	t.attrs = t.buildAttributes()
	return t, nil
}

// buildAttributes computes the exposed virtual schema: the primary-key
// columns, the synthetic part columns and, in marks mode, one nested mark
// tuple per underlying column.
func (t *Table) buildAttributes() []engine.Attribute {
	attrs := make([]engine.Attribute, 0, len(t.keyAttrs)+3+len(t.source.Attributes()))
	attrs = append(attrs, t.keyAttrs...)
	attrs = append(attrs,
		engine.Attribute{Name: PartNameColumn, Type: types.New(types.T_varchar)},
		engine.Attribute{Name: MarkNumberColumn, Type: types.New(types.T_uint64)},
		engine.Attribute{Name: RowsInGranuleColumn, Type: types.New(types.T_uint64)},
	)
	if t.withMarks {
		for _, attr := range t.source.Attributes() {
			attrs = append(attrs, engine.Attribute{
				Name: attr.Name + "." + MarkSuffix,
				Type: types.New(types.T_tuple),
			})
		}
	}
	return attrs
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Attributes() []engine.Attribute {
	return t.attrs
}

func (t *Table) WithMarks() bool {
	return t.withMarks
}

// Scan builds a reader over the requested columns.  The access check is
// issued against the source table with the resolved real column names; the
// part list is narrowed by predicate pushdown on part names.
func (t *Table) Scan(ctx context.Context, columns []string, pred engine.Predicate, checker engine.AccessChecker) (engine.Reader, error) {
	if checker == nil {
		checker = engine.NullChecker{}
	}

	realColumns := t.resolveSourceColumns(columns)
	if err := checker.Check(ctx, engine.AccessRead, t.source.Name(), realColumns); err != nil {
		return nil, err
	}

	header := make([]engine.Attribute, len(columns))
	for i, name := range columns {
		header[i] = t.headerAttribute(name)
	}

	parts, err := t.filteredDataParts(ctx, pred)
	if err != nil {
		return nil, err
	}

	logutil.Debug("reading index from parts",
		zap.String("table", t.source.Name()),
		zap.Bool("with-marks", t.withMarks),
		zap.Int("parts", len(parts)))

	return newReader(t.name, header, t.keyAttrs, parts, t.withMarks), nil
}

// resolveSourceColumns maps requested names onto the source table's real
// column names: real columns pass through, "<col>.mark" resolves to the
// unescaped base column.  Names matching neither are dropped here and fail
// later during resolution.
func (t *Table) resolveSourceColumns(columns []string) []string {
	resolved := make([]string, 0, len(columns))
	for _, name := range columns {
		if t.sourceHasColumn(name) {
			resolved = append(resolved, name)
			continue
		}
		if t.withMarks {
			base, suffix := SplitNested(name)
			unescaped := mergetree.UnescapeForFileName(base)
			if suffix == MarkSuffix && t.sourceHasColumn(unescaped) {
				resolved = append(resolved, unescaped)
			}
		}
	}
	return resolved
}

func (t *Table) sourceHasColumn(name string) bool {
	for _, attr := range t.source.Attributes() {
		if attr.Name == name {
			return true
		}
	}
	return false
}

// headerAttribute types a requested column.  Unknown names keep an invalid
// type and are rejected by the reader with an error naming the column.
func (t *Table) headerAttribute(name string) engine.Attribute {
	for _, attr := range t.attrs {
		if attr.Name == name {
			return attr
		}
	}
	return engine.Attribute{Name: name}
}

// filteredDataParts narrows the snapshot by evaluating the predicate over a
// single-column block of part names.  Survivors keep snapshot order and
// cardinality; a predicate matching nothing legally yields zero parts.
func (t *Table) filteredDataParts(ctx context.Context, pred engine.Predicate) ([]*mergetree.DataPart, error) {
	if pred == nil || !pred.References(PartNameColumn) {
		return t.parts, nil
	}

	names := make([]string, len(t.parts))
	for i, part := range t.parts {
		names[i] = part.Name
	}
	bat := batch.New([]string{PartNameColumn})
	bat.SetVector(0, vector.NewWithStrings(types.New(types.T_varchar), names, nil))
	bat.SetRowCount(len(names))

	sel, err := pred.Eval(ctx, bat)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]struct{}, sel.GetCardinality())
	iter := sel.Iterator()
	for iter.HasNext() {
		row := iter.Next()
		if row < uint64(len(names)) {
			selected[names[row]] = struct{}{}
		}
	}

	filtered := make([]*mergetree.DataPart, 0, len(selected))
	for _, part := range t.parts {
		if _, ok := selected[part.Name]; ok {
			filtered = append(filtered, part)
		}
	}
	return filtered, nil
}
