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

package mergetreeindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
	"github.com/LordVoldebug/ClickHouse/pkg/testutil"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine/mergetree"
)

// newSourcePart builds an in-memory part with a materialized id index.
func newSourcePart(name string, typ mergetree.PartType, granules ...uint64) *mergetree.DataPart {
	part := testutil.NewPart(name, typ, granules...)
	ids := make([]uint64, len(granules))
	for i := range ids {
		ids[i] = uint64(i * 1000)
	}
	part.Index = []*vector.Vector{
		vector.NewWithFixed(types.New(types.T_uint64), ids, nil),
	}
	return part
}

func newSourceTable(parts ...*mergetree.DataPart) *mergetree.Table {
	attrs := testutil.Attrs("id", types.T_uint64, "name", types.T_varchar, "x", types.T_uint64)
	table := mergetree.NewTable("hits", attrs, attrs[:1])
	for _, part := range parts {
		table.AppendPart(part)
	}
	return table
}

type plainRelation struct{}

func (plainRelation) Name() string                   { return "plain_view" }
func (plainRelation) Attributes() []engine.Attribute { return nil }

func TestNewTableRequiresIndexProvider(t *testing.T) {
	ctx := context.Background()
	_, err := NewTable(ctx, "idx", plainRelation{}, false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	require.Contains(t, err.Error(), "plain_view")
}

func TestAttributes(t *testing.T) {
	ctx := context.Background()
	source := newSourceTable()

	table, err := NewTable(ctx, "idx", source, false)
	require.NoError(t, err)
	names := attrNames(table.Attributes())
	require.Equal(t, []string{"id", "part_name", "mark_number", "rows_in_granule"}, names)
	require.False(t, table.WithMarks())

	withMarks, err := NewTable(ctx, "idx", source, true)
	require.NoError(t, err)
	names = attrNames(withMarks.Attributes())
	require.Equal(t, []string{
		"id", "part_name", "mark_number", "rows_in_granule",
		"id.mark", "name.mark", "x.mark",
	}, names)

	markAttr := withMarks.Attributes()[4]
	require.Equal(t, types.T_tuple, markAttr.Type.Oid)
}

func attrNames(attrs []engine.Attribute) []string {
	names := make([]string, len(attrs))
	for i, attr := range attrs {
		names[i] = attr.Name
	}
	return names
}

func TestScanFiltersByPartName(t *testing.T) {
	ctx := context.Background()
	source := newSourceTable(
		newSourcePart("p1", mergetree.Wide, 8192, 150),
		newSourcePart("p2", mergetree.Wide, 100),
		newSourcePart("p3", mergetree.Wide, 7),
	)
	table, err := NewTable(ctx, "idx", source, false)
	require.NoError(t, err)

	// predicate on part_name narrows the scan
	pred := engine.NewEq(PartNameColumn, "p2")
	names, err := scanPartNames(ctx, table, pred)
	require.NoError(t, err)
	require.Equal(t, []string{"p2"}, names)

	// snapshot order is preserved regardless of predicate shape
	pred = engine.NewIn(PartNameColumn, "p3", "p1")
	names, err = scanPartNames(ctx, table, pred)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p3"}, names)

	// a predicate not referencing part_name keeps the full snapshot
	pred = engine.NewEq("id", uint64(0))
	names, err = scanPartNames(ctx, table, pred)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p1", "p2", "p3"}, names)

	// matching nothing is legal and yields an empty stream
	pred = engine.NewEq(PartNameColumn, "p9")
	names, err = scanPartNames(ctx, table, pred)
	require.NoError(t, err)
	require.Empty(t, names)
}

// scanPartNames reads the part_name column of every produced row.
func scanPartNames(ctx context.Context, table *Table, pred engine.Predicate) ([]string, error) {
	reader, err := table.Scan(ctx, []string{PartNameColumn}, pred, nil)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var names []string
	for {
		bat, err := reader.Read(ctx)
		if err != nil {
			return nil, err
		}
		if bat == nil {
			return names, nil
		}
		names = append(names, vector.MustStrCols(bat.GetVector(0))...)
	}
}

type recordingChecker struct {
	table   string
	columns []string
	err     error
}

func (c *recordingChecker) Check(_ context.Context, _ engine.AccessOp, table string, columns []string) error {
	c.table = table
	c.columns = columns
	return c.err
}

func TestScanAccessCheck(t *testing.T) {
	ctx := context.Background()
	source := newSourceTable(newSourcePart("p1", mergetree.Wide, 10))
	table, err := NewTable(ctx, "idx", source, true)
	require.NoError(t, err)

	// the check sees the source table and the resolved real columns, with
	// mark names mapped back to their base column
	checker := &recordingChecker{}
	_, err = table.Scan(ctx, []string{"part_name", "id", "x.mark"}, nil, checker)
	require.NoError(t, err)
	require.Equal(t, "hits", checker.table)
	require.Equal(t, []string{"id", "x"}, checker.columns)

	// a denied check aborts the scan before any part is touched
	denied := &recordingChecker{err: moerr.NewInternalError(ctx, "denied")}
	_, err = table.Scan(ctx, []string{"id"}, nil, denied)
	require.Error(t, err)
}
