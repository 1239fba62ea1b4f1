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

package mergetree_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
	"github.com/LordVoldebug/ClickHouse/pkg/testutil"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine/mergetree"
)

func TestOpenPartWide(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "all_1_1_0")

	spec := testutil.PartSpec{
		Columns:    testutil.Attrs("id", types.T_uint64, "name", types.T_varchar),
		PrimaryKey: []string{"id"},
		Granules:   []uint64{8192, 8192, 150},
		Info:       mergetree.GranularityInfo{Adaptive: true},
		IndexUint:  map[string][]uint64{"id": {0, 8192, 16384}},
	}
	require.NoError(t, testutil.WritePart(ctx, dir, spec))

	part, err := mergetree.OpenPart(ctx, dir, spec.PrimaryKey)
	require.NoError(t, err)

	require.Equal(t, "all_1_1_0", part.Name)
	require.Equal(t, mergetree.Wide, part.Type)
	require.Equal(t, 3, part.Granularity.MarksCount())
	require.Equal(t, uint64(16534), part.Granularity.TotalRows())
	require.Equal(t, []string{"id", "name"}, part.Columns())
	require.True(t, part.HasStream("id"))
	require.True(t, part.HasStream("name"))

	require.Len(t, part.Index, 1)
	require.Equal(t, []uint64{0, 8192, 16384}, vector.MustTCols[uint64](part.Index[0]))
}

func TestOpenPartCompact(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "all_2_2_0")

	spec := testutil.PartSpec{
		Columns:    testutil.Attrs("id", types.T_uint64, "name", types.T_varchar),
		PrimaryKey: []string{"id", "name"},
		Granules:   []uint64{100, 20},
		Compact:    true,
		Info:       mergetree.GranularityInfo{Adaptive: true, CompressedMarks: true},
		IndexUint:  map[string][]uint64{"id": {1, 101}},
		IndexStr:   map[string][]string{"name": {"aaa", "zzz"}},
	}
	require.NoError(t, testutil.WritePart(ctx, dir, spec))

	part, err := mergetree.OpenPart(ctx, dir, spec.PrimaryKey)
	require.NoError(t, err)

	require.Equal(t, mergetree.Compact, part.Type)
	require.True(t, part.Info.Adaptive)
	require.True(t, part.Info.CompressedMarks)
	require.Equal(t, 2, part.Granularity.MarksCount())
	require.Equal(t, uint64(120), part.Granularity.TotalRows())

	require.Len(t, part.Index, 2)
	require.Equal(t, []uint64{1, 101}, vector.MustTCols[uint64](part.Index[0]))
	require.Equal(t, []string{"aaa", "zzz"}, vector.MustStrCols(part.Index[1]))

	// marks written by the part builder load back through the shared loader
	ml := mergetree.NewMarksLoader(part, mergetree.DataFileName, len(part.Columns()), nil)
	mark, err := ml.GetMark(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, testutil.SyntheticMark(1, 1), mark)
}

func TestOpenTable(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	tableDir := filepath.Join(root, "hits")

	for _, name := range []string{"all_2_2_0", "all_1_1_0"} {
		spec := testutil.PartSpec{
			Columns:    testutil.Attrs("id", types.T_uint64),
			PrimaryKey: []string{"id"},
			Granules:   []uint64{10},
			Info:       mergetree.GranularityInfo{Adaptive: true},
			IndexUint:  map[string][]uint64{"id": {0}},
		}
		require.NoError(t, testutil.WritePart(ctx, filepath.Join(tableDir, name), spec))
	}

	table, err := mergetree.OpenTable(ctx, tableDir, []string{"id"})
	require.NoError(t, err)
	require.Equal(t, "hits", table.Name())
	require.Equal(t, 2, table.PartsCount())

	parts := table.DataParts()
	require.Equal(t, "all_1_1_0", parts[0].Name)
	require.Equal(t, "all_2_2_0", parts[1].Name)

	_, err = mergetree.OpenTable(ctx, filepath.Join(root, "nope"), nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidPath))
}

func TestOpenPartEmptyColumnsFile(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "all_1_1_0")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	content := "columns format version: 1\n0 columns:\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "columns.txt"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "count.txt"), []byte("0"), 0o644))

	_, err := mergetree.OpenPart(ctx, dir, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestOpenPartBadPrimaryKey(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "all_1_1_0")

	spec := testutil.PartSpec{
		Columns:  testutil.Attrs("id", types.T_uint64),
		Granules: []uint64{10},
		Info:     mergetree.GranularityInfo{Adaptive: true},
	}
	require.NoError(t, testutil.WritePart(ctx, dir, spec))

	_, err := mergetree.OpenPart(ctx, dir, []string{"missing"})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadFieldError))
}
