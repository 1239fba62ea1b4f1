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

package mergetree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
)

func TestTableParts(t *testing.T) {
	attrs := []engine.Attribute{
		{Name: "id", Type: types.New(types.T_uint64)},
		{Name: "name", Type: types.New(types.T_varchar)},
	}
	table := NewTable("hits", attrs, attrs[:1])
	require.Equal(t, "hits", table.Name())
	require.Equal(t, attrs, table.Attributes())
	require.Equal(t, attrs[:1], table.PrimaryKey())

	// insertion order does not matter, parts come back name ordered
	table.AppendPart(NewDataPart("all_3_3_0", Wide))
	table.AppendPart(NewDataPart("all_1_2_1", Compact))
	table.AppendPart(NewDataPart("all_2_2_0", Wide))

	parts := table.DataParts()
	require.Len(t, parts, 3)
	require.Equal(t, "all_1_2_1", parts[0].Name)
	require.Equal(t, "all_2_2_0", parts[1].Name)
	require.Equal(t, "all_3_3_0", parts[2].Name)

	// replace by name
	replacement := NewDataPart("all_2_2_0", Compact)
	table.AppendPart(replacement)
	require.Equal(t, 3, table.PartsCount())

	got, ok := table.GetPart("all_2_2_0")
	require.True(t, ok)
	require.Same(t, replacement, got)

	_, ok = table.GetPart("all_9_9_9")
	require.False(t, ok)
}

func TestTableSnapshotIsStable(t *testing.T) {
	table := NewTable("hits", nil, nil)
	table.AppendPart(NewDataPart("all_1_1_0", Wide))

	snapshot := table.DataParts()
	table.AppendPart(NewDataPart("all_2_2_0", Wide))

	// a snapshot taken before the append does not see the new part
	require.Len(t, snapshot, 1)
	require.Len(t, table.DataParts(), 2)
}
