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

package vector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LordVoldebug/ClickHouse/pkg/container/nulls"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
)

func TestFixedAndStrings(t *testing.T) {
	vec := NewWithFixed(types.New(types.T_uint64), []uint64{1, 2, 3}, nil)
	require.Equal(t, 3, vec.Length())
	require.Equal(t, []uint64{1, 2, 3}, MustTCols[uint64](vec))
	require.False(t, nulls.Any(vec.Nsp))

	strs := NewWithStrings(types.New(types.T_varchar), []string{"a", "b"}, nulls.Build(1))
	require.Equal(t, 2, strs.Length())
	require.Equal(t, "a", strs.GetString(0))
	require.True(t, nulls.Contains(strs.Nsp, 1))
}

func TestConstString(t *testing.T) {
	vec := NewConstString(types.New(types.T_varchar), "part_1", 4)
	require.Equal(t, 4, vec.Length())
	for _, v := range MustStrCols(vec) {
		require.Equal(t, "part_1", v)
	}
}

func TestTuple(t *testing.T) {
	u64 := types.New(types.T_uint64)
	vec := NewTuple([]*Vector{
		NewWithFixed(u64, []uint64{1, 2}, nil),
		NewWithFixed(u64, []uint64{3, 4}, nulls.Build(0)),
	})
	require.Equal(t, types.T_tuple, vec.Typ.Oid)
	require.Equal(t, 2, vec.Length())

	fields := MustTupleCols(vec)
	require.Len(t, fields, 2)
	require.False(t, nulls.Any(fields[0].Nsp))
	require.True(t, nulls.Contains(fields[1].Nsp, 0))
}

func TestTupleNull(t *testing.T) {
	u64 := types.New(types.T_uint64)
	vec := NewTupleNull(3, u64, u64)
	require.Equal(t, 3, vec.Length())
	for _, field := range MustTupleCols(vec) {
		require.Equal(t, 3, field.Length())
		require.Equal(t, 3, nulls.Size(field.Nsp))
	}
}
