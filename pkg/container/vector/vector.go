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
	"github.com/LordVoldebug/ClickHouse/pkg/container/nulls"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
)

// Vector represents a column.  Col holds []T for fixed-length types,
// []string for T_varchar and []*Vector (the field columns) for T_tuple.
type Vector struct {
	Typ types.Type
	Col any
	Nsp *nulls.Nulls
}

func New(typ types.Type) *Vector {
	return &Vector{
		Typ: typ,
		Nsp: &nulls.Nulls{},
	}
}

func NewWithFixed[T types.FixedSizeT](typ types.Type, vals []T, nsp *nulls.Nulls) *Vector {
	if nsp == nil {
		nsp = &nulls.Nulls{}
	}
	return &Vector{
		Typ: typ,
		Col: vals,
		Nsp: nsp,
	}
}

func NewWithStrings(typ types.Type, vals []string, nsp *nulls.Nulls) *Vector {
	if nsp == nil {
		nsp = &nulls.Nulls{}
	}
	return &Vector{
		Typ: typ,
		Col: vals,
		Nsp: nsp,
	}
}

// NewConstString materializes a constant string column of the given length.
// Constant columns are always expanded to full before leaving a reader.
func NewConstString(typ types.Type, val string, length int) *Vector {
	vals := make([]string, length)
	for i := range vals {
		vals[i] = val
	}
	return NewWithStrings(typ, vals, nil)
}

// NewTuple bundles field columns into a tuple column.  All fields must have
// the same length; each field keeps its own null mask.
func NewTuple(fields []*Vector) *Vector {
	return &Vector{
		Typ: types.New(types.T_tuple),
		Col: fields,
		Nsp: &nulls.Nulls{},
	}
}

// NewTupleNull returns a tuple column of the given field types whose every
// field of every row is null.
func NewTupleNull(length int, fieldTypes ...types.Type) *Vector {
	fields := make([]*Vector, len(fieldTypes))
	for i, typ := range fieldTypes {
		switch {
		case typ.IsFixedLen():
			fields[i] = NewWithFixed(typ, make([]uint64, length), nulls.Range(0, uint64(length)))
		default:
			fields[i] = NewWithStrings(typ, make([]string, length), nulls.Range(0, uint64(length)))
		}
	}
	return NewTuple(fields)
}

func (v *Vector) Length() int {
	switch col := v.Col.(type) {
	case []uint64:
		return len(col)
	case []string:
		return len(col)
	case []*Vector:
		if len(col) == 0 {
			return 0
		}
		return col[0].Length()
	}
	return 0
}

func (v *Vector) GetType() types.Type {
	return v.Typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.Nsp
}

func (v *Vector) GetString(i int) string {
	return v.Col.([]string)[i]
}

// MustTCols returns the typed data slice.  Let it panic if v holds another
// element type.
func MustTCols[T types.FixedSizeT](v *Vector) []T {
	return v.Col.([]T)
}

func MustStrCols(v *Vector) []string {
	return v.Col.([]string)
}

func MustTupleCols(v *Vector) []*Vector {
	return v.Col.([]*Vector)
}
