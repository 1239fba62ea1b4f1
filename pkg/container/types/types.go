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

package types

import "fmt"

type T uint8

const (
	// T_any is the zero value, an invalid type
	T_any T = iota

	// numeric
	T_uint64

	// variable length
	T_varchar

	// composite.  The only tuple shape exposed by this storage fragment is
	// Tuple(Nullable(UInt64), Nullable(UInt64)) used for column marks.
	T_tuple
)

type Type struct {
	Oid T
	// Size is the fixed element size in bytes, 0 for variable length
	// and composite types.
	Size int32
}

func New(oid T) Type {
	typ := Type{Oid: oid}
	switch oid {
	case T_uint64:
		typ.Size = 8
	}
	return typ
}

func (t Type) TypeSize() int {
	return int(t.Size)
}

func (t Type) IsFixedLen() bool {
	return t.Size > 0
}

func (t Type) String() string {
	return t.Oid.String()
}

func (t T) String() string {
	switch t {
	case T_uint64:
		return "UInt64"
	case T_varchar:
		return "String"
	case T_tuple:
		return "Tuple(Nullable(UInt64), Nullable(UInt64))"
	}
	return fmt.Sprintf("unexpected type oid %d", uint8(t))
}

// FixedSizeT bounds the element types a fixed-length vector may hold.
type FixedSizeT interface {
	~uint64
}
