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

// Package nulls wraps the roaring bitmap used to record NULL positions of a
// column.  A nil Nulls or a nil inner bitmap both mean "no nulls".
package nulls

import (
	"github.com/RoaringBitmap/roaring/roaring64"
)

type Nulls struct {
	Np *roaring64.Bitmap
}

func New() *Nulls {
	return &Nulls{}
}

// Build returns a Nulls with the given rows set.
func Build(rows ...uint64) *Nulls {
	nsp := &Nulls{Np: roaring64.New()}
	nsp.Np.AddMany(rows)
	return nsp
}

// Range sets rows [start, end) as null.
func Range(start, end uint64) *Nulls {
	nsp := &Nulls{Np: roaring64.New()}
	nsp.Np.AddRange(start, end)
	return nsp
}

func (nsp *Nulls) Clone() *Nulls {
	if nsp == nil {
		return nil
	}
	if nsp.Np == nil {
		return &Nulls{}
	}
	return &Nulls{Np: nsp.Np.Clone()}
}

func Any(nsp *Nulls) bool {
	return nsp != nil && nsp.Np != nil && !nsp.Np.IsEmpty()
}

func Size(nsp *Nulls) int {
	if nsp == nil || nsp.Np == nil {
		return 0
	}
	return int(nsp.Np.GetCardinality())
}

func Contains(nsp *Nulls, row uint64) bool {
	return nsp != nil && nsp.Np != nil && nsp.Np.Contains(row)
}

func Add(nsp *Nulls, rows ...uint64) {
	if nsp == nil {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring64.New()
	}
	nsp.Np.AddMany(rows)
}

func Reset(nsp *Nulls) {
	if nsp != nil && nsp.Np != nil {
		nsp.Np.Clear()
	}
}
