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

package batch

import (
	"bytes"
	"fmt"

	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
)

// Batch is an ordered set of named column vectors sharing one row count.
type Batch struct {
	Attrs []string
	Vecs  []*vector.Vector

	rowCount int
}

func New(attrs []string) *Batch {
	return &Batch{
		Attrs: attrs,
		Vecs:  make([]*vector.Vector, len(attrs)),
	}
}

func NewWithSize(n int) *Batch {
	return &Batch{
		Vecs: make([]*vector.Vector, n),
	}
}

func (bat *Batch) SetVector(pos int32, vec *vector.Vector) {
	bat.Vecs[pos] = vec
}

func (bat *Batch) GetVector(pos int32) *vector.Vector {
	return bat.Vecs[pos]
}

// GetVectorByName returns the vector of the given attribute, nil if absent.
func (bat *Batch) GetVectorByName(attr string) *vector.Vector {
	for i, a := range bat.Attrs {
		if a == attr {
			return bat.Vecs[i]
		}
	}
	return nil
}

func (bat *Batch) VectorCount() int {
	return len(bat.Vecs)
}

func (bat *Batch) RowCount() int {
	return bat.rowCount
}

func (bat *Batch) SetRowCount(rowCount int) {
	bat.rowCount = rowCount
}

func (bat *Batch) String() string {
	var buf bytes.Buffer
	for i, attr := range bat.Attrs {
		fmt.Fprintf(&buf, "%s[%s]", attr, bat.Vecs[i].Typ)
		if i+1 < len(bat.Attrs) {
			buf.WriteString(", ")
		}
	}
	return fmt.Sprintf("rows=%d: %s", bat.rowCount, buf.String())
}
