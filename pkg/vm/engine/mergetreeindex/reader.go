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

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
	"github.com/LordVoldebug/ClickHouse/pkg/container/batch"
	"github.com/LordVoldebug/ClickHouse/pkg/container/nulls"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine/mergetree"
)

// Reader produces the virtual table's rows, one part per Read call, parts
// in snapshot order and marks in mark order within a part.  It owns a
// single cursor and per-part mark loaders; it is not safe for concurrent
// use, but any number of Readers may run over the same parts.
type Reader struct {
	table     string
	header    []engine.Attribute
	keyPos    map[string]int
	parts     []*mergetree.DataPart
	withMarks bool

	cur int
}

var _ engine.Reader = new(Reader)

func newReader(table string, header, keyAttrs []engine.Attribute, parts []*mergetree.DataPart, withMarks bool) *Reader {
	keyPos := make(map[string]int, len(keyAttrs))
	for i, attr := range keyAttrs {
		keyPos[attr.Name] = i
	}
	return &Reader{
		table:     table,
		header:    header,
		keyPos:    keyPos,
		parts:     parts,
		withMarks: withMarks,
	}
}

// Read materializes the next part.  Returns (nil, nil) at end of stream.
// Any resolution error aborts the scan with no partial batch.
func (r *Reader) Read(ctx context.Context) (*batch.Batch, error) {
	if r.cur >= len(r.parts) {
		return nil, nil
	}

	part := r.parts[r.cur]
	numRows := part.Granularity.MarksCount()

	// Compact parts pack every column into one stream, so a single loader
	// addressed by column ordinal serves all mark columns of this part.
	var sharedLoader *mergetree.MarksLoader
	if r.withMarks && part.Type == mergetree.Compact {
		sharedLoader = mergetree.NewMarksLoader(part, mergetree.DataFileName, len(part.Columns()), nil)
	}

	attrs := make([]string, len(r.header))
	for i, attr := range r.header {
		attrs[i] = attr.Name
	}
	bat := batch.New(attrs)

	for pos, attr := range r.header {
		var vec *vector.Vector
		var err error

		base, suffix := SplitNested(attr.Name)
		switch {
		case r.isKeyColumn(attr.Name, part):
			vec = part.Index[r.keyPos[attr.Name]]
		case attr.Name == PartNameColumn:
			vec = vector.NewConstString(attr.Type, part.Name, numRows)
		case attr.Name == MarkNumberColumn:
			data := make([]uint64, numRows)
			for i := range data {
				data[i] = uint64(i)
			}
			vec = vector.NewWithFixed(attr.Type, data, nil)
		case attr.Name == RowsInGranuleColumn:
			data := make([]uint64, numRows)
			for i := range data {
				data[i] = part.Granularity.MarkRows(i)
			}
			vec = vector.NewWithFixed(attr.Type, data, nil)
		case r.withMarks && suffix == MarkSuffix:
			vec, err = r.fillMarks(ctx, part, sharedLoader, base)
		default:
			err = moerr.NewBadFieldError(ctx, attr.Name, r.table)
		}
		if err != nil {
			return nil, err
		}
		bat.SetVector(int32(pos), vec)
	}

	r.cur++
	bat.SetRowCount(numRows)
	return bat, nil
}

func (r *Reader) isKeyColumn(name string, part *mergetree.DataPart) bool {
	pos, ok := r.keyPos[name]
	return ok && pos < len(part.Index)
}

// fillMarks builds the Tuple(Nullable(UInt64), Nullable(UInt64)) column of
// physical mark offsets for one underlying column of one part.  A column
// with no marks in this part yields all-null rows: parts written before a
// column was added are expected, not an error.
func (r *Reader) fillMarks(ctx context.Context, part *mergetree.DataPart, sharedLoader *mergetree.MarksLoader, column string) (*vector.Vector, error) {
	numRows := part.Granularity.MarksCount()
	uint64Type := types.New(types.T_uint64)

	var loader *mergetree.MarksLoader
	colIdx := 0
	switch part.Type {
	case mergetree.Wide:
		loader = wideStreamLoader(part, column)
	case mergetree.Compact:
		loader, colIdx = compactOrdinalLoader(part, sharedLoader, column)
	default:
		return nil, moerr.NewNotSupported(ctx, "parts with type %s", part.Type)
	}

	if loader == nil {
		return vector.NewTupleNull(numRows, uint64Type, uint64Type), nil
	}

	compressed := make([]uint64, numRows)
	uncompressed := make([]uint64, numRows)
	for i := 0; i < numRows; i++ {
		mark, err := loader.GetMark(ctx, i, colIdx)
		if err != nil {
			return nil, err
		}
		compressed[i] = mark.OffsetInCompressedFile
		uncompressed[i] = mark.OffsetInDecompressedBlock
	}

	return vector.NewTuple([]*vector.Vector{
		vector.NewWithFixed(uint64Type, compressed, nulls.New()),
		vector.NewWithFixed(uint64Type, uncompressed, nulls.New()),
	}), nil
}

// wideStreamLoader resolves the column's own stream file and returns a
// freshly owned single-column loader for it, nil when the part has no such
// stream.
func wideStreamLoader(part *mergetree.DataPart, column string) *mergetree.MarksLoader {
	stream, ok := part.StreamNameOrHash(column)
	if !ok {
		return nil
	}
	return mergetree.NewMarksLoader(part, stream, 1, nil)
}

// compactOrdinalLoader resolves the column's ordinal among the part's
// stored columns and returns the shared per-part loader with it, nil when
// the part does not store the column.
func compactOrdinalLoader(part *mergetree.DataPart, sharedLoader *mergetree.MarksLoader, column string) (*mergetree.MarksLoader, int) {
	unescaped := mergetree.UnescapeForFileName(column)
	pos, ok := part.ColumnPosition(unescaped)
	if !ok {
		return nil, 0
	}
	return sharedLoader, pos
}

// Close stops the scan; parts not yet reached are never read.
func (r *Reader) Close() error {
	r.cur = len(r.parts)
	return nil
}
