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
	"bytes"
	"context"
	"encoding/binary"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
)

// MarksWriter encodes the marks stream of one part stream.  The mark rows
// are buffered and written out at Close, lz4-framed when the part uses
// compressed marks.  The introspection read path never writes; this exists
// for the engine's write side and for tests building real part directories.
type MarksWriter struct {
	path    string
	columns int
	info    GranularityInfo
	buf     bytes.Buffer
}

func NewMarksWriter(path string, columns int, info GranularityInfo) *MarksWriter {
	return &MarksWriter{
		path:    path,
		columns: columns,
		info:    info,
	}
}

// AppendMark encodes one mark row: one Mark per column of the stream, plus
// the granule row count for adaptive marks.
func (mw *MarksWriter) AppendMark(ctx context.Context, marks []Mark, rows uint64) error {
	if len(marks) != mw.columns {
		return moerr.NewInvalidArg(ctx, "marks per row", len(marks))
	}
	var scratch [8]byte
	for _, m := range marks {
		binary.LittleEndian.PutUint64(scratch[:], m.OffsetInCompressedFile)
		mw.buf.Write(scratch[:])
		binary.LittleEndian.PutUint64(scratch[:], m.OffsetInDecompressedBlock)
		mw.buf.Write(scratch[:])
	}
	if mw.info.Adaptive {
		binary.LittleEndian.PutUint64(scratch[:], rows)
		mw.buf.Write(scratch[:])
	}
	return nil
}

func (mw *MarksWriter) Close(ctx context.Context) error {
	f, err := os.Create(mw.path)
	if err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	defer f.Close()

	if mw.info.CompressedMarks {
		zw := lz4.NewWriter(f)
		if _, err := zw.Write(mw.buf.Bytes()); err != nil {
			return moerr.ConvertGoError(ctx, err)
		}
		if err := zw.Close(); err != nil {
			return moerr.ConvertGoError(ctx, err)
		}
		return nil
	}
	if _, err := f.Write(mw.buf.Bytes()); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	return nil
}
