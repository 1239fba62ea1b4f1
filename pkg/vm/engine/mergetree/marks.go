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
	"context"
	"encoding/binary"
	"io"
	"os"

	"github.com/panjf2000/ants/v2"
	"github.com/pierrec/lz4/v4"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
)

// Mark is the physical position of one granule boundary of one column
// stream: the offset of the compressed block in the stream file and the
// offset inside the decompressed block.
type Mark struct {
	OffsetInCompressedFile    uint64
	OffsetInDecompressedBlock uint64
}

type marksLoadResult struct {
	marks []Mark
	err   error
}

// MarksLoader loads the marks of one stream of one part.  Loading is lazy:
// no I/O happens before the first GetMark call, unless an ants pool is
// supplied, in which case the read is scheduled at construction and joined
// on first use.  Loaded marks live only as long as the loader; nothing is
// put into any shared cache.  A loader is not safe for concurrent use.
type MarksLoader struct {
	path       string
	marksCount int
	columns    int
	info       GranularityInfo

	marks  []Mark
	loaded bool
	future chan marksLoadResult
}

// NewMarksLoader builds a loader for one stream of part.  columns is the
// number of columns encoded per mark row: the stored column count for a
// Compact data stream, 1 for a Wide column stream.
func NewMarksLoader(part *DataPart, stream string, columns int, pool *ants.Pool) *MarksLoader {
	ml := &MarksLoader{
		path:       part.Info.MarksFilePath(part.Path, stream),
		marksCount: part.Granularity.MarksCount(),
		columns:    columns,
		info:       part.Info,
	}
	if pool != nil {
		ml.startAsyncLoad(pool)
	}
	return ml
}

func (ml *MarksLoader) startAsyncLoad(pool *ants.Pool) {
	future := make(chan marksLoadResult, 1)
	if err := pool.Submit(func() {
		marks, err := ml.readMarks(context.Background())
		future <- marksLoadResult{marks: marks, err: err}
	}); err != nil {
		// pool rejected the task, fall back to loading on first GetMark
		return
	}
	ml.future = future
}

// GetMark returns the mark at (markIndex, columnIndex), loading the marks
// file on first use.  May block on file I/O.
func (ml *MarksLoader) GetMark(ctx context.Context, markIndex, columnIndex int) (Mark, error) {
	if !ml.loaded {
		if err := ml.load(ctx); err != nil {
			return Mark{}, err
		}
	}
	if markIndex < 0 || markIndex >= ml.marksCount {
		return Mark{}, moerr.NewInvalidArg(ctx, "mark index", markIndex)
	}
	if columnIndex < 0 || columnIndex >= ml.columns {
		return Mark{}, moerr.NewInvalidArg(ctx, "column index", columnIndex)
	}
	return ml.marks[markIndex*ml.columns+columnIndex], nil
}

func (ml *MarksLoader) load(ctx context.Context) error {
	if ml.future != nil {
		res := <-ml.future
		ml.future = nil
		if res.err != nil {
			return res.err
		}
		ml.marks = res.marks
		ml.loaded = true
		return nil
	}
	marks, err := ml.readMarks(ctx)
	if err != nil {
		return err
	}
	ml.marks = marks
	ml.loaded = true
	return nil
}

func (ml *MarksLoader) readMarks(ctx context.Context) ([]Mark, error) {
	f, err := os.Open(ml.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, moerr.NewFileNotFound(ctx, ml.path)
		}
		return nil, moerr.ConvertGoError(ctx, err)
	}
	defer f.Close()

	var reader io.Reader = f
	if ml.info.CompressedMarks {
		reader = lz4.NewReader(f)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}

	expected := ml.marksCount * ml.info.MarkSizeInBytes(ml.columns)
	if len(data) != expected {
		return nil, moerr.NewSizeNotMatch(ctx, ml.path)
	}

	marks := make([]Mark, ml.marksCount*ml.columns)
	off := 0
	for i := 0; i < ml.marksCount; i++ {
		for j := 0; j < ml.columns; j++ {
			marks[i*ml.columns+j] = Mark{
				OffsetInCompressedFile:    binary.LittleEndian.Uint64(data[off:]),
				OffsetInDecompressedBlock: binary.LittleEndian.Uint64(data[off+8:]),
			}
			off += 16
		}
		if ml.info.Adaptive {
			// rows in granule, already materialized as IndexGranularity
			off += 8
		}
	}
	return marks, nil
}

// ReadGranularity reads the per-granule row counts recorded in an adaptive
// marks stream.  Used when opening a part from disk; the loader itself
// never needs it.
func ReadGranularity(ctx context.Context, info GranularityInfo, path string, columns int) (*IndexGranularity, error) {
	if !info.Adaptive {
		return nil, moerr.NewInvalidState(ctx, "granularity of non-adaptive marks is not recorded in "+path)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, moerr.NewFileNotFound(ctx, path)
		}
		return nil, moerr.ConvertGoError(ctx, err)
	}
	defer f.Close()

	var reader io.Reader = f
	if info.CompressedMarks {
		reader = lz4.NewReader(f)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}

	markSize := info.MarkSizeInBytes(columns)
	if len(data)%markSize != 0 {
		return nil, moerr.NewSizeNotMatch(ctx, path)
	}

	granularity := NewIndexGranularity()
	for off := 0; off < len(data); off += markSize {
		granularity.AppendMark(binary.LittleEndian.Uint64(data[off+markSize-8:]))
	}
	return granularity, nil
}
