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

// Package testutil builds MergeTree parts, in memory and on disk, for tests
// across the engine packages.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine/mergetree"
)

// NewPart builds an in-memory part with the given per-granule row counts.
func NewPart(name string, typ mergetree.PartType, granuleRows ...uint64) *mergetree.DataPart {
	part := mergetree.NewDataPart(name, typ)
	part.Info = mergetree.GranularityInfo{Adaptive: true}
	for _, rows := range granuleRows {
		part.Granularity.AppendMark(rows)
	}
	return part
}

// SyntheticMark is the deterministic mark written by WritePart for
// (mark, column), so tests can assert loaded offsets.
func SyntheticMark(mark, col int) mergetree.Mark {
	return mergetree.Mark{
		OffsetInCompressedFile:    uint64(mark*4096 + col*64),
		OffsetInDecompressedBlock: uint64(mark*128 + col),
	}
}

// PartSpec describes an on-disk part for WritePart.
type PartSpec struct {
	Columns    []engine.Attribute
	PrimaryKey []string
	Granules   []uint64
	Compact    bool
	Info       mergetree.GranularityInfo

	// primary-key values per column name, one value per mark
	IndexUint map[string][]uint64
	IndexStr  map[string][]string
}

// WritePart writes a complete part directory: columns file, count file,
// primary index, data stream placeholders and marks streams filled with
// SyntheticMark values.
func WritePart(ctx context.Context, dir string, spec PartSpec) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeColumnsFile(filepath.Join(dir, "columns.txt"), spec.Columns); err != nil {
		return err
	}

	var total uint64
	for _, rows := range spec.Granules {
		total += rows
	}
	if err := os.WriteFile(filepath.Join(dir, "count.txt"), []byte(fmt.Sprintf("%d", total)), 0o644); err != nil {
		return err
	}

	if len(spec.PrimaryKey) > 0 {
		if err := writePrimaryIndex(filepath.Join(dir, "primary.idx"), spec); err != nil {
			return err
		}
	}

	if spec.Compact {
		return writeCompactStreams(ctx, dir, spec)
	}
	return writeWideStreams(ctx, dir, spec)
}

func writeColumnsFile(path string, attrs []engine.Attribute) error {
	content := "columns format version: 1\n"
	content += fmt.Sprintf("%d columns:\n", len(attrs))
	for _, attr := range attrs {
		content += fmt.Sprintf("`%s` %s\n", attr.Name, attr.Type)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func writePrimaryIndex(path string, spec PartSpec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for mark := range spec.Granules {
		for _, name := range spec.PrimaryKey {
			if vals, ok := spec.IndexUint[name]; ok {
				var scratch [8]byte
				for i := 0; i < 8; i++ {
					scratch[i] = byte(vals[mark] >> (8 * i))
				}
				if _, err := f.Write(scratch[:]); err != nil {
					return err
				}
				continue
			}
			vals := spec.IndexStr[name]
			var varint [10]byte
			n := putUvarint(varint[:], uint64(len(vals[mark])))
			if _, err := f.Write(varint[:n]); err != nil {
				return err
			}
			if _, err := f.WriteString(vals[mark]); err != nil {
				return err
			}
		}
	}
	return nil
}

func putUvarint(buf []byte, x uint64) int {
	i := 0
	for x >= 0x80 {
		buf[i] = byte(x) | 0x80
		x >>= 7
		i++
	}
	buf[i] = byte(x)
	return i + 1
}

func writeCompactStreams(ctx context.Context, dir string, spec PartSpec) error {
	if err := os.WriteFile(filepath.Join(dir, mergetree.DataFileName+".bin"), nil, 0o644); err != nil {
		return err
	}
	mw := mergetree.NewMarksWriter(
		spec.Info.MarksFilePath(dir, mergetree.DataFileName), len(spec.Columns), spec.Info)
	for mark, rows := range spec.Granules {
		marks := make([]mergetree.Mark, len(spec.Columns))
		for col := range marks {
			marks[col] = SyntheticMark(mark, col)
		}
		if err := mw.AppendMark(ctx, marks, rows); err != nil {
			return err
		}
	}
	return mw.Close(ctx)
}

func writeWideStreams(ctx context.Context, dir string, spec PartSpec) error {
	for col, attr := range spec.Columns {
		stream := mergetree.EscapeForFileName(attr.Name)
		if err := os.WriteFile(filepath.Join(dir, stream+".bin"), nil, 0o644); err != nil {
			return err
		}
		mw := mergetree.NewMarksWriter(spec.Info.MarksFilePath(dir, stream), 1, spec.Info)
		for mark, rows := range spec.Granules {
			if err := mw.AppendMark(ctx, []mergetree.Mark{SyntheticMark(mark, col)}, rows); err != nil {
				return err
			}
		}
		if err := mw.Close(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Attrs is shorthand for building attribute lists.
func Attrs(pairs ...any) []engine.Attribute {
	attrs := make([]engine.Attribute, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		attrs = append(attrs, engine.Attribute{
			Name: pairs[i].(string),
			Type: types.New(pairs[i+1].(types.T)),
		})
	}
	return attrs
}
