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

import "path/filepath"

// DefaultGranularity is the fixed rows-per-granule of non-adaptive parts.
const DefaultGranularity = 8192

// IndexGranularity is the ordered sequence of per-mark row counts of one
// part.  The sum over all marks equals the part's total row count.
type IndexGranularity struct {
	marksRows []uint64
}

func NewIndexGranularity(rows ...uint64) *IndexGranularity {
	return &IndexGranularity{marksRows: rows}
}

func (g *IndexGranularity) AppendMark(rows uint64) {
	g.marksRows = append(g.marksRows, rows)
}

func (g *IndexGranularity) MarksCount() int {
	return len(g.marksRows)
}

func (g *IndexGranularity) MarkRows(i int) uint64 {
	return g.marksRows[i]
}

func (g *IndexGranularity) TotalRows() uint64 {
	var total uint64
	for _, rows := range g.marksRows {
		total += rows
	}
	return total
}

// GranularityInfo describes the physical marks encoding of a part.
// Adaptive marks carry a per-granule row count in every entry; compressed
// marks streams are lz4-framed.
type GranularityInfo struct {
	Adaptive        bool
	CompressedMarks bool
}

func (info GranularityInfo) MarksFileExtension() string {
	switch {
	case info.Adaptive && info.CompressedMarks:
		return ".cmrk2"
	case info.Adaptive:
		return ".mrk2"
	case info.CompressedMarks:
		return ".cmrk"
	default:
		return ".mrk"
	}
}

// MarkSizeInBytes is the encoded size of one mark row for the given number
// of columns in the stream.
func (info GranularityInfo) MarkSizeInBytes(columns int) int {
	size := columns * 16
	if info.Adaptive {
		size += 8
	}
	return size
}

func (info GranularityInfo) MarksFilePath(dir, stream string) string {
	return filepath.Join(dir, stream+info.MarksFileExtension())
}
