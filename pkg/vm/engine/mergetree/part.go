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
	"encoding/hex"
	"hash/fnv"

	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
)

type PartType uint8

const (
	Unknown PartType = iota
	// Wide stores one file per column stream.
	Wide
	// Compact packs all column streams into one data file addressed by
	// column ordinal.
	Compact
)

func (t PartType) String() string {
	switch t {
	case Wide:
		return "Wide"
	case Compact:
		return "Compact"
	}
	return "Unknown"
}

// DataFileName is the single stream of a Compact part.
const DataFileName = "data"

// maxFileNameLength bounds escaped stream file names; longer names are
// stored under a hash-derived file name instead.
const maxFileNameLength = 127

// DataPart is one immutable on-disk unit of a MergeTree table.  Parts are
// owned by the table and shared read-only across scans; nothing here
// mutates after the part is sealed.
type DataPart struct {
	Name string
	// Path is the on-disk part directory.  Empty for purely in-memory
	// parts, whose marks are then unresolvable.
	Path string
	Type PartType
	Info GranularityInfo

	Granularity *IndexGranularity

	// Index holds one materialized column per primary-key column, each of
	// length Granularity.MarksCount().
	Index []*vector.Vector

	columns   []string
	positions map[string]int
	checksums map[string]struct{}
}

func NewDataPart(name string, typ PartType) *DataPart {
	return &DataPart{
		Name:        name,
		Type:        typ,
		Granularity: NewIndexGranularity(),
		positions:   make(map[string]int),
		checksums:   make(map[string]struct{}),
	}
}

// AddColumn registers stored columns in physical order.  The order defines
// the ordinals Compact streams are addressed by.
func (p *DataPart) AddColumn(names ...string) {
	for _, name := range names {
		if _, ok := p.positions[name]; ok {
			continue
		}
		p.positions[name] = len(p.columns)
		p.columns = append(p.columns, name)
	}
}

// AddStream registers stream file names (without extension) present in the
// part, the checksums-file view of a Wide part.
func (p *DataPart) AddStream(streams ...string) {
	for _, stream := range streams {
		p.checksums[stream] = struct{}{}
	}
}

func (p *DataPart) Columns() []string {
	return p.columns
}

func (p *DataPart) HasColumn(name string) bool {
	_, ok := p.positions[name]
	return ok
}

// ColumnPosition returns the ordinal of a stored column.  Columns added to
// the table after this part was written are absent here; that is expected.
func (p *DataPart) ColumnPosition(name string) (int, bool) {
	pos, ok := p.positions[name]
	return pos, ok
}

func (p *DataPart) HasStream(stream string) bool {
	_, ok := p.checksums[stream]
	return ok
}

// StreamNameOrHash resolves the physical stream of a column within a Wide
// part: the escaped column name, or the hash-derived fallback used when the
// escaped name does not fit a file name.  Returns false when the part has
// no such stream, which callers treat as "no marks", never as an error.
func (p *DataPart) StreamNameOrHash(column string) (string, bool) {
	stream := EscapeForFileName(column)
	if len(stream) <= maxFileNameLength {
		if p.HasStream(stream) {
			return stream, true
		}
		return "", false
	}
	hashed := hashedFileName(stream)
	if p.HasStream(hashed) {
		return hashed, true
	}
	return "", false
}

func hashedFileName(name string) string {
	h := fnv.New128a()
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil))
}
