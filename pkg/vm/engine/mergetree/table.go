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
	"sync"

	"github.com/google/btree"

	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
)

// IndexProvider is the capability a table must implement to be readable
// through the MergeTreeIndex virtual table.  Binding fails fast on tables
// that do not implement it.
type IndexProvider interface {
	engine.Relation

	// DataParts returns the active parts ordered by name.  The returned
	// slice is a snapshot owned by the caller; the parts themselves stay
	// owned by the table and must remain valid while the table lives.
	DataParts() []*DataPart

	// PrimaryKey returns the primary-key columns in key order.
	PrimaryKey() []engine.Attribute
}

type partItem struct {
	part *DataPart
}

func (item partItem) Less(than btree.Item) bool {
	return item.part.Name < than.(partItem).part.Name
}

// Table is the in-memory form of a MergeTree table: a schema, a primary
// key, and a name-ordered set of sealed parts.
type Table struct {
	name  string
	attrs []engine.Attribute
	pk    []engine.Attribute

	sync.RWMutex
	parts *btree.BTree
}

func NewTable(name string, attrs, pk []engine.Attribute) *Table {
	return &Table{
		name:  name,
		attrs: attrs,
		pk:    pk,
		parts: btree.New(2),
	}
}

var _ IndexProvider = new(Table)

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Attributes() []engine.Attribute {
	return t.attrs
}

func (t *Table) PrimaryKey() []engine.Attribute {
	return t.pk
}

// AppendPart adds a sealed part, replacing any previous part of that name.
func (t *Table) AppendPart(part *DataPart) {
	t.Lock()
	defer t.Unlock()
	t.parts.ReplaceOrInsert(partItem{part: part})
}

func (t *Table) GetPart(name string) (*DataPart, bool) {
	t.RLock()
	defer t.RUnlock()
	probe := &DataPart{Name: name}
	if item := t.parts.Get(partItem{part: probe}); item != nil {
		return item.(partItem).part, true
	}
	return nil, false
}

func (t *Table) PartsCount() int {
	t.RLock()
	defer t.RUnlock()
	return t.parts.Len()
}

func (t *Table) DataParts() []*DataPart {
	t.RLock()
	defer t.RUnlock()
	parts := make([]*DataPart, 0, t.parts.Len())
	t.parts.Ascend(func(item btree.Item) bool {
		parts = append(parts, item.(partItem).part)
		return true
	})
	return parts
}
