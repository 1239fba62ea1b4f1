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

package engine

import (
	"context"

	"github.com/LordVoldebug/ClickHouse/pkg/container/batch"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
)

// Attribute describes one column of a relation.
type Attribute struct {
	Name string
	Type types.Type
}

// Relation is the minimal table surface the virtual table layer works
// against.  Concrete storages expose richer capability interfaces on top.
type Relation interface {
	Name() string
	Attributes() []Attribute
}

// Reader is a pull-based row producer.  Read returns one batch per call and
// (nil, nil) at end of stream.  A Reader is not safe for concurrent use;
// independent scans construct independent readers.
type Reader interface {
	Read(context.Context) (*batch.Batch, error)
	Close() error
}
