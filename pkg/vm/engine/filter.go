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

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
	"github.com/LordVoldebug/ClickHouse/pkg/container/batch"
)

// Predicate evaluates a filter over a batch, returning the selection of rows
// that satisfy it.  References reports whether the predicate constrains the
// given attribute; a predicate that does not reference any attribute of a
// block cannot filter that block.
type Predicate interface {
	References(attr string) bool
	Eval(ctx context.Context, bat *batch.Batch) (*roaring64.Bitmap, error)
}

type eqPred struct {
	attr string
	val  any
}

func NewEq(attr string, val any) Predicate {
	return &eqPred{attr: attr, val: val}
}

func (p *eqPred) References(attr string) bool {
	return p.attr == attr
}

func (p *eqPred) Eval(ctx context.Context, bat *batch.Batch) (*roaring64.Bitmap, error) {
	return evalMembership(ctx, bat, p.attr, func(v any) bool { return v == p.val })
}

type inPred struct {
	attr string
	vals map[any]struct{}
}

func NewIn(attr string, vals ...any) Predicate {
	set := make(map[any]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return &inPred{attr: attr, vals: set}
}

func (p *inPred) References(attr string) bool {
	return p.attr == attr
}

func (p *inPred) Eval(ctx context.Context, bat *batch.Batch) (*roaring64.Bitmap, error) {
	return evalMembership(ctx, bat, p.attr, func(v any) bool {
		_, ok := p.vals[v]
		return ok
	})
}

func evalMembership(ctx context.Context, bat *batch.Batch, attr string, match func(any) bool) (*roaring64.Bitmap, error) {
	sel := roaring64.New()
	vec := bat.GetVectorByName(attr)
	if vec == nil {
		// cannot constrain a block without the attribute, keep all rows
		sel.AddRange(0, uint64(bat.RowCount()))
		return sel, nil
	}
	switch col := vec.Col.(type) {
	case []string:
		for i, v := range col {
			if match(v) {
				sel.Add(uint64(i))
			}
		}
	case []uint64:
		for i, v := range col {
			if match(v) {
				sel.Add(uint64(i))
			}
		}
	default:
		return nil, moerr.NewInvalidArg(ctx, "filter attribute", attr)
	}
	return sel, nil
}

type andPred struct {
	preds []Predicate
}

func NewAnd(preds ...Predicate) Predicate {
	return &andPred{preds: preds}
}

func (p *andPred) References(attr string) bool {
	for _, sub := range p.preds {
		if sub.References(attr) {
			return true
		}
	}
	return false
}

func (p *andPred) Eval(ctx context.Context, bat *batch.Batch) (*roaring64.Bitmap, error) {
	sel := roaring64.New()
	sel.AddRange(0, uint64(bat.RowCount()))
	for _, sub := range p.preds {
		s, err := sub.Eval(ctx, bat)
		if err != nil {
			return nil, err
		}
		sel.And(s)
	}
	return sel, nil
}

type orPred struct {
	preds []Predicate
}

func NewOr(preds ...Predicate) Predicate {
	return &orPred{preds: preds}
}

func (p *orPred) References(attr string) bool {
	for _, sub := range p.preds {
		if sub.References(attr) {
			return true
		}
	}
	return false
}

func (p *orPred) Eval(ctx context.Context, bat *batch.Batch) (*roaring64.Bitmap, error) {
	sel := roaring64.New()
	for _, sub := range p.preds {
		s, err := sub.Eval(ctx, bat)
		if err != nil {
			return nil, err
		}
		sel.Or(s)
	}
	return sel, nil
}
