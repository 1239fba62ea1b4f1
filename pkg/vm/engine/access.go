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

import "context"

type AccessOp uint8

const (
	AccessRead AccessOp = iota
)

// AccessChecker authorizes an operation on a table and a set of real column
// names.  A virtual table borrows the authorization of its source table, so
// checks are issued against the source table identity, never the virtual one.
type AccessChecker interface {
	Check(ctx context.Context, op AccessOp, table string, columns []string) error
}

// NullChecker allows everything.
type NullChecker struct{}

func (NullChecker) Check(context.Context, AccessOp, string, []string) error {
	return nil
}
