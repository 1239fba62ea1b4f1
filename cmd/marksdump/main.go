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

// marksdump opens a MergeTree table directory and prints its primary-key
// index and mark metadata through the MergeTreeIndex virtual table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/LordVoldebug/ClickHouse/pkg/config"
	"github.com/LordVoldebug/ClickHouse/pkg/container/batch"
	"github.com/LordVoldebug/ClickHouse/pkg/container/nulls"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
	"github.com/LordVoldebug/ClickHouse/pkg/logutil"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine/mergetree"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine/mergetreeindex"
)

var configFile = flag.String("cfg", "marksdump.toml", "path to the config file")

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg, err := config.Load(ctx, *configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logutil.SetupGlobalLogger(&cfg.Log)

	if err := run(ctx, cfg); err != nil {
		logutil.Error("marksdump failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	table, err := mergetree.OpenTable(ctx, filepath.Join(cfg.DataDir, cfg.Table), cfg.PrimaryKey)
	if err != nil {
		return err
	}

	indexTable, err := mergetreeindex.NewTable(ctx, cfg.Table+"_index", table, cfg.WithMarks)
	if err != nil {
		return err
	}

	columns := cfg.Columns
	if len(columns) == 0 {
		for _, attr := range indexTable.Attributes() {
			columns = append(columns, attr.Name)
		}
	}

	var pred engine.Predicate
	if cfg.Part != "" {
		pred = engine.NewEq(mergetreeindex.PartNameColumn, cfg.Part)
	}

	reader, err := indexTable.Scan(ctx, columns, pred, nil)
	if err != nil {
		return err
	}
	defer reader.Close()

	fmt.Println(strings.Join(columns, "\t"))
	for {
		bat, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		if bat == nil {
			return nil
		}
		printBatch(bat)
	}
}

func printBatch(bat *batch.Batch) {
	for row := 0; row < bat.RowCount(); row++ {
		cells := make([]string, bat.VectorCount())
		for col := 0; col < bat.VectorCount(); col++ {
			cells[col] = formatCell(bat.GetVector(int32(col)), row)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}

func formatCell(vec *vector.Vector, row int) string {
	if nulls.Contains(vec.Nsp, uint64(row)) {
		return "NULL"
	}
	switch vec.Typ.Oid {
	case types.T_uint64:
		return fmt.Sprintf("%d", vector.MustTCols[uint64](vec)[row])
	case types.T_varchar:
		return vec.GetString(row)
	case types.T_tuple:
		fields := vector.MustTupleCols(vec)
		cells := make([]string, len(fields))
		for i, field := range fields {
			cells[i] = formatCell(field, row)
		}
		return "(" + strings.Join(cells, ",") + ")"
	}
	return "?"
}
