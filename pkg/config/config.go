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

package config

import (
	"context"

	"github.com/BurntSushi/toml"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
	"github.com/LordVoldebug/ClickHouse/pkg/logutil"
)

// Config drives the marksdump tool: which table directory to open, which
// columns form its primary key, and how to read it.
type Config struct {
	// DataDir contains one directory per table.
	DataDir string `toml:"data-dir"`
	// Table is the table directory name under DataDir.
	Table string `toml:"table"`
	// PrimaryKey lists the key columns in key order.
	PrimaryKey []string `toml:"primary-key"`
	// WithMarks exposes one <column>.mark tuple per table column.
	WithMarks bool `toml:"with-marks"`
	// Part optionally restricts the scan to one part name.
	Part string `toml:"part"`
	// Columns to output; empty means the full virtual schema.
	Columns []string `toml:"columns"`

	Log logutil.LogConfig `toml:"log"`
}

func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, moerr.NewBadConfig(ctx, "cannot parse %s: %v", path, err)
	}
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate(ctx context.Context) error {
	if cfg.DataDir == "" {
		return moerr.NewBadConfig(ctx, "data-dir is required")
	}
	if cfg.Table == "" {
		return moerr.NewBadConfig(ctx, "table is required")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return nil
}
