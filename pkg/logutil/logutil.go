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

// Package logutil wraps the zap logger used across the system.  The core
// read path never depends on logging for correctness; it only emits
// diagnostics through the global logger configured here.
package logutil

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig describes the logger output.  Filename empty means stderr.
type LogConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	Filename string `toml:"filename"`

	// rotation, only meaningful when Filename is set
	MaxSize    int `toml:"max-size"`
	MaxDays    int `toml:"max-days"`
	MaxBackups int `toml:"max-backups"`
}

func (cfg *LogConfig) getLevel() zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}
	return level
}

func (cfg *LogConfig) getSyncer() zapcore.WriteSyncer {
	if cfg.Filename != "" {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxDays,
			MaxBackups: cfg.MaxBackups,
		})
	}
	return zapcore.AddSync(os.Stderr)
}

func (cfg *LogConfig) getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

var globalLogger atomic.Value // *zap.Logger

func init() {
	SetupGlobalLogger(&LogConfig{Level: "info", Format: "console"})
}

// SetupGlobalLogger replaces the process logger.  Not synchronized with
// in-flight log calls; call it during startup.
func SetupGlobalLogger(cfg *LogConfig) *zap.Logger {
	core := zapcore.NewCore(cfg.getEncoder(), cfg.getSyncer(), cfg.getLevel())
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	globalLogger.Store(logger)
	return logger
}

func GetGlobalLogger() *zap.Logger {
	return globalLogger.Load().(*zap.Logger)
}
