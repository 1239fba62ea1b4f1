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

package logutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetupGlobalLogger(t *testing.T) {
	logger := SetupGlobalLogger(&LogConfig{Level: "debug", Format: "json"})
	require.NotNil(t, logger)
	require.Same(t, logger, GetGlobalLogger())
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	// a bad level falls back to info instead of failing startup
	logger = SetupGlobalLogger(&LogConfig{Level: "noisy"})
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mt.log")
	logger := SetupGlobalLogger(&LogConfig{Level: "info", Filename: path})

	Info("index scan started")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "index scan started")

	SetupGlobalLogger(&LogConfig{Level: "info", Format: "console"})
}
