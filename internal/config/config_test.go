// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Bind)
	assert.Equal(t, "ffmpeg", cfg.Engines.FFmpeg)
	assert.Equal(t, "HandBrakeCLI", cfg.Engines.HandBrake)
	assert.False(t, cfg.Engines.Fallback)
	assert.Equal(t, 200, cfg.Convert.MaxLogLines)
	assert.Contains(t, cfg.Scan.Extensions, ".mp4")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadBackfillsOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  bind: ":9090"
engines:
  ffmpeg: /opt/ffmpeg/bin/ffmpeg
  fallback: true
convert:
  max_job_duration_seconds: 3600
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Bind)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.Engines.FFmpeg)
	assert.True(t, cfg.Engines.Fallback)
	assert.Equal(t, uint64(3600), cfg.Convert.MaxJobDuration)

	// Omitted fields fall back to the defaults.
	assert.Equal(t, "ffprobe", cfg.Engines.FFprobe)
	assert.Equal(t, "avidemux3_cli", cfg.Engines.Avidemux)
	assert.Equal(t, 200, cfg.Convert.MaxLogLines)
	assert.Equal(t, uint64(5), cfg.Convert.TerminateTimeout)
	assert.NotEmpty(t, cfg.Scan.Extensions)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
