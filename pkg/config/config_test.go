// Gamedock Core
// Copyright (c) 2026 The Gamedock Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedock Core.
//
// Gamedock Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedock Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedock Core.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_WritesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, CfgFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_schema = 1")
	assert.NotEmpty(t, cfg.DeviceID())
	assert.Equal(t, DefaultAPIPort, cfg.APIPort())
	assert.True(t, cfg.ResumeQueueOnStart())
	assert.False(t, cfg.DebugLogging())
}

func TestNewConfig_LoadsExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `config_schema = 1
debug_logging = true

[service]
api_port = 9000
allow_remote = true

[tools]
legendary = "/opt/legendary/bin/legendary"

[queue]
resume_on_start = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, 9000, cfg.APIPort())
	assert.Equal(t, ":9000", cfg.APIListen())
	assert.Equal(t, "/opt/legendary/bin/legendary", cfg.LegendaryBin())
	assert.False(t, cfg.ResumeQueueOnStart())
}

func TestNewConfig_SchemaMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte("config_schema = 99\n"), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version mismatch")
}

func TestAPIListen_LoopbackByDefault(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(t.TempDir(), BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7510", cfg.APIListen())
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	cfg.SetAPIPort(8123)
	cfg.SetDebugLogging(true)
	cfg.SetResumeQueueOnStart(false)
	cfg.SetTools(Tools{Gogdl: "/usr/bin/gogdl"})
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, 8123, reloaded.APIPort())
	assert.True(t, reloaded.DebugLogging())
	assert.False(t, reloaded.ResumeQueueOnStart())
	assert.Equal(t, "/usr/bin/gogdl", reloaded.GogdlBin())
	assert.Equal(t, cfg.DeviceID(), reloaded.DeviceID())
}

func TestPluginDir(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(t.TempDir(), BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cfg", PluginsDir), cfg.PluginDir("/cfg"))

	cfg.vals.Stores.PluginDir = "custom"
	assert.Equal(t, filepath.Join("/cfg", "custom"), cfg.PluginDir("/cfg"))

	abs := filepath.Join(t.TempDir(), "abs")
	cfg.vals.Stores.PluginDir = abs
	assert.Equal(t, abs, cfg.PluginDir("/cfg"))
}
