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

package settings

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGame_DefaultsFromGlobal(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	require.NoError(t, reg.Global().SetSetting("winePrefixesBase", "/prefixes"))
	require.NoError(t, reg.Global().SetSetting("maxWorkers", 6))

	s := reg.Game("Fortnite").GetSettings()
	assert.Equal(t, 6, s.MaxWorkers)
	assert.Equal(t, "/prefixes/Fortnite", s.WinePrefix)
	assert.Equal(t, reg.Global().GetSettings().WineVersion, s.WineVersion)
	assert.Empty(t, s.TargetExe)
}

func TestGame_DeltaModeInheritance(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	global := reg.Global()
	game := reg.Game("app")

	require.NoError(t, global.SetSetting("maxWorkers", 0))
	require.NoError(t, game.SetSetting("maxWorkers", 0))
	assert.NotContains(t, game.Overrides(), "maxWorkers")

	require.NoError(t, global.SetSetting("maxWorkers", 4))
	assert.Equal(t, 4, game.GetSettings().MaxWorkers)
}

func TestGame_DeltaModeStoresDifferences(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	game := reg.Game("app")

	require.NoError(t, game.SetSetting("maxWorkers", 2))
	require.NoError(t, game.SetSetting("targetExe", "bin/game.exe"))
	assert.Equal(t, map[string]any{"maxWorkers": float64(2), "targetExe": "bin/game.exe"}, game.Overrides())

	// global change does not affect the override
	require.NoError(t, reg.Global().SetSetting("maxWorkers", 16))
	assert.Equal(t, 2, game.GetSettings().MaxWorkers)

	// setting back to the inherited value removes the override
	require.NoError(t, game.SetSetting("maxWorkers", 16))
	assert.NotContains(t, game.Overrides(), "maxWorkers")
	assert.Equal(t, "v0", game.Version())
}

func TestGame_ExplicitMode(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	game := reg.Game("app")

	require.NoError(t, game.SetExplicit(true))
	assert.True(t, game.Explicit())

	// every effective value is pinned
	require.NoError(t, reg.Global().SetSetting("maxWorkers", 9))
	assert.Equal(t, 0, game.GetSettings().MaxWorkers)

	// values equal to the default are still written
	require.NoError(t, game.SetSetting("showFps", false))
	assert.Contains(t, game.Overrides(), "showFps")

	// leaving explicit mode prunes values that match the defaults
	require.NoError(t, game.SetExplicit(false))
	assert.False(t, game.Explicit())
	assert.NotContains(t, game.Overrides(), "showFps")
	assert.Contains(t, game.Overrides(), "maxWorkers")
}

func TestGame_ResetAndErrors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	game := reg.Game("app")

	require.ErrorIs(t, game.SetSetting("nope", true), ErrUnknownSetting)
	require.ErrorIs(t, game.SetSetting("maxWorkers", "x"), ErrInvalidValue)

	require.NoError(t, game.SetSetting("maxWorkers", 3))
	require.NoError(t, game.Reset())
	assert.Empty(t, game.Overrides())
}

func TestGame_InvalidOverrideOnDiskIgnored(t *testing.T) {
	t.Parallel()

	afs := afero.NewMemMapFs()
	reg := NewRegistry(afs, testDir)
	writeRaw(t, afs, reg.GamePath("app"), `{
		"version": "v0",
		"explicit": false,
		"settings": {"maxWorkers": "bad", "showFps": true, "legacyKey": 1}
	}`)

	s := reg.Game("app").GetSettings()
	assert.True(t, s.ShowFps)
	assert.Equal(t, 0, s.MaxWorkers)
}

func TestGame_AppIDEscapedInPath(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	assert.Equal(t, testDir+"/games/a%2Fb.json", reg.GamePath("a/b"))

	scope, ok := reg.scopeForPath(reg.GamePath("a/b"))
	require.True(t, ok)
	assert.Equal(t, "a/b", scope)
}

// TestPropertyDeltaModeNeverStoresDefaults checks that after any sequence of
// writes in delta mode, no stored override equals the inherited default.
func TestPropertyDeltaModeNeverStoresDefaults(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		reg := NewRegistry(afero.NewMemMapFs(), testDir)
		global := reg.Global()
		game := reg.Game("app")

		n := rapid.IntRange(1, 20).Draw(t, "ops")
		for i := range n {
			workers := rapid.IntRange(0, 4).Draw(t, "workers")
			fps := rapid.Bool().Draw(t, "fps")
			if rapid.Bool().Draw(t, "global") {
				if err := global.SetSetting("maxWorkers", workers); err != nil {
					t.Fatalf("op %d: %v", i, err)
				}
				continue
			}
			if err := game.SetSetting("maxWorkers", workers); err != nil {
				t.Fatalf("op %d: %v", i, err)
			}
			if err := game.SetSetting("showFps", fps); err != nil {
				t.Fatalf("op %d: %v", i, err)
			}

			defaults, err := toMap(GameDefaults(global.GetSettings(), "app"))
			if err != nil {
				t.Fatal(err)
			}
			overrides := game.Overrides()
			for _, key := range []string{"maxWorkers", "showFps"} {
				if v, ok := overrides[key]; ok && v == defaults[key] {
					t.Fatalf("override %s=%v equals inherited default", key, v)
				}
			}
			if game.GetSettings().MaxWorkers != workers {
				t.Fatalf("effective maxWorkers %d, want %d", game.GetSettings().MaxWorkers, workers)
			}
		}
	})
}
