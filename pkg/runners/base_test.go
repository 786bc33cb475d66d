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

package runners_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase_GetGameInfo(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	b := runners.NewBase(te.env, "gog", nil)

	_, err := b.GetGameInfo("a")
	require.ErrorIs(t, err, runners.ErrNotFound)

	require.NoError(t, te.env.Library.PutGames("gog", []database.GameInfo{
		{AppID: "a", Title: "Game A", Platforms: []string{"windows"}},
	}))
	gi, err := b.GetGameInfo("a")
	require.NoError(t, err)
	assert.Equal(t, "Game A", gi.Title)
	assert.False(t, gi.IsInstalled)
	assert.Nil(t, gi.Install)

	require.NoError(t, te.env.Installed.PutInstalled(&database.InstalledInfo{
		AppID: "a", Runner: "gog", Platform: "linux", InstallPath: "/g/a",
	}))
	gi, err = b.GetGameInfo("a")
	require.NoError(t, err)
	assert.True(t, gi.IsInstalled)
	require.NotNil(t, gi.Install)
	assert.Equal(t, "/g/a", gi.Install.InstallPath)
	assert.True(t, b.IsNative("a"))

	// installed but never cached
	require.NoError(t, te.env.Installed.PutInstalled(&database.InstalledInfo{
		AppID: "b", Runner: "gog", Platform: "windows",
	}))
	gi, err = b.GetGameInfo("b")
	require.NoError(t, err)
	assert.Equal(t, "b", gi.Title)
	assert.Equal(t, "gog", gi.Runner)
}

func TestBase_GetSettingsInheritsGlobal(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	b := runners.NewBase(te.env, "gog", nil)

	require.NoError(t, te.env.Settings.Global().SetSetting("maxWorkers", 4))
	assert.Equal(t, 4, b.GetSettings("a").MaxWorkers)
}

func TestBase_ForgetIsBestEffort(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	b := runners.NewBase(te.env, "nile", nil)

	require.NoError(t, te.env.Installed.PutInstalled(&database.InstalledInfo{AppID: "a", Runner: "nile"}))
	te.dereg.On("RemoveShortcuts", "a", "nile").Return(errors.New("read-only desktop"))
	te.dereg.On("RemoveFromSteam", "a", "nile").Return(nil)
	te.dereg.On("RemoveRecent", "a").Return(nil)

	require.NoError(t, b.Forget("a"))
	_, err := b.Installed("a")
	require.ErrorIs(t, err, runners.ErrNotInstalled)
	te.dereg.AssertExpectations(t)
}

func TestBase_MoveFiles(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	b := runners.NewBase(te.env, "gog", nil)

	src := filepath.Join(t.TempDir(), "Game A")
	require.NoError(t, os.MkdirAll(src, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "game.bin"), []byte("data"), 0o600))
	require.NoError(t, te.env.Installed.PutInstalled(&database.InstalledInfo{
		AppID: "a", Runner: "gog", InstallPath: src,
	}))

	dstRoot := t.TempDir()
	var seen string
	res := b.MoveFiles(context.Background(), "a", dstRoot,
		func(_ context.Context, inst *runners.InstalledInfo) error {
			seen = inst.InstallPath
			return nil
		})
	require.True(t, res.OK(), res.Error)

	want := filepath.Join(dstRoot, "Game A")
	assert.Equal(t, want, seen)
	assert.FileExists(t, filepath.Join(want, "game.bin"))
	assert.NoDirExists(t, src)

	inst, err := b.Installed("a")
	require.NoError(t, err)
	assert.Equal(t, want, inst.InstallPath)
	assert.Equal(t, int64(4), inst.InstallSize)
	assert.Equal(t, []string{"moving", "done"}, te.rec.Phases("a"))
}

func TestBase_MoveFilesRollsBack(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	b := runners.NewBase(te.env, "legendary", nil)

	src := filepath.Join(t.TempDir(), "Game")
	require.NoError(t, os.MkdirAll(src, 0o750))
	require.NoError(t, te.env.Installed.PutInstalled(&database.InstalledInfo{
		AppID: "a", Runner: "legendary", InstallPath: src,
	}))

	res := b.MoveFiles(context.Background(), "a", t.TempDir(),
		func(context.Context, *runners.InstalledInfo) error { return errors.New("tool refused") })

	assert.Equal(t, runners.StatusError, res.Status)
	assert.DirExists(t, src)
	inst, err := b.Installed("a")
	require.NoError(t, err)
	assert.Equal(t, src, inst.InstallPath)
}

type failingPutStore struct {
	database.InstalledStore
}

func (failingPutStore) PutInstalled(*database.InstalledInfo) error {
	return errors.New("disk full")
}

func TestBase_MoveFilesRecordFailureRollsBack(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	fs := afero.NewMemMapFs()
	te.env.Fs = fs
	require.NoError(t, afero.WriteFile(fs, "/games/Game/game.bin", []byte("data"), 0o600))
	require.NoError(t, te.env.Installed.PutInstalled(&database.InstalledInfo{
		AppID: "a", Runner: "gog", InstallPath: "/games/Game",
	}))
	store := te.env.Installed
	te.env.Installed = failingPutStore{InstalledStore: store}
	b := runners.NewBase(te.env, "gog", nil)

	res := b.MoveFiles(context.Background(), "a", "/library", nil)

	assert.Equal(t, runners.StatusError, res.Status)
	assert.Contains(t, res.Error, "disk full")
	data, err := afero.ReadFile(fs, "/games/Game/game.bin")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	exists, err := afero.DirExists(fs, "/library/Game")
	require.NoError(t, err)
	assert.False(t, exists)

	inst, err := store.GetInstalled("gog", "a")
	require.NoError(t, err)
	assert.Equal(t, "/games/Game", inst.InstallPath)
	assert.Equal(t, 1, te.rec.Count("a", "done"))
}

func TestBase_MoveFilesInMemory(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	fs := afero.NewMemMapFs()
	te.env.Fs = fs
	require.NoError(t, afero.WriteFile(fs, "/games/Game/data/a.pak", []byte("12345"), 0o600))
	require.NoError(t, te.env.Installed.PutInstalled(&database.InstalledInfo{
		AppID: "a", Runner: "gog", InstallPath: "/games/Game",
	}))
	b := runners.NewBase(te.env, "gog", nil)

	res := b.MoveFiles(context.Background(), "a", "/library", nil)
	require.True(t, res.OK(), res.Error)

	inst, err := b.Installed("a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/library", "Game"), inst.InstallPath)
	assert.Equal(t, int64(5), inst.InstallSize)
	ok, err := afero.Exists(fs, "/library/Game/data/a.pak")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBase_MoveNotInstalled(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	b := runners.NewBase(te.env, "gog", nil)

	res := b.MoveFiles(context.Background(), "ghost", t.TempDir(), nil)
	assert.Equal(t, runners.ErrNotInstalled.Error(), res.Error)
	assert.Equal(t, 1, te.rec.Count("ghost", "done"))
}

func TestExecutablePath(t *testing.T) {
	t.Parallel()
	inst := &database.InstalledInfo{InstallPath: "/g", Executable: "bin/game"}
	b := runners.NewBase(&runners.Env{}, "x", nil)
	gs := b.GetSettings("a")

	assert.Equal(t, filepath.Join("/g", "bin/game"), runners.ExecutablePath(inst, &gs))
	gs.TargetExe = "/opt/other"
	assert.Equal(t, "/opt/other", runners.ExecutablePath(inst, &gs))
	gs.TargetExe = ""
	assert.Empty(t, runners.ExecutablePath(&database.InstalledInfo{}, &gs))
}
