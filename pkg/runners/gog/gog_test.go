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

package gog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/gamedock/gamedock-core/pkg/testing/helpers"
	"github.com/gamedock/gamedock-core/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const witcherInfo = `{"folder_name": "The Witcher 3", "buildId": "5678", "versionName": "4.04",
"size": {"*": {"disk_size": 2048}, "en-US": {"disk_size": 4096}}}`

type fixture struct {
	runner *Runner
	exec   *mocks.MockCommandExecutor
	rec    *helpers.StatusRecorder
	env    *runners.Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, cleanup := helpers.NewTestDatabase(t)
	t.Cleanup(cleanup)

	f := &fixture{
		exec: &mocks.MockCommandExecutor{},
		rec:  helpers.NewStatusRecorder(),
	}
	f.env = &runners.Env{
		Settings:     settings.NewRegistry(afero.NewMemMapFs(), "/settings"),
		Status:       f.rec,
		Frontend:     mocks.NewMockSink(),
		Installed:    db.LibraryDB,
		Library:      db.GameCache,
		Recents:      db.LibraryDB,
		Connectivity: mocks.StaticConnectivity(true),
		Deregister:   &runners.DefaultDeregisterer{Recents: db.LibraryDB},
		Exec:         f.exec,
		Clock:        clockwork.NewFakeClock(),
	}
	f.runner = New(f.env, "gogdl", "/auth.json", nil)
	return f
}

func writeManifest(t *testing.T, dir, appID, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goggame-"+appID+".info"), []byte(body), 0o600))
}

func TestInstallArgs(t *testing.T) {
	t.Parallel()
	gs := settings.GameSettings{MaxWorkers: 4, Language: "en"}

	tests := []struct {
		name string
		args runners.InstallArgs
		want []string
	}{
		{
			name: "skip dlcs",
			args: runners.InstallArgs{Path: "/games", Platform: "windows"},
			want: []string{
				"download", "1207664643", "--platform", "windows", "--path", "/games",
				"--lang", "en", "--max-workers", "4", "--skip-dlcs",
			},
		},
		{
			name: "dlc selection",
			args: runners.InstallArgs{
				Path: "/games", Platform: "linux", Language: "de",
				DLCSelection: []string{"1", "2"},
			},
			want: []string{
				"download", "1207664643", "--platform", "linux", "--path", "/games",
				"--lang", "de", "--max-workers", "4", "--with-dlcs", "--dlcs", "1,2",
			},
		},
		{
			name: "all dlcs on mac",
			args: runners.InstallArgs{Path: "/games", Platform: "mac", InstallDLCs: true},
			want: []string{
				"download", "1207664643", "--platform", "osx", "--path", "/games",
				"--lang", "en", "--max-workers", "4", "--with-dlcs",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, installArgs("1207664643", tt.args, gs))
		})
	}
}

func TestInstall_RecordsBuild(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	base := t.TempDir()
	gameDir := filepath.Join(base, "The Witcher 3")
	writeManifest(t, gameDir, "1207664643",
		`{"playTasks": [{"path": "bin/launcher.exe", "type": "FileTask"},
{"path": "bin/x64/witcher3.exe", "type": "FileTask", "isPrimary": true}]}`)

	f.exec.On("Stream", mock.Anything,
		mocks.CmdWithArgs("gogdl", "--auth-config-path", "/auth.json", "download", "1207664643", "--path", base),
		mock.Anything).
		Run(mocks.FeedLines(command.Stderr,
			"[PROGRESS] INFO: = Progress: 42.00 123/456, Running for: 00:00:05, ETA: 00:00:07",
		)).
		Return(command.Result{}, nil)
	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("gogdl", "info", "1207664643"), mock.Anything).
		Run(mocks.FeedLines(command.Stdout, witcherInfo)).
		Return(command.Result{}, nil)

	res := f.runner.Install(context.Background(), "1207664643", runners.InstallArgs{
		Path: base, Platform: "windows", Language: "en-US", GameTitle: "The Witcher 3",
	})
	require.True(t, res.OK(), res.Error)

	inst, err := f.runner.Installed("1207664643")
	require.NoError(t, err)
	assert.Equal(t, gameDir, inst.InstallPath)
	assert.Equal(t, filepath.Join("bin", "x64", "witcher3.exe"), inst.Executable)
	assert.Equal(t, "5678", inst.BuildID)
	assert.Equal(t, "4.04", inst.Version)
	assert.Equal(t, int64(4096), inst.InstallSize)
	assert.Equal(t, "windows", inst.Platform)

	progress := f.rec.Progress("1207664643")
	require.NotEmpty(t, progress)
	assert.InDelta(t, 42.0, progress[0].Percent, 0.01)
	assert.Equal(t, "00:00:07", progress[0].ETA)
}

func TestInstall_MissingFolderFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("gogdl", "download"), mock.Anything).
		Return(command.Result{}, nil)
	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("gogdl", "info"), mock.Anything).
		Run(mocks.FeedLines(command.Stdout, `{"buildId": "1"}`)).
		Return(command.Result{}, nil)

	res := f.runner.Install(context.Background(), "1", runners.InstallArgs{Path: t.TempDir()})
	assert.Equal(t, runners.StatusError, res.Status)
	_, err := f.runner.Installed("1")
	require.ErrorIs(t, err, runners.ErrNotInstalled)
}

func TestUpdate_UsesInstallFolder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dir := t.TempDir()
	require.NoError(t, f.env.Installed.PutInstalled(&runners.InstalledInfo{
		AppID: "1", Runner: ID, Platform: "linux", InstallPath: dir, Version: "1.0",
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "start.sh"), []byte("#!/bin/sh\n"), 0o600))

	f.exec.On("Stream", mock.Anything,
		mocks.CmdWithArgs("gogdl", "update", "1", "--platform", "linux", "--path", dir, "--with-dlcs"),
		mock.Anything).
		Return(command.Result{}, nil)
	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("gogdl", "info", "1"), mock.Anything).
		Run(mocks.FeedLines(command.Stdout, `{"folder_name": "x", "versionName": "1.1"}`)).
		Return(command.Result{}, nil)

	res := f.runner.Update(context.Background(), "1", runners.UpdateArgs{InstallDLCs: true})
	require.True(t, res.OK(), res.Error)

	inst, err := f.runner.Installed("1")
	require.NoError(t, err)
	assert.Equal(t, "1.1", inst.Version)
	assert.Equal(t, dir, inst.InstallPath)
	assert.Equal(t, "start.sh", inst.Executable)
	assert.Equal(t, []string{"updating", "done"}, f.rec.Phases("1"))
}

func TestRepair_NotInstalled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	res := f.runner.Repair(context.Background(), "1")
	assert.Equal(t, runners.StatusError, res.Status)
	assert.Equal(t, 1, f.rec.Count("1", status.PhaseDone))
	f.exec.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything, mock.Anything)
}

func TestUninstall_RemovesFolder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "game")
	writeManifest(t, dir, "1", `{}`)
	require.NoError(t, f.env.Installed.PutInstalled(&runners.InstalledInfo{
		AppID: "1", Runner: ID, InstallPath: dir,
	}))

	res := f.runner.Uninstall(context.Background(), "1", runners.UninstallArgs{})
	require.True(t, res.OK(), res.Error)
	assert.NoDirExists(t, dir)
	_, err := f.runner.Installed("1")
	require.ErrorIs(t, err, runners.ErrNotInstalled)
}

func TestUninstall_KeepFiles(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "game")
	writeManifest(t, dir, "1", `{}`)
	require.NoError(t, f.env.Installed.PutInstalled(&runners.InstalledInfo{
		AppID: "1", Runner: ID, InstallPath: dir,
	}))

	res := f.runner.Uninstall(context.Background(), "1", runners.UninstallArgs{KeepFiles: true})
	require.True(t, res.OK(), res.Error)
	assert.DirExists(t, dir)
}

func TestFindExecutable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeManifest(t, dir, "9",
		`{"playTasks": [{"path": "docs/manual.pdf", "type": "URLTask"}, {"path": "game.exe", "type": "FileTask"}]}`)

	assert.Equal(t, "game.exe", findExecutable(dir, "9", "windows"))
	assert.Empty(t, findExecutable(dir, "missing", "windows"))
}
