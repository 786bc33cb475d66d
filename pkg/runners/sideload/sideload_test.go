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

package sideload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/testing/helpers"
	"github.com/gamedock/gamedock-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
		Status:     f.rec,
		Frontend:   mocks.NewMockSink(),
		Installed:  db.LibraryDB,
		Library:    db.GameCache,
		Recents:    db.LibraryDB,
		Deregister: &runners.DefaultDeregisterer{Recents: db.LibraryDB},
		Exec:       f.exec,
	}
	f.runner = New(f.env)
	return f
}

func writeExe(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "app")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0o700))
	return p
}

func TestInstall_RegistersExecutable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	exe := writeExe(t, "run.sh")

	res := f.runner.Install(context.Background(), "my-app", runners.InstallArgs{
		Path: exe, GameTitle: "My App", Size: 10,
	})
	require.True(t, res.OK(), res.Error)

	inst, err := f.runner.Installed("my-app")
	require.NoError(t, err)
	assert.Equal(t, "run.sh", inst.Executable)
	assert.Equal(t, filepath.Dir(exe), inst.InstallPath)
	assert.Equal(t, "linux", inst.Platform)

	gi, err := f.runner.GetGameInfo("my-app")
	require.NoError(t, err)
	assert.Equal(t, "My App", gi.Title)
	assert.True(t, gi.IsInstalled)
	assert.Empty(t, f.rec.Progress("my-app"))
	f.exec.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything, mock.Anything)
}

func TestInstall_MissingExecutable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.runner.Install(context.Background(), "x", runners.InstallArgs{
		Path: filepath.Join(t.TempDir(), "nope.exe"),
	})
	assert.Equal(t, runners.StatusError, res.Status)
	assert.Equal(t, 1, f.rec.Count("x", status.PhaseError))
	assert.Equal(t, 1, f.rec.Count("x", status.PhaseDone))
}

func TestUpdateRepair_NotSupported(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.runner.Update(context.Background(), "x", runners.UpdateArgs{})
	assert.Equal(t, runners.StatusError, res.Status)
	assert.Contains(t, res.Error, runners.ErrNotSupported.Error())
	assert.Equal(t, []string{"updating", "error", "done"}, f.rec.Phases("x"))

	res = f.runner.Repair(context.Background(), "y")
	assert.Equal(t, runners.StatusError, res.Status)
	assert.Contains(t, res.Error, runners.ErrNotSupported.Error())
	assert.Equal(t, []string{"repairing", "error", "done"}, f.rec.Phases("y"))
	assert.Equal(t, 1, f.rec.Count("y", status.PhaseDone))
}

func TestUninstall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    runners.UninstallArgs
		removed bool
	}{
		{name: "default keeps folder", args: runners.UninstallArgs{}},
		{name: "keep files", args: runners.UninstallArgs{KeepFiles: true}},
		{name: "keep wins over delete", args: runners.UninstallArgs{KeepFiles: true, DeleteFiles: true}},
		{name: "delete files", args: runners.UninstallArgs{DeleteFiles: true}, removed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			exe := writeExe(t, "game.exe")
			require.True(t, f.runner.Install(context.Background(), "g", runners.InstallArgs{Path: exe}).OK())

			res := f.runner.Uninstall(context.Background(), "g", tt.args)
			require.True(t, res.OK(), res.Error)

			_, err := f.runner.GetGameInfo("g")
			require.ErrorIs(t, err, runners.ErrNotFound)
			if tt.removed {
				assert.NoDirExists(t, filepath.Dir(exe))
			} else {
				assert.FileExists(t, exe)
			}
		})
	}
}

func TestLaunch_Native(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	exe := writeExe(t, "run.sh")
	require.True(t, f.runner.Install(context.Background(), "g", runners.InstallArgs{
		Path: exe, Platform: "linux",
	}).OK())

	f.exec.On("Stream", mock.Anything, mock.MatchedBy(func(c command.Cmd) bool {
		return c.Name == exe && c.Dir == filepath.Dir(exe) &&
			assert.ObjectsAreEqual([]string{"--fullscreen"}, c.Args)
	}), mock.Anything).Return(command.Result{}, nil)

	res := f.runner.Launch(context.Background(), "g", runners.LaunchArgs{ExtraArgs: []string{"--fullscreen"}})
	assert.True(t, res.Success, res.Reason)
	assert.Equal(t, 1, f.rec.Count("g", status.PhasePlaying))
}

func TestGuessPlatform(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "windows", guessPlatform("C:/Games/x/GAME.EXE"))
	assert.Equal(t, "mac", guessPlatform("/Applications/X.app"))
	assert.Equal(t, "linux", guessPlatform("/opt/x/run"))
}
