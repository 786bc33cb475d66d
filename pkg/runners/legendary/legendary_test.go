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

package legendary

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/gamedock/gamedock-core/pkg/testing/helpers"
	"github.com/gamedock/gamedock-core/pkg/testing/mocks"
	"github.com/gamedock/gamedock-core/pkg/wine"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

const installedJSON = `[{"app_name": "Fortnite", "title": "Fortnite", "platform": "Windows",
"executable": "FortniteLauncher.exe", "install_path": "/games/Fortnite", "version": "++Fortnite+Release-30.00",
"install_size": 1073741824, "is_dlc": false}]`

type fixture struct {
	runner *Runner
	exec   *mocks.MockCommandExecutor
	rec    *helpers.StatusRecorder
	env    *runners.Env
}

func newFixture(t *testing.T, configDir string) *fixture {
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
	f.runner = New(f.env, "legendary", configDir, nil)
	return f
}

func (f *fixture) expectInstalledList() {
	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("legendary", "list-installed", "--json"), mock.Anything).
		Run(mocks.FeedLines(command.Stdout, installedJSON)).
		Return(command.Result{}, nil)
}

func TestInstall_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")

	f.exec.On("Stream", mock.Anything,
		mocks.CmdWithArgs("legendary", "install", "Fortnite", "--base-path", "/games", "--platform", "Windows",
			"-y", "--skip-dlcs", "--language", "en"),
		mock.Anything).
		Run(mocks.FeedLines(command.Stderr,
			"[DLManager] INFO: = Progress: 50.00% (1/2), Running for 00:00:10, ETA: 00:00:10",
			"[DLManager] INFO:  - Downloaded: 512.00 MiB, Written: 512.00 MiB",
		)).
		Return(command.Result{}, nil)
	f.expectInstalledList()

	res := f.runner.Install(context.Background(), "Fortnite", runners.InstallArgs{
		Path:      "/games",
		Platform:  "windows",
		GameTitle: "Fortnite",
	})
	require.True(t, res.OK(), res.Error)

	info, err := f.runner.Installed("Fortnite")
	require.NoError(t, err)
	assert.Equal(t, "/games/Fortnite", info.InstallPath)
	assert.Equal(t, int64(1<<30), info.InstallSize)
	assert.Equal(t, "Windows", info.Platform)

	progress := f.rec.Progress("Fortnite")
	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.InDelta(t, 50.0, last.Percent, 0.01)
	assert.Equal(t, int64(512)<<20, last.Bytes)

	phases := f.rec.Phases("Fortnite")
	assert.Equal(t, "installing", phases[0])
	assert.Equal(t, "done", phases[len(phases)-1])
	f.exec.AssertExpectations(t)
}

func TestInstall_MemoryErrorRetriesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")

	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("legendary", "install"), mock.Anything).
		Run(mocks.FeedLines(command.Stderr,
			"MemoryError: Current shared memory cache is smaller than required: 1024.0 MiB < 2399.4 MiB. "+
				"Try running legendary with the --max-shared-memory 2400 parameter"),
		).
		Return(command.Result{ExitCode: 1}, errors.New("legendary failed")).Once()
	f.exec.On("Stream", mock.Anything,
		mocks.CmdWithArgs("legendary", "install", "--max-shared-memory", "2400"), mock.Anything).
		Return(command.Result{}, nil).Once()
	f.expectInstalledList()

	res := f.runner.Install(context.Background(), "Fortnite", runners.InstallArgs{Path: "/games"})
	require.True(t, res.OK(), res.Error)
	f.exec.AssertExpectations(t)
}

func TestInstall_FailureLeavesNoRecord(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")

	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("legendary", "install"), mock.Anything).
		Return(command.Result{ExitCode: 1, Tail: []string{"Login failed"}}, errors.New("legendary failed")).Once()

	res := f.runner.Install(context.Background(), "Fortnite", runners.InstallArgs{Path: "/games"})
	assert.Equal(t, runners.StatusError, res.Status)
	assert.Contains(t, res.Error, "Login failed")

	_, err := f.runner.Installed("Fortnite")
	require.ErrorIs(t, err, runners.ErrNotInstalled)
	f.exec.AssertNumberOfCalls(t, "Stream", 1)
	assert.Equal(t, 1, f.rec.Count("Fortnite", status.PhaseDone))
}

func TestInstall_AbortFromRegistry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")

	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("legendary", "install"), mock.Anything).
		Run(func(args mock.Arguments) {
			ctx, _ := args.Get(0).(context.Context)
			f.env.Cancel.RequestCancel("Fortnite")
			<-ctx.Done()
		}).
		Return(command.Result{ExitCode: -1}, fmt.Errorf("legendary was cancelled: %w", context.Canceled))

	res := f.runner.Install(context.Background(), "Fortnite", runners.InstallArgs{Path: "/games"})
	assert.Equal(t, runners.Aborted(), res)
	_, err := f.runner.Installed("Fortnite")
	require.ErrorIs(t, err, runners.ErrNotInstalled)
}

func TestDownloadArgs_ToolConfigFallback(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := ini.Empty()
	cfg.Section("Legendary").Key("max_workers").SetValue("12")
	cfg.Section("Legendary").Key("disable_https").SetValue("true")
	require.NoError(t, cfg.SaveTo(filepath.Join(dir, "config.ini")))

	f := newFixture(t, dir)
	args := f.runner.downloadArgs(f.runner.GetSettings("x"))
	assert.Equal(t, []string{"--max-workers", "12", "--disable-https"}, args)

	require.NoError(t, f.env.Settings.Global().SetSetting("maxWorkers", 3))
	args = f.runner.downloadArgs(f.runner.GetSettings("x"))
	assert.Equal(t, []string{"--max-workers", "3", "--disable-https"}, args)
	assert.Equal(t, []string{"LEGENDARY_CONFIG_PATH=" + dir}, f.runner.env())
}

func TestReadToolConfig_Missing(t *testing.T) {
	t.Parallel()
	assert.Equal(t, toolConfig{}, readToolConfig(t.TempDir()))
	assert.Equal(t, toolConfig{}, readToolConfig(""))
}

func TestWithSharedMemory(t *testing.T) {
	t.Parallel()
	got := withSharedMemory([]string{"install", "x", "--max-shared-memory", "1024", "-y"}, 2048)
	assert.Equal(t, []string{"install", "x", "-y", "--max-shared-memory", "2048"}, got)
}

func TestUninstall(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	require.NoError(t, f.env.Installed.PutInstalled(&runners.InstalledInfo{AppID: "Fortnite", Runner: ID}))

	f.exec.On("Stream", mock.Anything,
		mocks.CmdWithArgs("legendary", "uninstall", "Fortnite", "-y", "--keep-files"), mock.Anything).
		Return(command.Result{}, nil)

	res := f.runner.Uninstall(context.Background(), "Fortnite", runners.UninstallArgs{KeepFiles: true})
	require.True(t, res.OK(), res.Error)
	_, err := f.runner.Installed("Fortnite")
	require.ErrorIs(t, err, runners.ErrNotInstalled)
	assert.Equal(t, []string{"uninstalling", "done"}, f.rec.Phases("Fortnite"))
}

func TestRefreshLibrary(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	list := `[{"app_name": "Sugar", "app_title": "Sugar Game",
"asset_infos": {"Windows": {}, "Mac": {}},
"metadata": {"developer": "Sweet Inc", "customAttributes": {"CanRunOffline": {"value": "true"}},
"dlcItemList": [{"releaseInfo": [{"appId": "SugarDLC"}]}]}}]`

	f.exec.On("Stream", mock.Anything, mocks.CmdWithArgs("legendary", "list", "--json"), mock.Anything).
		Run(mocks.FeedLines(command.Stdout, list)).
		Return(command.Result{}, nil)

	require.NoError(t, f.runner.RefreshLibrary(context.Background()))

	gi, err := f.runner.GetGameInfo("Sugar")
	require.NoError(t, err)
	assert.Equal(t, "Sugar Game", gi.Title)
	assert.Equal(t, "Sweet Inc", gi.Developer)
	assert.Equal(t, []string{"Mac", "Windows"}, gi.Platforms)
	assert.Equal(t, []string{"SugarDLC"}, gi.DLCs)
	assert.True(t, gi.CanRunOffline)
	assert.False(t, gi.IsInstalled)
}

func TestWineArgs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"--wine", "/w/bin/wine", "--wine-prefix", "/pfx"},
		wineArgs(wine.Installation{Type: settings.WineTypeWine, Bin: "/w/bin/wine", Prefix: "/pfx"}))
	assert.Equal(t, []string{"--no-wine", "--wrapper", `"/p/proton" run`},
		wineArgs(wine.Installation{Type: settings.WineTypeProton, Bin: "/p/proton", Prefix: "/pfx"}))
}
