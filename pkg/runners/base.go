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

package runners

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gamedock/gamedock-core/pkg/helpers"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/rs/zerolog/log"
)

// Base carries what every backend does the same way. Backends embed it and
// add their own verbs.
type Base struct {
	*Lifecycle
}

func NewBase(env *Env, id string, outage OutageFunc) Base {
	return Base{Lifecycle: NewLifecycle(env, id, outage)}
}

func (b *Base) ID() string {
	return b.Runner
}

func (b *Base) Installed(appID string) (InstalledInfo, error) {
	if b.Env.Installed == nil {
		return InstalledInfo{}, ErrNotInstalled
	}
	info, err := b.Env.Installed.GetInstalled(b.Runner, appID)
	if errors.Is(err, ErrNotFound) {
		return InstalledInfo{}, ErrNotInstalled
	} else if err != nil {
		return InstalledInfo{}, fmt.Errorf("failed to read installed record: %w", err)
	}
	return info, nil
}

// GetGameInfo merges the library cache entry with the installed record.
func (b *Base) GetGameInfo(appID string) (GameInfo, error) {
	var gi GameInfo
	found := false
	if b.Env.Library != nil {
		cached, err := b.Env.Library.GetGame(b.Runner, appID)
		switch {
		case err == nil:
			gi, found = cached, true
		case !errors.Is(err, ErrNotFound):
			return GameInfo{}, fmt.Errorf("failed to read library cache: %w", err)
		}
	}

	inst, err := b.Installed(appID)
	switch {
	case err == nil:
		if !found {
			gi = GameInfo{AppID: appID, Title: appID, Platforms: []string{inst.Platform}}
		}
		gi.Install = &inst
		gi.IsInstalled = true
	case errors.Is(err, ErrNotInstalled):
		if !found {
			return GameInfo{}, ErrNotFound
		}
		gi.Install = nil
		gi.IsInstalled = false
	default:
		return GameInfo{}, err
	}
	gi.AppID = appID
	gi.Runner = b.Runner
	return gi, nil
}

func (b *Base) GetSettings(appID string) settings.GameSettings {
	if b.Env.Settings == nil {
		return settings.GameDefaults(settings.DefaultGlobalSettings(), appID)
	}
	return b.Env.Settings.Game(appID).GetSettings()
}

// Title is the cached game title, or appID.
func (b *Base) Title(appID string) string {
	if gi, err := b.GetGameInfo(appID); err == nil && gi.Title != "" {
		return gi.Title
	}
	return appID
}

// IsNative classifies by the installed platform, then by the first cached
// platform. Unknown games count as native.
func (b *Base) IsNative(appID string) bool {
	if inst, err := b.Installed(appID); err == nil {
		return IsNativePlatform(inst.Platform)
	}
	if gi, err := b.GetGameInfo(appID); err == nil && len(gi.Platforms) > 0 {
		return IsNativePlatform(gi.Platforms[0])
	}
	return true
}

// Forget drops the installed record and runs the deregistration side
// effects. Side effect failures are only logged.
func (b *Base) Forget(appID string) error {
	if b.Env.Installed != nil {
		if err := b.Env.Installed.DeleteInstalled(b.Runner, appID); err != nil {
			return fmt.Errorf("failed to delete installed record: %w", err)
		}
	}
	b.Env.deregister(appID, b.Runner)
	return nil
}

// MoveFiles moves the install folder into newPath and updates the record.
// after runs once the files are in place, for tools that track paths
// themselves. When after or the record update fails the files are moved
// back.
func (b *Base) MoveFiles(
	ctx context.Context,
	appID, newPath string,
	after func(ctx context.Context, inst *InstalledInfo) error,
) Result {
	return b.Run(ctx, OpSpec{
		AppID: appID,
		Verb:  "move",
		Title: b.Title(appID),
		Phase: status.PhaseMoving,
		Body: func(ctx context.Context) error {
			inst, err := b.Installed(appID)
			if err != nil {
				return err
			}
			fs := b.Env.FS()
			oldDir := inst.InstallPath
			dest := filepath.Join(newPath, filepath.Base(oldDir))
			if _, err := fs.Stat(dest); err == nil {
				return fmt.Errorf("destination already exists: %s", dest)
			}
			if err := fs.MkdirAll(newPath, 0o750); err != nil {
				return fmt.Errorf("failed to create destination: %w", err)
			}
			if err := helpers.MoveDir(fs, oldDir, dest); err != nil {
				return fmt.Errorf("failed to move files: %w", err)
			}
			rollback := func() {
				if rbErr := helpers.MoveDir(fs, dest, oldDir); rbErr != nil {
					log.Error().Err(rbErr).Str("app_id", appID).Msg("failed to move files back")
				}
			}

			inst.InstallPath = dest
			if inst.InstallSize == 0 {
				if size, err := helpers.DirSize(fs, dest); err == nil {
					inst.InstallSize = size
				} else {
					log.Warn().Err(err).Str("app_id", appID).Msg("failed to measure install size")
				}
			}
			if after != nil {
				if err := after(ctx, &inst); err != nil {
					rollback()
					return err
				}
			}
			if b.Env.Installed == nil {
				return nil
			}
			if err := b.Env.Installed.PutInstalled(&inst); err != nil {
				rollback()
				return fmt.Errorf("failed to save installed record: %w", err)
			}
			return nil
		},
	})
}

// LaunchInstalled resolves the installed record and settings then launches
// the spec built by build.
func (b *Base) LaunchInstalled(
	ctx context.Context,
	appID string,
	build func(inst *InstalledInfo, gs *settings.GameSettings) (LaunchSpec, error),
) LaunchResult {
	inst, err := b.Installed(appID)
	if err != nil {
		return LaunchResult{Success: false, Reason: err.Error()}
	}
	gs := b.GetSettings(appID)
	spec, err := build(&inst, &gs)
	if err != nil {
		return LaunchResult{Success: false, Reason: err.Error()}
	}
	spec.AppID = appID
	spec.Settings = gs
	spec.Native = IsNativePlatform(inst.Platform)
	if spec.Title == "" {
		spec.Title = b.Title(appID)
	}
	if spec.Dir == "" {
		spec.Dir = inst.InstallPath
	}
	return b.Launch(ctx, spec)
}

// ExecutablePath resolves the executable to launch: the per-game target
// override first, then the installed record, relative to the install dir.
func ExecutablePath(inst *InstalledInfo, gs *settings.GameSettings) string {
	exe := inst.Executable
	if gs.TargetExe != "" {
		exe = gs.TargetExe
	}
	if exe == "" {
		return ""
	}
	if filepath.IsAbs(exe) {
		return exe
	}
	return filepath.Join(inst.InstallPath, exe)
}
