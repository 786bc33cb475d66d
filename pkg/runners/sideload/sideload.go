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

// Package sideload manages apps the user added by hand. Nothing is ever
// downloaded: install registers an executable that already exists.
package sideload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/rs/zerolog/log"
)

const ID = "sideload"

type Runner struct {
	runners.Base
}

var _ runners.Runner = (*Runner)(nil)

func New(env *runners.Env) *Runner {
	return &Runner{Base: runners.NewBase(env, ID, nil)}
}

// guessPlatform classifies an executable by its extension when the caller
// gave no platform.
func guessPlatform(exe string) string {
	switch strings.ToLower(filepath.Ext(exe)) {
	case ".exe", ".bat", ".msi", ".lnk":
		return "windows"
	case ".app":
		return "mac"
	default:
		return "linux"
	}
}

// Install registers args.Path, the full path of the app's executable.
//
//nolint:gocritic // args struct mirrors the queue element
func (r *Runner) Install(ctx context.Context, appID string, args runners.InstallArgs) runners.Result {
	title := args.GameTitle
	if title == "" {
		title = appID
	}
	return r.Run(ctx, runners.OpSpec{
		AppID: appID,
		Verb:  "install",
		Title: title,
		Phase: status.PhaseInstalling,
		Body: func(_ context.Context) error {
			if args.Path == "" {
				return errors.New("no executable given")
			}
			fi, err := os.Stat(args.Path)
			if err != nil {
				return fmt.Errorf("executable not found: %w", err)
			}
			if fi.IsDir() && !strings.EqualFold(filepath.Ext(args.Path), ".app") {
				return fmt.Errorf("not an executable: %s", args.Path)
			}
			platform := args.Platform
			if platform == "" {
				platform = guessPlatform(args.Path)
			}

			info := runners.InstalledInfo{
				AppID:       appID,
				Runner:      ID,
				Platform:    platform,
				Executable:  filepath.Base(args.Path),
				InstallPath: filepath.Dir(args.Path),
				InstallSize: args.Size,
				InstalledAt: r.Env.Now(),
			}
			if r.Env.Installed != nil {
				if err := r.Env.Installed.PutInstalled(&info); err != nil {
					return fmt.Errorf("failed to save installed record: %w", err)
				}
			}
			if r.Env.Library != nil {
				gi := runners.GameInfo{AppID: appID, Title: title, Platforms: []string{platform}}
				if err := r.Env.Library.PutGames(ID, []runners.GameInfo{gi}); err != nil {
					log.Warn().Err(err).Str("app_id", appID).Msg("failed to cache sideloaded app")
				}
			}
			return nil
		},
	})
}

func (r *Runner) Update(ctx context.Context, appID string, _ runners.UpdateArgs) runners.Result {
	return r.unsupported(ctx, appID, "update", status.PhaseUpdating)
}

func (r *Runner) Repair(ctx context.Context, appID string) runners.Result {
	return r.unsupported(ctx, appID, "repair", status.PhaseRepairing)
}

// unsupported still goes through the lifecycle so the error and the final
// done are published like for any other verb.
func (r *Runner) unsupported(ctx context.Context, appID, verb string, phase status.Phase) runners.Result {
	return r.Run(ctx, runners.OpSpec{
		AppID: appID,
		Verb:  verb,
		Title: r.Title(appID),
		Phase: phase,
		Body: func(context.Context) error {
			return fmt.Errorf("%w: sideloaded apps cannot %s", runners.ErrNotSupported, verb)
		},
	})
}

// Uninstall forgets the app. The folder holding the executable belongs to
// the user, so it is only deleted when DeleteFiles is set.
func (r *Runner) Uninstall(ctx context.Context, appID string, args runners.UninstallArgs) runners.Result {
	return r.Run(ctx, runners.OpSpec{
		AppID: appID,
		Verb:  "uninstall",
		Title: r.Title(appID),
		Phase: status.PhaseUninstalling,
		Body: func(_ context.Context) error {
			inst, err := r.Installed(appID)
			if err != nil {
				return err
			}
			if args.DeleteFiles && !args.KeepFiles && inst.InstallPath != "" {
				if err := os.RemoveAll(inst.InstallPath); err != nil {
					return fmt.Errorf("failed to remove app folder: %w", err)
				}
			}
			if err := r.Forget(appID); err != nil {
				return err
			}
			if r.Env.Library != nil {
				if err := r.Env.Library.DeleteGame(ID, appID); err != nil {
					log.Warn().Err(err).Str("app_id", appID).Msg("failed to drop sideloaded app from cache")
				}
			}
			return nil
		},
	})
}

func (r *Runner) MoveInstall(ctx context.Context, appID, newPath string) runners.Result {
	return r.MoveFiles(ctx, appID, newPath, nil)
}

func (r *Runner) Launch(ctx context.Context, appID string, args runners.LaunchArgs) runners.LaunchResult {
	return r.LaunchInstalled(ctx, appID,
		func(inst *runners.InstalledInfo, gs *settings.GameSettings) (runners.LaunchSpec, error) {
			exe := runners.ExecutablePath(inst, gs)
			if exe == "" {
				return runners.LaunchSpec{}, nil
			}
			return runners.LaunchSpec{
				Command: append([]string{exe}, args.ExtraArgs...),
			}, nil
		})
}
