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

// Package restplugin runs stores described by a plugin manifest: a small
// REST API that lists games and points at downloadable archives.
package restplugin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/rs/zerolog/log"
)

type Runner struct {
	runners.Base
	client *http.Client
	plugin config.StorePlugin
	opts   Options
}

var _ runners.Runner = (*Runner)(nil)

// New builds a runner for plugin. A nil client uses http.DefaultClient.
//
//nolint:gocritic // manifest copied so later edits do not leak in
func New(env *runners.Env, plugin config.StorePlugin, client *http.Client) (*Runner, error) {
	opts, err := DecodeOptions(plugin.Options)
	if err != nil {
		return nil, fmt.Errorf("store plugin %s: %w", plugin.ID, err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	var outage runners.OutageFunc
	if opts.StatusURL != "" {
		outage = runners.StatusPageOutage(opts.StatusURL, client)
	}
	return &Runner{
		Base:   runners.NewBase(env, plugin.ID, outage),
		client: client,
		plugin: plugin,
		opts:   opts,
	}, nil
}

func (r *Runner) Name() string {
	return r.plugin.Name
}

func dirName(appID string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(appID)
}

func (r *Runner) platformOf(rel *Release, requested string) string {
	switch {
	case rel.Platform != "":
		return rel.Platform
	case requested != "":
		return requested
	case len(r.plugin.Platforms) > 0:
		return r.plugin.Platforms[0]
	default:
		return "windows"
	}
}

// fetch downloads the current release of appID into dir, replacing files
// already there, and returns the record to store.
func (r *Runner) fetch(
	ctx context.Context,
	appID, dir string,
	phase status.Phase,
	rel *Release,
) (runners.InstalledInfo, error) {
	base := filepath.Dir(dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return runners.InstalledInfo{}, fmt.Errorf("failed to create install folder: %w", err)
	}
	part := filepath.Join(base, PartialName)
	tp := r.NewProgress(appID, phase, nil)
	if err := r.download(ctx, tp, rel, part); err != nil {
		return runners.InstalledInfo{}, err
	}

	archive, err := isZip(part)
	if err != nil {
		return runners.InstalledInfo{}, err
	}
	var size int64
	if archive {
		size, err = extractZip(ctx, part, dir)
		if err != nil {
			return runners.InstalledInfo{}, err
		}
		r.dropArchive(part, appID)
	} else {
		name := filepath.Base(filepath.FromSlash(rel.Executable))
		if name == "." || name == string(filepath.Separator) {
			name = path.Base(rel.DownloadURL)
		}
		fi, err := os.Stat(part)
		if err != nil {
			return runners.InstalledInfo{}, fmt.Errorf("failed to stat download: %w", err)
		}
		size = fi.Size()
		target := filepath.Join(dir, name)
		if err := os.Rename(part, target); err != nil {
			return runners.InstalledInfo{}, fmt.Errorf("failed to place download: %w", err)
		}
		//nolint:gosec // downloaded programs must be executable
		if err := os.Chmod(target, 0o750); err != nil {
			return runners.InstalledInfo{}, fmt.Errorf("failed to mark download executable: %w", err)
		}
	}

	return runners.InstalledInfo{
		AppID:       appID,
		Runner:      r.Runner,
		Executable:  rel.Executable,
		InstallPath: dir,
		InstallSize: size,
		Version:     rel.Version,
		InstalledAt: r.Env.Now(),
	}, nil
}

func (r *Runner) dropArchive(part, appID string) {
	if r.opts.KeepArchive {
		kept := filepath.Join(filepath.Dir(part), dirName(appID)+".zip")
		if err := os.Rename(part, kept); err != nil {
			log.Warn().Err(err).Str("app_id", appID).Msg("failed to keep archive")
		}
		return
	}
	removePath(part)
}

func removePath(p string) {
	if err := os.RemoveAll(p); err != nil {
		log.Warn().Err(err).Str("path", p).Msg("failed to remove partial files")
	}
}

func (r *Runner) save(info *runners.InstalledInfo) error {
	if r.Env.Installed == nil {
		return nil
	}
	if err := r.Env.Installed.PutInstalled(info); err != nil {
		return fmt.Errorf("failed to save installed record: %w", err)
	}
	return nil
}

//nolint:gocritic // args struct mirrors the queue element
func (r *Runner) Install(ctx context.Context, appID string, args runners.InstallArgs) runners.Result {
	title := args.GameTitle
	if title == "" {
		title = appID
	}
	dir := filepath.Join(args.Path, dirName(appID))
	_, statErr := os.Stat(dir)
	existed := statErr == nil

	return r.Run(ctx, runners.OpSpec{
		AppID:  appID,
		Verb:   "install",
		Title:  title,
		Phase:  status.PhaseInstalling,
		Online: true,
		Body: func(ctx context.Context) error {
			if args.Path == "" {
				return errors.New("no install path given")
			}
			rel, err := r.release(ctx, appID)
			if err != nil {
				return err
			}
			info, err := r.fetch(ctx, appID, dir, status.PhaseInstalling, &rel)
			if err != nil {
				return err
			}
			info.Platform = r.platformOf(&rel, args.Platform)
			return r.save(&info)
		},
		Cleanup: func() {
			removePath(filepath.Join(args.Path, PartialName))
			if !existed {
				removePath(dir)
			}
		},
	})
}

// refresh redownloads the release over an existing install. Unless force
// is set an install already at the current version is left alone.
func (r *Runner) refresh(ctx context.Context, appID, verb string, phase status.Phase, force bool) runners.Result {
	var part string
	return r.Run(ctx, runners.OpSpec{
		AppID:  appID,
		Verb:   verb,
		Title:  r.Title(appID),
		Phase:  phase,
		Online: true,
		Body: func(ctx context.Context) error {
			inst, err := r.Installed(appID)
			if err != nil {
				return err
			}
			rel, err := r.release(ctx, appID)
			if err != nil {
				return err
			}
			if !force && rel.Version != "" && rel.Version == inst.Version {
				log.Info().Str("app_id", appID).Str("version", inst.Version).Msg("already up to date")
				return nil
			}
			part = filepath.Join(filepath.Dir(inst.InstallPath), PartialName)
			info, err := r.fetch(ctx, appID, inst.InstallPath, phase, &rel)
			if err != nil {
				return err
			}
			info.Platform = r.platformOf(&rel, inst.Platform)
			return r.save(&info)
		},
		Cleanup: func() {
			if part != "" {
				removePath(part)
			}
		},
	})
}

func (r *Runner) Update(ctx context.Context, appID string, _ runners.UpdateArgs) runners.Result {
	return r.refresh(ctx, appID, "update", status.PhaseUpdating, false)
}

func (r *Runner) Repair(ctx context.Context, appID string) runners.Result {
	return r.refresh(ctx, appID, "repair", status.PhaseRepairing, true)
}

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
			if !args.KeepFiles && inst.InstallPath != "" {
				if err := os.RemoveAll(inst.InstallPath); err != nil {
					return fmt.Errorf("failed to remove install folder: %w", err)
				}
			}
			return r.Forget(appID)
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
			return runners.LaunchSpec{Command: append([]string{exe}, args.ExtraArgs...)}, nil
		})
}

// RefreshLibrary upserts the store's game list into the library cache.
func (r *Runner) RefreshLibrary(ctx context.Context) error {
	if r.Env.Library == nil {
		return nil
	}
	var list []Release
	if err := r.getJSON(ctx, "/games", &list); err != nil {
		return err
	}
	games := make([]runners.GameInfo, 0, len(list))
	for i := range list {
		rel := &list[i]
		if rel.ID == "" {
			continue
		}
		games = append(games, runners.GameInfo{
			AppID:     rel.ID,
			Runner:    r.Runner,
			Title:     rel.Title,
			Developer: rel.Developer,
			Platforms: []string{r.platformOf(rel, "")},
		})
	}
	if err := r.Env.Library.PutGames(r.Runner, games); err != nil {
		return fmt.Errorf("failed to update library cache: %w", err)
	}
	log.Info().Str("store", r.plugin.ID).Int("games", len(games)).Msg("store library refreshed")
	return nil
}
