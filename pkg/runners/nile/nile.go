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

// Package nile drives Amazon Games installs through the nile CLI.
package nile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/gamedock/gamedock-core/pkg/wine"
	"github.com/rs/zerolog/log"
)

const ID = "nile"

// Amazon only ships Windows builds.
const platform = "Windows"

type Runner struct {
	runners.Base
	bin       string
	configDir string
}

var _ runners.Runner = (*Runner)(nil)

// New returns the nile runner. configDir is where nile keeps installed.json
// and library.json.
func New(env *runners.Env, bin, configDir string, outage runners.OutageFunc) *Runner {
	return &Runner{
		Base:      runners.NewBase(env, ID, outage),
		bin:       bin,
		configDir: configDir,
	}
}

func (r *Runner) cmd(args ...string) command.Cmd {
	var env []string
	if r.configDir != "" {
		env = []string{"NILE_CONFIG_PATH=" + r.configDir}
	}
	return command.Cmd{Name: r.bin, Args: args, Env: env}
}

//nolint:gocritic // settings struct copied for immutability
func workerArgs(gs settings.GameSettings) []string {
	if gs.MaxWorkers > 0 {
		return []string{"--max-workers", strconv.Itoa(gs.MaxWorkers)}
	}
	return nil
}

func (r *Runner) download(ctx context.Context, appID string, phase status.Phase, args []string) error {
	tp := r.NewProgress(appID, phase, runners.NewDLManagerParser())
	_, err := r.Stream(ctx, r.cmd(args...), tp, nil)
	return err
}

type installedEntry struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
}

// fuelManifest is the fuel.json Amazon ships in every install folder.
type fuelManifest struct {
	Main struct {
		Command string   `json:"Command"`
		Args    []string `json:"Args"`
	} `json:"Main"`
}

func (r *Runner) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(r.configDir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func fuelExecutable(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "fuel.json"))
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("no fuel manifest")
		return ""
	}
	var m fuelManifest
	if err := json.Unmarshal(data, &m); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to parse fuel manifest")
		return ""
	}
	return filepath.FromSlash(m.Main.Command)
}

// syncInstalled copies nile's own installed record into the store.
func (r *Runner) syncInstalled(appID string) error {
	var entries []installedEntry
	if err := r.readJSON("installed.json", &entries); err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID != appID {
			continue
		}
		info := runners.InstalledInfo{
			AppID:       appID,
			Runner:      ID,
			Platform:    platform,
			Executable:  fuelExecutable(e.Path),
			InstallPath: e.Path,
			InstallSize: e.Size,
			Version:     e.Version,
			InstalledAt: r.Env.Now(),
		}
		if r.Env.Installed == nil {
			return nil
		}
		if err := r.Env.Installed.PutInstalled(&info); err != nil {
			return fmt.Errorf("failed to save installed record: %w", err)
		}
		return nil
	}
	return fmt.Errorf("nile does not report %s as installed", appID)
}

func (r *Runner) Install(ctx context.Context, appID string, args runners.InstallArgs) runners.Result {
	gs := r.GetSettings(appID)
	title := args.GameTitle
	if title == "" {
		title = appID
	}
	return r.Run(ctx, runners.OpSpec{
		AppID:  appID,
		Verb:   "install",
		Title:  title,
		Phase:  status.PhaseInstalling,
		Online: true,
		Body: func(ctx context.Context) error {
			a := append([]string{"install", appID, "--base-path", args.Path}, workerArgs(gs)...)
			a = append(a, args.ExtraArgs...)
			if err := r.download(ctx, appID, status.PhaseInstalling, a); err != nil {
				return err
			}
			return r.syncInstalled(appID)
		},
	})
}

func (r *Runner) Update(ctx context.Context, appID string, args runners.UpdateArgs) runners.Result {
	gs := r.GetSettings(appID)
	return r.Run(ctx, runners.OpSpec{
		AppID:  appID,
		Verb:   "update",
		Title:  r.Title(appID),
		Phase:  status.PhaseUpdating,
		Online: true,
		Body: func(ctx context.Context) error {
			a := append([]string{"update", appID}, workerArgs(gs)...)
			a = append(a, args.ExtraArgs...)
			if err := r.download(ctx, appID, status.PhaseUpdating, a); err != nil {
				return err
			}
			return r.syncInstalled(appID)
		},
	})
}

// Repair runs nile's verify, which redownloads damaged files.
func (r *Runner) Repair(ctx context.Context, appID string) runners.Result {
	return r.Run(ctx, runners.OpSpec{
		AppID:  appID,
		Verb:   "repair",
		Title:  r.Title(appID),
		Phase:  status.PhaseRepairing,
		Online: true,
		Body: func(ctx context.Context) error {
			if err := r.download(ctx, appID, status.PhaseRepairing, []string{"verify", appID}); err != nil {
				return err
			}
			return r.syncInstalled(appID)
		},
	})
}

func (r *Runner) Uninstall(ctx context.Context, appID string, args runners.UninstallArgs) runners.Result {
	return r.Run(ctx, runners.OpSpec{
		AppID: appID,
		Verb:  "uninstall",
		Title: r.Title(appID),
		Phase: status.PhaseUninstalling,
		Body: func(ctx context.Context) error {
			a := []string{"uninstall", appID}
			if args.KeepFiles {
				a = append(a, "--keep-files")
			}
			if _, err := r.Stream(ctx, r.cmd(a...), nil, nil); err != nil {
				return err
			}
			return r.Forget(appID)
		},
	})
}

// MoveInstall moves the files and rewrites the path in nile's installed.json,
// which nile has no command for.
func (r *Runner) MoveInstall(ctx context.Context, appID, newPath string) runners.Result {
	return r.MoveFiles(ctx, appID, newPath, func(_ context.Context, inst *runners.InstalledInfo) error {
		return r.setInstalledPath(appID, inst.InstallPath)
	})
}

func (r *Runner) setInstalledPath(appID, dir string) error {
	var entries []map[string]any
	if err := r.readJSON("installed.json", &entries); err != nil {
		return err
	}
	found := false
	for _, e := range entries {
		if e["id"] == appID {
			e["path"] = dir
			found = true
		}
	}
	if !found {
		return fmt.Errorf("nile does not report %s as installed", appID)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode installed.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.configDir, "installed.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write installed.json: %w", err)
	}
	return nil
}

func (r *Runner) Launch(ctx context.Context, appID string, args runners.LaunchArgs) runners.LaunchResult {
	return r.LaunchInstalled(ctx, appID,
		func(inst *runners.InstalledInfo, gs *settings.GameSettings) (runners.LaunchSpec, error) {
			if inst.InstallPath == "" {
				return runners.LaunchSpec{}, errors.New("install folder unknown")
			}
			c := []string{r.bin, "launch", appID}
			c = append(c, args.ExtraArgs...)
			return runners.LaunchSpec{
				Command:  c,
				Env:      r.cmd().Env,
				WineArgs: wineArgs,
			}, nil
		})
}

func wineArgs(inst wine.Installation) []string {
	if inst.Type == settings.WineTypeProton {
		return []string{"--wrapper", fmt.Sprintf("%q run", inst.Bin)}
	}
	args := []string{"--wine", inst.Bin}
	if inst.Prefix != "" {
		args = append(args, "--wine-prefix", inst.Prefix)
	}
	return args
}

// libraryEntry is one element of nile's library.json.
type libraryEntry struct {
	Product struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		ProductDetail struct {
			Details struct {
				DeveloperName string `json:"developerName"`
			} `json:"details"`
		} `json:"productDetail"`
	} `json:"product"`
}

// RefreshLibrary syncs nile's library then upserts it into the cache.
func (r *Runner) RefreshLibrary(ctx context.Context) error {
	if r.Env.Library == nil {
		return nil
	}
	if _, err := r.Stream(ctx, r.cmd("library", "sync"), nil, nil); err != nil {
		return fmt.Errorf("nile library sync failed: %w", err)
	}
	var entries []libraryEntry
	if err := r.readJSON("library.json", &entries); err != nil {
		return err
	}
	games := make([]runners.GameInfo, 0, len(entries))
	for i := range entries {
		p := &entries[i].Product
		if p.ID == "" {
			continue
		}
		games = append(games, runners.GameInfo{
			AppID:     p.ID,
			Runner:    ID,
			Title:     p.Title,
			Developer: p.ProductDetail.Details.DeveloperName,
			Platforms: []string{platform},
		})
	}
	if err := r.Env.Library.PutGames(ID, games); err != nil {
		return fmt.Errorf("failed to update library cache: %w", err)
	}
	log.Info().Int("games", len(games)).Msg("nile library refreshed")
	return nil
}
