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

// Package gog drives GOG installs through the gogdl CLI.
package gog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/rs/zerolog/log"
)

const ID = "gog"

type Runner struct {
	runners.Base
	bin      string
	authPath string
}

var _ runners.Runner = (*Runner)(nil)

// New returns the GOG runner. authPath is passed to gogdl as its auth
// config; empty leaves gogdl to its default.
func New(env *runners.Env, bin, authPath string, outage runners.OutageFunc) *Runner {
	return &Runner{
		Base:     runners.NewBase(env, ID, outage),
		bin:      bin,
		authPath: authPath,
	}
}

func (r *Runner) cmd(args ...string) command.Cmd {
	if r.authPath != "" {
		args = append([]string{"--auth-config-path", r.authPath}, args...)
	}
	return command.Cmd{Name: r.bin, Args: args}
}

func platformArg(p string) string {
	switch strings.ToLower(p) {
	case "linux":
		return "linux"
	case "mac", "osx", "darwin":
		return "osx"
	default:
		return "windows"
	}
}

// buildInfo is the output of `gogdl info`.
type buildInfo struct {
	Size map[string]struct {
		DiskSize int64 `json:"disk_size"`
	} `json:"size"`
	FolderName  string `json:"folder_name"`
	BuildID     string `json:"buildId"`
	VersionName string `json:"versionName"`
}

func (b *buildInfo) diskSize(lang string) int64 {
	if s, ok := b.Size[lang]; ok {
		return s.DiskSize
	}
	return b.Size["*"].DiskSize
}

// gameInfoFile is the goggame-<id>.info manifest GOG ships in every
// install folder.
type gameInfoFile struct {
	PlayTasks []struct {
		Path      string `json:"path"`
		Type      string `json:"type"`
		IsPrimary bool   `json:"isPrimary"`
	} `json:"playTasks"`
}

//nolint:gocritic // settings struct copied for immutability
func downloadArgs(gs settings.GameSettings, lang string) []string {
	var args []string
	if lang != "" {
		args = append(args, "--lang", lang)
	}
	if gs.MaxWorkers > 0 {
		args = append(args, "--max-workers", strconv.Itoa(gs.MaxWorkers))
	}
	return args
}

//nolint:gocritic // args struct mirrors the queue element
func installArgs(appID string, args runners.InstallArgs, gs settings.GameSettings) []string {
	lang := args.Language
	if lang == "" {
		lang = gs.Language
	}
	out := []string{
		"download", appID,
		"--platform", platformArg(args.Platform),
		"--path", args.Path,
	}
	out = append(out, downloadArgs(gs, lang)...)
	switch {
	case len(args.DLCSelection) > 0:
		out = append(out, "--with-dlcs", "--dlcs", strings.Join(args.DLCSelection, ","))
	case args.InstallDLCs:
		out = append(out, "--with-dlcs")
	default:
		out = append(out, "--skip-dlcs")
	}
	return append(out, args.ExtraArgs...)
}

func (r *Runner) download(ctx context.Context, appID string, phase status.Phase, args []string) error {
	tp := r.NewProgress(appID, phase, runners.NewDLManagerParser())
	_, err := r.Stream(ctx, r.cmd(args...), tp, nil)
	return err
}

func (r *Runner) info(ctx context.Context, appID, platform, lang string) (buildInfo, error) {
	args := []string{"info", appID, "--platform", platform}
	if lang != "" {
		args = append(args, "--lang", lang)
	}
	out, err := r.Output(ctx, r.cmd(args...))
	if err != nil {
		return buildInfo{}, fmt.Errorf("gogdl info failed: %w", err)
	}
	var bi buildInfo
	if err := json.Unmarshal(out, &bi); err != nil {
		return buildInfo{}, fmt.Errorf("failed to parse build info: %w", err)
	}
	return bi, nil
}

// findExecutable picks the launch target of an install folder: start.sh
// for Linux installers, otherwise the primary play task of the manifest.
func findExecutable(dir, appID, platform string) string {
	if platform == "linux" {
		if _, err := os.Stat(filepath.Join(dir, "start.sh")); err == nil {
			return "start.sh"
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "goggame-"+appID+".info"))
	if err != nil {
		log.Debug().Err(err).Str("app_id", appID).Msg("no gog game manifest")
		return ""
	}
	var gf gameInfoFile
	if err := json.Unmarshal(data, &gf); err != nil {
		log.Warn().Err(err).Str("app_id", appID).Msg("failed to parse gog game manifest")
		return ""
	}
	first := ""
	for _, t := range gf.PlayTasks {
		if t.Type != "" && t.Type != "FileTask" {
			continue
		}
		if t.IsPrimary {
			return filepath.FromSlash(t.Path)
		}
		if first == "" {
			first = filepath.FromSlash(t.Path)
		}
	}
	return first
}

func (r *Runner) record(appID, platform, lang, installDir string, bi *buildInfo) error {
	info := runners.InstalledInfo{
		AppID:       appID,
		Runner:      ID,
		Platform:    platform,
		Executable:  findExecutable(installDir, appID, platform),
		InstallPath: installDir,
		InstallSize: bi.diskSize(lang),
		Version:     bi.VersionName,
		BuildID:     bi.BuildID,
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

func (r *Runner) Install(ctx context.Context, appID string, args runners.InstallArgs) runners.Result {
	gs := r.GetSettings(appID)
	title := args.GameTitle
	if title == "" {
		title = appID
	}
	platform := platformArg(args.Platform)
	lang := args.Language
	if lang == "" {
		lang = gs.Language
	}
	return r.Run(ctx, runners.OpSpec{
		AppID:  appID,
		Verb:   "install",
		Title:  title,
		Phase:  status.PhaseInstalling,
		Online: true,
		Body: func(ctx context.Context) error {
			if err := r.download(ctx, appID, status.PhaseInstalling, installArgs(appID, args, gs)); err != nil {
				return err
			}
			bi, err := r.info(ctx, appID, platform, lang)
			if err != nil {
				return err
			}
			if bi.FolderName == "" {
				return errors.New("gogdl did not report an install folder")
			}
			return r.record(appID, platform, lang, filepath.Join(args.Path, bi.FolderName), &bi)
		},
	})
}

// refresh runs an update or repair against an existing install.
func (r *Runner) refresh(
	ctx context.Context,
	appID, verb string,
	phase status.Phase,
	extra []string,
) runners.Result {
	gs := r.GetSettings(appID)
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
			a := []string{
				verb, appID,
				"--platform", inst.Platform,
				"--path", inst.InstallPath,
			}
			a = append(a, downloadArgs(gs, gs.Language)...)
			a = append(a, extra...)
			if err := r.download(ctx, appID, phase, a); err != nil {
				return err
			}
			bi, err := r.info(ctx, appID, inst.Platform, gs.Language)
			if err != nil {
				return err
			}
			return r.record(appID, inst.Platform, gs.Language, inst.InstallPath, &bi)
		},
	})
}

func (r *Runner) Update(ctx context.Context, appID string, args runners.UpdateArgs) runners.Result {
	var extra []string
	if args.InstallDLCs {
		extra = append(extra, "--with-dlcs")
	}
	return r.refresh(ctx, appID, "update", status.PhaseUpdating, append(extra, args.ExtraArgs...))
}

func (r *Runner) Repair(ctx context.Context, appID string) runners.Result {
	return r.refresh(ctx, appID, "repair", status.PhaseRepairing, nil)
}

// Uninstall removes the install folder itself; gogdl has no uninstall verb.
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
			c := append([]string{exe}, args.ExtraArgs...)
			return runners.LaunchSpec{
				Command: c,
				Dir:     filepath.Dir(exe),
			}, nil
		})
}
