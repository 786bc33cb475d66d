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

// Package legendary drives Epic Games Store installs through the legendary
// CLI.
package legendary

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/gamedock/gamedock-core/pkg/wine"
	"github.com/rs/zerolog/log"
)

const (
	ID        = "legendary"
	StatusURL = "https://status.epicgames.com/api/v2/status.json"
)

var memoryErrRe = regexp.MustCompile(
	`MemoryError: Current shared memory cache is smaller than required: ([\d.]+) MiB < ([\d.]+) MiB`)

type Runner struct {
	runners.Base
	bin       string
	configDir string
}

var _ runners.Runner = (*Runner)(nil)

// New returns the legendary runner. configDir is legendary's own config
// directory; empty means legendary's default.
func New(env *runners.Env, bin, configDir string, outage runners.OutageFunc) *Runner {
	return &Runner{
		Base:      runners.NewBase(env, ID, outage),
		bin:       bin,
		configDir: configDir,
	}
}

func (r *Runner) env() []string {
	if r.configDir == "" {
		return nil
	}
	return []string{"LEGENDARY_CONFIG_PATH=" + r.configDir}
}

func (r *Runner) cmd(args ...string) command.Cmd {
	return command.Cmd{Name: r.bin, Args: args, Env: r.env()}
}

func platformArg(p string) string {
	switch strings.ToLower(p) {
	case "mac", "osx", "darwin":
		return "Mac"
	case "win32":
		return "Win32"
	default:
		return "Windows"
	}
}

// downloadArgs are the flags shared by install, update and repair.
//
//nolint:gocritic // settings struct copied for immutability
func (r *Runner) downloadArgs(gs settings.GameSettings) []string {
	tc := readToolConfig(r.configDir)
	var args []string
	workers := gs.MaxWorkers
	if workers == 0 {
		workers = tc.MaxWorkers
	}
	if workers > 0 {
		args = append(args, "--max-workers", strconv.Itoa(workers))
	}
	if gs.MaxSharedMemory > 0 {
		args = append(args, "--max-shared-memory", strconv.Itoa(gs.MaxSharedMemory))
	}
	noHTTPS := tc.DisableHTTPS
	if r.Env.Settings != nil && r.Env.Settings.Global().GetSettings().DownloadNoHTTPS {
		noHTTPS = true
	}
	if noHTTPS {
		args = append(args, "--disable-https")
	}
	return args
}

//nolint:gocritic // args struct mirrors the queue element
func (r *Runner) installArgs(appID string, args runners.InstallArgs, gs settings.GameSettings) []string {
	out := []string{
		"install", appID,
		"--base-path", args.Path,
		"--platform", platformArg(args.Platform),
		"-y",
	}
	out = append(out, r.downloadArgs(gs)...)
	if args.InstallDLCs {
		out = append(out, "--with-dlcs")
	} else {
		out = append(out, "--skip-dlcs")
	}
	for _, tag := range args.InstallSDLs {
		out = append(out, "--install-tag", tag)
	}
	lang := args.Language
	if lang == "" {
		lang = gs.Language
	}
	if lang != "" {
		out = append(out, "--language", lang)
	}
	return append(out, args.ExtraArgs...)
}

// withSharedMemory replaces any --max-shared-memory flag in args.
func withSharedMemory(args []string, mib int) []string {
	out := make([]string, 0, len(args)+2)
	for i := 0; i < len(args); i++ {
		if args[i] == "--max-shared-memory" {
			i++
			continue
		}
		out = append(out, args[i])
	}
	return append(out, "--max-shared-memory", strconv.Itoa(mib))
}

// runDownload streams a download verb. When legendary reports that its
// shared memory cache is too small the command is retried once with the
// reported requirement.
func (r *Runner) runDownload(ctx context.Context, appID string, phase status.Phase, args []string) error {
	tp := r.NewProgress(appID, phase, runners.NewDLManagerParser())
	var required float64
	watch := func(line string) {
		if m := memoryErrRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				required = v
			}
		}
	}

	_, err := r.Stream(ctx, r.cmd(args...), tp, watch)
	if err == nil || required == 0 || ctx.Err() != nil {
		return err
	}

	mib := int(math.Ceil(required))
	log.Warn().Str("app_id", appID).Int("max_shared_memory", mib).
		Msg("legendary shared memory too small, retrying")
	_, err = r.Stream(ctx, r.cmd(withSharedMemory(args, mib)...), tp, nil)
	return err
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
			if err := r.runDownload(ctx, appID, status.PhaseInstalling, r.installArgs(appID, args, gs)); err != nil {
				return err
			}
			return r.syncInstalled(ctx, appID)
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
			a := append([]string{"update", appID, "-y"}, r.downloadArgs(gs)...)
			if args.InstallDLCs {
				a = append(a, "--with-dlcs")
			}
			a = append(a, args.ExtraArgs...)
			if err := r.runDownload(ctx, appID, status.PhaseUpdating, a); err != nil {
				return err
			}
			return r.syncInstalled(ctx, appID)
		},
	})
}

func (r *Runner) Repair(ctx context.Context, appID string) runners.Result {
	gs := r.GetSettings(appID)
	return r.Run(ctx, runners.OpSpec{
		AppID:  appID,
		Verb:   "repair",
		Title:  r.Title(appID),
		Phase:  status.PhaseRepairing,
		Online: true,
		Body: func(ctx context.Context) error {
			a := append([]string{"repair", appID, "-y"}, r.downloadArgs(gs)...)
			if err := r.runDownload(ctx, appID, status.PhaseRepairing, a); err != nil {
				return err
			}
			return r.syncInstalled(ctx, appID)
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
			a := []string{"uninstall", appID, "-y"}
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

func (r *Runner) MoveInstall(ctx context.Context, appID, newPath string) runners.Result {
	return r.MoveFiles(ctx, appID, newPath, func(ctx context.Context, _ *runners.InstalledInfo) error {
		_, err := r.Stream(ctx, r.cmd("move", appID, newPath, "--skip-move"), nil, nil)
		return err
	})
}

func (r *Runner) Launch(ctx context.Context, appID string, args runners.LaunchArgs) runners.LaunchResult {
	return r.LaunchInstalled(ctx, appID,
		func(_ *runners.InstalledInfo, gs *settings.GameSettings) (runners.LaunchSpec, error) {
			c := []string{r.bin, "launch", appID}
			if args.Offline || gs.OfflineMode {
				c = append(c, "--offline")
			}
			if gs.Language != "" {
				c = append(c, "--language", gs.Language)
			}
			if gs.TargetExe != "" {
				c = append(c, "--override-exe", gs.TargetExe)
			}
			c = append(c, args.ExtraArgs...)
			return runners.LaunchSpec{
				Command:  c,
				Env:      r.env(),
				WineArgs: wineArgs,
			}, nil
		})
}

func wineArgs(inst wine.Installation) []string {
	if inst.Type == settings.WineTypeProton {
		return []string{"--no-wine", "--wrapper", fmt.Sprintf("%q run", inst.Bin)}
	}
	args := []string{"--wine", inst.Bin}
	if inst.Prefix != "" {
		args = append(args, "--wine-prefix", inst.Prefix)
	}
	return args
}
