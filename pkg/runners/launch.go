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
	"runtime"
	"strings"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/frontend"
	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/gamedock/gamedock-core/pkg/wine"
	"github.com/rs/zerolog/log"
)

const launchTokenPrefix = "launch:"

func LaunchTokenID(appID string) string {
	return launchTokenPrefix + appID
}

// LaunchSpec is a resolved launch: what to run and with which settings.
type LaunchSpec struct {
	AppID    string
	Title    string
	Dir      string
	Command  []string
	Env      []string
	Settings settings.GameSettings
	// WineArgs is set by store tools that start games through wine
	// themselves. For non-native games its result is appended to Command
	// and Command is run directly instead of through the wine runtime.
	WineArgs func(inst wine.Installation) []string
	Native   bool
}

// IsNativePlatform reports whether a build for platform runs on this host
// without a compatibility layer.
func IsNativePlatform(platform string) bool {
	return isNativeOn(runtime.GOOS, platform)
}

func isNativeOn(goos, platform string) bool {
	if goos == "windows" {
		return true
	}
	switch strings.ToLower(platform) {
	case "windows", "win32", "win64":
		return false
	default:
		return true
	}
}

// LaunchEnv builds the extra environment for a game from its settings.
//
//nolint:gocritic // settings struct copied for immutability
func LaunchEnv(gs settings.GameSettings, native bool) []string {
	env := make([]string, 0, len(gs.EnvVars)+3)
	if native {
		if gs.ShowFps {
			env = append(env, "MANGOHUD=1")
		}
	} else {
		if gs.EnableEsync {
			env = append(env, "WINEESYNC=1")
		}
		if gs.EnableFsync {
			env = append(env, "WINEFSYNC=1")
		}
		if gs.ShowFps {
			env = append(env, "DXVK_HUD=fps")
		}
	}
	for _, v := range gs.EnvVars {
		env = append(env, v.Key+"="+v.Value)
	}
	return env
}

// resolveWine returns the installation to launch with. An invalid per-game
// version falls back to the global default when the user agrees.
func (l *Lifecycle) resolveWine(ctx context.Context, spec *LaunchSpec) (wine.Installation, error) {
	if l.Env.Wine == nil {
		return wine.Installation{}, errors.New("no wine runtime configured")
	}
	inst := wine.FromSettings(&spec.Settings)
	if l.Env.Wine.Validate(inst) {
		return inst, nil
	}

	if l.Env.Settings == nil || l.Env.Frontend == nil {
		return inst, fmt.Errorf("%w: %q", wine.ErrInvalidInstallation, inst.Name)
	}
	def := l.Env.Settings.Global().GetSettings().WineVersion
	fallback := inst
	fallback.Name, fallback.Type, fallback.Bin = def.Name, def.Type, def.Bin
	if def == spec.Settings.WineVersion || !l.Env.Wine.Validate(fallback) {
		return inst, fmt.Errorf("%w: %q", wine.ErrInvalidInstallation, inst.Name)
	}

	answer := l.Env.Frontend.Confirm(ctx,
		"Wine version not found",
		fmt.Sprintf("The Wine version %q selected for %s could not be found. Launch with %q instead?",
			inst.Name, spec.Title, def.Name),
		[]string{"Yes", "No"})
	if answer != 0 {
		return inst, fmt.Errorf("%w: %q", wine.ErrInvalidInstallation, inst.Name)
	}
	log.Info().Str("app_id", spec.AppID).Str("wine", def.Name).Msg("launching with default wine version")
	return fallback, nil
}

// Launch runs the game and waits for it to exit. It is not queued and its
// cancellation token is keyed by LaunchTokenID.
func (l *Lifecycle) Launch(ctx context.Context, spec LaunchSpec) LaunchResult {
	fail := func(reason string) LaunchResult {
		log.Warn().Str("app_id", spec.AppID).Str("reason", reason).Msg("launch failed")
		frontend.ShowError(l.Env.Frontend, "Launch failed", fmt.Sprintf("%s: %s", spec.Title, reason))
		return LaunchResult{Success: false, Reason: reason}
	}

	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return fail("no executable found")
	}
	tok, ok := l.cancelRegistry().TryCreate(LaunchTokenID(spec.AppID))
	if !ok {
		return LaunchResult{Success: false, Reason: "game is already running"}
	}
	defer tok.Release()

	var inst wine.Installation
	if !spec.Native {
		var err error
		inst, err = l.resolveWine(ctx, &spec)
		if err != nil {
			return fail(err.Error())
		}
	}

	env := append(LaunchEnv(spec.Settings, spec.Native), spec.Env...)
	viaTool := !spec.Native && spec.WineArgs != nil
	parts := append([]string{}, spec.Command...)
	if viaTool {
		parts = append(parts, spec.WineArgs(inst)...)
		env = append(env, wine.PrefixEnv(inst)...)
	}
	parts = append(parts, strings.Fields(spec.Settings.LauncherArgs)...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(tok.Context(), cancel)
	defer stop()

	l.emit(spec.AppID, status.PhasePlaying, "")
	defer l.emit(spec.AppID, status.PhaseDone, "")
	l.addRecent(&spec)

	var err error
	if spec.Native || viaTool {
		if spec.Settings.UseGameMode && runtime.GOOS == "linux" {
			parts = append([]string{"gamemoderun"}, parts...)
		}
		_, err = l.Stream(runCtx, command.Cmd{
			Name: parts[0],
			Args: parts[1:],
			Dir:  spec.Dir,
			Env:  env,
		}, nil, func(line string) {
			log.Debug().Str("app_id", spec.AppID).Msg(line)
		})
	} else {
		_, err = l.Env.Wine.RunCommand(runCtx, inst, parts, env)
	}

	if err != nil && !tok.Aborted() && runCtx.Err() == nil {
		return fail(err.Error())
	}
	log.Info().Str("app_id", spec.AppID).Bool("stopped", tok.Aborted()).Msg("game exited")
	return LaunchResult{Success: true}
}

func (l *Lifecycle) addRecent(spec *LaunchSpec) {
	if l.Env.Recents == nil {
		return
	}
	limit := settings.DefaultGlobalSettings().MaxRecentGames
	if l.Env.Settings != nil {
		limit = l.Env.Settings.Global().GetSettings().MaxRecentGames
	}
	if limit == 0 {
		return
	}
	err := l.Env.Recents.AddRecent(&database.RecentGame{
		AppID:    spec.AppID,
		Runner:   l.Runner,
		Title:    spec.Title,
		PlayedAt: l.Env.clock().Now(),
	}, limit)
	if err != nil {
		log.Warn().Err(err).Str("app_id", spec.AppID).Msg("failed to record recent game")
	}
}

// Stop asks a running game to exit.
func (l *Lifecycle) Stop(appID string) error {
	if !l.cancelRegistry().RequestCancel(LaunchTokenID(appID)) {
		return ErrNotRunning
	}
	return nil
}
