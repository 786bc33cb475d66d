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

// Package wine runs Windows executables through a compatibility layer. Binary
// discovery and prefix bootstrapping live outside the core; this package
// only validates a configured installation and runs commands with it.
package wine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/rs/zerolog/log"
)

var ErrInvalidInstallation = errors.New("invalid wine installation")

const outputLimit = 64 * 1024

// Installation is a wine or proton build plus the prefix it runs in.
type Installation struct {
	Name   string
	Type   string
	Bin    string
	Prefix string
}

func FromSettings(gs *settings.GameSettings) Installation {
	return Installation{
		Name:   gs.WineVersion.Name,
		Type:   gs.WineVersion.Type,
		Bin:    gs.WineVersion.Bin,
		Prefix: gs.WinePrefix,
	}
}

type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type Runtime interface {
	Validate(inst Installation) bool
	// RunCommand runs parts inside inst and waits for it to exit. env holds
	// extra KEY=VALUE pairs.
	RunCommand(ctx context.Context, inst Installation, parts, env []string) (ExecResult, error)
	// Shutdown stops every process still running in the prefix.
	Shutdown(ctx context.Context, inst Installation) error
}

// ExecRuntime runs the configured binary directly.
type ExecRuntime struct {
	Exec          command.Executor
	WineserverBin string
}

func NewExecRuntime(exec command.Executor, wineserverBin string) *ExecRuntime {
	return &ExecRuntime{Exec: exec, WineserverBin: wineserverBin}
}

func (*ExecRuntime) Validate(inst Installation) bool {
	if inst.Bin == "" {
		return false
	}
	if filepath.IsAbs(inst.Bin) {
		fi, err := os.Stat(inst.Bin)
		return err == nil && !fi.IsDir()
	}
	_, err := exec.LookPath(inst.Bin)
	return err == nil
}

// PrefixEnv returns the variables that select inst's prefix.
func PrefixEnv(inst Installation) []string {
	if inst.Prefix == "" {
		return nil
	}
	if inst.Type == settings.WineTypeProton {
		return []string{
			"STEAM_COMPAT_DATA_PATH=" + inst.Prefix,
			"STEAM_COMPAT_CLIENT_INSTALL_PATH=" + inst.Prefix,
		}
	}
	return []string{"WINEPREFIX=" + inst.Prefix}
}

func (r *ExecRuntime) RunCommand(
	ctx context.Context,
	inst Installation,
	parts, env []string,
) (ExecResult, error) {
	if !r.Validate(inst) {
		return ExecResult{ExitCode: -1}, fmt.Errorf("%w: %q", ErrInvalidInstallation, inst.Bin)
	}
	if len(parts) == 0 {
		return ExecResult{ExitCode: -1}, errors.New("no command given")
	}

	args := parts
	if inst.Type == settings.WineTypeProton {
		args = append([]string{"run"}, parts...)
	}

	var stdout, stderr strings.Builder
	onLine := func(s command.Stream, line string) {
		b := &stdout
		if s == command.Stderr {
			b = &stderr
		}
		if b.Len() < outputLimit {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	res, err := r.Exec.Stream(ctx, command.Cmd{
		Name: inst.Bin,
		Args: args,
		Env:  append(PrefixEnv(inst), env...),
	}, onLine)
	out := ExecResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: res.ExitCode}
	if err != nil {
		return out, fmt.Errorf("wine command failed: %w", err)
	}
	return out, nil
}

func (r *ExecRuntime) Shutdown(ctx context.Context, inst Installation) error {
	bin := r.WineserverBin
	if inst.Type == settings.WineTypeWine && filepath.IsAbs(inst.Bin) {
		candidate := filepath.Join(filepath.Dir(inst.Bin), "wineserver")
		if _, err := os.Stat(candidate); err == nil {
			bin = candidate
		}
	}
	if bin == "" || inst.Type == settings.WineTypeProton {
		log.Debug().Str("wine", inst.Name).Msg("no wineserver to shut down")
		return nil
	}

	_, err := r.Exec.Stream(ctx, command.Cmd{
		Name: bin,
		Args: []string{"-k"},
		Env:  PrefixEnv(inst),
	}, func(command.Stream, string) {})
	if err != nil {
		return fmt.Errorf("failed to stop wineserver: %w", err)
	}
	return nil
}
