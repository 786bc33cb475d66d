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

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gamedock/gamedock-core/internal/telemetry"
	"github.com/gamedock/gamedock-core/pkg/api/client"
	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/gamedock/gamedock-core/pkg/helpers"
	"github.com/rs/zerolog/log"
)

var ErrFlagValue = errors.New("flag requires a value")

type Flags struct {
	API     *string
	Wait    *string
	Version *bool
	Daemon  *bool
	Debug   *bool
}

// SetupFlags defines the CLI flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		API: fs.String(
			"api",
			"",
			"send method and params to the running service and print the response",
		),
		Wait: fs.String(
			"wait",
			"",
			"print the params of the next notification with this method",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"also log to stderr",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging for this run",
		),
	}
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// SplitAPIArg splits "method:params" into its parts. Params may be empty.
func SplitAPIArg(arg string) (method, params string) {
	method, params, _ = strings.Cut(arg, ":")
	return method, params
}

// Client commands run against an already running service. Handled reports
// whether one of them was requested.
func (f *Flags) Client(
	ctx context.Context,
	fs *flag.FlagSet,
	cfg *config.Instance,
	out io.Writer,
) (handled bool, err error) {
	switch {
	case isFlagPassed(fs, "api"):
		if *f.API == "" {
			return true, fmt.Errorf("api: %w", ErrFlagValue)
		}
		method, params := SplitAPIArg(*f.API)
		resp, err := client.LocalClient(ctx, cfg, method, params)
		if err != nil {
			log.Error().Err(err).Msg("error calling API")
			return true, fmt.Errorf("error calling API: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	case isFlagPassed(fs, "wait"):
		if *f.Wait == "" {
			return true, fmt.Errorf("wait: %w", ErrFlagValue)
		}
		resp, err := client.WaitNotification(ctx, 0, cfg, *f.Wait)
		if err != nil {
			log.Error().Err(err).Msg("error waiting for notification")
			return true, fmt.Errorf("error waiting for notification: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	default:
		return false, nil
	}
}

// Setup creates the config dir, initializes logging and error reporting and
// loads the service config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	defaultConfig config.Values,
	writers []io.Writer,
	debug bool,
) (*config.Instance, error) {
	if err := os.MkdirAll(helpers.ConfigDir(), 0o750); err != nil {
		return nil, fmt.Errorf("error creating config dir: %w", err)
	}

	if err := helpers.InitLogging(helpers.LogDir(), writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	helpers.SetDebugLogging(debug || cfg.DebugLogging())

	if err := telemetry.Init(telemetry.Options{
		Enabled:  cfg.ErrorReporting(),
		DSN:      cfg.ReportingDSN(),
		DeviceID: cfg.DeviceID(),
		Version:  config.AppVersion,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}

// ServiceRunning reports whether a service already answers on the
// configured port.
func ServiceRunning(ctx context.Context, cfg *config.Instance) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := client.LocalClient(ctx, cfg, models.MethodVersion, "")
	return err == nil
}
