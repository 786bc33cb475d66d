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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gamedock/gamedock-core/pkg/cli"
	"github.com/gamedock/gamedock-core/pkg/config"
)

const (
	exitOK = iota
	exitError
	exitUsage
	exitAlreadyRunning
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("gamedock", flag.ContinueOnError)
	flags := cli.SetupFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *flags.Version {
		_, _ = fmt.Printf("Gamedock Core v%s (%s)\n", config.AppVersion, runtime.GOOS)
		return exitOK
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(config.BaseDefaults, logWriters, *flags.Debug)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handled, err := flags.Client(ctx, fs, cfg, os.Stdout)
	switch {
	case errors.Is(err, cli.ErrFlagValue):
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitUsage
	case err != nil:
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitError
	case handled:
		return exitOK
	}

	err = cli.Run(ctx, cfg)
	switch {
	case errors.Is(err, cli.ErrAlreadyRunning):
		_, _ = fmt.Fprintln(os.Stderr, "Gamedock Core is already running")
		return exitAlreadyRunning
	case err != nil:
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitError
	}
	return exitOK
}
