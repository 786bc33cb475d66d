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
	"fmt"

	"github.com/gamedock/gamedock-core/internal/telemetry"
	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/gamedock/gamedock-core/pkg/service"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("service already running")

// Run starts the service and blocks until ctx ends or the service shuts
// itself down, then stops it.
func Run(ctx context.Context, cfg *config.Instance, opts ...service.Option) (returnErr error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("panic recovered: %v", r)
			returnErr = fmt.Errorf("panic: %v", r)
		}
		telemetry.Close()
	}()

	if ServiceRunning(ctx, cfg) {
		log.Info().Int("port", cfg.APIPort()).Msg("service already running, exiting")
		return ErrAlreadyRunning
	}

	stopSvc, done, err := service.Start(cfg, opts...)
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		return fmt.Errorf("error starting service: %w", err)
	}
	log.Info().Msg("service started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case <-done:
		log.Info().Msg("service shut down internally")
	}

	if err := stopSvc(); err != nil {
		log.Error().Err(err).Msg("error stopping service")
		return fmt.Errorf("service stopped with error: %w", err)
	}
	return nil
}
