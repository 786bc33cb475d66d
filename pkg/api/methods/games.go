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

package methods

import (
	"errors"
	"fmt"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/api/models/requests"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleGamesInfo(env requests.RequestEnv) (any, error) {
	var params models.GameParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	r, err := lookupRunner(&env, params.Runner)
	if err != nil {
		return nil, err
	}

	info, err := r.GetGameInfo(params.AppID)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", params.AppID, err)
	}
	resp := models.GameInfoResponse{
		Game:   info,
		Native: r.IsNative(params.AppID),
	}
	if env.Status != nil {
		if st, ok := env.Status.Current(params.AppID); ok {
			resp.Status = &st
		}
	}
	return resp, nil
}

// HandleGamesLaunch replies when the game process exits.
//
//nolint:gocritic // single-use parameter in API handler
func HandleGamesLaunch(env requests.RequestEnv) (any, error) {
	var params models.LaunchParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	r, err := lookupRunner(&env, params.Runner)
	if err != nil {
		return nil, err
	}
	if err := checkIdle(&env, params.AppID); err != nil {
		return nil, err
	}

	log.Info().Str("app_id", params.AppID).Str("runner", params.Runner).Msg("received launch request")
	return r.Launch(requestContext(&env), params.AppID, runners.LaunchArgs{
		ExtraArgs: params.ExtraArgs,
		Offline:   params.Offline,
	}), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesStop(env requests.RequestEnv) (any, error) {
	var params models.GameParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	r, err := lookupRunner(&env, params.Runner)
	if err != nil {
		return nil, err
	}

	log.Info().Str("app_id", params.AppID).Msg("received stop request")
	if err := r.Stop(params.AppID); err != nil {
		return nil, fmt.Errorf("stopping %s: %w", params.AppID, err)
	}
	return NoContent{}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesUninstall(env requests.RequestEnv) (any, error) {
	var params models.UninstallParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	r, err := lookupRunner(&env, params.Runner)
	if err != nil {
		return nil, err
	}
	if err := checkIdle(&env, params.AppID); err != nil {
		return nil, err
	}

	log.Info().
		Str("app_id", params.AppID).
		Bool("keep_files", params.KeepFiles).
		Bool("delete_files", params.DeleteFiles).
		Msg("received uninstall request")
	return r.Uninstall(requestContext(&env), params.AppID, runners.UninstallArgs{
		KeepFiles:   params.KeepFiles,
		DeleteFiles: params.DeleteFiles,
	}), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesMove(env requests.RequestEnv) (any, error) {
	var params models.MoveParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	r, err := lookupRunner(&env, params.Runner)
	if err != nil {
		return nil, err
	}
	if err := checkIdle(&env, params.AppID); err != nil {
		return nil, err
	}

	log.Info().Str("app_id", params.AppID).Str("path", params.Path).Msg("received move request")
	return r.MoveInstall(requestContext(&env), params.AppID, params.Path), nil
}

// HandleGamesCancel aborts whatever operation holds the game's cancellation
// token: an install, update, repair, uninstall or move.
//
//nolint:gocritic // single-use parameter in API handler
func HandleGamesCancel(env requests.RequestEnv) (any, error) {
	var params models.CancelParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	if env.Cancel == nil {
		return nil, ErrUnavailable
	}

	cancelled := env.Cancel.RequestCancel(params.AppID)
	log.Info().Str("app_id", params.AppID).Bool("cancelled", cancelled).Msg("received cancel request")
	return models.CancelResponse{Cancelled: cancelled}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLibraryRefresh(env requests.RequestEnv) (any, error) {
	var params models.LibraryRefreshParams
	if len(env.Params) > 0 {
		if err := decodeParams(&env, &params); err != nil {
			return nil, err
		}
	}
	if env.Runners == nil {
		return nil, ErrUnavailable
	}

	targets := env.Runners.All()
	if params.Runner != "" {
		r, err := lookupRunner(&env, params.Runner)
		if err != nil {
			return nil, err
		}
		if _, ok := r.(runners.LibraryRefresher); !ok {
			return nil, fmt.Errorf("refreshing %s: %w", params.Runner, runners.ErrNotSupported)
		}
		targets = []runners.Runner{r}
	}

	resp := models.LibraryRefreshResponse{Refreshed: make([]string, 0, len(targets))}
	var errs []error
	for _, r := range targets {
		lr, ok := r.(runners.LibraryRefresher)
		if !ok {
			continue
		}
		if err := lr.RefreshLibrary(requestContext(&env)); err != nil {
			log.Warn().Err(err).Str("runner", r.ID()).Msg("library refresh failed")
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[r.ID()] = err.Error()
			errs = append(errs, err)
			continue
		}
		resp.Refreshed = append(resp.Refreshed, r.ID())
	}
	if len(resp.Refreshed) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("refreshing library: %w", errors.Join(errs...))
	}
	return resp, nil
}
