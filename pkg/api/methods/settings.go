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
	"fmt"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/api/models/requests"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleSettingsGlobal(env requests.RequestEnv) (any, error) {
	if env.Settings == nil {
		return nil, ErrUnavailable
	}
	g := env.Settings.Global()
	return models.GlobalSettingsResponse{
		Version:  g.Version(),
		Settings: g.GetSettings(),
	}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleSettingsGlobalUpdate(env requests.RequestEnv) (any, error) {
	var params models.UpdateGlobalSettingsParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	if env.Settings == nil {
		return nil, ErrUnavailable
	}

	log.Info().Str("key", params.Key).Interface("value", params.Value).Msg("received global settings update")
	if err := env.Settings.Global().SetSetting(params.Key, params.Value); err != nil {
		return nil, fmt.Errorf("setting %s: %w", params.Key, err)
	}
	return HandleSettingsGlobal(env)
}

func gameSettings(env *requests.RequestEnv, appID string) models.GameSettingsResponse {
	g := env.Settings.Game(appID)
	return models.GameSettingsResponse{
		Version:   g.Version(),
		Settings:  g.GetSettings(),
		Overrides: g.Overrides(),
		Explicit:  g.Explicit(),
	}
}

//nolint:gocritic // single-use parameter in API handler
func HandleSettingsGame(env requests.RequestEnv) (any, error) {
	var params models.GameSettingsParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	if env.Settings == nil {
		return nil, ErrUnavailable
	}
	return gameSettings(&env, params.AppID), nil
}

// HandleSettingsGameUpdate applies, in order, a reset, the explicit flag and
// one key. Any of them may be left out.
//
//nolint:gocritic // single-use parameter in API handler
func HandleSettingsGameUpdate(env requests.RequestEnv) (any, error) {
	var params models.UpdateGameSettingsParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	if env.Settings == nil {
		return nil, ErrUnavailable
	}

	g := env.Settings.Game(params.AppID)
	if params.Reset {
		log.Info().Str("app_id", params.AppID).Msg("resetting game settings")
		if err := g.Reset(); err != nil {
			return nil, fmt.Errorf("resetting %s: %w", params.AppID, err)
		}
	}
	if params.Explicit != nil {
		if err := g.SetExplicit(*params.Explicit); err != nil {
			return nil, fmt.Errorf("setting explicit for %s: %w", params.AppID, err)
		}
	}
	if params.Key != "" {
		log.Info().
			Str("app_id", params.AppID).
			Str("key", params.Key).
			Interface("value", params.Value).
			Msg("received game settings update")
		if err := g.SetSetting(params.Key, params.Value); err != nil {
			return nil, fmt.Errorf("setting %s for %s: %w", params.Key, params.AppID, err)
		}
	}
	return gameSettings(&env, params.AppID), nil
}
