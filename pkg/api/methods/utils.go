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
	"runtime"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/api/models/requests"
	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/rs/zerolog/log"
)

func HandleVersion(requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Debug().Msg("received version request")
	return models.VersionResponse{
		Version:  config.AppVersion,
		Platform: runtime.GOOS,
	}, nil
}

func HandleRunners(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if env.Runners == nil {
		return nil, ErrUnavailable
	}
	return models.RunnersResponse{Runners: env.Runners.IDs()}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleDialogRespond(env requests.RequestEnv) (any, error) {
	var params models.DialogRespondParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	if env.Confirmations == nil {
		return nil, ErrUnavailable
	}
	accepted := env.Confirmations.Resolve(params.ID, params.Button)
	if !accepted {
		log.Debug().Str("id", params.ID.String()).Msg("dialog response for unknown or expired prompt")
	}
	return models.DialogRespondResponse{Accepted: accepted}, nil
}
