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
	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleQueueAdd(env requests.RequestEnv) (any, error) {
	var params models.QueueAddParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	if env.Queue == nil {
		return nil, ErrUnavailable
	}

	req := database.InstallRequest{
		AppID:  params.AppID,
		Runner: params.Runner,
		Type:   params.Type,
		Params: params.Params,
	}
	if req.Type == "" {
		req.Type = database.InstallTypeInstall
	}
	log.Info().
		Str("app_id", req.AppID).
		Str("runner", req.Runner).
		Str("type", string(req.Type)).
		Msg("received queue add request")

	if err := env.Queue.Enqueue(req); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", req.AppID, err)
	}
	info, err := env.Queue.Information()
	if err != nil {
		return nil, fmt.Errorf("reading queue: %w", err)
	}
	return info, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleQueueRemove(env requests.RequestEnv) (any, error) {
	var params models.QueueRemoveParams
	if err := decodeParams(&env, &params); err != nil {
		return nil, err
	}
	if env.Queue == nil {
		return nil, ErrUnavailable
	}
	log.Info().Str("app_id", params.AppID).Msg("received queue remove request")
	if err := env.Queue.Dequeue(params.AppID); err != nil {
		return nil, fmt.Errorf("dequeue %s: %w", params.AppID, err)
	}
	return NoContent{}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleQueue(env requests.RequestEnv) (any, error) {
	if env.Queue == nil {
		return nil, ErrUnavailable
	}
	info, err := env.Queue.Information()
	if err != nil {
		return nil, fmt.Errorf("reading queue: %w", err)
	}
	return info, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleQueueClear(env requests.RequestEnv) (any, error) {
	if env.Queue == nil {
		return nil, ErrUnavailable
	}
	log.Info().Msg("received queue clear request")
	if err := env.Queue.ClearFinished(); err != nil {
		return nil, fmt.Errorf("clearing finished downloads: %w", err)
	}
	return HandleQueue(env)
}
