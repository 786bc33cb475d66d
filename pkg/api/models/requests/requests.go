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

package requests

import (
	"context"
	"encoding/json"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/cancellation"
	"github.com/gamedock/gamedock-core/pkg/service/downloads"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/google/uuid"
)

// Confirmations resolves pending dialog.confirm prompts.
type Confirmations interface {
	Resolve(id uuid.UUID, button int) bool
}

// StatusReader returns the last known status of a game.
type StatusReader interface {
	Current(appID string) (status.GameStatus, bool)
}

type RequestEnv struct {
	Context       context.Context
	Queue         *downloads.Manager
	Runners       *runners.Table
	Settings      *settings.Registry
	Status        StatusReader
	Cancel        *cancellation.Registry
	Confirmations Confirmations
	ID            models.RPCID
	Params        json.RawMessage
	IsLocal       bool
}
