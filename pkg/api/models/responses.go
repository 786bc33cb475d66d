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

package models

import (
	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/google/uuid"
)

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

type GameInfoResponse struct {
	Status *status.GameStatus `json:"status,omitempty"`
	Game   database.GameInfo  `json:"game"`
	Native bool               `json:"native"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type LibraryRefreshResponse struct {
	Errors    map[string]string `json:"errors,omitempty"`
	Refreshed []string          `json:"refreshed"`
}

type GlobalSettingsResponse struct {
	Version  string                  `json:"version"`
	Settings settings.GlobalSettings `json:"settings"`
}

type GameSettingsResponse struct {
	Overrides map[string]any        `json:"overrides"`
	Version   string                `json:"version"`
	Settings  settings.GameSettings `json:"settings"`
	Explicit  bool                  `json:"explicit"`
}

type RunnersResponse struct {
	Runners []string `json:"runners"`
}

type DialogRespondResponse struct {
	Accepted bool `json:"accepted"`
}

// FrontendMessageParams is the payload of frontend.message.
type FrontendMessageParams struct {
	Payload any    `json:"payload"`
	Channel string `json:"channel"`
}

// DialogConfirmParams is the payload of dialog.confirm. The UI answers with
// dialog.respond carrying the same id.
type DialogConfirmParams struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Buttons []string  `json:"buttons"`
	ID      uuid.UUID `json:"id"`
	Default int       `json:"default"`
}
