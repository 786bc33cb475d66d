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
	"github.com/google/uuid"
)

type QueueAddParams struct {
	AppID  string                 `json:"appId" validate:"required"`
	Runner string                 `json:"runner" validate:"required,runner"`
	Type   database.InstallType   `json:"type" validate:"omitempty,oneof=install update repair"`
	Params database.InstallParams `json:"params"`
}

type QueueRemoveParams struct {
	AppID string `json:"appId" validate:"required"`
}

// GameParams address one game of one runner.
type GameParams struct {
	AppID  string `json:"appId" validate:"required"`
	Runner string `json:"runner" validate:"required,runner"`
}

type LaunchParams struct {
	AppID     string   `json:"appId" validate:"required"`
	Runner    string   `json:"runner" validate:"required,runner"`
	ExtraArgs []string `json:"extraArgs"`
	Offline   bool     `json:"offline"`
}

type UninstallParams struct {
	AppID       string `json:"appId" validate:"required"`
	Runner      string `json:"runner" validate:"required,runner"`
	KeepFiles   bool   `json:"keepFiles"`
	DeleteFiles bool   `json:"deleteFiles"`
}

type MoveParams struct {
	AppID  string `json:"appId" validate:"required"`
	Runner string `json:"runner" validate:"required,runner"`
	Path   string `json:"path" validate:"required,abspath"`
}

type CancelParams struct {
	AppID string `json:"appId" validate:"required"`
}

type LibraryRefreshParams struct {
	Runner string `json:"runner" validate:"omitempty,runner"`
}

type UpdateGlobalSettingsParams struct {
	Value any    `json:"value"`
	Key   string `json:"key" validate:"required"`
}

type GameSettingsParams struct {
	AppID string `json:"appId" validate:"required"`
}

// UpdateGameSettingsParams sets one override. Reset drops every override
// of the game instead and ignores Key and Value.
type UpdateGameSettingsParams struct {
	Value    any    `json:"value"`
	Explicit *bool  `json:"explicit"`
	AppID    string `json:"appId" validate:"required"`
	Key      string `json:"key" validate:"required_without_all=Reset Explicit"`
	Reset    bool   `json:"reset"`
}

type DialogRespondParams struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Button int       `json:"button" validate:"min=0"`
}
