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

import "encoding/json"

const (
	NotificationStatusChanged   = "status.changed"
	NotificationQueueChanged    = "queue.changed"
	NotificationFrontendMessage = "frontend.message"
	NotificationDialogConfirm   = "dialog.confirm"
)

const (
	MethodQueueAdd          = "queue.add"
	MethodQueueRemove       = "queue.remove"
	MethodQueue             = "queue"
	MethodQueueClear        = "queue.clear"
	MethodGamesInfo         = "games.info"
	MethodGamesLaunch       = "games.launch"
	MethodGamesStop         = "games.stop"
	MethodGamesUninstall    = "games.uninstall"
	MethodGamesMove         = "games.move"
	MethodGamesCancel       = "games.cancel"
	MethodLibraryRefresh    = "library.refresh"
	MethodSettingsGlobal    = "settings.global"
	MethodSettingsGlobalSet = "settings.global.update"
	MethodSettingsGame      = "settings.game"
	MethodSettingsGameSet   = "settings.game.update"
	MethodDialogRespond     = "dialog.respond"
	MethodRunners           = "runners"
	MethodVersion           = "version"
)

const (
	JSONRPCVersion = "2.0"
	APIPath        = "/api"
)

type Notification struct {
	Method string
	Params json.RawMessage
}

type RequestObject struct {
	ID      *RPCID          `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type NotificationObject struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

// ResponseErrorObject is sent instead of ResponseObject on failure so the
// result field is left out.
type ResponseErrorObject struct {
	Error   *ErrorObject `json:"error"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}
