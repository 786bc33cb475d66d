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

// Package status fans out game status and progress events to subscribers
// such as the API server and the install queue.
package status

import "time"

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseQueued       Phase = "queued"
	PhaseInstalling   Phase = "installing"
	PhaseUpdating     Phase = "updating"
	PhaseRepairing    Phase = "repairing"
	PhaseUninstalling Phase = "uninstalling"
	PhaseMoving       Phase = "moving"
	PhasePlaying      Phase = "playing"
	PhaseRedist       Phase = "redist"
	PhaseDone         Phase = "done"
	PhaseError        Phase = "error"
)

// Terminal reports whether no further events are expected for the operation.
func (p Phase) Terminal() bool {
	return p == PhaseDone
}

// Busy reports whether the phase belongs to a running operation.
func (p Phase) Busy() bool {
	switch p {
	case PhaseInstalling, PhaseUpdating, PhaseRepairing, PhaseUninstalling,
		PhaseMoving, PhaseRedist:
		return true
	default:
		return false
	}
}

type Progress struct {
	ETA           string  `json:"eta,omitempty"`
	Percent       float64 `json:"percent"`
	Bytes         int64   `json:"bytes"`
	TotalBytes    int64   `json:"totalBytes,omitempty"`
	DownloadSpeed float64 `json:"downloadSpeed"`
	DiskSpeed     float64 `json:"diskSpeed"`
}

type GameStatus struct {
	Time     time.Time `json:"time"`
	Progress *Progress `json:"progress,omitempty"`
	AppID    string    `json:"appId"`
	Runner   string    `json:"runner"`
	Phase    Phase     `json:"phase"`
	Error    string    `json:"error,omitempty"`
}

// Publisher accepts status events.
type Publisher interface {
	Publish(st GameStatus)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(GameStatus)

func (f PublisherFunc) Publish(st GameStatus) {
	f(st)
}

// Nop discards every event.
var Nop Publisher = PublisherFunc(func(GameStatus) {})
