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

package helpers

import (
	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/gamedock/gamedock-core/pkg/service/status"
)

// StatusRecorder is a status.Publisher that keeps every event for
// assertions.
type StatusRecorder struct {
	events []status.GameStatus
	mu     syncutil.Mutex
}

func NewStatusRecorder() *StatusRecorder {
	return &StatusRecorder{}
}

func (r *StatusRecorder) Publish(st status.GameStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, st)
}

func (r *StatusRecorder) Events() []status.GameStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]status.GameStatus, len(r.events))
	copy(out, r.events)
	return out
}

// Phases returns the phases emitted for appID in order.
func (r *StatusRecorder) Phases(appID string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.AppID == appID {
			out = append(out, string(e.Phase))
		}
	}
	return out
}

// Count returns how many events for appID had phase.
func (r *StatusRecorder) Count(appID string, phase status.Phase) int {
	n := 0
	for _, e := range r.Events() {
		if e.AppID == appID && e.Phase == phase {
			n++
		}
	}
	return n
}

// Progress returns the progress samples emitted for appID.
func (r *StatusRecorder) Progress(appID string) []status.Progress {
	var out []status.Progress
	for _, e := range r.Events() {
		if e.AppID == appID && e.Progress != nil {
			out = append(out, *e.Progress)
		}
	}
	return out
}
