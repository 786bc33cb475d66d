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

package api

import (
	"context"
	"time"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/api/notifications"
	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultConfirmTimeout = 2 * time.Minute

// Sink is the frontend sink backed by the websocket API. Messages become
// frontend.message notifications. A confirmation is a dialog.confirm
// notification answered by a dialog.respond request with the same id.
type Sink struct {
	ns      chan<- models.Notification
	clients func() int
	pending map[uuid.UUID]chan int
	timeout time.Duration
	mu      syncutil.Mutex
}

func NewSink(ns chan<- models.Notification, timeout time.Duration) *Sink {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	return &Sink{
		ns:      ns,
		pending: make(map[uuid.UUID]chan int),
		timeout: timeout,
	}
}

// attach lets Confirm skip the round trip while no UI is connected.
func (s *Sink) attach(clients func() int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = clients
}

func (s *Sink) connected() bool {
	s.mu.Lock()
	clients := s.clients
	s.mu.Unlock()
	return clients == nil || clients() > 0
}

func (s *Sink) SendMessage(channel string, payload any) {
	notifications.FrontendMessage(s.ns, channel, payload)
}

// Confirm returns the index of the button picked by the UI, or 0 when the
// UI is not connected, does not answer in time or ctx ends.
func (s *Sink) Confirm(ctx context.Context, title, message string, buttons []string) int {
	if !s.connected() {
		log.Info().Str("title", title).Msg("no frontend connected, confirmation answered with default")
		return 0
	}

	id := uuid.New()
	answer := make(chan int, 1)
	s.mu.Lock()
	s.pending[id] = answer
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	notifications.DialogConfirm(s.ns, models.DialogConfirmParams{
		ID:      id,
		Title:   title,
		Message: message,
		Buttons: buttons,
	})

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case button := <-answer:
		if button >= len(buttons) {
			log.Warn().Int("button", button).Str("title", title).Msg("confirmation answer out of range")
			return 0
		}
		return button
	case <-timer.C:
		log.Info().Str("title", title).Msg("confirmation timed out, using default")
		return 0
	case <-ctx.Done():
		return 0
	}
}

// Resolve delivers the answer to a pending confirmation. It reports false
// for unknown or already answered ids.
func (s *Sink) Resolve(id uuid.UUID, button int) bool {
	s.mu.Lock()
	answer, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	answer <- button
	return true
}
