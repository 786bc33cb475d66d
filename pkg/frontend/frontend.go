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

// Package frontend is the boundary to whatever UI is attached to the core.
// The core only pushes messages and asks for confirmations, it never reaches
// into UI objects.
package frontend

import (
	"context"

	"github.com/rs/zerolog/log"
)

const (
	ChannelDialog       = "dialog"
	ChannelNotification = "notification"
	ChannelLibrary      = "library.refresh"
)

type DialogType string

const (
	DialogError   DialogType = "error"
	DialogWarning DialogType = "warning"
	DialogInfo    DialogType = "info"
)

// Dialog is a user-visible message rendered by the UI.
type Dialog struct {
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Type    DialogType `json:"type"`
}

type Sink interface {
	// SendMessage delivers payload on channel without waiting for the UI.
	SendMessage(channel string, payload any)
	// Confirm asks the user to pick one of buttons and returns its index.
	// It returns the default button (0) when no UI answers before ctx ends.
	Confirm(ctx context.Context, title, message string, buttons []string) int
}

func ShowDialog(s Sink, d Dialog) {
	if s == nil {
		log.Warn().Str("title", d.Title).Msg("no frontend sink for dialog")
		return
	}
	s.SendMessage(ChannelDialog, d)
}

func ShowError(s Sink, title, message string) {
	ShowDialog(s, Dialog{Title: title, Message: message, Type: DialogError})
}

// LogSink is the headless sink: messages are logged and every confirmation
// resolves to DefaultButton.
type LogSink struct {
	DefaultButton int
}

func (*LogSink) SendMessage(channel string, payload any) {
	log.Info().Str("channel", channel).Interface("payload", payload).Msg("frontend message")
}

func (s *LogSink) Confirm(_ context.Context, title, message string, buttons []string) int {
	log.Info().
		Str("title", title).
		Str("message", message).
		Strs("buttons", buttons).
		Int("answer", s.DefaultButton).
		Msg("confirmation answered with default")
	return s.DefaultButton
}
