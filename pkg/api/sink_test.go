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
	"encoding/json"
	"testing"
	"time"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptFrom(t *testing.T, ns <-chan models.Notification) models.DialogConfirmParams {
	t.Helper()
	select {
	case n := <-ns:
		require.Equal(t, models.NotificationDialogConfirm, n.Method)
		var p models.DialogConfirmParams
		require.NoError(t, json.Unmarshal(n.Params, &p))
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no dialog.confirm notification")
		return models.DialogConfirmParams{}
	}
}

func TestSink_ConfirmResolved(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 4)
	s := NewSink(ns, time.Minute)

	answer := make(chan int, 1)
	go func() {
		answer <- s.Confirm(context.Background(), "Title", "Continue?", []string{"Cancel", "OK"})
	}()

	p := promptFrom(t, ns)
	assert.Equal(t, "Title", p.Title)
	assert.True(t, s.Resolve(p.ID, 1))
	assert.Equal(t, 1, <-answer)
	assert.False(t, s.Resolve(p.ID, 1), "an answered prompt cannot be answered twice")
}

func TestSink_ConfirmTimesOutToDefault(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 4)
	s := NewSink(ns, 20*time.Millisecond)

	got := s.Confirm(context.Background(), "t", "m", []string{"A", "B"})
	assert.Equal(t, 0, got)

	p := promptFrom(t, ns)
	assert.False(t, s.Resolve(p.ID, 1), "expired prompts are forgotten")
}

func TestSink_ConfirmContextCancelled(t *testing.T) {
	t.Parallel()

	s := NewSink(make(chan models.Notification, 4), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, s.Confirm(ctx, "t", "m", []string{"A", "B"}))
}

func TestSink_OutOfRangeAnswer(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 4)
	s := NewSink(ns, time.Minute)

	answer := make(chan int, 1)
	go func() {
		answer <- s.Confirm(context.Background(), "t", "m", []string{"A", "B"})
	}()
	p := promptFrom(t, ns)
	require.True(t, s.Resolve(p.ID, 7))
	assert.Equal(t, 0, <-answer)
}

func TestSink_NoClientsAnswersImmediately(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 4)
	s := NewSink(ns, time.Minute)
	s.attach(func() int { return 0 })

	assert.Equal(t, 0, s.Confirm(context.Background(), "t", "m", []string{"A", "B"}))
	assert.Empty(t, ns)
}

func TestSink_ResolveUnknown(t *testing.T) {
	t.Parallel()

	s := NewSink(make(chan models.Notification, 1), 0)
	assert.False(t, s.Resolve(uuid.New(), 0))
}

func TestSink_SendMessage(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	NewSink(ns, 0).SendMessage("dialog", map[string]string{"title": "x"})

	n := <-ns
	assert.Equal(t, models.NotificationFrontendMessage, n.Method)
	assert.JSONEq(t, `{"channel":"dialog","payload":{"title":"x"}}`, string(n.Params))
}
