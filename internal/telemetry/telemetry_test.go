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

package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: ""},
		{input: "/usr/local/bin/gamedock", expected: "/usr/local/bin/gamedock"},
		{
			input:    "/home/sam/Games/Heroic/Hades/Hades.exe",
			expected: "/home/<user>/Games/Heroic/Hades/Hades.exe",
		},
		{
			input:    "/Users/Sam/Library/Application Support/gamedock/settings",
			expected: "/Users/<user>/Library/Application Support/gamedock/settings",
		},
		{
			input:    `C:\Users\sam\AppData\Roaming\gamedock\core.log`,
			expected: `C:\Users\<user>\AppData\Roaming\gamedock\core.log`,
		},
		{
			input:    "install failed in /home/sam/Games and /home/alex/Games",
			expected: "install failed in /home/<user>/Games and /home/<user>/Games",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, sanitizePath(tt.input))
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "gaming-rig",
		Message:    "move to /home/sam/Games failed",
		Extra:      map[string]any{"path": "/home/sam/x", "count": 3},
		Exception: []sentry.Exception{{
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{
				AbsPath:  "/home/sam/src/gamedock/pkg/runners/base.go",
				Filename: "pkg/runners/base.go",
			}}},
		}, {}},
	}

	out := sanitizeEvent(event)
	assert.Empty(t, out.ServerName)
	assert.Equal(t, "move to /home/<user>/Games failed", out.Message)
	assert.Equal(t, "/home/<user>/x", out.Extra["path"])
	assert.Equal(t, 3, out.Extra["count"])
	assert.Equal(t, "/home/<user>/src/gamedock/pkg/runners/base.go", out.Exception[0].Stacktrace.Frames[0].AbsPath)
}

func TestInitDisabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, Init(Options{Enabled: false, DSN: "https://key@example.com/1"}))
	assert.False(t, Enabled())
	Close()
}

func TestInitWithoutDSN(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Init(Options{Enabled: true}), ErrNoDSN)
	assert.False(t, Enabled())
}
