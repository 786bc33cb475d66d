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

package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CachesScopes(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	assert.Same(t, reg.Global(), reg.Global())
	assert.Same(t, reg.Game("a"), reg.Game("a"))
	assert.NotSame(t, reg.Game("a"), reg.Game("b"))
}

func TestRegistry_IsolatedInstances(t *testing.T) {
	t.Parallel()

	r1 := NewRegistry(afero.NewMemMapFs(), testDir)
	r2 := NewRegistry(afero.NewMemMapFs(), testDir)

	require.NoError(t, r1.Global().SetSetting("maxWorkers", 5))
	assert.Equal(t, 0, r2.Global().GetSettings().MaxWorkers)
}

func TestRegistry_CustomDefaults(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir, WithGlobalDefaults(func() GlobalSettings {
		s := DefaultGlobalSettings()
		s.MaxWorkers = 12
		return s
	}))
	assert.Equal(t, 12, reg.Global().GetSettings().MaxWorkers)
}

func TestRegistry_Invalidate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(afero.NewMemMapFs(), testDir)
	var mu sync.Mutex
	var scopes []string
	reg.OnChange(func(scope string) {
		mu.Lock()
		defer mu.Unlock()
		scopes = append(scopes, scope)
	})

	reg.Invalidate(GlobalScope)
	reg.Invalidate("app")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{GlobalScope, "app"}, scopes)
}

func TestRegistry_WatchDetectsExternalEdit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reg := NewRegistry(afero.NewOsFs(), dir)
	require.Equal(t, 0, reg.Global().GetSettings().MaxWorkers)

	changed := make(chan string, 16)
	reg.OnChange(func(scope string) {
		select {
		case changed <- scope:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan error, 1)
	go func() { watchDone <- reg.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-watchDone)
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	content := `{"version":"v1","settings":{"maxWorkers":7,"language":"fr"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, GlobalFile), []byte(content), 0o600))

	select {
	case scope := <-changed:
		assert.Equal(t, GlobalScope, scope)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	assert.Equal(t, 7, reg.Global().GetSettings().MaxWorkers)
	assert.Equal(t, "fr", reg.Global().GetSettings().Language)
}
