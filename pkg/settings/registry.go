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
	"net/url"
	"path/filepath"

	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/spf13/afero"
)

const (
	GlobalScope = "global"
	GlobalFile  = "config.json"
	GamesDir    = "games"
)

// Registry owns the global scope and one cached scope per game. Scopes are
// created on first access and live as long as the registry.
type Registry struct {
	fs             afero.Fs
	globalDefaults func() GlobalSettings
	global         *GlobalConfig
	games          map[string]*GameConfig
	dir            string
	listeners      []func(scope string)
	globalChain    Chain
	gameChain      Chain
	mu             syncutil.Mutex
}

type Option func(*Registry)

func WithGlobalChain(c Chain) Option {
	return func(r *Registry) {
		r.globalChain = c
	}
}

func WithGameChain(c Chain) Option {
	return func(r *Registry) {
		r.gameChain = c
	}
}

func WithGlobalDefaults(fn func() GlobalSettings) Option {
	return func(r *Registry) {
		r.globalDefaults = fn
	}
}

func NewRegistry(afs afero.Fs, dir string, opts ...Option) *Registry {
	r := &Registry{
		fs:             afs,
		dir:            dir,
		games:          make(map[string]*GameConfig),
		globalChain:    GlobalChain,
		gameChain:      GameChain,
		globalDefaults: DefaultGlobalSettings,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Dir() string {
	return r.dir
}

func (r *Registry) GlobalPath() string {
	return filepath.Join(r.dir, GlobalFile)
}

func (r *Registry) GamePath(appID string) string {
	return filepath.Join(r.dir, GamesDir, sanitizeAppID(appID)+".json")
}

func (r *Registry) Global() *GlobalConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.globalLocked()
}

func (r *Registry) globalLocked() *GlobalConfig {
	if r.global == nil {
		r.global = newGlobalConfig(r.fs, r.GlobalPath(), r.globalChain, r.globalDefaults)
	}
	return r.global
}

// Game returns the settings scope of appID.
func (r *Registry) Game(appID string) *GameConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.games[appID]; ok {
		return g
	}
	g := newGameConfig(r.fs, r.GamePath(appID), r.gameChain, appID, r.globalLocked())
	r.games[appID] = g
	return g
}

// OnChange registers fn to be called with the scope (GlobalScope or an app
// id) whose file was changed outside the registry.
func (r *Registry) OnChange(fn func(scope string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Invalidate drops the cache of scope and notifies listeners.
func (r *Registry) Invalidate(scope string) {
	r.mu.Lock()
	var listeners []func(string)
	listeners = append(listeners, r.listeners...)
	if scope == GlobalScope {
		if r.global != nil {
			r.global.store.Invalidate()
		}
	} else if g, ok := r.games[scope]; ok {
		g.store.Invalidate()
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(scope)
	}
}

func sanitizeAppID(appID string) string {
	return url.PathEscape(appID)
}
