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
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch invalidates scopes whose files are edited outside the registry until
// ctx is done. It needs the registry to be backed by the OS filesystem.
func (r *Registry) Watch(ctx context.Context) error {
	gamesDir := filepath.Join(r.dir, GamesDir)
	if err := r.fs.MkdirAll(gamesDir, 0o750); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close settings watcher")
		}
	}()

	for _, dir := range []string{r.dir, gamesDir} {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	log.Debug().Str("dir", r.dir).Msg("watching settings for external changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if scope, ok := r.scopeForPath(ev.Name); ok {
				log.Debug().Str("scope", scope).Str("op", ev.Op.String()).Msg("settings file changed")
				r.Invalidate(scope)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}

// scopeForPath maps a settings file path back to its scope.
func (r *Registry) scopeForPath(path string) (string, bool) {
	dir, base := filepath.Split(path)
	dir = filepath.Clean(dir)

	if dir == filepath.Clean(r.dir) && base == GlobalFile {
		return GlobalScope, true
	}
	if dir == filepath.Join(r.dir, GamesDir) && strings.HasSuffix(base, ".json") {
		appID, err := url.PathUnescape(strings.TrimSuffix(base, ".json"))
		if err != nil {
			return "", false
		}
		return appID, true
	}
	return "", false
}
