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
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type globalDoc struct {
	Settings GlobalSettings `json:"settings"`
}

// GlobalConfig is the process-wide settings scope.
type GlobalConfig struct {
	store *VersionedConfig[globalDoc]
}

func newGlobalConfig(
	afs afero.Fs,
	path string,
	chain Chain,
	defaults func() GlobalSettings,
) *GlobalConfig {
	return &GlobalConfig{
		store: NewVersionedConfig(afs, path, chain, func() globalDoc {
			return globalDoc{Settings: defaults()}
		}),
	}
}

// GetSettings returns a fully populated copy of the global settings,
// re-reading the file if it changed since the last access.
func (g *GlobalConfig) GetSettings() GlobalSettings {
	return g.store.Get().Settings
}

// SetSetting updates a single setting by its JSON key and persists it.
func (g *GlobalConfig) SetSetting(key string, value any) error {
	err := g.store.Update(func(doc *globalDoc) error {
		next, err := setField(doc.Settings, key, value)
		if err != nil {
			return err
		}
		if key == "language" {
			next.Language = CanonicalLanguage(next.Language)
		}
		doc.Settings = next
		return nil
	})
	if err != nil {
		return err
	}
	log.Debug().Str("key", key).Msg("global setting updated")
	return nil
}

func (g *GlobalConfig) ResetToDefaults() error {
	log.Info().Msg("resetting global settings to defaults")
	return g.store.Reset()
}

func (g *GlobalConfig) Version() string {
	return g.store.Version()
}

func (g *GlobalConfig) Pinned() bool {
	return g.store.Pinned()
}

func (g *GlobalConfig) Path() string {
	return g.store.Path()
}
