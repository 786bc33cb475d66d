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
	"reflect"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type gameDoc struct {
	Settings map[string]any `json:"settings"`
	Explicit bool           `json:"explicit"`
}

// GameConfig is the settings scope of one game. In delta mode (the default)
// only values that differ from the inherited global default are stored, so a
// later change of the global default reaches every game that did not
// override it. In explicit mode every value written is stored as is.
type GameConfig struct {
	global *GlobalConfig
	store  *VersionedConfig[gameDoc]
	appID  string
}

func newGameConfig(afs afero.Fs, path string, chain Chain, appID string, global *GlobalConfig) *GameConfig {
	return &GameConfig{
		global: global,
		appID:  appID,
		store: NewVersionedConfig(afs, path, chain, func() gameDoc {
			return gameDoc{Settings: map[string]any{}}
		}),
	}
}

func (g *GameConfig) AppID() string {
	return g.appID
}

func (g *GameConfig) defaults() GameSettings {
	return GameDefaults(g.global.GetSettings(), g.appID)
}

// GetSettings returns the effective settings of the game.
func (g *GameConfig) GetSettings() GameSettings {
	return overlay(g.defaults(), g.store.Get().Settings)
}

// SetSetting updates one setting by its JSON key. In delta mode a value
// equal to the inherited default removes the override instead of storing it.
func (g *GameConfig) SetSetting(key string, value any) error {
	defaults := g.defaults()
	return g.store.Update(func(doc *gameDoc) error {
		next, err := setField(overlay(defaults, doc.Settings), key, value)
		if err != nil {
			return err
		}
		if key == "language" {
			next.Language = CanonicalLanguage(next.Language)
		}
		normalized, _ := fieldValue(next, key)

		if doc.Settings == nil {
			doc.Settings = make(map[string]any)
		}

		if !doc.Explicit {
			inherited, _ := fieldValue(defaults, key)
			if reflect.DeepEqual(normalized, inherited) {
				delete(doc.Settings, key)
				log.Debug().
					Str("app_id", g.appID).
					Str("key", key).
					Msg("value equals inherited default, override removed")
				return nil
			}
		}

		doc.Settings[key] = normalized
		log.Debug().Str("app_id", g.appID).Str("key", key).Msg("game setting updated")
		return nil
	})
}

// SetExplicit switches the persistence mode. Entering explicit mode stores
// the current effective value of every setting; leaving it drops the values
// that equal the inherited defaults.
func (g *GameConfig) SetExplicit(explicit bool) error {
	defaults := g.defaults()
	return g.store.Update(func(doc *gameDoc) error {
		if doc.Explicit == explicit {
			return nil
		}

		if explicit {
			snapshot, err := toMap(overlay(defaults, doc.Settings))
			if err != nil {
				return err
			}
			doc.Settings = snapshot
		} else {
			inherited, err := toMap(defaults)
			if err != nil {
				return err
			}
			for k, v := range doc.Settings {
				if reflect.DeepEqual(v, inherited[k]) {
					delete(doc.Settings, k)
				}
			}
		}

		doc.Explicit = explicit
		return nil
	})
}

func (g *GameConfig) Explicit() bool {
	return g.store.Get().Explicit
}

// Overrides returns the values stored for this game.
func (g *GameConfig) Overrides() map[string]any {
	o := g.store.Get().Settings
	if o == nil {
		return map[string]any{}
	}
	return o
}

// Reset removes every override of the game.
func (g *GameConfig) Reset() error {
	log.Info().Str("app_id", g.appID).Msg("resetting game settings")
	return g.store.Reset()
}

func (g *GameConfig) Version() string {
	return g.store.Version()
}

func (g *GameConfig) Path() string {
	return g.store.Path()
}

// overlay applies overrides on top of defaults. Unknown keys and values that
// do not fit the field type are skipped.
//
//nolint:gocritic // settings struct copied for immutability
func overlay(defaults GameSettings, overrides map[string]any) GameSettings {
	if len(overrides) == 0 {
		return defaults
	}

	base, err := toMap(defaults)
	if err != nil {
		return defaults
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := base[k]; !ok {
			log.Debug().Str("key", k).Msg("ignoring unknown game setting")
			continue
		}
		candidate := make(map[string]any, len(base))
		for bk, bv := range base {
			candidate[bk] = bv
		}
		candidate[k] = overrides[k]
		if _, err := fromMap[GameSettings](candidate); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("ignoring invalid game setting")
			continue
		}
		base = candidate
	}

	result, err := fromMap[GameSettings](base)
	if err != nil {
		return defaults
	}
	return result
}
