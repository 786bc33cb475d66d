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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ReservedStoreIDs are the built-in runner ids a plugin may not claim.
var ReservedStoreIDs = []string{"legendary", "gog", "nile", "sideload"}

// StorePlugin is the manifest of a store described by a REST API.
type StorePlugin struct {
	Headers   map[string]string `toml:"headers,omitempty" yaml:"headers,omitempty"`
	Options   map[string]any    `toml:"options,omitempty" yaml:"options,omitempty"`
	ID        string            `toml:"id" yaml:"id" validate:"required,alphanumunicode|hostname"`
	Name      string            `toml:"name" yaml:"name" validate:"required"`
	BaseURL   string            `toml:"base_url" yaml:"base_url" validate:"required,url"`
	Source    string            `toml:"-" yaml:"-"`
	Platforms []string          `toml:"platforms,omitempty" yaml:"platforms,omitempty" validate:"dive,oneof=windows linux mac"`
}

var pluginValidate = validator.New()

// LoadStorePlugins reads every *.toml, *.yaml and *.yml manifest in dir.
// Invalid manifests are logged and skipped. A missing directory yields no
// plugins.
func LoadStorePlugins(dir string) ([]StorePlugin, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read plugin dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	plugins := make([]StorePlugin, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		path := filepath.Join(dir, name)
		p, err := ParseStorePlugin(path)
		if errors.Is(err, errUnsupportedManifest) {
			continue
		} else if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping invalid store plugin")
			continue
		}
		if seen[p.ID] {
			log.Warn().Str("path", path).Msgf("duplicate store plugin id: %s", p.ID)
			continue
		}
		seen[p.ID] = true
		plugins = append(plugins, p)
	}

	log.Info().Msgf("loaded %d store plugins", len(plugins))
	return plugins, nil
}

var errUnsupportedManifest = errors.New("unsupported manifest extension")

// ParseStorePlugin reads and validates a single manifest file.
func ParseStorePlugin(path string) (StorePlugin, error) {
	var p StorePlugin

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the plugin dir listing
	if err != nil {
		return p, fmt.Errorf("failed to read manifest: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &p)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		return p, errUnsupportedManifest
	}
	if err != nil {
		return p, fmt.Errorf("failed to parse manifest: %w", err)
	}

	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	if err := pluginValidate.Struct(&p); err != nil {
		return p, fmt.Errorf("invalid manifest: %w", err)
	}
	if slices.Contains(ReservedStoreIDs, p.ID) {
		return p, fmt.Errorf("store id is reserved: %s", p.ID)
	}

	p.Source = path
	return p, nil
}
