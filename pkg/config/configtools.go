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
	"os/exec"
	"path/filepath"
)

// Tools holds the paths of the store command line tools. Empty values are
// looked up on PATH.
type Tools struct {
	Legendary  string `toml:"legendary,omitempty"`
	Gogdl      string `toml:"gogdl,omitempty"`
	Nile       string `toml:"nile,omitempty"`
	Wine       string `toml:"wine,omitempty"`
	Wineserver string `toml:"wineserver,omitempty"`
}

type Stores struct {
	PluginDir string `toml:"plugin_dir,omitempty"`
}

const (
	DefaultLegendaryBin  = "legendary"
	DefaultGogdlBin      = "gogdl"
	DefaultNileBin       = "nile"
	DefaultWineBin       = "wine"
	DefaultWineserverBin = "wineserver"
)

func resolveTool(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	if p, err := exec.LookPath(fallback); err == nil {
		return p
	}
	return fallback
}

func (c *Instance) LegendaryBin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveTool(c.vals.Tools.Legendary, DefaultLegendaryBin)
}

func (c *Instance) GogdlBin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveTool(c.vals.Tools.Gogdl, DefaultGogdlBin)
}

func (c *Instance) NileBin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveTool(c.vals.Tools.Nile, DefaultNileBin)
}

func (c *Instance) WineBin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveTool(c.vals.Tools.Wine, DefaultWineBin)
}

func (c *Instance) WineserverBin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveTool(c.vals.Tools.Wineserver, DefaultWineserverBin)
}

func (c *Instance) SetTools(tools Tools) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Tools = tools
}

// PluginDir returns the directory store plugin manifests are loaded from.
// Relative paths resolve against configDir.
func (c *Instance) PluginDir(configDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dir := c.vals.Stores.PluginDir
	if dir == "" {
		return filepath.Join(configDir, PluginsDir)
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(configDir, dir)
}
