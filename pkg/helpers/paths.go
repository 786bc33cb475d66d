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

package helpers

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/gamedock/gamedock-core/pkg/config"
)

// UserDir is the name of the portable install directory placed next to the
// binary.
const UserDir = "user"

// userDirCache caches the result of HasUserDir to avoid repeated filesystem checks
var (
	userDirCache       string
	userDirCacheExists bool
	userDirOnce        sync.Once
)

// HasUserDir checks if a "user" directory exists next to the Gamedock binary
// and returns true and the absolute path to it. This directory is used as a
// parent for all other directories if it exists, for a portable install.
// The result is cached after the first call.
func HasUserDir() (string, bool) {
	userDirOnce.Do(func() {
		exe, err := os.Executable()
		if err != nil {
			return
		}

		userDir := filepath.Join(filepath.Dir(exe), UserDir)
		info, err := os.Stat(userDir)
		if err != nil || !info.IsDir() {
			return
		}

		userDirCache = userDir
		userDirCacheExists = true
	})

	return userDirCache, userDirCacheExists
}

func ConfigDir() string {
	if v, ok := HasUserDir(); ok {
		return v
	}
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

func DataDir() string {
	if v, ok := HasUserDir(); ok {
		return v
	}
	return filepath.Join(xdg.DataHome, config.AppName)
}

// SettingsDir holds the versioned global and per-game settings files.
func SettingsDir() string {
	return filepath.Join(ConfigDir(), config.SettingsDir)
}

func LogDir() string {
	if v, ok := HasUserDir(); ok {
		return filepath.Join(v, config.LogsDir)
	}
	return filepath.Join(xdg.StateHome, config.AppName, config.LogsDir)
}

func CacheDir() string {
	if v, ok := HasUserDir(); ok {
		return filepath.Join(v, "cache")
	}
	return filepath.Join(xdg.CacheHome, config.AppName)
}

// DefaultInstallDir is the fallback base directory for new installs.
func DefaultInstallDir() string {
	return filepath.Join(xdg.Home, "Games", "Gamedock")
}
