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

// Package settings stores the user-facing global and per-game settings as
// versioned JSON files. Each file carries a schema version and is upgraded
// along a fixed migration chain when it is loaded.
package settings

import (
	"errors"
	"path/filepath"
	"runtime"
)

var (
	ErrUnknownSetting  = errors.New("unknown setting")
	ErrInvalidValue    = errors.New("invalid setting value")
	ErrMigrationFailed = errors.New("settings migration failed")
)

const (
	WineTypeWine      = "wine"
	WineTypeProton    = "proton"
	WineTypeCrossover = "crossover"
	WineTypeToolkit   = "toolkit"
)

type WineVersion struct {
	Name string `json:"name"`
	Type string `json:"type" validate:"omitempty,oneof=wine proton crossover toolkit"`
	Bin  string `json:"bin"`
}

func (w WineVersion) IsZero() bool {
	return w.Name == "" && w.Bin == ""
}

type EnvVar struct {
	Key   string `json:"key" validate:"required,excludesall=="`
	Value string `json:"value"`
}

// GlobalSettings are process-wide defaults. Every field is always present in
// the JSON payload and its JSON name is the key accepted by SetSetting.
type GlobalSettings struct {
	WineVersion         WineVersion `json:"wineVersion"`
	DefaultInstallPath  string      `json:"defaultInstallPath"`
	WinePrefixesBase    string      `json:"winePrefixesBase"`
	Language            string      `json:"language" validate:"omitempty,bcp47"`
	LauncherArgs        string      `json:"launcherArgs"`
	PreferredPlatform   string      `json:"preferredPlatform" validate:"omitempty,oneof=windows linux mac"`
	EnvVars             []EnvVar    `json:"envVars" validate:"dive"`
	MaxWorkers          int         `json:"maxWorkers" validate:"min=0,max=128"`
	MaxSharedMemory     int         `json:"maxSharedMemory" validate:"min=0"`
	MaxRecentGames      int         `json:"maxRecentGames" validate:"min=0,max=100"`
	OfflineMode         bool        `json:"offlineMode"`
	AutoUpdateGames     bool        `json:"autoUpdateGames"`
	AddDesktopShortcuts bool        `json:"addDesktopShortcuts"`
	AddSteamShortcuts   bool        `json:"addSteamShortcuts"`
	DownloadNoHTTPS     bool        `json:"downloadNoHttps"`
	UseGameMode         bool        `json:"useGameMode"`
	ShowFps             bool        `json:"showFps"`
	EnableEsync         bool        `json:"enableEsync"`
	EnableFsync         bool        `json:"enableFsync"`
}

// GameSettings are the effective settings of one game: the global defaults
// overlaid with that game's overrides.
type GameSettings struct {
	WineVersion     WineVersion `json:"wineVersion"`
	WinePrefix      string      `json:"winePrefix"`
	Language        string      `json:"language" validate:"omitempty,bcp47"`
	LauncherArgs    string      `json:"launcherArgs"`
	TargetExe       string      `json:"targetExe"`
	SavesPath       string      `json:"savesPath"`
	EnvVars         []EnvVar    `json:"envVars" validate:"dive"`
	MaxWorkers      int         `json:"maxWorkers" validate:"min=0,max=128"`
	MaxSharedMemory int         `json:"maxSharedMemory" validate:"min=0"`
	OfflineMode     bool        `json:"offlineMode"`
	AutoUpdate      bool        `json:"autoUpdate"`
	UseGameMode     bool        `json:"useGameMode"`
	ShowFps         bool        `json:"showFps"`
	EnableEsync     bool        `json:"enableEsync"`
	EnableFsync     bool        `json:"enableFsync"`
}

// DefaultGlobalSettings returns the factory defaults.
func DefaultGlobalSettings() GlobalSettings {
	s := GlobalSettings{
		Language:          "en",
		MaxRecentGames:    5,
		EnvVars:           []EnvVar{},
		PreferredPlatform: hostPlatform(),
		EnableEsync:       true,
		EnableFsync:       runtime.GOOS == "linux",
	}
	if runtime.GOOS != "windows" {
		s.WineVersion = WineVersion{Name: "Wine Default", Type: WineTypeWine, Bin: "wine"}
	}
	return s
}

// GameDefaults derives the inherited settings of a game from the global
// settings. Game-only fields start empty.
//
//nolint:gocritic // settings struct copied for immutability
func GameDefaults(global GlobalSettings, appID string) GameSettings {
	prefix := ""
	if global.WinePrefixesBase != "" {
		prefix = filepath.Join(global.WinePrefixesBase, sanitizeAppID(appID))
	}
	env := make([]EnvVar, len(global.EnvVars))
	copy(env, global.EnvVars)
	return GameSettings{
		WineVersion:     global.WineVersion,
		WinePrefix:      prefix,
		Language:        global.Language,
		LauncherArgs:    global.LauncherArgs,
		EnvVars:         env,
		MaxWorkers:      global.MaxWorkers,
		MaxSharedMemory: global.MaxSharedMemory,
		OfflineMode:     global.OfflineMode,
		AutoUpdate:      global.AutoUpdateGames,
		UseGameMode:     global.UseGameMode,
		ShowFps:         global.ShowFps,
		EnableEsync:     global.EnableEsync,
		EnableFsync:     global.EnableFsync,
	}
}

func hostPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "mac"
	default:
		return "linux"
	}
}
