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

package legendary

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// toolConfig is the part of legendary's own config.ini the runner honours.
type toolConfig struct {
	MaxWorkers   int
	DisableHTTPS bool
}

func readToolConfig(configDir string) toolConfig {
	var tc toolConfig
	if configDir == "" {
		return tc
	}
	path := filepath.Join(configDir, "config.ini")
	cfg, err := ini.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read legendary config")
		}
		return tc
	}
	sec := cfg.Section("Legendary")
	tc.MaxWorkers = sec.Key("max_workers").MustInt(0)
	tc.DisableHTTPS = sec.Key("disable_https").MustBool(false)
	return tc
}
