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

package restplugin

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Options are the store specific settings of a plugin manifest's options
// table.
type Options struct {
	AuthToken string        `mapstructure:"auth_token"`
	StatusURL string        `mapstructure:"status_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// KeepArchive leaves the downloaded archive next to the install.
	KeepArchive bool `mapstructure:"keep_archive"`
}

const defaultTimeout = 30 * time.Second

// DecodeOptions decodes raw manifest options. Unknown keys are rejected.
func DecodeOptions(raw map[string]any) (Options, error) {
	opts := Options{Timeout: defaultTimeout}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return opts, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return opts, fmt.Errorf("failed to decode plugin options: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return opts, nil
}
