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
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

// Connectivity reports whether the network services stores depend on are
// reachable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

var DefaultProbeHosts = []string{
	"store-site-backend-static.ak.epicgames.com:443",
	"api.gog.com:443",
	"1.1.1.1:443",
}

// NetConnectivity probes a list of hosts over TCP. The first successful dial
// counts as online.
type NetConnectivity struct {
	// OfflineMode short-circuits the probe when it returns true.
	OfflineMode func() bool
	Hosts       []string
	Timeout     time.Duration
}

func (c *NetConnectivity) Online(ctx context.Context) bool {
	if c.OfflineMode != nil && c.OfflineMode() {
		log.Debug().Msg("offline mode enabled")
		return false
	}

	hosts := c.Hosts
	if len(hosts) == 0 {
		hosts = DefaultProbeHosts
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	dialer := net.Dialer{Timeout: timeout}
	for _, host := range hosts {
		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err != nil {
			log.Debug().Err(err).Str("host", host).Msg("connectivity probe failed")
			continue
		}
		_ = conn.Close()
		return true
	}
	return false
}
