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

// Package httpclient builds the HTTP clients used for store APIs and status
// pages.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gamedock/gamedock-core/pkg/config"
)

// DefaultTimeout is the default timeout for API requests. Archive downloads
// should use a client without a timeout and rely on contexts instead.
const DefaultTimeout = 30 * time.Second

// UserAgentTransport sets the User-Agent header when the request has none.
type UserAgentTransport struct {
	Base      http.RoundTripper
	UserAgent string
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP round trip: %w", err)
	}
	return resp, nil
}

// DefaultTransport provides connection pooling and reasonable timeouts.
var DefaultTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ResponseHeaderTimeout: 30 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
}

func UserAgent() string {
	return config.AppName + "-core/" + config.AppVersion
}

// NewClient returns a client on DefaultTransport. A zero timeout means no
// overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &UserAgentTransport{
			Base:      DefaultTransport,
			UserAgent: UserAgent(),
		},
		Timeout: timeout,
	}
}
