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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/rs/zerolog/log"
)

// Release is a store's description of the current build of a game.
type Release struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Developer   string `json:"developer,omitempty"`
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
	Executable  string `json:"executable"`
	Platform    string `json:"platform"`
	Size        int64  `json:"size"`
}

func (r *Runner) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.plugin.Headers {
		req.Header.Set(k, v)
	}
	if r.opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.opts.AuthToken)
	}
	return req, nil
}

func (r *Runner) getJSON(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	req, err := r.newRequest(ctx, r.plugin.BaseURL+path)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", r.plugin.Name, err)
	}
	defer closeBody(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return runners.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s returned status %d", r.plugin.Name, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataSize)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.plugin.Name, err)
	}
	return nil
}

const maxMetadataSize = 8 << 20

func (r *Runner) release(ctx context.Context, appID string) (Release, error) {
	var rel Release
	if err := r.getJSON(ctx, "/games/"+url.PathEscape(appID), &rel); err != nil {
		return rel, err
	}
	if rel.DownloadURL == "" {
		return rel, fmt.Errorf("%s has no download for %s", r.plugin.Name, appID)
	}
	return rel, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close response body")
	}
}
