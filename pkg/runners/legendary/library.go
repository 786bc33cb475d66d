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
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/rs/zerolog/log"
)

// installedGame is one entry of `legendary list-installed --json`.
type installedGame struct {
	AppName     string `json:"app_name"`
	Title       string `json:"title"`
	Platform    string `json:"platform"`
	Executable  string `json:"executable"`
	InstallPath string `json:"install_path"`
	Version     string `json:"version"`
	InstallSize int64  `json:"install_size"`
	IsDLC       bool   `json:"is_dlc"`
}

// ownedGame is one entry of `legendary list --json`.
type ownedGame struct {
	AssetInfos map[string]json.RawMessage `json:"asset_infos"`
	AppName    string                     `json:"app_name"`
	AppTitle   string                     `json:"app_title"`
	Metadata   struct {
		CustomAttributes map[string]struct {
			Value string `json:"value"`
		} `json:"customAttributes"`
		Developer   string `json:"developer"`
		DLCItemList []struct {
			ReleaseInfo []struct {
				AppID string `json:"appId"`
			} `json:"releaseInfo"`
		} `json:"dlcItemList"`
	} `json:"metadata"`
}

func (r *Runner) output(ctx context.Context, args ...string) ([]byte, error) {
	out, err := r.Output(ctx, r.cmd(args...))
	if err != nil {
		return nil, fmt.Errorf("legendary %s failed: %w", args[0], err)
	}
	return out, nil
}

func (r *Runner) listInstalled(ctx context.Context) ([]installedGame, error) {
	out, err := r.output(ctx, "list-installed", "--json")
	if err != nil {
		return nil, err
	}
	var games []installedGame
	if err := json.Unmarshal(out, &games); err != nil {
		return nil, fmt.Errorf("failed to parse installed games: %w", err)
	}
	return games, nil
}

// syncInstalled reads the installed record back from legendary after a
// successful download. Nothing is written unless legendary reports the game.
func (r *Runner) syncInstalled(ctx context.Context, appID string) error {
	games, err := r.listInstalled(ctx)
	if err != nil {
		return err
	}
	for _, g := range games {
		if g.AppName != appID {
			continue
		}
		info := runners.InstalledInfo{
			AppID:       appID,
			Runner:      ID,
			Platform:    g.Platform,
			Executable:  g.Executable,
			InstallPath: g.InstallPath,
			InstallSize: g.InstallSize,
			Version:     g.Version,
			IsDLC:       g.IsDLC,
			InstalledAt: r.Env.Now(),
		}
		if r.Env.Installed == nil {
			return nil
		}
		if err := r.Env.Installed.PutInstalled(&info); err != nil {
			return fmt.Errorf("failed to save installed record: %w", err)
		}
		return nil
	}
	return fmt.Errorf("legendary does not report %s as installed", appID)
}

// RefreshLibrary upserts every owned game into the library cache.
func (r *Runner) RefreshLibrary(ctx context.Context) error {
	if r.Env.Library == nil {
		return nil
	}
	out, err := r.output(ctx, "list", "--json")
	if err != nil {
		return err
	}
	var owned []ownedGame
	if err := json.Unmarshal(out, &owned); err != nil {
		return fmt.Errorf("failed to parse game list: %w", err)
	}

	games := make([]runners.GameInfo, 0, len(owned))
	for i := range owned {
		o := &owned[i]
		platforms := make([]string, 0, len(o.AssetInfos))
		for p := range o.AssetInfos {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		var dlcs []string
		for _, d := range o.Metadata.DLCItemList {
			if len(d.ReleaseInfo) > 0 {
				dlcs = append(dlcs, d.ReleaseInfo[0].AppID)
			}
		}
		games = append(games, runners.GameInfo{
			AppID:         o.AppName,
			Runner:        ID,
			Title:         o.AppTitle,
			Developer:     o.Metadata.Developer,
			Platforms:     platforms,
			DLCs:          dlcs,
			CanRunOffline: o.Metadata.CustomAttributes["CanRunOffline"].Value == "true",
		})
	}
	if err := r.Env.Library.PutGames(ID, games); err != nil {
		return fmt.Errorf("failed to update library cache: %w", err)
	}
	log.Info().Int("games", len(games)).Msg("legendary library refreshed")
	return nil
}
