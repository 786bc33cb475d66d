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

package runners

import (
	"context"
	"time"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/frontend"
	"github.com/gamedock/gamedock-core/pkg/helpers"
	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/service/cancellation"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/gamedock/gamedock-core/pkg/wine"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Env holds the dependencies shared by every runner.
type Env struct {
	Settings     *settings.Registry
	Cancel       *cancellation.Registry
	Status       status.Publisher
	Frontend     frontend.Sink
	Installed    database.InstalledStore
	Library      database.GameCacheI
	Recents      database.RecentStore
	Wine         wine.Runtime
	Connectivity helpers.Connectivity
	Deregister   Deregisterer
	Exec         command.Executor
	Clock        clockwork.Clock
	// Fs holds install folders. Nil means the OS filesystem.
	Fs afero.Fs
}

func (e *Env) FS() afero.Fs {
	if e.Fs == nil {
		return afero.NewOsFs()
	}
	return e.Fs
}

func (e *Env) clock() clockwork.Clock {
	if e.Clock == nil {
		return clockwork.NewRealClock()
	}
	return e.Clock
}

func (e *Env) Now() time.Time {
	return e.clock().Now()
}

func (e *Env) publish(st status.GameStatus) {
	if e.Status == nil {
		return
	}
	if st.Time.IsZero() {
		st.Time = e.clock().Now()
	}
	e.Status.Publish(st)
}

// Online reports false when offline mode is set or no probe host answers.
func (e *Env) Online(ctx context.Context) bool {
	if e.Settings != nil && e.Settings.Global().GetSettings().OfflineMode {
		return false
	}
	if e.Connectivity == nil {
		return true
	}
	return e.Connectivity.Online(ctx)
}

// Deregisterer removes a game from integrations outside the store.
type Deregisterer interface {
	RemoveShortcuts(appID, runner string) error
	RemoveFromSteam(appID, runner string) error
	RemoveRecent(appID string) error
}

// DefaultDeregisterer drops the game from the recent list. Shortcut and
// Steam writers live outside the core so those calls are only logged.
type DefaultDeregisterer struct {
	Recents database.RecentStore
}

func (*DefaultDeregisterer) RemoveShortcuts(appID, runner string) error {
	log.Debug().Str("app_id", appID).Str("runner", runner).Msg("shortcut removal requested")
	return nil
}

func (*DefaultDeregisterer) RemoveFromSteam(appID, runner string) error {
	log.Debug().Str("app_id", appID).Str("runner", runner).Msg("steam shortcut removal requested")
	return nil
}

func (d *DefaultDeregisterer) RemoveRecent(appID string) error {
	if d.Recents == nil {
		return nil
	}
	//nolint:wrapcheck // store errors already carry context
	return d.Recents.RemoveRecent(appID)
}

// deregister runs every side effect and only logs failures.
func (e *Env) deregister(appID, runner string) {
	if e.Deregister == nil {
		return
	}
	if err := e.Deregister.RemoveShortcuts(appID, runner); err != nil {
		log.Warn().Err(err).Str("app_id", appID).Msg("failed to remove shortcuts")
	}
	if err := e.Deregister.RemoveFromSteam(appID, runner); err != nil {
		log.Warn().Err(err).Str("app_id", appID).Msg("failed to remove steam shortcut")
	}
	if err := e.Deregister.RemoveRecent(appID); err != nil {
		log.Warn().Err(err).Str("app_id", appID).Msg("failed to remove recent game")
	}
}
