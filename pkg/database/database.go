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

package database

import (
	"database/sql"
	"errors"
	"time"
)

/*
 * Records shared by the runners, the install queue and the stores. They live
 * here so the store implementations in librarydb and gamecache do not need
 * to import the packages that use them.
 */

var ErrNotFound = errors.New("not found")

type InstallType string

const (
	InstallTypeInstall InstallType = "install"
	InstallTypeUpdate  InstallType = "update"
	InstallTypeRepair  InstallType = "repair"
)

func (t InstallType) Valid() bool {
	switch t {
	case InstallTypeInstall, InstallTypeUpdate, InstallTypeRepair:
		return true
	default:
		return false
	}
}

type InstallParams struct {
	Path         string   `json:"path"`
	Platform     string   `json:"platform"`
	Language     string   `json:"language,omitempty"`
	GameTitle    string   `json:"gameTitle,omitempty"`
	DLCSelection []string `json:"dlcSelection,omitempty"`
	InstallSDLs  []string `json:"installSdls,omitempty"`
	ExtraArgs    []string `json:"extraArgs,omitempty"`
	Size         int64    `json:"size,omitempty"`
	InstallDLCs  bool     `json:"installDlcs"`
}

// InstallRequest is one element of the install queue.
type InstallRequest struct {
	AddedAt time.Time     `json:"addedAt"`
	AppID   string        `json:"appId"`
	Runner  string        `json:"runner"`
	Type    InstallType   `json:"type"`
	Params  InstallParams `json:"params"`
}

type FinishedRecord struct {
	FinishedAt time.Time      `json:"finishedAt"`
	Status     string         `json:"status"`
	Request    InstallRequest `json:"request"`
}

type InstalledInfo struct {
	InstalledAt time.Time `json:"installedAt"`
	AppID       string    `json:"appId"`
	Runner      string    `json:"runner"`
	Platform    string    `json:"platform"`
	Executable  string    `json:"executable"`
	InstallPath string    `json:"installPath"`
	Version     string    `json:"version"`
	BuildID     string    `json:"buildId,omitempty"`
	InstallSize int64     `json:"installSize"`
	IsDLC       bool      `json:"isDlc"`
}

type GameInfo struct {
	Install       *InstalledInfo `json:"install,omitempty"`
	AppID         string         `json:"appId"`
	Runner        string         `json:"runner"`
	Title         string         `json:"title"`
	Developer     string         `json:"developer,omitempty"`
	Platforms     []string       `json:"platforms,omitempty"`
	DLCs          []string       `json:"dlcs,omitempty"`
	CanRunOffline bool           `json:"canRunOffline"`
	IsInstalled   bool           `json:"isInstalled"`
}

type RecentGame struct {
	PlayedAt time.Time `json:"playedAt"`
	AppID    string    `json:"appId"`
	Runner   string    `json:"runner"`
	Title    string    `json:"title"`
}

/*
 * Interfaces for external deps
 */

// Database is the set of stores handed to the service.
type Database struct {
	LibraryDB LibraryDBI
	GameCache GameCacheI
}

type GenericDBI interface {
	Open() error
	UnsafeGetSQLDb() *sql.DB
	Truncate() error
	Allocate() error
	MigrateUp() error
	Vacuum() error
	Close() error
	GetDBPath() string
}

// QueueStore persists the pending install queue and its finished history.
type QueueStore interface {
	// LoadQueue returns the pending elements in queue order.
	LoadQueue() ([]InstallRequest, error)
	// UpsertQueueItem appends req, or replaces the element with the same app
	// id while keeping its position.
	UpsertQueueItem(req *InstallRequest) error
	RemoveQueueItem(appID string) error
	// AddFinished records rec, replacing any older record for the same app
	// id, and keeps only the newest limit records.
	AddFinished(rec *FinishedRecord, limit int) error
	GetFinished() ([]FinishedRecord, error)
	ClearFinished() error
}

type InstalledStore interface {
	GetInstalled(runner, appID string) (InstalledInfo, error)
	ListInstalled(runner string) ([]InstalledInfo, error)
	PutInstalled(info *InstalledInfo) error
	DeleteInstalled(runner, appID string) error
}

type RecentStore interface {
	AddRecent(r *RecentGame, limit int) error
	GetRecent(limit int) ([]RecentGame, error)
	RemoveRecent(appID string) error
}

type LibraryDBI interface {
	GenericDBI
	QueueStore
	InstalledStore
	RecentStore
}

// GameCacheI is the per-runner library cache. Reads must not touch the
// network.
type GameCacheI interface {
	GetGame(runner, appID string) (GameInfo, error)
	ListGames(runner string) ([]GameInfo, error)
	PutGames(runner string, games []GameInfo) error
	DeleteGame(runner, appID string) error
	Close() error
}
