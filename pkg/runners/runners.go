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

// Package runners defines the contract every store backend implements and
// the lifecycle they share. The queue and the API only pick a runner from
// the Table by id and call the same verbs on it.
package runners

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
)

var (
	ErrNotFound      = database.ErrNotFound
	ErrUnknownRunner = errors.New("unknown runner")
	ErrNotInstalled  = errors.New("game is not installed")
	ErrOffline       = errors.New("no internet connection")
	ErrServiceOutage = errors.New("store service is reporting an outage")
	ErrNotSupported  = errors.New("operation not supported by this runner")
	ErrNotRunning    = errors.New("game is not running")
)

type (
	InstallRequest = database.InstallRequest
	InstallType    = database.InstallType
	InstallParams  = database.InstallParams
	FinishedRecord = database.FinishedRecord
	InstalledInfo  = database.InstalledInfo
	GameInfo       = database.GameInfo
	Progress       = status.Progress
)

type ResultStatus string

const (
	StatusDone  ResultStatus = "done"
	StatusError ResultStatus = "error"
	StatusAbort ResultStatus = "abort"
)

// Result is the outcome of a long-running verb. Verbs never return raw errors.
type Result struct {
	Status ResultStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

func (r Result) OK() bool {
	return r.Status == StatusDone
}

func Done() Result {
	return Result{Status: StatusDone}
}

func Aborted() Result {
	return Result{Status: StatusAbort}
}

func Failed(err error) Result {
	if err == nil {
		return Result{Status: StatusError, Error: "unknown error"}
	}
	return Result{Status: StatusError, Error: err.Error()}
}

type LaunchResult struct {
	Reason  string `json:"reason,omitempty"`
	Success bool   `json:"success"`
}

type InstallArgs = database.InstallParams

type UpdateArgs struct {
	ExtraArgs   []string `json:"extraArgs,omitempty"`
	InstallDLCs bool     `json:"installDlcs"`
}

type UninstallArgs struct {
	KeepFiles bool `json:"keepFiles"`
	// DeleteFiles is required before removing a folder the runner did not
	// create, such as the folder of a sideloaded executable.
	DeleteFiles bool `json:"deleteFiles"`
}

type LaunchArgs struct {
	ExtraArgs []string `json:"extraArgs,omitempty"`
	Offline   bool     `json:"offline"`
}

// Runner is one store backend.
type Runner interface {
	ID() string
	// GetGameInfo reads the local library cache only.
	GetGameInfo(appID string) (GameInfo, error)
	GetSettings(appID string) settings.GameSettings
	Install(ctx context.Context, appID string, args InstallArgs) Result
	Update(ctx context.Context, appID string, args UpdateArgs) Result
	Repair(ctx context.Context, appID string) Result
	Uninstall(ctx context.Context, appID string, args UninstallArgs) Result
	MoveInstall(ctx context.Context, appID, newPath string) Result
	Launch(ctx context.Context, appID string, args LaunchArgs) LaunchResult
	Stop(appID string) error
	IsNative(appID string) bool
}

// LibraryRefresher is implemented by runners that can rebuild their
// library cache from the store.
type LibraryRefresher interface {
	RefreshLibrary(ctx context.Context) error
}

// Execute calls the verb matching req.Type on r.
func Execute(ctx context.Context, r Runner, req *InstallRequest) Result {
	switch req.Type {
	case database.InstallTypeInstall:
		return r.Install(ctx, req.AppID, req.Params)
	case database.InstallTypeUpdate:
		return r.Update(ctx, req.AppID, UpdateArgs{
			ExtraArgs:   req.Params.ExtraArgs,
			InstallDLCs: req.Params.InstallDLCs,
		})
	case database.InstallTypeRepair:
		return r.Repair(ctx, req.AppID)
	default:
		return Failed(fmt.Errorf("unknown install type %q", req.Type))
	}
}
