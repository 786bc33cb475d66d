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

package mocks

import (
	"context"

	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/stretchr/testify/mock"
)

// MockRunner is a testify mock for runners.Runner.
type MockRunner struct {
	mock.Mock
	RunnerID string
}

var _ runners.Runner = (*MockRunner)(nil)

func NewMockRunner(id string) *MockRunner {
	return &MockRunner{RunnerID: id}
}

func (m *MockRunner) ID() string {
	return m.RunnerID
}

func (m *MockRunner) GetGameInfo(appID string) (runners.GameInfo, error) {
	args := m.Called(appID)
	gi, _ := args.Get(0).(runners.GameInfo)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return gi, args.Error(1)
}

func (m *MockRunner) GetSettings(appID string) settings.GameSettings {
	args := m.Called(appID)
	gs, _ := args.Get(0).(settings.GameSettings)
	return gs
}

func (m *MockRunner) result(args mock.Arguments) runners.Result {
	if fn, ok := args.Get(0).(func() runners.Result); ok {
		return fn()
	}
	res, _ := args.Get(0).(runners.Result)
	return res
}

func (m *MockRunner) Install(ctx context.Context, appID string, a runners.InstallArgs) runners.Result {
	return m.result(m.Called(ctx, appID, a))
}

func (m *MockRunner) Update(ctx context.Context, appID string, a runners.UpdateArgs) runners.Result {
	return m.result(m.Called(ctx, appID, a))
}

func (m *MockRunner) Repair(ctx context.Context, appID string) runners.Result {
	return m.result(m.Called(ctx, appID))
}

func (m *MockRunner) Uninstall(ctx context.Context, appID string, a runners.UninstallArgs) runners.Result {
	return m.result(m.Called(ctx, appID, a))
}

func (m *MockRunner) MoveInstall(ctx context.Context, appID, newPath string) runners.Result {
	return m.result(m.Called(ctx, appID, newPath))
}

func (m *MockRunner) Launch(ctx context.Context, appID string, a runners.LaunchArgs) runners.LaunchResult {
	args := m.Called(ctx, appID, a)
	if fn, ok := args.Get(0).(func() runners.LaunchResult); ok {
		return fn()
	}
	res, _ := args.Get(0).(runners.LaunchResult)
	return res
}

func (m *MockRunner) Stop(appID string) error {
	args := m.Called(appID)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Error(0)
}

func (m *MockRunner) IsNative(appID string) bool {
	args := m.Called(appID)
	return args.Bool(0)
}
