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

	"github.com/gamedock/gamedock-core/pkg/frontend"
	"github.com/gamedock/gamedock-core/pkg/helpers"
	"github.com/gamedock/gamedock-core/pkg/wine"
	"github.com/stretchr/testify/mock"
)

// MockSink is a testify mock for frontend.Sink.
type MockSink struct {
	mock.Mock
}

var _ frontend.Sink = (*MockSink)(nil)

func (m *MockSink) SendMessage(channel string, payload any) {
	m.Called(channel, payload)
}

func (m *MockSink) Confirm(ctx context.Context, title, message string, buttons []string) int {
	args := m.Called(ctx, title, message, buttons)
	return args.Int(0)
}

// NewMockSink returns a sink that accepts any message.
func NewMockSink() *MockSink {
	m := &MockSink{}
	m.On("SendMessage", mock.Anything, mock.Anything).Return().Maybe()
	return m
}

// MockWineRuntime is a testify mock for wine.Runtime.
type MockWineRuntime struct {
	mock.Mock
}

var _ wine.Runtime = (*MockWineRuntime)(nil)

func (m *MockWineRuntime) Validate(inst wine.Installation) bool {
	args := m.Called(inst)
	return args.Bool(0)
}

func (m *MockWineRuntime) RunCommand(
	ctx context.Context,
	inst wine.Installation,
	parts, env []string,
) (wine.ExecResult, error) {
	args := m.Called(ctx, inst, parts, env)
	res, _ := args.Get(0).(wine.ExecResult)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return res, args.Error(1)
}

func (m *MockWineRuntime) Shutdown(ctx context.Context, inst wine.Installation) error {
	args := m.Called(ctx, inst)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Error(0)
}

// MockConnectivity is a testify mock for helpers.Connectivity.
type MockConnectivity struct {
	mock.Mock
}

var _ helpers.Connectivity = (*MockConnectivity)(nil)

func (m *MockConnectivity) Online(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// StaticConnectivity always answers with its own value.
type StaticConnectivity bool

func (s StaticConnectivity) Online(context.Context) bool {
	return bool(s)
}
