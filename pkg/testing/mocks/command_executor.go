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

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/stretchr/testify/mock"
)

// MockCommandExecutor is a testify mock for command.Executor.
// It allows testing code that executes system commands without actually running them.
type MockCommandExecutor struct {
	mock.Mock
}

var _ command.Executor = (*MockCommandExecutor)(nil)

// Run mocks the execution of a system command.
// Use On() to set expectations and Return() to control the mock behavior.
//
// Example:
//
//	mockCmd := &MockCommandExecutor{}
//	mockCmd.On("Run", mock.Anything, "legendary", mock.Anything).Return(nil)
func (m *MockCommandExecutor) Run(ctx context.Context, name string, args ...string) error {
	called := m.Called(ctx, name, args)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return called.Error(0)
}

func (m *MockCommandExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	called := m.Called(ctx, name, args)
	out, _ := called.Get(0).([]byte)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return out, called.Error(1)
}

func (m *MockCommandExecutor) Start(ctx context.Context, name string, args ...string) error {
	called := m.Called(ctx, name, args)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return called.Error(0)
}

func (m *MockCommandExecutor) StartWithOptions(
	ctx context.Context,
	opts command.StartOptions,
	name string,
	args ...string,
) error {
	called := m.Called(ctx, opts, name, args)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return called.Error(0)
}

// Stream mocks a streamed process. Lines can be fed to the caller from a
// Run callback:
//
//	m.On("Stream", mock.Anything, mock.Anything, mock.Anything).
//		Run(mocks.FeedLines(command.Stderr, "= Progress: 50.00%")).
//		Return(command.Result{}, nil)
func (m *MockCommandExecutor) Stream(
	ctx context.Context,
	c command.Cmd,
	onLine command.LineFunc,
) (command.Result, error) {
	called := m.Called(ctx, c, onLine)
	res, _ := called.Get(0).(command.Result)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return res, called.Error(1)
}

// FeedLines returns a Run callback for Stream that writes lines to the
// caller's LineFunc.
func FeedLines(stream command.Stream, lines ...string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		onLine, ok := args.Get(2).(command.LineFunc)
		if !ok {
			return
		}
		for _, l := range lines {
			onLine(stream, l)
		}
	}
}

// CmdWithArgs matches a command.Cmd whose Name is name and whose Args contain
// every one of want.
func CmdWithArgs(name string, want ...string) any {
	return mock.MatchedBy(func(c command.Cmd) bool {
		if c.Name != name {
			return false
		}
		have := make(map[string]bool, len(c.Args))
		for _, a := range c.Args {
			have[a] = true
		}
		for _, w := range want {
			if !have[w] {
				return false
			}
		}
		return true
	})
}
