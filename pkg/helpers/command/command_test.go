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

package command

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_ImplementsInterface(t *testing.T) {
	t.Parallel()
	var _ Executor = &RealExecutor{}
}

func TestRealExecutor_RunMissingBinary(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}
	err := exec.Run(context.Background(), "gamedock-nonexistent-binary-12345")
	require.Error(t, err)
}

func TestRealExecutor_StreamMissingBinary(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}
	res, err := exec.Stream(context.Background(), Cmd{Name: "gamedock-nonexistent-binary-12345"}, nil)
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestScanLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "newlines", input: "a\nb\nc\n", want: []string{"a", "b", "c"}},
		{name: "no trailing newline", input: "a\nb", want: []string{"a", "b"}},
		{name: "carriage returns", input: "10%\r20%\r30%\n", want: []string{"10%", "20%", "30%"}},
		{name: "crlf", input: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "empty lines kept", input: "a\n\nb\n", want: []string{"a", "", "b"}},
		{name: "empty input", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(ScanLines)
			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			require.NoError(t, scanner.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStream_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "stdout", Stdout.String())
	assert.Equal(t, "stderr", Stderr.String())
}
