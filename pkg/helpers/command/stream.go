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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	tailSize      = 20
	maxLineLength = 1024 * 1024
)

type outputLine struct {
	text   string
	stream Stream
}

// Stream runs a process, forwarding its stdout and stderr line by line. Lines
// are delivered from a single goroutine, so onLine never runs concurrently.
func (*RealExecutor) Stream(ctx context.Context, c Cmd, onLine LineFunc) (Result, error) {
	res := Result{ExitCode: -1}

	//nolint:gosec // tool binaries come from the service config
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		log.Debug().Int("pid", cmd.Process.Pid).Msgf("terminating %s", c.Name)
		TerminateTree(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = TermTimeout + KillTimeout

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return res, fmt.Errorf("failed to open stdout of %s: %w", c.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return res, fmt.Errorf("failed to open stderr of %s: %w", c.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return res, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	lines := make(chan outputLine, 64)
	var wg sync.WaitGroup
	wg.Add(2)
	go scanOutput(stdout, Stdout, lines, &wg)
	go scanOutput(stderr, Stderr, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	tail := make([]string, 0, tailSize)
	for l := range lines {
		if l.stream == Stderr {
			if len(tail) == tailSize {
				tail = tail[1:]
			}
			tail = append(tail, l.text)
		}
		if onLine != nil {
			onLine(l.stream, l.text)
		}
	}

	waitErr := cmd.Wait()
	res.Tail = tail

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s was cancelled: %w", c.Name, ctxErr)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, fmt.Errorf("%s failed: %w", c.Name, waitErr)
	}

	res.ExitCode = 0
	return res, nil
}

func scanOutput(r io.Reader, stream Stream, out chan<- outputLine, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	scanner.Split(ScanLines)
	for scanner.Scan() {
		out <- outputLine{text: scanner.Text(), stream: stream}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Debug().Err(err).Str("stream", stream.String()).Msg("output scanner stopped")
	}
}

// ScanLines is a bufio.SplitFunc that also treats a bare carriage return as a
// line break, since download tools redraw progress bars with '\r'.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		} else if data[i] == '\r' && i+1 == len(data) && !atEOF {
			// a "\r\n" pair may be split across reads
			return 0, nil, nil
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
