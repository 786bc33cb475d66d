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
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// Timeout constants for process termination.
const (
	// TermTimeout is how long to wait for a graceful shutdown.
	TermTimeout = 3 * time.Second
	// KillTimeout is how long to wait after a hard kill before giving up.
	KillTimeout = 500 * time.Millisecond

	pollInterval = 100 * time.Millisecond
)

// TerminateTree asks pid and all of its descendants to exit, children first,
// and kills anything still running once TermTimeout has passed.
func TerminateTree(pid int) {
	signalGroup(pid)

	procs := processTree(int32(pid)) //nolint:gosec // PID fits in int32
	if len(procs) == 0 {
		log.Debug().Int("pid", pid).Msg("process not found, may have already exited")
		return
	}

	for _, p := range procs {
		if err := p.Terminate(); err != nil {
			log.Debug().Err(err).Int32("pid", p.Pid).Msg("terminate failed")
		}
	}

	if waitForExit(procs, TermTimeout) {
		return
	}

	log.Debug().Int("pid", pid).Msg("terminate timeout, killing process tree")
	for _, p := range procs {
		if err := p.Kill(); err != nil {
			log.Debug().Err(err).Int32("pid", p.Pid).Msg("kill failed")
		}
	}
	waitForExit(procs, KillTimeout)
}

// processTree returns the process and all its descendants, with descendants
// ordered before their parents.
func processTree(pid int32) []*process.Process {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}
	descendants := descendantsOf(proc)
	result := make([]*process.Process, 0, len(descendants)+1)
	result = append(result, descendants...)
	return append(result, proc)
}

func descendantsOf(proc *process.Process) []*process.Process {
	children, err := proc.Children()
	if err != nil {
		return nil
	}
	result := make([]*process.Process, 0, len(children))
	for _, child := range children {
		result = append(result, descendantsOf(child)...)
		result = append(result, child)
	}
	return result
}

func waitForExit(procs []*process.Process, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		alive := false
		for _, p := range procs {
			if !exited(p) {
				alive = true
				break
			}
		}
		if !alive {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// exited treats zombies as gone. The direct child stays a zombie until
// exec.Cmd.Wait reaps it, which only happens after TerminateTree returns.
func exited(p *process.Process) bool {
	running, err := p.IsRunning()
	if err != nil || !running {
		return true
	}
	st, err := p.Status()
	return err == nil && slices.Contains(st, process.Zombie)
}
