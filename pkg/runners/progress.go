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
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// ProgressInterval is the minimum spacing of forwarded progress samples.
const ProgressInterval = time.Second

// ProgressParser understands the output format of one store tool. It keeps
// the running sample because tools report percent, speed and bytes on
// separate lines.
type ProgressParser interface {
	// Parse folds line into the running sample. ok is false when the line
	// carried no progress information.
	Parse(line string) (p Progress, ok bool)
}

// ThrottledProgress forwards parsed samples to the status publisher at most
// once per ProgressInterval. The newest sample is never lost: Flush sends
// whatever the limiter held back.
type ThrottledProgress struct {
	env     *Env
	parser  ProgressParser
	limiter *rate.Limiter
	clock   clockwork.Clock
	appID   string
	runner  string
	phase   status.Phase
	last    Progress
	mu      syncutil.Mutex
	pending bool
}

func (l *Lifecycle) NewProgress(appID string, phase status.Phase, parser ProgressParser) *ThrottledProgress {
	return &ThrottledProgress{
		env:     l.Env,
		parser:  parser,
		limiter: rate.NewLimiter(rate.Every(ProgressInterval), 1),
		clock:   l.Env.clock(),
		appID:   appID,
		runner:  l.Runner,
		phase:   phase,
	}
}

// Line is a command.LineFunc.
func (t *ThrottledProgress) Line(_ command.Stream, line string) {
	if t.parser == nil {
		return
	}
	if p, ok := t.parser.Parse(line); ok {
		t.Report(p)
	}
}

func (t *ThrottledProgress) Report(p Progress) {
	t.mu.Lock()
	t.last = p
	if !t.limiter.AllowN(t.clock.Now(), 1) {
		t.pending = true
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.mu.Unlock()
	t.send(p)
}

func (t *ThrottledProgress) Flush() {
	t.mu.Lock()
	if !t.pending {
		t.mu.Unlock()
		return
	}
	t.pending = false
	p := t.last
	t.mu.Unlock()
	t.send(p)
}

func (t *ThrottledProgress) Last() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *ThrottledProgress) send(p Progress) {
	t.env.publish(status.GameStatus{
		AppID:    t.appID,
		Runner:   t.runner,
		Phase:    t.phase,
		Progress: &p,
	})
}

var sizeRe = regexp.MustCompile(`^([\d.]+)\s*([KMGT]?i?B)$`)

// ParseSize converts "120.00 MiB" style sizes to bytes.
func ParseSize(s string) (int64, error) {
	m := sizeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %q: %w", s, err)
	}
	mult := 1.0
	switch strings.TrimSuffix(m[2], "B") {
	case "K", "Ki":
		mult = 1 << 10
	case "M", "Mi":
		mult = 1 << 20
	case "G", "Gi":
		mult = 1 << 30
	case "T", "Ti":
		mult = 1 << 40
	}
	return int64(math.Round(v * mult)), nil
}

// FormatETA renders d as HH:MM:SS.
func FormatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
