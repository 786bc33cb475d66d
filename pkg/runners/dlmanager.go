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
	"regexp"
	"strconv"

	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
)

var (
	dlPercentRe    = regexp.MustCompile(`= Progress: ([\d.]+)%?[ ,].*ETA: (\d+:\d\d:\d\d)`)
	dlDownloadedRe = regexp.MustCompile(`(?:= |- )Downloaded: ([\d.]+ [KMGT]?i?B)`)
	dlSpeedRe      = regexp.MustCompile(`\+ Download\s+- ([\d.]+) MiB/s \(raw\)`)
	dlDiskRe       = regexp.MustCompile(`\+ Disk\s+- ([\d.]+) MiB/s \(write\)`)
	dlTotalRe      = regexp.MustCompile(`(?:Download|Install) size: ([\d.]+ [KMGT]?i?B)`)
)

// DLManagerParser reads the download manager log format shared by
// legendary, nile and gogdl:
//
//	[DLManager] INFO: = Progress: 12.34% (1/2), Running for 00:00:10, ETA: 00:01:02
//	[DLManager] INFO:  - Downloaded: 120.00 MiB, Written: 130.00 MiB
//	[DLManager] INFO:  + Download	- 4.20 MiB/s (raw) / 8.00 MiB/s (decompressed)
//	[DLManager] INFO:  + Disk	- 5.00 MiB/s (write) / 0.00 MiB/s (read)
//
// gogdl prints the percentage without the sign.
type DLManagerParser struct {
	cur Progress
	mu  syncutil.Mutex
}

func NewDLManagerParser() *DLManagerParser {
	return &DLManagerParser{}
}

func (p *DLManagerParser) Parse(line string) (Progress, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := false
	if m := dlPercentRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.cur.Percent = v
			p.cur.ETA = m[2]
			changed = true
		}
	}
	if m := dlDownloadedRe.FindStringSubmatch(line); m != nil {
		if v, err := ParseSize(m[1]); err == nil {
			p.cur.Bytes = v
			changed = true
		}
	}
	if m := dlSpeedRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.cur.DownloadSpeed = v * (1 << 20)
			changed = true
		}
	}
	if m := dlDiskRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.cur.DiskSpeed = v * (1 << 20)
			changed = true
		}
	}
	if m := dlTotalRe.FindStringSubmatch(line); m != nil {
		if v, err := ParseSize(m[1]); err == nil {
			p.cur.TotalBytes = v
		}
	}
	return p.cur, changed
}
