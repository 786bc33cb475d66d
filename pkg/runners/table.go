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
	"sort"

	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
)

// Table maps runner ids to implementations.
type Table struct {
	runners map[string]Runner
	mu      syncutil.RWMutex
}

func NewTable(rs ...Runner) (*Table, error) {
	t := &Table{runners: make(map[string]Runner)}
	for _, r := range rs {
		if err := t.Register(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Register(r Runner) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := r.ID()
	if id == "" {
		return fmt.Errorf("runner has no id: %T", r)
	}
	if _, ok := t.runners[id]; ok {
		return fmt.Errorf("runner already registered: %s", id)
	}
	t.runners[id] = r
	return nil
}

func (t *Table) Get(id string) (Runner, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.runners[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRunner, id)
	}
	return r, nil
}

func (t *Table) IDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.runners))
	for id := range t.runners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *Table) All() []Runner {
	ids := t.IDs()
	t.mu.RLock()
	defer t.mu.RUnlock()
	rs := make([]Runner, 0, len(ids))
	for _, id := range ids {
		rs = append(rs, t.runners[id])
	}
	return rs
}
