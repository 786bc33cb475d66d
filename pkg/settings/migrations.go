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

package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Migration upgrades a settings document by one schema version. Apply
// receives the whole document without its version field and must not keep
// references to it.
type Migration struct {
	Apply func(doc map[string]any) (map[string]any, error)
	From  string
	To    string
}

// Chain is the ordered list of schema versions of one settings scope.
type Chain struct {
	initial string
	steps   []Migration
}

// NewChain builds a chain starting at initial. Every step must start at the
// version the previous one ended at.
func NewChain(initial string, steps ...Migration) (Chain, error) {
	prev := initial
	seen := map[string]bool{initial: true}
	for i, step := range steps {
		if step.From != prev {
			return Chain{}, fmt.Errorf("step %d starts at %q, expected %q", i, step.From, prev)
		}
		if step.Apply == nil {
			return Chain{}, fmt.Errorf("step %s->%s has no apply function", step.From, step.To)
		}
		if seen[step.To] {
			return Chain{}, fmt.Errorf("version %q appears twice", step.To)
		}
		seen[step.To] = true
		prev = step.To
	}
	return Chain{initial: initial, steps: steps}, nil
}

// MustChain is NewChain for chains defined in code.
func MustChain(initial string, steps ...Migration) Chain {
	c, err := NewChain(initial, steps...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Chain) Oldest() string {
	return c.initial
}

func (c Chain) Current() string {
	if len(c.steps) == 0 {
		return c.initial
	}
	return c.steps[len(c.steps)-1].To
}

// index returns the position of version in the chain, or -1.
func (c Chain) index(version string) int {
	if version == c.initial {
		return 0
	}
	for i, step := range c.steps {
		if step.To == version {
			return i + 1
		}
	}
	return -1
}

// pending returns the steps needed to bring version up to date.
func (c Chain) pending(version string) []Migration {
	i := c.index(version)
	if i < 0 {
		return c.steps
	}
	return c.steps[i:]
}

const (
	globalV0 = "v0"
	globalV1 = "v1"
	gameV0   = "v0"
)

// GlobalChain is the schema history of the global settings file.
var GlobalChain = MustChain(globalV0,
	Migration{From: globalV0, To: globalV1, Apply: migrateGlobalV0ToV1},
)

// GameChain is the schema history of per-game settings files.
var GameChain = MustChain(gameV0)

// migrateGlobalV0ToV1 converts maxWorkers from a string to a number and the
// wine version from a bare name to a {name, type, bin} object.
func migrateGlobalV0ToV1(doc map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	raw, ok := doc["settings"]
	if !ok || raw == nil {
		return out, nil
	}
	old, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("settings payload is not an object")
	}

	next := make(map[string]any, len(old))
	for k, v := range old {
		next[k] = v
	}

	if v, ok := old["maxWorkers"]; ok {
		n, err := parseWorkers(v)
		if err != nil {
			return nil, err
		}
		next["maxWorkers"] = n
	}

	if v, ok := old["wineVersion"]; ok {
		switch wv := v.(type) {
		case string:
			next["wineVersion"] = map[string]any{
				"name": wv,
				"type": guessWineType(wv),
				"bin":  "",
			}
		case map[string]any, nil:
		default:
			return nil, fmt.Errorf("unexpected wineVersion type %T", v)
		}
	}

	out["settings"] = next
	return out, nil
}

func parseWorkers(v any) (int, error) {
	switch w := v.(type) {
	case string:
		w = strings.TrimSpace(w)
		if w == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(w)
		if err != nil {
			return 0, fmt.Errorf("invalid maxWorkers %q: %w", w, err)
		}
		return n, nil
	case float64:
		return int(w), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected maxWorkers type %T", v)
	}
}

func guessWineType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "proton"):
		return WineTypeProton
	case strings.Contains(lower, "crossover"):
		return WineTypeCrossover
	case strings.Contains(lower, "toolkit"):
		return WineTypeToolkit
	default:
		return WineTypeWine
	}
}
