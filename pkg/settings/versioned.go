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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const versionKey = "version"

// VersionedConfig is one settings file tagged with a schema version. S is the
// shape of the document stored next to the version field. The document is
// loaded lazily, migrated to the current version, cached, and re-read when
// the file changes on disk.
type VersionedConfig[S any] struct {
	fs       afero.Fs
	defaults func() S
	settings *S
	modTime  time.Time
	path     string
	version  string
	chain    Chain
	size     int64
	loaded   bool
	pinned   bool
	mu       syncutil.Mutex
}

func NewVersionedConfig[S any](
	afs afero.Fs,
	path string,
	chain Chain,
	defaults func() S,
) *VersionedConfig[S] {
	return &VersionedConfig[S]{
		fs:       afs,
		path:     path,
		chain:    chain,
		defaults: defaults,
	}
}

func (c *VersionedConfig[S]) Path() string {
	return c.path
}

// Version returns the schema version the document is at. It differs from
// the current chain version only when a migration failed.
func (c *VersionedConfig[S]) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
	return c.version
}

// Pinned reports whether a failed migration left the file at an old version.
func (c *VersionedConfig[S]) Pinned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
	return c.pinned
}

// Get returns a copy of the document. A pinned file yields the defaults.
func (c *VersionedConfig[S]) Get() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
	if c.pinned || c.settings == nil {
		return c.defaults()
	}
	return clone(*c.settings)
}

// Update applies fn to a copy of the document and persists the result. The
// whole read-modify-write cycle holds the scope lock.
func (c *VersionedConfig[S]) Update(fn func(*S) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()

	if c.pinned {
		return fmt.Errorf("%w: %s is pinned at %s", ErrMigrationFailed, c.path, c.version)
	}

	next := c.defaults()
	if c.settings != nil {
		next = clone(*c.settings)
	}
	if err := fn(&next); err != nil {
		return err
	}

	if err := c.writeLocked(next, c.chain.Current()); err != nil {
		return err
	}
	c.settings = &next
	c.version = c.chain.Current()
	return nil
}

// Reset overwrites the file with defaults at the current version.
func (c *VersionedConfig[S]) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.defaults()
	if err := c.writeLocked(d, c.chain.Current()); err != nil {
		return err
	}
	c.settings = &d
	c.version = c.chain.Current()
	c.pinned = false
	c.loaded = true
	return nil
}

// Invalidate drops the cache so the next access reloads the file.
func (c *VersionedConfig[S]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
}

func (c *VersionedConfig[S]) refreshLocked() {
	if c.loaded {
		info, err := c.fs.Stat(c.path)
		switch {
		case err == nil && info.ModTime().Equal(c.modTime) && info.Size() == c.size:
			return
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			log.Warn().Err(err).Str("path", c.path).Msg("failed to stat settings file, using cache")
			return
		}
		log.Debug().Str("path", c.path).Msg("settings file changed on disk, reloading")
	}
	c.loadLocked()
}

func (c *VersionedConfig[S]) loadLocked() {
	c.loaded = true
	c.pinned = false
	current := c.chain.Current()

	data, err := afero.ReadFile(c.fs, c.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", c.path).Msg("saving default settings to disk")
		c.resetLocked()
		return
	} else if err != nil {
		log.Error().Err(err).Str("path", c.path).Msg("failed to read settings file, using defaults")
		d := c.defaults()
		c.settings = &d
		c.version = current
		return
	}

	if info, err := c.fs.Stat(c.path); err == nil {
		c.modTime = info.ModTime()
		c.size = info.Size()
	}

	doc, version, corrupt := parseDocument(data, c.path, c.chain)

	migrated := false
	for _, step := range c.chain.pending(version) {
		next, err := applyMigration(step, doc)
		if err != nil {
			log.Error().Err(err).
				Str("path", c.path).
				Msgf("settings migration %s -> %s failed, staying at %s", step.From, step.To, version)
			c.settings = nil
			c.version = version
			c.pinned = true
			return
		}
		doc = next
		version = step.To
		migrated = true
		if err := c.writeDocLocked(doc, version); err != nil {
			log.Warn().Err(err).Str("path", c.path).Msg("failed to persist migrated settings")
		}
		log.Info().Str("path", c.path).Msgf("migrated settings %s -> %s", step.From, step.To)
	}

	s, err := decodeDocument(doc, c.defaults)
	if err != nil {
		log.Error().Err(err).Str("path", c.path).Msg("corrupt settings file, resetting to defaults")
		c.resetLocked()
		return
	}

	c.settings = &s
	c.version = version
	if corrupt && !migrated {
		if err := c.writeLocked(s, version); err != nil {
			log.Warn().Err(err).Str("path", c.path).Msg("failed to rewrite corrupt settings")
		}
	}
}

func (c *VersionedConfig[S]) resetLocked() {
	d := c.defaults()
	if err := c.writeLocked(d, c.chain.Current()); err != nil {
		log.Error().Err(err).Str("path", c.path).Msg("failed to save default settings")
	}
	c.settings = &d
	c.version = c.chain.Current()
}

func (c *VersionedConfig[S]) writeLocked(s S, version string) error {
	doc, err := toMap(s)
	if err != nil {
		return err
	}
	return c.writeDocLocked(doc, version)
}

// writeDocLocked writes doc atomically through a temporary file and records
// the resulting file stamp so our own writes do not look like external edits.
func (c *VersionedConfig[S]) writeDocLocked(doc map[string]any, version string) error {
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[versionKey] = version

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o750); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := c.fs.Rename(tmp, c.path); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	if info, err := c.fs.Stat(c.path); err == nil {
		c.modTime = info.ModTime()
		c.size = info.Size()
	}
	return nil
}

// parseDocument splits a settings file into its document and version. A file
// that does not parse, or has a missing or unknown version, is reported as
// corrupt and treated as the oldest version.
func parseDocument(data []byte, path string, chain Chain) (doc map[string]any, version string, corrupt bool) {
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		log.Warn().Err(err).Str("path", path).Msg("settings file is corrupt, treating as oldest version")
		return map[string]any{}, chain.Oldest(), true
	}

	raw := doc[versionKey]
	delete(doc, versionKey)
	v, ok := raw.(string)
	if !ok || chain.index(v) < 0 {
		log.Warn().Str("path", path).Msgf("settings file has unknown version %v, treating as oldest", raw)
		return doc, chain.Oldest(), true
	}
	return doc, v, false
}

func applyMigration(step Migration, doc map[string]any) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("migration panicked: %v", r)
		}
	}()

	in, err := cloneDoc(doc)
	if err != nil {
		return nil, err
	}
	out, err = step.Apply(in)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("migration returned no document")
	}
	return out, nil
}

func decodeDocument[S any](doc map[string]any, defaults func() S) (S, error) {
	s := defaults()
	data, err := json.Marshal(doc)
	if err != nil {
		return s, fmt.Errorf("failed to encode document: %w", err)
	}
	var typeErr *json.UnmarshalTypeError
	err = json.Unmarshal(data, &s)
	if errors.As(err, &typeErr) {
		// the remaining fields were still decoded
		log.Warn().Err(err).Msg("ignoring settings field with wrong type")
		return s, nil
	} else if err != nil {
		return defaults(), fmt.Errorf("failed to decode document: %w", err)
	}
	return s, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return m, nil
}

func fromMap[S any](m map[string]any) (S, error) {
	var s S
	data, err := json.Marshal(m)
	if err != nil {
		return s, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

func cloneDoc(doc map[string]any) (map[string]any, error) {
	return toMap(doc)
}

func clone[S any](s S) S {
	data, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var out S
	if err := json.Unmarshal(data, &out); err != nil {
		return s
	}
	return out
}
