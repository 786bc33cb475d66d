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

// Package gamecache is the bbolt-backed library cache. Each runner owns one
// bucket keyed by app id with JSON encoded GameInfo values. Reads never touch
// the network.
package gamecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

var errNoRunner = errors.New("runner id is required")

type GameCache struct {
	bdb *bolt.DB
}

var _ database.GameCacheI = (*GameCache)(nil)

func DBPath(dataDir string) string {
	return filepath.Join(dataDir, config.GameCacheFile)
}

func Open(dataDir string) (*GameCache, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for game cache: %w", err)
	}
	db, err := bolt.Open(DBPath(dataDir), 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	return &GameCache{bdb: db}, nil
}

func (c *GameCache) Close() error {
	if err := c.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}

func (c *GameCache) GetGame(runner, appID string) (database.GameInfo, error) {
	var gi database.GameInfo
	err := c.bdb.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runner))
		if b == nil {
			return database.ErrNotFound
		}
		v := b.Get([]byte(appID))
		if v == nil {
			return database.ErrNotFound
		}
		if err := json.Unmarshal(v, &gi); err != nil {
			return fmt.Errorf("failed to unmarshal game %s: %w", appID, err)
		}
		return nil
	})
	if errors.Is(err, database.ErrNotFound) {
		return database.GameInfo{}, database.ErrNotFound
	} else if err != nil {
		return database.GameInfo{}, fmt.Errorf("failed to view bolt database: %w", err)
	}
	return gi, nil
}

// ListGames returns the cached games of runner ordered by app id. Entries
// that fail to decode are logged and skipped.
func (c *GameCache) ListGames(runner string) ([]database.GameInfo, error) {
	games := make([]database.GameInfo, 0)
	err := c.bdb.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runner))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var gi database.GameInfo
			if err := json.Unmarshal(v, &gi); err != nil {
				log.Warn().Err(err).Str("runner", runner).Str("app_id", string(k)).
					Msg("skipping corrupt game cache entry")
				return nil
			}
			games = append(games, gi)
			return nil
		})
	})
	if err != nil {
		return games, fmt.Errorf("failed to view bolt database: %w", err)
	}
	return games, nil
}

// PutGames upserts games into the runner's bucket in one transaction.
func (c *GameCache) PutGames(runner string, games []database.GameInfo) error {
	if runner == "" {
		return errNoRunner
	}
	err := c.bdb.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(runner))
		if err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", runner, err)
		}
		for i := range games {
			gi := games[i]
			gi.Runner = runner
			data, err := json.Marshal(gi)
			if err != nil {
				return fmt.Errorf("failed to marshal game %s: %w", gi.AppID, err)
			}
			if err := b.Put([]byte(gi.AppID), data); err != nil {
				return fmt.Errorf("failed to put game %s: %w", gi.AppID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update bolt database: %w", err)
	}
	return nil
}

func (c *GameCache) DeleteGame(runner, appID string) error {
	err := c.bdb.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runner))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(appID))
	})
	if err != nil {
		return fmt.Errorf("failed to update bolt database: %w", err)
	}
	return nil
}
