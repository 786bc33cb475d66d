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

package helpers

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/database/gamecache"
	"github.com/gamedock/gamedock-core/pkg/database/librarydb"
	_ "github.com/mattn/go-sqlite3"
)

func NewInMemoryLibraryDB(t *testing.T) (db *librarydb.LibraryDB, cleanup func()) {
	t.Helper()

	// Temp file instead of :memory: so it persists across connection close/reopen
	dbPath := filepath.Join(t.TempDir(), "library_test.db")
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	db = &librarydb.LibraryDB{}
	err = db.SetSQLForTesting(context.Background(), sqlDB)
	if err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			t.Errorf("Failed to close SQL database after setup error: %v", closeErr)
		}
		t.Fatalf("Failed to set up LibraryDB for testing: %v", err)
	}

	cleanup = func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close LibraryDB: %v", err)
		}
	}

	return db, cleanup
}

func NewTestGameCache(t *testing.T) (cache *gamecache.GameCache, cleanup func()) {
	t.Helper()

	cache, err := gamecache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open game cache: %v", err)
	}

	cleanup = func() {
		if err := cache.Close(); err != nil {
			t.Errorf("Failed to close game cache: %v", err)
		}
	}

	return cache, cleanup
}

// NewTestDatabase creates both stores for comprehensive testing.
// Returns a Database wrapper and cleanup function that should be deferred.
func NewTestDatabase(t *testing.T) (db *database.Database, cleanup func()) {
	t.Helper()

	libraryDB, libraryCleanup := NewInMemoryLibraryDB(t)
	cache, cacheCleanup := NewTestGameCache(t)

	db = &database.Database{
		LibraryDB: libraryDB,
		GameCache: cache,
	}

	cleanup = func() {
		cacheCleanup()
		libraryCleanup()
	}

	return db, cleanup
}
