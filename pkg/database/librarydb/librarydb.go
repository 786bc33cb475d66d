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

// Package librarydb is the sqlite store for the install queue, its finished
// history, installed games and the recently played list.
package librarydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/gamedock/gamedock-core/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNullSQL = errors.New("LibraryDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

type LibraryDB struct {
	sql     *sql.DB
	ctx     context.Context
	dataDir string
}

var _ database.LibraryDBI = (*LibraryDB)(nil)

func OpenLibraryDB(ctx context.Context, dataDir string) (*LibraryDB, error) {
	db := &LibraryDB{sql: nil, ctx: ctx, dataDir: dataDir}
	err := db.Open()
	return db, err
}

func (db *LibraryDB) Open() error {
	dbPath := db.GetDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for database: %w", err)
	}
	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance
	return db.Allocate()
}

func (db *LibraryDB) GetDBPath() string {
	return filepath.Join(db.dataDir, config.LibraryDbFile)
}

func (db *LibraryDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *LibraryDB) Truncate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlTruncate(db.ctx, db.sql)
}

// Allocate brings the schema up to date. Migrations are idempotent so it is
// run on every open.
func (db *LibraryDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.ctx, db.sql)
}

func (db *LibraryDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.ctx, db.sql)
}

func (db *LibraryDB) Vacuum() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(db.ctx, db.sql)
}

func (db *LibraryDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting allows injection of a sql.DB instance for testing purposes.
// This method should only be used in tests to set up in-memory databases.
func (db *LibraryDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB) error {
	db.sql = sqlDB
	db.ctx = ctx
	return db.Allocate()
}

func (db *LibraryDB) LoadQueue() ([]database.InstallRequest, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlLoadQueue(db.ctx, db.sql)
}

func (db *LibraryDB) UpsertQueueItem(req *database.InstallRequest) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlUpsertQueueItem(db.ctx, db.sql, req)
}

func (db *LibraryDB) RemoveQueueItem(appID string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlRemoveQueueItem(db.ctx, db.sql, appID)
}

func (db *LibraryDB) AddFinished(rec *database.FinishedRecord, limit int) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddFinished(db.ctx, db.sql, rec, limit)
}

func (db *LibraryDB) GetFinished() ([]database.FinishedRecord, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetFinished(db.ctx, db.sql)
}

func (db *LibraryDB) ClearFinished() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlClearFinished(db.ctx, db.sql)
}

func (db *LibraryDB) GetInstalled(runner, appID string) (database.InstalledInfo, error) {
	if db.sql == nil {
		return database.InstalledInfo{}, ErrNullSQL
	}
	return sqlGetInstalled(db.ctx, db.sql, runner, appID)
}

func (db *LibraryDB) ListInstalled(runner string) ([]database.InstalledInfo, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListInstalled(db.ctx, db.sql, runner)
}

func (db *LibraryDB) PutInstalled(info *database.InstalledInfo) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlPutInstalled(db.ctx, db.sql, info)
}

func (db *LibraryDB) DeleteInstalled(runner, appID string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlDeleteInstalled(db.ctx, db.sql, runner, appID)
}

func (db *LibraryDB) AddRecent(r *database.RecentGame, limit int) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddRecent(db.ctx, db.sql, r, limit)
}

func (db *LibraryDB) GetRecent(limit int) ([]database.RecentGame, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetRecent(db.ctx, db.sql, limit)
}

func (db *LibraryDB) RemoveRecent(appID string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlRemoveRecent(db.ctx, db.sql, appID)
}
