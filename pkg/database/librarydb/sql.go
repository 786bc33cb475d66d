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

package librarydb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/rs/zerolog/log"
)

// Queries go here to keep the interface clean

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(ctx context.Context, db *sql.DB) error {
	if err := database.MigrateUp(ctx, db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run library database migrations: %w", err)
	}
	return nil
}

//goland:noinspection SqlWithoutWhere
func sqlTruncate(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	delete from Queue;
	delete from Finished;
	delete from Installed;
	delete from Recents;
	vacuum;
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	if err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `vacuum;`)
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func closeStmt(stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sql statement")
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close rows")
	}
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func sqlLoadQueue(ctx context.Context, db *sql.DB) ([]database.InstallRequest, error) {
	rows, err := db.QueryContext(ctx, `
		select AppID, Runner, Type, Params, AddedAt
		from Queue
		order by Position asc;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer closeRows(rows)

	list := make([]database.InstallRequest, 0)
	var corrupt []string
	for rows.Next() {
		var req database.InstallRequest
		var params []byte
		var addedAt int64
		if err := rows.Scan(&req.AppID, &req.Runner, &req.Type, &params, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		if err := json.Unmarshal(params, &req.Params); err != nil || !req.Type.Valid() {
			log.Error().Err(err).Str("app_id", req.AppID).Str("type", string(req.Type)).
				Msg("dropping corrupt queue element")
			corrupt = append(corrupt, req.AppID)
			continue
		}
		req.AddedAt = fromUnixMilli(addedAt)
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue rows: %w", err)
	}

	for _, appID := range corrupt {
		if err := sqlRemoveQueueItem(ctx, db, appID); err != nil {
			log.Warn().Err(err).Str("app_id", appID).Msg("failed to delete corrupt queue element")
		}
	}

	return list, nil
}

// sqlUpsertQueueItem inserts at the tail. An existing row for the same app
// keeps its position and AddedAt and takes the new runner, type and params.
// Any finished record for the app is removed in the same transaction.
func sqlUpsertQueueItem(ctx context.Context, db *sql.DB, req *database.InstallRequest) error {
	params, err := json.Marshal(req.Params)
	if err != nil {
		return fmt.Errorf("failed to encode queue params: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		insert into Queue(AppID, Position, Runner, Type, Params, AddedAt)
		values (?, coalesce((select max(Position) from Queue), 0) + 1, ?, ?, ?, ?)
		on conflict(AppID) do update set
			Runner = excluded.Runner,
			Type = excluded.Type,
			Params = excluded.Params;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare queue upsert statement: %w", err)
	}
	defer closeStmt(stmt)

	_, err = stmt.ExecContext(ctx, req.AppID, req.Runner, string(req.Type), params, unixMilli(req.AddedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert queue element: %w", err)
	}

	_, err = tx.ExecContext(ctx, `delete from Finished where AppID = ?;`, req.AppID)
	if err != nil {
		return fmt.Errorf("failed to delete finished record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit queue element: %w", err)
	}
	return nil
}

func sqlRemoveQueueItem(ctx context.Context, db *sql.DB, appID string) error {
	stmt, err := db.PrepareContext(ctx, `delete from Queue where AppID = ?;`)
	if err != nil {
		return fmt.Errorf("failed to prepare queue delete statement: %w", err)
	}
	defer closeStmt(stmt)

	if _, err := stmt.ExecContext(ctx, appID); err != nil {
		return fmt.Errorf("failed to delete queue element: %w", err)
	}
	return nil
}

func sqlAddFinished(ctx context.Context, db *sql.DB, rec *database.FinishedRecord, limit int) error {
	params, err := json.Marshal(rec.Request.Params)
	if err != nil {
		return fmt.Errorf("failed to encode finished params: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	_, err = tx.ExecContext(ctx, `
		insert or replace into Finished(
			AppID, Runner, Type, Params, Status, AddedAt, FinishedAt
		) values (?, ?, ?, ?, ?, ?, ?);
	`,
		rec.Request.AppID,
		rec.Request.Runner,
		string(rec.Request.Type),
		params,
		rec.Status,
		unixMilli(rec.Request.AddedAt),
		unixMilli(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert finished record: %w", err)
	}

	if limit > 0 {
		_, err = tx.ExecContext(ctx, `
			delete from Finished where AppID not in (
				select AppID from Finished
				order by FinishedAt desc, rowid desc
				limit ?
			);
		`, limit)
		if err != nil {
			return fmt.Errorf("failed to trim finished records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit finished record: %w", err)
	}
	return nil
}

func sqlGetFinished(ctx context.Context, db *sql.DB) ([]database.FinishedRecord, error) {
	rows, err := db.QueryContext(ctx, `
		select AppID, Runner, Type, Params, Status, AddedAt, FinishedAt
		from Finished
		order by FinishedAt asc, rowid asc;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished records: %w", err)
	}
	defer closeRows(rows)

	list := make([]database.FinishedRecord, 0)
	for rows.Next() {
		var rec database.FinishedRecord
		var params []byte
		var addedAt, finishedAt int64
		err := rows.Scan(
			&rec.Request.AppID,
			&rec.Request.Runner,
			&rec.Request.Type,
			&params,
			&rec.Status,
			&addedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finished row: %w", err)
		}
		if err := json.Unmarshal(params, &rec.Request.Params); err != nil {
			log.Warn().Err(err).Str("app_id", rec.Request.AppID).Msg("finished record has corrupt params")
		}
		rec.Request.AddedAt = fromUnixMilli(addedAt)
		rec.FinishedAt = fromUnixMilli(finishedAt)
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate finished rows: %w", err)
	}
	return list, nil
}

//goland:noinspection SqlWithoutWhere
func sqlClearFinished(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `delete from Finished;`); err != nil {
		return fmt.Errorf("failed to clear finished records: %w", err)
	}
	return nil
}

const installedColumns = `Runner, AppID, Platform, Executable, InstallPath,
	InstallSize, Version, BuildID, IsDLC, InstalledAt`

type scanner interface {
	Scan(dest ...any) error
}

func scanInstalled(s scanner) (database.InstalledInfo, error) {
	var info database.InstalledInfo
	var installedAt int64
	err := s.Scan(
		&info.Runner,
		&info.AppID,
		&info.Platform,
		&info.Executable,
		&info.InstallPath,
		&info.InstallSize,
		&info.Version,
		&info.BuildID,
		&info.IsDLC,
		&installedAt,
	)
	if err != nil {
		return info, err //nolint:wrapcheck // wrapped by callers
	}
	info.InstalledAt = fromUnixMilli(installedAt)
	return info, nil
}

func sqlGetInstalled(ctx context.Context, db *sql.DB, runner, appID string) (database.InstalledInfo, error) {
	stmt, err := db.PrepareContext(ctx,
		`select `+installedColumns+` from Installed where Runner = ? and AppID = ? limit 1;`)
	if err != nil {
		return database.InstalledInfo{}, fmt.Errorf("failed to prepare installed select statement: %w", err)
	}
	defer closeStmt(stmt)

	info, err := scanInstalled(stmt.QueryRowContext(ctx, runner, appID))
	if errors.Is(err, sql.ErrNoRows) {
		return database.InstalledInfo{}, database.ErrNotFound
	} else if err != nil {
		return database.InstalledInfo{}, fmt.Errorf("failed to scan installed row: %w", err)
	}
	return info, nil
}

func sqlListInstalled(ctx context.Context, db *sql.DB, runner string) ([]database.InstalledInfo, error) {
	q := `select ` + installedColumns + ` from Installed`
	var args []any
	if runner != "" {
		q += ` where Runner = ?`
		args = append(args, runner)
	}
	q += ` order by Runner, AppID;`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query installed games: %w", err)
	}
	defer closeRows(rows)

	list := make([]database.InstalledInfo, 0)
	for rows.Next() {
		info, err := scanInstalled(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installed row: %w", err)
		}
		list = append(list, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installed rows: %w", err)
	}
	return list, nil
}

func sqlPutInstalled(ctx context.Context, db *sql.DB, info *database.InstalledInfo) error {
	stmt, err := db.PrepareContext(ctx, `
		insert or replace into Installed(`+installedColumns+`)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare installed insert statement: %w", err)
	}
	defer closeStmt(stmt)

	_, err = stmt.ExecContext(ctx,
		info.Runner,
		info.AppID,
		info.Platform,
		info.Executable,
		info.InstallPath,
		info.InstallSize,
		info.Version,
		info.BuildID,
		info.IsDLC,
		unixMilli(info.InstalledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert installed record: %w", err)
	}
	return nil
}

func sqlDeleteInstalled(ctx context.Context, db *sql.DB, runner, appID string) error {
	stmt, err := db.PrepareContext(ctx, `delete from Installed where Runner = ? and AppID = ?;`)
	if err != nil {
		return fmt.Errorf("failed to prepare installed delete statement: %w", err)
	}
	defer closeStmt(stmt)

	if _, err := stmt.ExecContext(ctx, runner, appID); err != nil {
		return fmt.Errorf("failed to delete installed record: %w", err)
	}
	return nil
}

func sqlAddRecent(ctx context.Context, db *sql.DB, r *database.RecentGame, limit int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	_, err = tx.ExecContext(ctx, `
		insert or replace into Recents(AppID, Runner, Title, PlayedAt)
		values (?, ?, ?, ?);
	`, r.AppID, r.Runner, r.Title, unixMilli(r.PlayedAt))
	if err != nil {
		return fmt.Errorf("failed to insert recent game: %w", err)
	}

	if limit > 0 {
		_, err = tx.ExecContext(ctx, `
			delete from Recents where AppID not in (
				select AppID from Recents
				order by PlayedAt desc, rowid desc
				limit ?
			);
		`, limit)
		if err != nil {
			return fmt.Errorf("failed to trim recent games: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recent game: %w", err)
	}
	return nil
}

func sqlGetRecent(ctx context.Context, db *sql.DB, limit int) ([]database.RecentGame, error) {
	q := `select AppID, Runner, Title, PlayedAt from Recents order by PlayedAt desc, rowid desc`
	var args []any
	if limit > 0 {
		q += ` limit ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q+";", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent games: %w", err)
	}
	defer closeRows(rows)

	list := make([]database.RecentGame, 0)
	for rows.Next() {
		var r database.RecentGame
		var playedAt int64
		if err := rows.Scan(&r.AppID, &r.Runner, &r.Title, &playedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent row: %w", err)
		}
		r.PlayedAt = fromUnixMilli(playedAt)
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent rows: %w", err)
	}
	return list, nil
}

func sqlRemoveRecent(ctx context.Context, db *sql.DB, appID string) error {
	stmt, err := db.PrepareContext(ctx, `delete from Recents where AppID = ?;`)
	if err != nil {
		return fmt.Errorf("failed to prepare recent delete statement: %w", err)
	}
	defer closeStmt(stmt)

	if _, err := stmt.ExecContext(ctx, appID); err != nil {
		return fmt.Errorf("failed to delete recent game: %w", err)
	}
	return nil
}
