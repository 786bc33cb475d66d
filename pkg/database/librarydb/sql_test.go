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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gamedock/gamedock-core/pkg/database"
	testsqlmock "github.com/gamedock/gamedock-core/pkg/testing/sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDisk = errors.New("disk I/O error")

func TestSqlUpsertQueueItem_Success(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	added := time.UnixMilli(1700000000000)
	req := database.InstallRequest{
		AppID:   "Fortnite",
		Runner:  "legendary",
		Type:    database.InstallTypeInstall,
		AddedAt: added,
		Params:  database.InstallParams{Path: "/games", Platform: "Windows"},
	}
	params, err := json.Marshal(req.Params)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectPrepare(`insert into Queue.*on conflict\(AppID\) do update`).
		ExpectExec().
		WithArgs(req.AppID, req.Runner, "install", params, added.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`delete from Finished where AppID = \?`).
		WithArgs(req.AppID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = sqlUpsertQueueItem(context.Background(), db, &req)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlUpsertQueueItem_PrepareError(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectPrepare(`insert into Queue`).WillReturnError(errDisk)
	mock.ExpectRollback()

	err = sqlUpsertQueueItem(context.Background(), db, &database.InstallRequest{AppID: "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "failed to prepare queue upsert statement")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlUpsertQueueItem_FinishedDeleteRollsBack(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectPrepare(`insert into Queue`).
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`delete from Finished`).WithArgs("a").WillReturnError(errDisk)
	mock.ExpectRollback()

	err = sqlUpsertQueueItem(context.Background(), db, &database.InstallRequest{AppID: "a"})
	require.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "failed to delete finished record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlLoadQueue_DropsCorruptRows(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"AppID", "Runner", "Type", "Params", "AddedAt"}).
		AddRow("good", "gog", "install", []byte(`{"path":"/g","platform":"linux","installDlcs":false}`), int64(5)).
		AddRow("badjson", "gog", "install", []byte(`{not json`), int64(6)).
		AddRow("badtype", "gog", "explode", []byte(`{}`), int64(7))
	mock.ExpectQuery(`select AppID, Runner, Type, Params, AddedAt\s+from Queue\s+order by Position`).
		WillReturnRows(rows)
	mock.ExpectPrepare(`delete from Queue where AppID`).
		ExpectExec().WithArgs("badjson").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare(`delete from Queue where AppID`).
		ExpectExec().WithArgs("badtype").WillReturnResult(sqlmock.NewResult(0, 1))

	list, err := sqlLoadQueue(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].AppID)
	assert.Equal(t, "/g", list[0].Params.Path)
	assert.Equal(t, time.UnixMilli(5), list[0].AddedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlLoadQueue_QueryError(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`from Queue`).WillReturnError(errDisk)

	_, err = sqlLoadQueue(context.Background(), db)
	require.ErrorIs(t, err, errDisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlAddFinished_TrimsToLimit(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rec := database.FinishedRecord{
		Status:     "done",
		FinishedAt: time.UnixMilli(200),
		Request: database.InstallRequest{
			AppID:   "a",
			Runner:  "nile",
			Type:    database.InstallTypeUpdate,
			AddedAt: time.UnixMilli(100),
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`insert or replace into Finished`).
		WithArgs("a", "nile", "update", sqlmock.AnyArg(), "done", int64(100), int64(200)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`delete from Finished where AppID not in`).
		WithArgs(50).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err = sqlAddFinished(context.Background(), db, &rec, 50)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlAddFinished_RollsBackOnError(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`insert or replace into Finished`).WillReturnError(errDisk)
	mock.ExpectRollback()

	err = sqlAddFinished(context.Background(), db, &database.FinishedRecord{}, 50)
	require.ErrorIs(t, err, errDisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlGetInstalled_NotFound(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectPrepare(`from Installed where Runner = \? and AppID = \?`).
		ExpectQuery().
		WithArgs("gog", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"Runner"}))

	_, err = sqlGetInstalled(context.Background(), db, "gog", "missing")
	require.ErrorIs(t, err, database.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlGetRecent_Limit(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`from Recents order by PlayedAt desc, rowid desc limit \?`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"AppID", "Runner", "Title", "PlayedAt"}).
			AddRow("b", "gog", "B", int64(20)).
			AddRow("a", "gog", "A", int64(10)))

	list, err := sqlGetRecent(context.Background(), db, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].AppID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
