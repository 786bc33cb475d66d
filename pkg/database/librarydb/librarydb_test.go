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
	"testing"
	"time"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *LibraryDB {
	t.Helper()
	db, err := OpenLibraryDB(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func request(appID, path string) *database.InstallRequest {
	return &database.InstallRequest{
		AppID:   appID,
		Runner:  "legendary",
		Type:    database.InstallTypeInstall,
		AddedAt: time.UnixMilli(1000),
		Params:  database.InstallParams{Path: path, Platform: "Windows"},
	}
}

func TestQueue_FIFOAndUpsertKeepsPosition(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	require.NoError(t, db.UpsertQueueItem(request("A", "/x")))
	require.NoError(t, db.UpsertQueueItem(request("B", "/x")))
	require.NoError(t, db.UpsertQueueItem(request("C", "/x")))
	require.NoError(t, db.UpsertQueueItem(request("A", "/y")))

	list, err := db.LoadQueue()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{list[0].AppID, list[1].AppID, list[2].AppID})
	assert.Equal(t, "/y", list[0].Params.Path)

	require.NoError(t, db.RemoveQueueItem("A"))
	require.NoError(t, db.UpsertQueueItem(request("A", "/z")))
	list, err = db.LoadQueue()
	require.NoError(t, err)
	assert.Equal(t, "A", list[2].AppID)
}

func TestQueue_CorruptRowIsDeleted(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	require.NoError(t, db.UpsertQueueItem(request("ok", "/x")))
	_, err := db.UnsafeGetSQLDb().Exec(
		`insert into Queue(AppID, Position, Runner, Type, Params, AddedAt) values ('bad', 99, 'gog', 'install', '{', 0);`)
	require.NoError(t, err)

	list, err := db.LoadQueue()
	require.NoError(t, err)
	require.Len(t, list, 1)

	var n int
	require.NoError(t, db.UnsafeGetSQLDb().QueryRow(`select count(*) from Queue;`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestQueue_SurvivesReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	db, err := OpenLibraryDB(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, db.UpsertQueueItem(request("A", "/x")))
	require.NoError(t, db.Close())

	db, err = OpenLibraryDB(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	list, err := db.LoadQueue()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].AppID)
}

func TestFinished_DedupAndLimit(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	for i, id := range []string{"a", "b", "c", "a"} {
		rec := &database.FinishedRecord{
			Status:     "done",
			FinishedAt: time.UnixMilli(int64(100 + i)),
			Request:    *request(id, "/p"),
		}
		require.NoError(t, db.AddFinished(rec, 2))
	}

	list, err := db.GetFinished()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Request.AppID)
	assert.Equal(t, "a", list[1].Request.AppID)
	assert.Equal(t, "/p", list[1].Request.Params.Path)

	require.NoError(t, db.ClearFinished())
	list, err = db.GetFinished()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInstalled_RoundTrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	info := &database.InstalledInfo{
		AppID:       "1207658924",
		Runner:      "gog",
		Platform:    "linux",
		Executable:  "start.sh",
		InstallPath: "/games/x",
		InstallSize: 1 << 30,
		Version:     "1.2",
		IsDLC:       true,
		InstalledAt: time.UnixMilli(5000),
	}
	require.NoError(t, db.PutInstalled(info))

	got, err := db.GetInstalled("gog", "1207658924")
	require.NoError(t, err)
	assert.Equal(t, *info, got)

	_, err = db.GetInstalled("legendary", "1207658924")
	require.ErrorIs(t, err, database.ErrNotFound)

	all, err := db.ListInstalled("")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, db.DeleteInstalled("gog", "1207658924"))
	_, err = db.GetInstalled("gog", "1207658924")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestRecents_OrderAndTrim(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.AddRecent(&database.RecentGame{
			AppID: id, Runner: "nile", Title: id, PlayedAt: time.UnixMilli(int64(10 * (i + 1))),
		}, 2))
	}

	list, err := db.GetRecent(0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].AppID)
	assert.Equal(t, "b", list[1].AppID)

	require.NoError(t, db.RemoveRecent("c"))
	list, err = db.GetRecent(5)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSchemaVersion(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	v, err := database.SchemaVersion(context.Background(), db.UnsafeGetSQLDb())
	require.NoError(t, err)
	assert.Equal(t, int64(20260301120000), v)
}

func TestNullSQL(t *testing.T) {
	t.Parallel()
	db := &LibraryDB{}
	_, err := db.LoadQueue()
	require.ErrorIs(t, err, ErrNullSQL)
	assert.NoError(t, db.Close())
}
