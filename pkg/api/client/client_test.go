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

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService answers each request with reply and can push notifications
// before answering.
func fakeService(t *testing.T, reply func(req models.RequestObject) any, push ...any) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = c.Close() }()
		for _, n := range push {
			if err := c.WriteJSON(n); err != nil {
				return
			}
		}
		for {
			var req models.RequestObject
			if err := c.ReadJSON(&req); err != nil {
				return
			}
			if reply == nil {
				continue
			}
			if err := c.WriteJSON(reply(req)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + models.APIPath
}

func TestCall_Result(t *testing.T) {
	t.Parallel()

	gotCh := make(chan models.RequestObject, 1)
	url := fakeService(t, func(req models.RequestObject) any {
		gotCh <- req
		return models.ResponseObject{
			JSONRPC: models.JSONRPCVersion,
			ID:      *req.ID,
			Result:  map[string]string{"version": "1.2.3"},
		}
	})

	res, err := Call(context.Background(), url, time.Second, models.MethodVersion, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3"}`, res)
	got := <-gotCh
	assert.Equal(t, models.MethodVersion, got.Method)
	assert.Nil(t, got.Params)
}

func TestCall_IgnoresOtherIDs(t *testing.T) {
	t.Parallel()

	url := fakeService(t, func(req models.RequestObject) any {
		return models.ResponseObject{
			JSONRPC: models.JSONRPCVersion,
			ID:      *req.ID,
			Result:  "mine",
		}
	}, models.ResponseObject{
		JSONRPC: models.JSONRPCVersion,
		ID:      models.StringID("someone-else"),
		Result:  "theirs",
	})

	res, err := Call(context.Background(), url, time.Second, models.MethodQueue, `{}`)
	require.NoError(t, err)
	assert.JSONEq(t, `"mine"`, res)
}

func TestCall_Error(t *testing.T) {
	t.Parallel()

	url := fakeService(t, func(req models.RequestObject) any {
		return models.ResponseErrorObject{
			JSONRPC: models.JSONRPCVersion,
			ID:      *req.ID,
			Error:   &models.ErrorObject{Code: -32601, Message: "method not found"},
		}
	})

	_, err := Call(context.Background(), url, time.Second, "nope", "")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Equal(t, "method not found", rpcErr.Message)
}

func TestCall_InvalidParams(t *testing.T) {
	t.Parallel()

	_, err := Call(context.Background(), "ws://127.0.0.1:1/api", time.Second, "queue.add", "{not json")
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestCall_Timeout(t *testing.T) {
	t.Parallel()

	url := fakeService(t, nil)
	_, err := Call(context.Background(), url, 50*time.Millisecond, models.MethodVersion, "")
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestCall_Cancelled(t *testing.T) {
	t.Parallel()

	url := fakeService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := Call(ctx, url, 5*time.Second, models.MethodVersion, "")
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestWait_Notification(t *testing.T) {
	t.Parallel()

	params, err := json.Marshal(map[string]string{"appId": "Hades"})
	require.NoError(t, err)
	url := fakeService(t, nil,
		models.NotificationObject{JSONRPC: models.JSONRPCVersion, Method: models.NotificationQueueChanged},
		models.NotificationObject{
			JSONRPC: models.JSONRPCVersion,
			Method:  models.NotificationStatusChanged,
			Params:  params,
		},
	)

	res, err := Wait(context.Background(), url, time.Second, models.NotificationStatusChanged)
	require.NoError(t, err)
	assert.JSONEq(t, `{"appId":"Hades"}`, res)
}

func TestWait_Timeout(t *testing.T) {
	t.Parallel()

	url := fakeService(t, nil)
	_, err := Wait(context.Background(), url, 50*time.Millisecond, models.NotificationStatusChanged)
	require.ErrorIs(t, err, ErrRequestTimeout)
}
