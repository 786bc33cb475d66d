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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// RPCResponse is a decoded JSON-RPC response seen by WSClient.
type RPCResponse struct {
	Error  *models.ErrorObject `json:"error,omitempty"`
	ID     json.RawMessage     `json:"id"`
	Result json.RawMessage     `json:"result,omitempty"`
}

// RPCNotification is a server push seen by WSClient.
type RPCNotification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// WSClient is a JSON-RPC websocket client for API tests. Responses are
// matched to calls by id and notifications are queued in arrival order.
type WSClient struct {
	conn          *websocket.Conn
	t             *testing.T
	pending       map[string]chan RPCResponse
	notifications chan RPCNotification
	done          chan struct{}
	nextID        int
	closeOnce     sync.Once
	writeMu       sync.Mutex
	mu            sync.Mutex
}

// DialWS connects to the websocket endpoint at path on an httptest server
// URL. The connection is closed with the test.
func DialWS(t *testing.T, serverURL, path string, header http.Header) *WSClient {
	t.Helper()

	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = path

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)

	c := &WSClient{
		conn:          conn,
		t:             t,
		pending:       make(map[string]chan RPCResponse),
		notifications: make(chan RPCNotification, 256),
		done:          make(chan struct{}),
	}
	go c.readLoop()
	t.Cleanup(c.Close)
	return c
}

func (c *WSClient) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var probe struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if json.Unmarshal(data, &probe) != nil {
			continue
		}
		if probe.Method != "" {
			var n RPCNotification
			if json.Unmarshal(data, &n) == nil {
				c.notifications <- n
			}
			continue
		}
		var resp RPCResponse
		if json.Unmarshal(data, &resp) != nil {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[string(resp.ID)]
		delete(c.pending, string(resp.ID))
		c.mu.Unlock()
		if ok {
			ch <- resp
		} else {
			c.mu.Lock()
			ch, ok = c.pending["null"]
			delete(c.pending, "null")
			c.mu.Unlock()
			if ok {
				ch <- resp
			}
		}
	}
}

// Send writes a raw text frame.
func (c *WSClient) Send(data []byte) {
	c.t.Helper()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, data))
}

// Start sends a request and returns a channel for its response.
func (c *WSClient) Start(method string, params any) <-chan RPCResponse {
	c.t.Helper()

	c.mu.Lock()
	c.nextID++
	id := strconv.Itoa(c.nextID)
	ch := make(chan RPCResponse, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(id), "method": method}
	if params != nil {
		req["params"] = params
	}
	data, err := json.Marshal(req)
	require.NoError(c.t, err)
	c.Send(data)
	return ch
}

// ExpectErrorFor registers interest in the next response carrying a null id,
// as sent for unparsable requests.
func (c *WSClient) ExpectErrorFor() <-chan RPCResponse {
	ch := make(chan RPCResponse, 1)
	c.mu.Lock()
	c.pending["null"] = ch
	c.mu.Unlock()
	return ch
}

// Call sends a request and waits for the response.
func (c *WSClient) Call(method string, params any) RPCResponse {
	c.t.Helper()
	return c.Wait(c.Start(method, params))
}

func (c *WSClient) Wait(ch <-chan RPCResponse) RPCResponse {
	c.t.Helper()
	select {
	case resp := <-ch:
		return resp
	case <-time.After(5 * time.Second):
		c.t.Fatal("timed out waiting for response")
		return RPCResponse{}
	}
}

// CallResult calls method and decodes a successful result into out.
func (c *WSClient) CallResult(method string, params, out any) {
	c.t.Helper()
	resp := c.Call(method, params)
	require.Nil(c.t, resp.Error, "unexpected error response: %+v", resp.Error)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(resp.Result, out))
	}
}

// WaitNotification returns the next notification with the given method,
// skipping others.
func (c *WSClient) WaitNotification(method string, timeout time.Duration) (RPCNotification, error) {
	deadline := time.After(timeout)
	for {
		select {
		case n := <-c.notifications:
			if n.Method == method {
				return n, nil
			}
		case <-deadline:
			return RPCNotification{}, fmt.Errorf("no %s notification within %s", method, timeout)
		case <-c.done:
			return RPCNotification{}, errors.New("connection closed")
		}
	}
}

func (c *WSClient) Close() {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
	<-c.done
}
