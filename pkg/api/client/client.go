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

// Package client talks to a running service over its local websocket API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

// RPCError is an error object returned by the service.
type RPCError struct {
	Message string
	Code    int
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func localURL(cfg *config.Instance) string {
	u := url.URL{
		Scheme: "ws",
		Host:   "localhost:" + strconv.Itoa(cfg.APIPort()),
		Path:   models.APIPath,
	}
	return u.String()
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing websocket")
	}
}

// LocalClient sends a single method with params to the local running API
// service, waits for a response until timeout then disconnects.
func LocalClient(
	ctx context.Context,
	cfg *config.Instance,
	method string,
	params string,
) (string, error) {
	return Call(ctx, localURL(cfg), config.ApiRequestTimeout, method, params)
}

// Call is LocalClient against an explicit websocket URL.
func Call(
	ctx context.Context,
	wsURL string,
	timeout time.Duration,
	method string,
	params string,
) (string, error) {
	id := models.StringID(uuid.New().String())
	req := models.RequestObject{
		JSONRPC: models.JSONRPCVersion,
		ID:      &id,
		Method:  method,
	}

	switch {
	case params == "":
		req.Params = nil
	case json.Valid([]byte(params)):
		req.Params = []byte(params)
	default:
		return "", ErrInvalidParams
	}

	c, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("failed to connect to service: %w", err)
	}
	closeOnce := sync.OnceFunc(func() { closeConn(c) })
	defer closeOnce()

	done := make(chan struct{})
	var res *models.ResponseObject

	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("websocket read ended")
				return
			}

			var m models.ResponseObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != models.JSONRPCVersion {
				log.Error().Msg("invalid jsonrpc version")
				continue
			}
			if m.ID.String() != id.String() {
				continue
			}

			res = &m
			return
		}
	}()

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		closeOnce()
		<-done
		return "", ErrRequestTimeout
	case <-ctx.Done():
		closeOnce()
		<-done
		return "", ErrRequestCancelled
	}

	if res == nil {
		return "", ErrRequestTimeout
	}
	if res.Error != nil {
		return "", &RPCError{Message: res.Error.Message, Code: res.Error.Code}
	}

	b, err := json.Marshal(res.Result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// WaitNotification blocks until the local service sends a notification with
// the given method and returns its params. A zero timeout waits until ctx
// ends.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	method string,
) (string, error) {
	return Wait(ctx, localURL(cfg), timeout, method)
}

func Wait(ctx context.Context, wsURL string, timeout time.Duration, method string) (string, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("failed to connect to service: %w", err)
	}
	closeOnce := sync.OnceFunc(func() { closeConn(c) })
	defer closeOnce()

	done := make(chan struct{})
	var params json.RawMessage

	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				return
			}

			var m models.NotificationObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.Method != method {
				continue
			}
			params = m.Params
			return
		}
	}()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-done:
	case <-timeoutCh:
		closeOnce()
		<-done
		return "", ErrRequestTimeout
	case <-ctx.Done():
		closeOnce()
		<-done
		return "", ErrRequestCancelled
	}

	if params == nil {
		return "", ErrRequestTimeout
	}
	return string(params), nil
}
