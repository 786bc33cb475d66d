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

// Package methods holds one handler per JSON-RPC method. Handlers decode and
// validate their params, call into the queue, the runner table or the
// settings registry, and return a value that is sent back as the result.
package methods

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamedock/gamedock-core/pkg/api/models/requests"
	"github.com/gamedock/gamedock-core/pkg/api/validation"
	"github.com/gamedock/gamedock-core/pkg/runners"
)

var (
	ErrUnavailable = errors.New("service component not available")
	ErrBusy        = errors.New("game has an operation in progress")
)

// NoContent is returned by handlers with nothing to report.
type NoContent struct{}

func requestContext(env *requests.RequestEnv) context.Context {
	if env.Context == nil {
		return context.Background()
	}
	return env.Context
}

// decodeParams unmarshals and validates the request params, checking runner
// ids against the table.
func decodeParams[T any](env *requests.RequestEnv, dest *T) error {
	var vctx *validation.Context
	if env.Runners != nil {
		vctx = validation.NewContext(env.Runners.IDs())
	}
	if err := validation.ValidateAndUnmarshalCtx(requestContext(env), env.Params, dest, vctx); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	return nil
}

func lookupRunner(env *requests.RequestEnv, id string) (runners.Runner, error) {
	if env.Runners == nil {
		return nil, ErrUnavailable
	}
	r, err := env.Runners.Get(id)
	if err != nil {
		return nil, fmt.Errorf("runner %s: %w", id, err)
	}
	return r, nil
}

// checkIdle refuses to touch a game the queue or another request is
// currently working on.
func checkIdle(env *requests.RequestEnv, appID string) error {
	if env.Status == nil {
		return nil
	}
	st, ok := env.Status.Current(appID)
	if ok && st.Phase.Busy() {
		return fmt.Errorf("%w: %s is %s", ErrBusy, appID, st.Phase)
	}
	return nil
}
