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

package runners

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gamedock/gamedock-core/pkg/frontend"
	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/service/cancellation"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OutageFunc reports whether the store's remote service is down.
type OutageFunc func(ctx context.Context) bool

// OpSpec describes one long-running verb.
type OpSpec struct {
	// Body does the work. It must return promptly once ctx is cancelled.
	Body func(ctx context.Context) error
	// Cleanup removes partial artifacts after an error or an abort.
	Cleanup func()
	AppID   string
	// TokenID defaults to AppID.
	TokenID string
	// Verb names the operation in logs and dialogs, e.g. "install".
	Verb  string
	Title string
	Phase status.Phase
	// Online runs the connectivity and outage checks first.
	Online bool
}

// Lifecycle is the state machine shared by every runner verb.
type Lifecycle struct {
	Env    *Env
	Outage OutageFunc
	Runner string
}

// NewLifecycle fills in a private cancellation registry when env has none.
func NewLifecycle(env *Env, runner string, outage OutageFunc) *Lifecycle {
	if env.Cancel == nil {
		env.Cancel = cancellation.New()
	}
	return &Lifecycle{Env: env, Runner: runner, Outage: outage}
}

func (l *Lifecycle) cancelRegistry() *cancellation.Registry {
	return l.Env.Cancel
}

func (l *Lifecycle) emit(appID string, phase status.Phase, errMsg string) {
	l.Env.publish(status.GameStatus{
		AppID:  appID,
		Runner: l.Runner,
		Phase:  phase,
		Error:  errMsg,
	})
}

// Run executes spec and always finishes by emitting a done status for the
// app, whatever the outcome.
func (l *Lifecycle) Run(ctx context.Context, spec OpSpec) (res Result) {
	logger := log.With().Str("runner", l.Runner).Str("app_id", spec.AppID).Str("verb", spec.Verb).Logger()

	defer l.emit(spec.AppID, status.PhaseDone, "")

	if spec.Online {
		if !l.Env.Online(ctx) {
			return l.fail(spec, ErrOffline)
		}
		if l.Outage != nil && l.Outage(ctx) {
			return l.fail(spec, ErrServiceOutage)
		}
	}

	l.emit(spec.AppID, spec.Phase, "")

	tokenID := spec.TokenID
	if tokenID == "" {
		tokenID = spec.AppID
	}
	tok := l.cancelRegistry().Create(tokenID)
	defer tok.Release()

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(tok.Context(), cancel)
	defer stop()

	logger.Info().Msg("operation started")
	err := runBody(opCtx, spec.Body)

	switch {
	case err == nil:
		logger.Info().Msg("operation finished")
		return Done()
	case tok.Aborted() || opCtx.Err() != nil:
		logger.Info().Err(err).Msg("operation aborted")
		l.cleanup(spec)
		return Aborted()
	default:
		logger.Error().Err(err).Msg("operation failed")
		l.cleanup(spec)
		return l.fail(spec, err)
	}
}

func runBody(ctx context.Context, body func(context.Context) error) (err error) {
	if body == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered panic in runner")
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return body(ctx)
}

func (*Lifecycle) cleanup(spec OpSpec) {
	if spec.Cleanup == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("app_id", spec.AppID).Msg("recovered panic in cleanup")
		}
	}()
	spec.Cleanup()
}

func (l *Lifecycle) fail(spec OpSpec, err error) Result {
	l.emit(spec.AppID, status.PhaseError, err.Error())
	name := spec.Title
	if name == "" {
		name = spec.AppID
	}
	frontend.ShowError(l.Env.Frontend,
		cases.Title(language.English).String(spec.Verb)+" failed",
		fmt.Sprintf("%s: %s", name, err.Error()))
	return Failed(err)
}

// Stream runs c with the shared executor. Every line goes to watch (when not
// nil) and then to tp (when not nil). A failure carries the process' last
// stderr lines.
func (l *Lifecycle) Stream(
	ctx context.Context,
	c command.Cmd,
	tp *ThrottledProgress,
	watch func(line string),
) (command.Result, error) {
	if l.Env.Exec == nil {
		return command.Result{ExitCode: -1}, errors.New("no command executor configured")
	}
	log.Debug().Str("cmd", c.Name).Strs("args", c.Args).Msg("running store tool")

	res, err := l.Env.Exec.Stream(ctx, c, func(s command.Stream, line string) {
		if watch != nil {
			watch(line)
		}
		if tp != nil {
			tp.Line(s, line)
		}
	})
	if tp != nil {
		tp.Flush()
	}
	if err != nil {
		if ctx.Err() != nil || len(res.Tail) == 0 {
			return res, err
		}
		return res, fmt.Errorf("%w: %s", err, strings.Join(res.Tail, "\n"))
	}
	return res, nil
}

// Output runs c and returns everything it wrote to stdout.
func (l *Lifecycle) Output(ctx context.Context, c command.Cmd) ([]byte, error) {
	var out bytes.Buffer
	watch := func(s command.Stream, line string) {
		if s == command.Stdout {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	if l.Env.Exec == nil {
		return nil, errors.New("no command executor configured")
	}
	res, err := l.Env.Exec.Stream(ctx, c, watch)
	if err != nil {
		if len(res.Tail) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.Join(res.Tail, "\n"))
		}
		return nil, err
	}
	return out.Bytes(), nil
}
