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

// Package downloads runs the persisted install/update queue. A single worker
// drains it in FIFO order so at most one store operation is active at a time.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/service/cancellation"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// FinishedLimit is how many finished records are kept by default.
const FinishedLimit = 50

var (
	ErrInvalidRequest = errors.New("invalid queue request")
	ErrStopped        = errors.New("queue is stopped")
	ErrRunning        = errors.New("element is already running")
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Info is a snapshot of the queue.
type Info struct {
	Current  *database.InstallRequest  `json:"current,omitempty"`
	Pending  []database.InstallRequest `json:"pending"`
	Finished []database.FinishedRecord `json:"finished"`
	State    string                    `json:"state"`
}

type Option func(*Manager)

func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithNotifier sets a callback that receives a snapshot after every queue
// mutation.
func WithNotifier(fn func(Info)) Option {
	return func(m *Manager) {
		m.notify = fn
	}
}

// WithFinishedLimit caps the finished history. Zero or less keeps
// everything.
func WithFinishedLimit(n int) Option {
	return func(m *Manager) {
		m.finishedLimit = n
	}
}

type Manager struct {
	ctx           context.Context
	store         database.QueueStore
	pub           status.Publisher
	clock         clockwork.Clock
	table         *runners.Table
	cancel        *cancellation.Registry
	notify        func(Info)
	current       *database.InstallRequest
	stop          context.CancelFunc
	wg            sync.WaitGroup
	finishedLimit int
	state         State
	mu            syncutil.Mutex
	stopped       bool
}

func New(
	store database.QueueStore,
	table *runners.Table,
	reg *cancellation.Registry,
	pub status.Publisher,
	opts ...Option,
) *Manager {
	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		ctx:           ctx,
		stop:          stop,
		store:         store,
		table:         table,
		cancel:        reg,
		pub:           pub,
		clock:         clockwork.NewRealClock(),
		finishedLimit: FinishedLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cancel == nil {
		m.cancel = cancellation.New()
	}
	if m.pub == nil {
		m.pub = status.Nop
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) publish(req *database.InstallRequest, phase status.Phase, errMsg string) {
	m.pub.Publish(status.GameStatus{
		Time:   m.clock.Now(),
		AppID:  req.AppID,
		Runner: req.Runner,
		Phase:  phase,
		Error:  errMsg,
	})
}

func validate(req *database.InstallRequest) error {
	switch {
	case req.AppID == "":
		return fmt.Errorf("%w: missing app id", ErrInvalidRequest)
	case req.Runner == "":
		return fmt.Errorf("%w: missing runner", ErrInvalidRequest)
	case !req.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, req.Type)
	}
	return nil
}

// Enqueue adds req to the queue or, when its app id is already queued,
// replaces the queued parameters in place. The worker is started if idle.
// An app id that is currently running is refused with ErrRunning.
func (m *Manager) Enqueue(req database.InstallRequest) error {
	if req.Type == "" {
		req.Type = database.InstallTypeInstall
	}
	if err := validate(&req); err != nil {
		return err
	}
	if req.AddedAt.IsZero() {
		req.AddedAt = m.clock.Now()
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	if m.current != nil && m.current.AppID == req.AppID {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunning, req.AppID)
	}
	if err := m.store.UpsertQueueItem(&req); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to persist queue: %w", err)
	}
	log.Info().Str("app_id", req.AppID).Str("runner", req.Runner).
		Str("type", string(req.Type)).Msg("queued")
	if m.state == Running {
		// Under mu, so it is never published after the element's done.
		m.publish(&req, status.PhaseQueued, "")
	} else {
		m.startLocked()
	}
	m.mu.Unlock()

	m.changed()
	return nil
}

// Dequeue removes a pending element, or cancels it when it is the one
// running. The worker removes a cancelled element itself.
func (m *Manager) Dequeue(appID string) error {
	m.mu.Lock()
	if m.current != nil && m.current.AppID == appID {
		m.mu.Unlock()
		log.Info().Str("app_id", appID).Msg("cancelling running queue element")
		m.cancel.RequestCancel(appID)
		return nil
	}
	pending, err := m.store.LoadQueue()
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to load queue: %w", err)
	}
	var found *database.InstallRequest
	for i := range pending {
		if pending[i].AppID == appID {
			found = &pending[i]
			break
		}
	}
	if found == nil {
		m.mu.Unlock()
		log.Debug().Str("app_id", appID).Msg("dequeue of unknown element")
		return nil
	}
	if err := m.store.RemoveQueueItem(appID); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to persist queue: %w", err)
	}
	m.mu.Unlock()

	log.Info().Str("app_id", appID).Msg("removed from queue")
	m.publish(found, status.PhaseDone, "")
	m.changed()
	return nil
}

func (m *Manager) Information() (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infoLocked()
}

func (m *Manager) infoLocked() (Info, error) {
	pending, err := m.store.LoadQueue()
	if err != nil {
		return Info{}, fmt.Errorf("failed to load queue: %w", err)
	}
	finished, err := m.store.GetFinished()
	if err != nil {
		return Info{}, fmt.Errorf("failed to load finished: %w", err)
	}
	if pending == nil {
		pending = []database.InstallRequest{}
	}
	if finished == nil {
		finished = []database.FinishedRecord{}
	}
	info := Info{Pending: pending, Finished: finished, State: m.state.String()}
	if m.current != nil {
		cur := *m.current
		info.Current = &cur
	}
	return info, nil
}

func (m *Manager) ClearFinished() error {
	m.mu.Lock()
	err := m.store.ClearFinished()
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to clear finished: %w", err)
	}
	m.changed()
	return nil
}

// Resume restarts the worker over a queue left behind by a previous run.
func (m *Manager) Resume() error {
	m.mu.Lock()
	if m.stopped || m.state == Running {
		m.mu.Unlock()
		return nil
	}
	pending, err := m.store.LoadQueue()
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to load queue: %w", err)
	}
	if len(pending) == 0 {
		m.mu.Unlock()
		return nil
	}
	log.Info().Int("pending", len(pending)).Msg("resuming install queue")
	for i := 1; i < len(pending); i++ {
		m.publish(&pending[i], status.PhaseQueued, "")
	}
	m.startLocked()
	m.mu.Unlock()

	m.changed()
	return nil
}

// Stop aborts the running element and waits for the worker to exit. The
// aborted element stays queued so Resume picks it up next start.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	m.stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue worker did not stop: %w", ctx.Err())
	}
}

func (m *Manager) changed() {
	if m.notify == nil {
		return
	}
	info, err := m.Information()
	if err != nil {
		log.Warn().Err(err).Msg("failed to snapshot queue")
		return
	}
	m.notify(info)
}

func (m *Manager) startLocked() {
	m.state = Running
	log.Info().Msg("queue worker started")
	m.wg.Add(1)
	go m.run()
}

// next marks the head element current, or moves to idle when there is
// none.
func (m *Manager) next() (database.InstallRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() == nil {
		pending, err := m.store.LoadQueue()
		if err != nil {
			log.Error().Err(err).Msg("failed to load queue, stopping worker")
		} else if len(pending) > 0 {
			req := pending[0]
			m.current = &req
			return req, true
		}
	}
	m.current = nil
	m.state = Idle
	log.Info().Msg("queue worker idle")
	return database.InstallRequest{}, false
}

// finish records the outcome of req and drops it from the queue. It
// reports false when the worker has to stop.
func (m *Manager) finish(req *database.InstallRequest, res runners.Result) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil

	if res.Status == runners.StatusAbort && m.ctx.Err() != nil {
		log.Info().Str("app_id", req.AppID).Msg("queue stopped, element kept for resume")
		m.state = Idle
		return false
	}
	if res.OK() {
		err := m.store.AddFinished(&database.FinishedRecord{
			Request:    *req,
			Status:     string(res.Status),
			FinishedAt: m.clock.Now(),
		}, m.finishedLimit)
		if err != nil {
			log.Error().Err(err).Str("app_id", req.AppID).Msg("failed to record finished element")
		}
	}
	if err := m.store.RemoveQueueItem(req.AppID); err != nil {
		log.Error().Err(err).Str("app_id", req.AppID).Msg("failed to remove queue head, stopping worker")
		m.state = Idle
		return false
	}
	return true
}

func (m *Manager) run() {
	defer m.wg.Done()
	for {
		req, ok := m.next()
		if !ok {
			m.changed()
			return
		}
		m.changed()

		res := m.process(&req)
		log.Info().Str("app_id", req.AppID).Str("status", string(res.Status)).
			Str("error", res.Error).Msg("queue element finished")

		if !m.finish(&req, res) {
			m.changed()
			return
		}
	}
}

// process runs one element. Failures outside the runner's own lifecycle
// are reported here, including panics.
func (m *Manager) process(req *database.InstallRequest) (res runners.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("app_id", req.AppID).Msgf("panic in queue element: %v", r)
			res = runners.Failed(fmt.Errorf("internal error: %v", r))
			m.publish(req, status.PhaseError, res.Error)
			m.publish(req, status.PhaseDone, "")
		}
	}()

	if err := validate(req); err != nil {
		log.Error().Err(err).Str("app_id", req.AppID).Msg("dropping corrupt queue element")
		return m.reject(req, err)
	}
	r, err := m.table.Get(req.Runner)
	if err != nil {
		log.Error().Err(err).Str("app_id", req.AppID).Msg("dropping queue element")
		return m.reject(req, err)
	}
	return runners.Execute(m.ctx, r, req)
}

func (m *Manager) reject(req *database.InstallRequest, err error) runners.Result {
	res := runners.Failed(err)
	m.publish(req, status.PhaseError, res.Error)
	m.publish(req, status.PhaseDone, "")
	return res
}
