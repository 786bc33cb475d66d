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

package status

import (
	"context"
	"sort"
	"time"

	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultProgressInterval = time.Second
	DefaultPhaseSendTimeout = 5 * time.Second
	sourceBuffer            = 64
)

// Broadcaster publishes status events to all subscribers from a single
// dispatch goroutine, so events for one app id arrive in the order they were
// published. Progress samples are throttled per app and dropped for
// subscribers whose channel is full. Phase changes are never throttled and
// wait for slow subscribers, up to the phase send timeout.
type Broadcaster struct {
	ctx              context.Context
	clock            clockwork.Clock
	cancel           context.CancelFunc
	source           chan GameStatus
	done             chan struct{}
	subscribers      map[int]chan GameStatus
	current          map[string]GameStatus
	limiters         map[string]*rate.Limiter
	progressInterval time.Duration
	phaseSendTimeout time.Duration
	nextID           int
	subMu            syncutil.RWMutex
	stateMu          syncutil.Mutex
}

type Option func(*Broadcaster)

func WithClock(clock clockwork.Clock) Option {
	return func(b *Broadcaster) {
		b.clock = clock
	}
}

// WithProgressInterval sets the minimum time between two progress samples
// delivered for the same app.
func WithProgressInterval(d time.Duration) Option {
	return func(b *Broadcaster) {
		b.progressInterval = d
	}
}

func WithPhaseSendTimeout(d time.Duration) Option {
	return func(b *Broadcaster) {
		b.phaseSendTimeout = d
	}
}

// NewBroadcaster starts a broadcaster that runs until ctx is cancelled or
// Stop is called.
func NewBroadcaster(ctx context.Context, opts ...Option) *Broadcaster {
	ctx, cancel := context.WithCancel(ctx)
	b := &Broadcaster{
		ctx:              ctx,
		cancel:           cancel,
		clock:            clockwork.NewRealClock(),
		source:           make(chan GameStatus, sourceBuffer),
		done:             make(chan struct{}),
		subscribers:      make(map[int]chan GameStatus),
		current:          make(map[string]GameStatus),
		limiters:         make(map[string]*rate.Limiter),
		progressInterval: DefaultProgressInterval,
		phaseSendTimeout: DefaultPhaseSendTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func (b *Broadcaster) run() {
	defer close(b.done)
	for {
		select {
		case st := <-b.source:
			b.broadcast(st)
		case <-b.ctx.Done():
			log.Debug().Msg("status broadcaster: context cancelled, shutting down")
			b.closeAllSubscribers()
			return
		}
	}
}

// Publish records st as the current status of its app and queues it for
// delivery. Throttled progress samples still update the current status.
func (b *Broadcaster) Publish(st GameStatus) {
	if st.AppID == "" {
		log.Warn().Str("phase", string(st.Phase)).Msg("dropping status without app id")
		return
	}
	if st.Time.IsZero() {
		st.Time = b.clock.Now()
	}

	if !b.record(st) {
		return
	}

	select {
	case b.source <- st:
	case <-b.ctx.Done():
		log.Debug().Str("app_id", st.AppID).Msg("status broadcaster stopped, event dropped")
	}
}

// record updates the current status table and reports whether st should be
// delivered to subscribers.
func (b *Broadcaster) record(st GameStatus) bool {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	if st.Phase == PhaseDone || st.Phase == PhaseIdle {
		delete(b.current, st.AppID)
		delete(b.limiters, st.AppID)
		return true
	}

	b.current[st.AppID] = st
	if st.Progress == nil {
		return true
	}

	lim, ok := b.limiters[st.AppID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(b.progressInterval), 1)
		b.limiters[st.AppID] = lim
	}
	return lim.AllowN(b.clock.Now(), 1)
}

func (b *Broadcaster) broadcast(st GameStatus) {
	b.subMu.RLock()
	defer b.subMu.RUnlock()

	for id, ch := range b.subscribers {
		if st.Progress != nil {
			select {
			case ch <- st:
			default:
				log.Warn().
					Int("subscriber_id", id).
					Str("app_id", st.AppID).
					Msg("subscriber channel full, dropping progress")
			}
			continue
		}

		timer := b.clock.NewTimer(b.phaseSendTimeout)
		select {
		case ch <- st:
		case <-timer.Chan():
			log.Warn().
				Int("subscriber_id", id).
				Str("app_id", st.AppID).
				Str("phase", string(st.Phase)).
				Msg("subscriber not reading, dropping status")
		case <-b.ctx.Done():
		}
		timer.Stop()
	}
}

// Subscribe registers a new subscriber. The returned channel is closed on
// Unsubscribe or when the broadcaster stops.
func (b *Broadcaster) Subscribe(bufferSize int) (statusChan <-chan GameStatus, id int) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	id = b.nextID
	b.nextID++

	ch := make(chan GameStatus, bufferSize)
	b.subscribers[id] = ch

	log.Debug().
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Msg("new status subscriber registered")

	statusChan = ch
	return statusChan, id
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// more than once.
func (b *Broadcaster) Unsubscribe(id int) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("status subscriber unsubscribed")
	}
}

// Current returns the last status published for appID. Apps with no running
// operation report idle.
func (b *Broadcaster) Current(appID string) (GameStatus, bool) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	st, ok := b.current[appID]
	if !ok {
		return GameStatus{AppID: appID, Phase: PhaseIdle}, false
	}
	return st, true
}

// All returns the current status of every app that is not idle, sorted by
// app id.
func (b *Broadcaster) All() []GameStatus {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	all := make([]GameStatus, 0, len(b.current))
	for _, st := range b.current {
		all = append(all, st)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].AppID < all[j].AppID
	})
	return all
}

// Stop shuts the broadcaster down and waits for the dispatch goroutine.
func (b *Broadcaster) Stop() {
	b.cancel()
	<-b.done
}

func (b *Broadcaster) closeAllSubscribers() {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("closed status subscriber on shutdown")
	}
	b.subscribers = make(map[int]chan GameStatus)
}
