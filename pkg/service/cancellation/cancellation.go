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

// Package cancellation keeps one cancellation token per in-flight operation,
// keyed by an operation id (usually the app id). Cancellation is cooperative:
// requesting it only flips the token, the owning operation notices at its own
// checkpoints and is responsible for stopping its child processes.
package cancellation

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/gamedock/gamedock-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Token is the cancellation handle of a single operation.
type Token struct {
	ctx      context.Context
	cancel   context.CancelFunc
	reg      *Registry
	ID       string
	aborted  atomic.Bool
	released atomic.Bool
}

// Aborted reports whether cancellation was requested for this token.
func (t *Token) Aborted() bool {
	return t.aborted.Load()
}

// Context is cancelled when the token is aborted or released. Child processes
// started with it are terminated on abort.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Done is closed when the token is aborted or released.
func (t *Token) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Release deregisters the token. It only removes the registry entry if the
// entry still belongs to this token, and is safe to call more than once.
func (t *Token) Release() {
	if t.released.Swap(true) {
		return
	}
	t.reg.release(t)
}

func (t *Token) abort() bool {
	if !t.aborted.CompareAndSwap(false, true) {
		return false
	}
	t.cancel()
	return true
}

// Registry maps operation ids to live tokens.
type Registry struct {
	parent context.Context
	tokens map[string]*Token
	mu     syncutil.Mutex
}

func New() *Registry {
	return NewWithContext(context.Background())
}

// NewWithContext returns a registry whose tokens are all cancelled when ctx
// is done.
func NewWithContext(ctx context.Context) *Registry {
	return &Registry{
		parent: ctx,
		tokens: make(map[string]*Token),
	}
}

// Create allocates a fresh token for id. An existing entry is replaced but
// not cancelled.
func (r *Registry) Create(id string) *Token {
	ctx, cancel := context.WithCancel(r.parent)
	t := &Token{
		ctx:    ctx,
		cancel: cancel,
		reg:    r,
		ID:     id,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; ok {
		log.Debug().Str("id", id).Msg("replacing existing cancellation token")
	}
	r.tokens[id] = t
	return t
}

// TryCreate registers a new token for id unless one is already registered.
// It reports false, with a nil token, when id is taken.
func (r *Registry) TryCreate(id string) (*Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; ok {
		return nil, false
	}
	ctx, cancel := context.WithCancel(r.parent)
	t := &Token{
		ctx:    ctx,
		cancel: cancel,
		reg:    r,
		ID:     id,
	}
	r.tokens[id] = t
	return t, true
}

// RequestCancel aborts the token registered for id. Unknown ids and tokens
// already aborted are a logged no-op. Returns true if a token was aborted.
func (r *Registry) RequestCancel(id string) bool {
	r.mu.Lock()
	t, ok := r.tokens[id]
	r.mu.Unlock()

	if !ok {
		log.Debug().Str("id", id).Msg("cancel requested for unknown operation")
		return false
	}
	if !t.abort() {
		log.Debug().Str("id", id).Msg("operation already cancelled")
		return false
	}

	log.Info().Str("id", id).Msg("cancellation requested")
	return true
}

// Delete removes the entry for id, whichever token it holds.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	t, ok := r.tokens[id]
	delete(r.tokens, id)
	r.mu.Unlock()

	if ok {
		t.released.Store(true)
		t.cancel()
	}
}

func (r *Registry) release(t *Token) {
	r.mu.Lock()
	if cur, ok := r.tokens[t.ID]; ok && cur == t {
		delete(r.tokens, t.ID)
	}
	r.mu.Unlock()
	t.cancel()
}

// CancelAll requests cancellation of every live token and returns how many
// were aborted.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	live := make([]*Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		live = append(live, t)
	}
	r.mu.Unlock()

	n := 0
	for _, t := range live {
		if t.abort() {
			n++
		}
	}
	if n > 0 {
		log.Info().Msgf("cancelled %d running operations", n)
	}
	return n
}

func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[id]
	return ok
}

// Get returns the live token for id.
func (r *Registry) Get(id string) (*Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	return t, ok
}

// IDs returns the ids of all live tokens, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tokens))
	for id := range r.tokens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
