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

package cancellation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCreate(t *testing.T) {
	t.Parallel()

	r := New()
	tok := r.Create("fortnite")

	assert.Equal(t, "fortnite", tok.ID)
	assert.False(t, tok.Aborted())
	assert.True(t, r.Has("fortnite"))
	require.NoError(t, tok.Context().Err())
}

func TestCreate_ReplacesWithoutCancelling(t *testing.T) {
	t.Parallel()

	r := New()
	first := r.Create("app")
	second := r.Create("app")

	assert.False(t, first.Aborted())
	require.NoError(t, first.Context().Err())

	got, ok := r.Get("app")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"app"}, r.IDs())
}

func TestTryCreate(t *testing.T) {
	t.Parallel()

	r := New()
	tok, ok := r.TryCreate("app")
	require.True(t, ok)
	require.NotNil(t, tok)

	again, ok := r.TryCreate("app")
	assert.False(t, ok)
	assert.Nil(t, again)

	tok.Release()
	_, ok = r.TryCreate("app")
	assert.True(t, ok)
}

func TestTryCreate_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	r := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.TryCreate("launch:a"); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
	r.CancelAll()
}

func TestRequestCancel(t *testing.T) {
	t.Parallel()

	r := New()
	tok := r.Create("app")

	assert.True(t, r.RequestCancel("app"))
	assert.True(t, tok.Aborted())
	require.ErrorIs(t, tok.Context().Err(), context.Canceled)

	select {
	case <-tok.Done():
	default:
		t.Fatal("done channel should be closed after abort")
	}

	// second request is a no-op
	assert.False(t, r.RequestCancel("app"))
	assert.True(t, r.Has("app"))
}

func TestRequestCancel_UnknownID(t *testing.T) {
	t.Parallel()

	r := New()
	r.Create("real")

	assert.NotPanics(t, func() {
		assert.False(t, r.RequestCancel("ghost-id"))
	})
	assert.Equal(t, []string{"real"}, r.IDs())
}

func TestRequestCancel_AfterRelease(t *testing.T) {
	t.Parallel()

	r := New()
	tok := r.Create("app")
	tok.Release()

	assert.False(t, r.RequestCancel("app"))
	assert.False(t, tok.Aborted())
	assert.Empty(t, r.IDs())
}

func TestRelease_StaleOwnerKeepsReplacement(t *testing.T) {
	t.Parallel()

	r := New()
	stale := r.Create("app")
	fresh := r.Create("app")

	stale.Release()

	got, ok := r.Get("app")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	fresh.Release()
	fresh.Release()
	assert.False(t, r.Has("app"))
}

func TestDelete(t *testing.T) {
	t.Parallel()

	r := New()
	tok := r.Create("app")
	r.Delete("app")

	assert.False(t, r.Has("app"))
	assert.False(t, tok.Aborted())
	require.Error(t, tok.Context().Err())

	// owner's deferred release after delete is harmless
	tok.Release()
	r.Delete("app")
}

func TestCancelAll(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Create("a")
	b := r.Create("b")
	c := r.Create("c")
	r.RequestCancel("c")

	assert.Equal(t, 2, r.CancelAll())
	assert.True(t, a.Aborted())
	assert.True(t, b.Aborted())
	assert.True(t, c.Aborted())
}

func TestNewWithContext_ParentCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	r := NewWithContext(ctx)
	tok := r.Create("app")
	cancel()

	<-tok.Done()
	assert.False(t, tok.Aborted(), "parent shutdown is not a user abort")
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	r := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("app-%d", i%5)
			tok := r.Create(id)
			defer tok.Release()
			r.RequestCancel(id)
			_ = r.IDs()
			_ = r.Has(id)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, r.IDs())
}

// TestPropertyCancelNeverFails checks that any interleaving of registry
// operations keeps at most one live token per id and never panics.
func TestPropertyCancelNeverFails(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		r := New()
		live := make(map[string]*Token)
		ids := []string{"a", "b", "c"}

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := range steps {
			id := rapid.SampledFrom(ids).Draw(t, fmt.Sprintf("id%d", i))
			switch rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("op%d", i)) {
			case 0:
				live[id] = r.Create(id)
			case 1:
				r.RequestCancel(id)
				if tok, ok := live[id]; ok && !tok.Aborted() {
					t.Fatalf("token %s not aborted after cancel", id)
				}
			case 2:
				if tok, ok := live[id]; ok {
					tok.Release()
					delete(live, id)
				}
			case 3:
				r.Delete(id)
				delete(live, id)
			}

			for _, id := range ids {
				_, tracked := live[id]
				if r.Has(id) != tracked {
					t.Fatalf("registry has(%s)=%v, expected %v", id, r.Has(id), tracked)
				}
			}
		}
	})
}
