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

package runners_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/stretchr/testify/assert"
)

func TestStatusPageOutage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code int
		want bool
	}{
		{name: "operational", body: `{"status":{"indicator":"none"}}`, code: http.StatusOK},
		{name: "minor", body: `{"status":{"indicator":"minor"}}`, code: http.StatusOK},
		{name: "major", body: `{"status":{"indicator":"major"}}`, code: http.StatusOK, want: true},
		{name: "critical", body: `{"status":{"indicator":"critical"}}`, code: http.StatusOK, want: true},
		{name: "server error", body: `{"status":{"indicator":"major"}}`, code: http.StatusBadGateway},
		{name: "garbage", body: `<html>`, code: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			check := runners.StatusPageOutage(srv.URL, srv.Client())
			assert.Equal(t, tt.want, check(context.Background()))
		})
	}
}

func TestStatusPageOutage_Unreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.False(t, runners.StatusPageOutage(url, nil)(context.Background()))
}
