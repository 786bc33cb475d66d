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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gamedock/gamedock-core/pkg/api/methods"
	"github.com/gamedock/gamedock-core/pkg/api/middleware"
	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/api/models/requests"
	"github.com/gamedock/gamedock-core/pkg/api/validation"
	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	NotificationBuffer = 100
	shutdownTimeout    = 5 * time.Second
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
)

var defaultOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
	"app://*",
	"file://*",
}

var methodMap = map[string]func(requests.RequestEnv) (any, error){
	// queue
	models.MethodQueueAdd:    methods.HandleQueueAdd,
	models.MethodQueueRemove: methods.HandleQueueRemove,
	models.MethodQueue:       methods.HandleQueue,
	models.MethodQueueClear:  methods.HandleQueueClear,
	// games
	models.MethodGamesInfo:      methods.HandleGamesInfo,
	models.MethodGamesLaunch:    methods.HandleGamesLaunch,
	models.MethodGamesStop:      methods.HandleGamesStop,
	models.MethodGamesUninstall: methods.HandleGamesUninstall,
	models.MethodGamesMove:      methods.HandleGamesMove,
	models.MethodGamesCancel:    methods.HandleGamesCancel,
	models.MethodLibraryRefresh: methods.HandleLibraryRefresh,
	// settings
	models.MethodSettingsGlobal:    methods.HandleSettingsGlobal,
	models.MethodSettingsGlobalSet: methods.HandleSettingsGlobalUpdate,
	models.MethodSettingsGame:      methods.HandleSettingsGame,
	models.MethodSettingsGameSet:   methods.HandleSettingsGameUpdate,
	// frontend
	models.MethodDialogRespond: methods.HandleDialogRespond,
	// utils
	models.MethodRunners: methods.HandleRunners,
	models.MethodVersion: methods.HandleVersion,
}

// Server is the JSON-RPC websocket API. Requests are handled concurrently,
// so a games.launch waiting for the game to exit does not hold up a
// dialog.respond from the same client.
type Server struct {
	ctx           context.Context
	cfg           *config.Instance
	melody        *melody.Melody
	limiter       *middleware.IPRateLimiter
	sink          *Sink
	notifications <-chan models.Notification
	router        chi.Router
	env           requests.RequestEnv
	handlers      sync.WaitGroup
}

// NewServer builds the router. env is the template copied into every
// request; its Confirmations default to sink.
//
//nolint:gocritic // env copied once at construction
func NewServer(
	cfg *config.Instance,
	env requests.RequestEnv,
	sink *Sink,
	notifications <-chan models.Notification,
) *Server {
	if env.Confirmations == nil && sink != nil {
		env.Confirmations = sink
	}
	s := &Server{
		ctx:           context.Background(),
		cfg:           cfg,
		env:           env,
		sink:          sink,
		notifications: notifications,
		melody:        melody.New(),
		limiter:       middleware.NewIPRateLimiter(),
	}

	origins := cfg.AllowedOrigins()
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	s.melody.Upgrader.CheckOrigin = checkOrigin(origins)
	s.melody.HandleMessage(middleware.WebSocketRateLimitHandler(s.limiter, s.handleWSMessage))
	s.melody.HandleConnect(func(session *melody.Session) {
		log.Info().Str("addr", session.Request.RemoteAddr).Msg("api client connected")
	})
	s.melody.HandleDisconnect(func(session *melody.Session) {
		log.Info().Str("addr", session.Request.RemoteAddr).Msg("api client disconnected")
	})
	if sink != nil {
		sink.attach(s.melody.Len)
	}

	filter := middleware.LoopbackFilter()
	if cfg.AllowRemote() {
		filter = middleware.NewIPFilter(cfg.AllowedIPs())
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.NoCache)
	r.Use(middleware.HTTPIPFilterMiddleware(filter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept"},
	}))
	r.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
		r.Get(models.APIPath, func(w http.ResponseWriter, r *http.Request) {
			if err := s.melody.HandleRequest(w, r); err != nil {
				log.Error().Err(err).Msg("handling websocket request")
			}
		})
	})
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// checkOrigin admits clients without an Origin header (native apps) and
// browser origins matching one of the patterns.
func checkOrigin(patterns []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		candidate := u.Scheme + "://" + u.Host
		for _, p := range patterns {
			if p == "*" || strings.EqualFold(p, candidate) {
				return true
			}
			if ok, _ := path.Match(p, candidate); ok {
				return true
			}
		}
		log.Warn().Str("origin", origin).Msg("websocket origin rejected")
		return false
	}
}

// errorObject maps handler errors onto JSON-RPC error codes. Parameter
// problems are the client's fault, everything else is a server error.
func errorObject(err error) models.ErrorObject {
	var verr *validation.Error
	if errors.Is(err, validation.ErrMissingParams) ||
		errors.Is(err, validation.ErrInvalidParams) ||
		errors.Is(err, settings.ErrUnknownSetting) ||
		errors.Is(err, settings.ErrInvalidValue) ||
		errors.Is(err, runners.ErrUnknownRunner) ||
		errors.As(err, &verr) {
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	}
	return models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()}
}

func (s *Server) handleRequest(req *models.RequestObject, remoteAddr string) (any, error) {
	log.Debug().Str("method", req.Method).Str("id", req.ID.String()).Msg("received request")

	fn, ok := methodMap[strings.ToLower(req.Method)]
	if !ok {
		return nil, errMethodNotFound
	}

	env := s.env
	env.Context = s.ctx
	env.Params = req.Params
	if !req.ID.Absent() {
		env.ID = *req.ID
	}
	env.IsLocal = middleware.IsLoopbackAddr(remoteAddr)
	return fn(env)
}

var errMethodNotFound = errors.New("method not found")

func writeJSON(session *melody.Session, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshalling response: %w", err)
	}
	if err := session.Write(data); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}

func sendResponse(session *melody.Session, id models.RPCID, result any) error {
	return writeJSON(session, models.ResponseObject{
		JSONRPC: models.JSONRPCVersion,
		ID:      id,
		Result:  result,
	})
}

func sendError(session *melody.Session, id models.RPCID, errObj models.ErrorObject) error {
	log.Debug().Int("code", errObj.Code).Str("message", errObj.Message).Msg("sending error")
	return writeJSON(session, models.ResponseErrorObject{
		JSONRPC: models.JSONRPCVersion,
		ID:      id,
		Error:   &errObj,
	})
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	if bytes.Equal(msg, []byte("ping")) {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	if !json.Valid(msg) {
		log.Warn().Msg("data not valid json")
		if err := sendError(session, models.NullRPCID, JSONRPCErrorParseError); err != nil {
			log.Error().Err(err).Msg("error sending error response")
		}
		return
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil || req.JSONRPC != models.JSONRPCVersion || req.Method == "" {
		id := models.NullRPCID
		if err == nil && !req.ID.Absent() {
			id = *req.ID
		}
		log.Warn().Err(err).Str("jsonrpc", req.JSONRPC).Msg("invalid request")
		if err := sendError(session, id, JSONRPCErrorInvalidRequest); err != nil {
			log.Error().Err(err).Msg("error sending error response")
		}
		return
	}

	remoteAddr := session.Request.RemoteAddr
	s.handlers.Add(1)
	go func() {
		defer s.handlers.Done()
		s.dispatch(session, &req, remoteAddr)
	}()
}

func (s *Server) dispatch(session *melody.Session, req *models.RequestObject, remoteAddr string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("method", req.Method).Msg("panic in request handler")
			if !req.ID.Absent() {
				_ = sendError(session, *req.ID, JSONRPCErrorServerError)
			}
		}
	}()

	resp, err := s.handleRequest(req, remoteAddr)
	if req.ID.Absent() {
		// notifications get no reply, not even an error
		if err != nil {
			log.Warn().Err(err).Str("method", req.Method).Msg("notification request failed")
		}
		return
	}

	switch {
	case errors.Is(err, errMethodNotFound):
		err = sendError(session, *req.ID, JSONRPCErrorMethodNotFound)
	case err != nil:
		log.Warn().Err(err).Str("method", req.Method).Msg("request failed")
		err = sendError(session, *req.ID, errorObject(err))
	default:
		err = sendResponse(session, *req.ID, resp)
	}
	if err != nil && !errors.Is(err, melody.ErrSessionClosed) {
		log.Error().Err(err).Msg("error sending response")
	}
}

func (s *Server) broadcastNotifications(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-s.notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NotificationObject{
				JSONRPC: models.JSONRPCVersion,
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.melody.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.APIListen())
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.cfg.APIListen(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles connections on ln until ctx ends, then closes every
// websocket and waits for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	s.ctx = ctx
	s.limiter.StartCleanup(ctx)

	broadcastDone := make(chan struct{})
	go func() {
		defer close(broadcastDone)
		s.broadcastNotifications(ctx)
	}()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		err = fmt.Errorf("api server: %w", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if closeErr := s.melody.Close(); closeErr != nil && !errors.Is(closeErr, melody.ErrClosed) {
		log.Warn().Err(closeErr).Msg("closing websocket sessions")
	}
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = fmt.Errorf("api shutdown: %w", shutdownErr)
	}
	<-broadcastDone
	s.handlers.Wait()
	log.Info().Msg("api server stopped")
	return err
}
