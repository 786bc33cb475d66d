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

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
	"github.com/gamedock/gamedock-core/pkg/api"
	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/api/models/requests"
	"github.com/gamedock/gamedock-core/pkg/api/notifications"
	"github.com/gamedock/gamedock-core/pkg/config"
	"github.com/gamedock/gamedock-core/pkg/database"
	"github.com/gamedock/gamedock-core/pkg/database/gamecache"
	"github.com/gamedock/gamedock-core/pkg/database/librarydb"
	"github.com/gamedock/gamedock-core/pkg/helpers"
	"github.com/gamedock/gamedock-core/pkg/helpers/command"
	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/gamedock/gamedock-core/pkg/runners/gog"
	"github.com/gamedock/gamedock-core/pkg/runners/legendary"
	"github.com/gamedock/gamedock-core/pkg/runners/nile"
	"github.com/gamedock/gamedock-core/pkg/runners/restplugin"
	"github.com/gamedock/gamedock-core/pkg/runners/sideload"
	"github.com/gamedock/gamedock-core/pkg/service/cancellation"
	"github.com/gamedock/gamedock-core/pkg/service/downloads"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/gamedock/gamedock-core/pkg/settings"
	"github.com/gamedock/gamedock-core/pkg/shared/httpclient"
	"github.com/gamedock/gamedock-core/pkg/wine"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// SettingsChangedChannel is the frontend message channel announcing a
// settings scope that was edited outside the API.
const SettingsChangedChannel = "settingsChanged"

const (
	notificationBuffer = 100
	queueStopTimeout   = 10 * time.Second
	statusTimeout      = 5 * time.Second
)

type options struct {
	fs           afero.Fs
	exec         command.Executor
	connectivity helpers.Connectivity
	httpClient   *http.Client
	listener     net.Listener
	configDir    string
	dataDir      string
	settingsDir  string
	watch        bool
}

type Option func(*options)

// WithDirs overrides the config, data and settings directories.
func WithDirs(configDir, dataDir, settingsDir string) Option {
	return func(o *options) {
		o.configDir = configDir
		o.dataDir = dataDir
		o.settingsDir = settingsDir
	}
}

// WithListener serves the API on ln instead of the configured address.
func WithListener(ln net.Listener) Option {
	return func(o *options) {
		o.listener = ln
	}
}

func WithFs(afs afero.Fs) Option {
	return func(o *options) {
		o.fs = afs
	}
}

func WithExecutor(exec command.Executor) Option {
	return func(o *options) {
		o.exec = exec
	}
}

func WithConnectivity(c helpers.Connectivity) Option {
	return func(o *options) {
		o.connectivity = c
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithoutSettingsWatcher disables reloading settings edited by other
// programs.
func WithoutSettingsWatcher() Option {
	return func(o *options) {
		o.watch = false
	}
}

func setupEnvironment(o *options) error {
	if _, ok := helpers.HasUserDir(); ok {
		log.Info().Msg("using 'user' directory for storage")
	}

	log.Info().Msg("creating service directories")
	for _, dir := range []string{o.configDir, o.dataDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := o.fs.MkdirAll(o.settingsDir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", o.settingsDir, err)
	}
	return nil
}

func makeDatabase(ctx context.Context, dataDir string) (*database.Database, func(), error) {
	log.Debug().Msg("opening library database")
	libraryDB, err := librarydb.OpenLibraryDB(ctx, dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open library database: %w", err)
	}

	log.Debug().Msg("running library database migrations")
	if err = libraryDB.MigrateUp(); err != nil {
		_ = libraryDB.Close()
		return nil, nil, fmt.Errorf("error migrating librarydb: %w", err)
	}

	log.Debug().Msg("opening game cache")
	cache, err := gamecache.Open(dataDir)
	if err != nil {
		_ = libraryDB.Close()
		return nil, nil, fmt.Errorf("failed to open game cache: %w", err)
	}

	closeAll := func() {
		if closeErr := cache.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing game cache")
		}
		if closeErr := libraryDB.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing library database")
		}
	}
	return &database.Database{LibraryDB: libraryDB, GameCache: cache}, closeAll, nil
}

// globalDefaults points the default wine build at the configured binary.
func globalDefaults(cfg *config.Instance) func() settings.GlobalSettings {
	return func() settings.GlobalSettings {
		s := settings.DefaultGlobalSettings()
		if runtime.GOOS != "windows" {
			s.WineVersion.Bin = cfg.WineBin()
		}
		if s.DefaultInstallPath == "" {
			s.DefaultInstallPath = helpers.DefaultInstallDir()
		}
		return s
	}
}

// buildRunners registers the built-in stores followed by every store plugin
// found in the plugin dir. A broken plugin is skipped.
func buildRunners(cfg *config.Instance, env *runners.Env, o *options) (*runners.Table, error) {
	epicStatus := runners.StatusPageOutage(legendary.StatusURL, httpclient.NewClient(statusTimeout))
	table, err := runners.NewTable(
		legendary.New(env, cfg.LegendaryBin(), "", epicStatus),
		gog.New(env, cfg.GogdlBin(), "", nil),
		nile.New(env, cfg.NileBin(), filepath.Join(xdg.ConfigHome, nile.ID), nil),
		sideload.New(env),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register runners: %w", err)
	}

	plugins, err := config.LoadStorePlugins(cfg.PluginDir(o.configDir))
	if err != nil {
		log.Error().Err(err).Msg("error loading store plugins")
		return table, nil
	}
	for i := range plugins {
		r, err := restplugin.New(env, plugins[i], o.httpClient)
		if err != nil {
			log.Error().Err(err).Str("plugin", plugins[i].ID).Msg("error creating store plugin runner")
			continue
		}
		if err := table.Register(r); err != nil {
			log.Error().Err(err).Str("plugin", plugins[i].ID).Msg("error registering store plugin runner")
		}
	}
	return table, nil
}

// Start opens the stores, builds the runners and queue and serves the API.
// stop shuts everything down and returns the first component error; done
// closes once cleanup has finished, including after a component failure.
func Start(
	cfg *config.Instance,
	opts ...Option,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)
	log.Info().Msgf("boot session UUID: %s", uuid.New().String())

	o := &options{
		fs:          afero.NewOsFs(),
		exec:        &command.RealExecutor{},
		configDir:   helpers.ConfigDir(),
		dataDir:     helpers.DataDir(),
		settingsDir: helpers.SettingsDir(),
		watch:       true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = httpclient.NewClient(0)
	}
	if o.connectivity == nil {
		o.connectivity = &helpers.NetConnectivity{}
	}

	if err = setupEnvironment(o); err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	log.Info().Msg("opening databases")
	db, closeDB, err := makeDatabase(ctx, o.dataDir)
	if err != nil {
		cancel()
		log.Error().Err(err).Msg("error opening databases")
		return nil, nil, err
	}

	reg := settings.NewRegistry(o.fs, o.settingsDir, settings.WithGlobalDefaults(globalDefaults(cfg)))
	broadcaster := status.NewBroadcaster(ctx)
	cancelReg := cancellation.NewWithContext(ctx)
	ns := make(chan models.Notification, notificationBuffer)
	reg.OnChange(func(scope string) {
		log.Info().Str("scope", scope).Msg("settings changed on disk")
		notifications.FrontendMessage(ns, SettingsChangedChannel, scope)
	})
	sink := api.NewSink(ns, api.DefaultConfirmTimeout)

	env := &runners.Env{
		Settings:     reg,
		Cancel:       cancelReg,
		Status:       broadcaster,
		Frontend:     sink,
		Installed:    db.LibraryDB,
		Library:      db.GameCache,
		Recents:      db.LibraryDB,
		Wine:         wine.NewExecRuntime(o.exec, cfg.WineserverBin()),
		Connectivity: o.connectivity,
		Deregister:   &runners.DefaultDeregisterer{Recents: db.LibraryDB},
		Exec:         o.exec,
		Fs:           o.fs,
	}

	log.Info().Msg("registering store runners")
	table, err := buildRunners(cfg, env, o)
	if err != nil {
		broadcaster.Stop()
		cancel()
		closeDB()
		return nil, nil, err
	}
	log.Info().Strs("runners", table.IDs()).Msg("store runners ready")

	queue := downloads.New(db.LibraryDB, table, cancelReg, broadcaster,
		downloads.WithNotifier(func(info downloads.Info) {
			notifications.QueueChanged(ns, info)
		}))

	g, gctx := errgroup.WithContext(ctx)

	statusCh, _ := broadcaster.Subscribe(notificationBuffer)
	g.Go(func() error {
		notifications.ForwardStatus(gctx, statusCh, ns)
		return nil
	})

	if o.watch {
		g.Go(func() error {
			if watchErr := reg.Watch(gctx); watchErr != nil {
				log.Warn().Err(watchErr).Msg("settings watcher stopped")
			}
			return nil
		})
	}

	log.Info().Msg("starting API service")
	server := api.NewServer(cfg, requests.RequestEnv{
		Queue:    queue,
		Runners:  table,
		Settings: reg,
		Status:   broadcaster,
		Cancel:   cancelReg,
	}, sink, ns)
	g.Go(func() error {
		if o.listener != nil {
			return server.Serve(gctx, o.listener)
		}
		return server.Start(gctx)
	})

	if cfg.ResumeQueueOnStart() {
		log.Info().Msg("resuming install queue")
		if resumeErr := queue.Resume(); resumeErr != nil {
			log.Error().Err(resumeErr).Msg("error resuming install queue")
		}
	}

	var runErr error
	doneCh := make(chan struct{})
	go func() {
		<-gctx.Done()
		log.Info().Msg("service context cancelled, running cleanup")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), queueStopTimeout)
		if stopErr := queue.Stop(stopCtx); stopErr != nil {
			log.Warn().Err(stopErr).Msg("error stopping install queue")
		}
		stopCancel()
		if n := cancelReg.CancelAll(); n > 0 {
			log.Info().Msgf("aborted %d running operations", n)
		}

		cancel()
		runErr = g.Wait()
		broadcaster.Stop()
		closeDB()

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		cancel()
		<-doneCh
		if errors.Is(runErr, context.Canceled) {
			return nil
		}
		return runErr
	}
	return stop, doneCh, nil
}
