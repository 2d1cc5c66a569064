/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/wledradar/pkg/discovery"
	"github.com/carverauto/wledradar/pkg/events"
	"github.com/carverauto/wledradar/pkg/logger"
)

// Control is an operator request delivered to the running daemon.
type Control int

const (
	ControlNone Control = iota
	ControlBackground
	ControlForeground
	ControlRefreshOffline
)

func (c Control) String() string {
	switch c {
	case ControlBackground:
		return "background"
	case ControlForeground:
		return "foreground"
	case ControlRefreshOffline:
		return "refresh_offline"
	case ControlNone:
		return "none"
	default:
		return "unknown"
	}
}

type lifecycleTarget interface {
	SetBackground(background bool)
	IsBackground() bool
	RefreshOfflineDevices() int
}

type discoverer interface {
	RunTimed(ctx context.Context, window time.Duration) int
}

// controller applies Control requests to the reconciler and discovery.
type controller struct {
	target    lifecycleTarget
	discovery discoverer
	window    time.Duration
	logger    logger.Logger
}

// handle applies one request. Discovery runs in the background so the
// caller keeps receiving signals.
func (c *controller) handle(ctx context.Context, ctl Control) {
	c.logger.Info().Str("control", ctl.String()).Msg("Control request")

	switch ctl {
	case ControlBackground:
		c.target.SetBackground(true)
	case ControlForeground:
		c.target.SetBackground(false)

		if c.discovery != nil {
			go c.discovery.RunTimed(ctx, c.window)
		}
	case ControlRefreshOffline:
		if c.target.IsBackground() {
			return
		}

		n := c.target.RefreshOfflineDevices()
		c.logger.Info().Int("devices", n).Msg("Reconnecting offline devices")
	case ControlNone:
	}
}

func (c *controller) run(ctx context.Context, signals <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			c.handle(ctx, controlFor(sig))
		}
	}
}

// RunDaemon runs the roster reconciler, discovery and release refresh until
// SIGINT or SIGTERM.
func RunDaemon(ctx context.Context, app *App) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.Config
	log := app.Logger
	manager := app.NewManager()

	ctl := &controller{target: manager, window: cfg.Discovery.Window.Std(), logger: log}

	var disc *discovery.Service

	if !cfg.Discovery.Disabled {
		discLog := logger.Wrap(log.WithComponent("discovery"))
		browser := discovery.NewMDNSBrowser(cfg.Discovery.Service, cfg.Discovery.Domain, nil, discLog)
		disc = discovery.NewService(browser, app.Resolver, cfg.Discovery.Workers, discLog)
		ctl.discovery = disc
	}

	var watcher *events.Watcher

	if cfg.NATS.Events {
		evLog := logger.Wrap(log.WithComponent("events"))

		pub, err := events.NewJetStreamPublisher(ctx, &cfg.NATS, evLog)
		if err != nil {
			return fmt.Errorf("failed to open events stream: %w", err)
		}
		defer func() { _ = pub.Close() }()

		// every roster device is reported, hidden or not
		prefs := app.Preferences()
		prefs.ShowHiddenDevices = true
		manager.SetPreferences(prefs)

		watcher = events.NewWatcher(pub, evLog)
	}

	signals := make(chan os.Signal, 1)
	if sigs := controlSignals(); len(sigs) > 0 {
		signal.Notify(signals, sigs...)
		defer signal.Stop(signals)
	}

	log.Info().Bool("discovery", disc != nil).Bool("events", watcher != nil).Msg("Starting wledradar daemon")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return manager.Run(gctx, app.Refresher.Revisions(gctx))
	})

	g.Go(func() error {
		app.Refresher.Run(gctx, cfg.Releases.RefreshInterval.Std())
		return nil
	})

	if disc != nil {
		g.Go(func() error {
			disc.Run(gctx, cfg.Discovery.Interval.Std(), cfg.Discovery.Window.Std())
			return nil
		})
	}

	if watcher != nil {
		g.Go(func() error {
			watcher.Run(gctx, manager.Subscribe(gctx))
			return nil
		})
	}

	g.Go(func() error {
		return ctl.run(gctx, signals)
	})

	err := g.Wait()

	log.Info().Msg("wledradar daemon stopped")

	return err
}
