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
	"net/http"
	"os"
	"strings"

	"github.com/carverauto/wledradar/pkg/config"
	"github.com/carverauto/wledradar/pkg/db"
	"github.com/carverauto/wledradar/pkg/deviceupdate"
	"github.com/carverauto/wledradar/pkg/firstcontact"
	"github.com/carverauto/wledradar/pkg/kv"
	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/reconciler"
	"github.com/carverauto/wledradar/pkg/release"
	"github.com/carverauto/wledradar/pkg/roster"
	"github.com/carverauto/wledradar/pkg/wledapi"
	"github.com/carverauto/wledradar/pkg/wsclient"
)

const (
	defaultConfigBucket = "wledradar-config"
	logLevelDisabled    = "disabled"
	logOutputStderr     = "stderr"
)

// logMode selects where a command's logs go.
type logMode int

const (
	logsConfigured logMode = iota // daemon: as configured
	logsStderr                    // one-shot commands keep stdout for results
	logsOff                       // the TUI owns the terminal
)

// App is the wired component graph shared by every subcommand.
type App struct {
	Config    *models.AppConfig
	Logger    logger.Logger
	Roster    roster.Repository
	API       *wledapi.Client
	Catalog   release.CatalogStore
	Refresher *release.Refresher
	Evaluator *release.Evaluator
	Resolver  *firstcontact.Resolver

	closers []func()
}

// NewApp loads configuration and builds every backend it names.
func NewApp(ctx context.Context, cmd *CmdConfig, mode logMode) (*App, error) {
	app := &App{}

	cfg, err := app.loadConfig(ctx, cmd.ConfigFile)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Config = cfg

	logCfg := cfg.Logging.Merge()

	switch mode {
	case logsStderr:
		if logCfg.Output != "console" {
			logCfg.Output = logOutputStderr
		}
	case logsOff:
		logCfg.Level = logLevelDisabled
		logCfg.Debug = false
	case logsConfigured:
	}

	log, err := logger.New(logCfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger = log

	if err := app.openRoster(ctx, cmd.Memory); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.openCatalog(ctx); err != nil {
		app.Close()
		return nil, err
	}

	github, err := release.NewGitHubClient(cfg.Releases.GitHubAPIURL, cfg.Releases.GitHubToken,
		cfg.HTTP.RequestTimeout.Std())
	if err != nil {
		app.Close()
		return nil, err
	}

	app.API = wledapi.NewClient(wledapi.WithTimeouts(cfg.HTTP.RequestTimeout.Std(), cfg.HTTP.UpdateTimeout.Std()))
	app.Refresher = release.NewRefresher(github, app.Catalog, nil, logger.Wrap(log.WithComponent("releases")))
	app.Evaluator = release.NewEvaluator(app.Catalog, log)
	app.Resolver = firstcontact.NewResolver(app.API, app.Roster, logger.Wrap(log.WithComponent("firstcontact")))

	return app, nil
}

// loadConfig reads AppConfig through the CONFIG_SOURCE loader. The kv source
// reads from a JetStream bucket named by CONFIG_BUCKET on NATS_URL.
func (a *App) loadConfig(ctx context.Context, path string) (*models.AppConfig, error) {
	bootLog, err := logger.New(&logger.Config{Output: logOutputStderr, Level: "warn"})
	if err != nil {
		return nil, err
	}

	loader := config.NewConfig(bootLog)

	if strings.EqualFold(os.Getenv("CONFIG_SOURCE"), "kv") {
		bucket := os.Getenv("CONFIG_BUCKET")
		if bucket == "" {
			bucket = defaultConfigBucket
		}

		store, err := kv.NewNatsStore(ctx, os.Getenv("NATS_URL"), bucket, natsTLSFromEnv(), bootLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open config bucket: %w", err)
		}

		a.closers = append(a.closers, func() { _ = store.Close() })
		loader.SetKVStore(store)
	}

	var cfg models.AppConfig

	if err := loader.LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &cfg, nil
}

// natsTLSFromEnv reads the bootstrap TLS files for the config bucket.
func natsTLSFromEnv() *models.NATSTLSConfig {
	t := &models.NATSTLSConfig{
		CertFile:   os.Getenv("NATS_CERT_FILE"),
		KeyFile:    os.Getenv("NATS_KEY_FILE"),
		CAFile:     os.Getenv("NATS_CA_FILE"),
		ServerName: os.Getenv("NATS_SERVER_NAME"),
	}

	if *t == (models.NATSTLSConfig{}) {
		return nil
	}

	return t
}

func (a *App) openRoster(ctx context.Context, memory bool) error {
	switch {
	case memory:
		a.Roster = roster.NewMemoryRepository()
	case a.Config.NATS.URL != "":
		store, err := kv.NewNatsStore(ctx, a.Config.NATS.URL, a.Config.NATS.Bucket, a.Config.NATS.TLS,
			logger.Wrap(a.Logger.WithComponent("kv")))
		if err != nil {
			return fmt.Errorf("failed to open roster bucket: %w", err)
		}

		a.closers = append(a.closers, func() { _ = store.Close() })
		a.Roster = roster.NewKVRepository(store, logger.Wrap(a.Logger.WithComponent("roster")))
	default:
		repo, err := roster.NewFileRepository(a.Config.RosterFile)
		if err != nil {
			return err
		}

		a.Roster = repo
	}

	return nil
}

func (a *App) openCatalog(ctx context.Context) error {
	if !a.Config.Database.Enabled() {
		a.Catalog = release.NewMemoryCatalog()
		return nil
	}

	pool, err := db.NewPool(ctx, &a.Config.Database, a.Logger)
	if err != nil {
		return err
	}

	a.closers = append(a.closers, pool.Close)

	if err := db.RunMigrations(ctx, pool, a.Logger); err != nil {
		return err
	}

	a.Catalog = db.NewCatalogStore(pool)

	return nil
}

// Preferences maps the configured read-model preferences.
func (a *App) Preferences() reconciler.Preferences {
	return reconciler.Preferences{
		ShowHiddenDevices: a.Config.Preferences.ShowHiddenDevices,
		ShowOfflineLast:   a.Config.Preferences.ShowOfflineLast,
	}
}

// ClientFactory builds websocket clients that persist telemetry into the roster.
func (a *App) ClientFactory() reconciler.ClientFactory {
	conn := a.Config.Connection
	log := logger.Wrap(a.Logger.WithComponent("wsclient"))

	return func(device models.Device) reconciler.ConnectionClient {
		return wsclient.NewClient(device, a.Roster, log,
			wsclient.WithBackoff(conn.BaseDelay.Std(), conn.MaxDelay.Std()),
			wsclient.WithHandshakeTimeout(conn.HandshakeTimeout.Std()),
		)
	}
}

// NewManager builds the connection reconciler over the roster.
func (a *App) NewManager() *reconciler.Manager {
	return reconciler.NewManager(a.Roster, a.ClientFactory(), a.Evaluator, a.Preferences(),
		logger.Wrap(a.Logger.WithComponent("reconciler")))
}

// NewInstaller builds a firmware installer caching under the configured directory.
func (a *App) NewInstaller() *deviceupdate.Installer {
	downloads := &http.Client{Timeout: a.Config.HTTP.UpdateTimeout.Std()}
	d := deviceupdate.NewDownloader(downloads, a.Config.CacheDir, a.Logger)

	return deviceupdate.NewInstaller(d, a.API, a.Roster, logger.Wrap(a.Logger.WithComponent("deviceupdate")))
}

// Close releases backends in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil
}
