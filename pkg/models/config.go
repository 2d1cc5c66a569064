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

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/wledradar/pkg/logger"
)

const (
	DefaultNATSBucket       = "wledradar-devices"
	DefaultEventsStream     = "WLEDRADAR_EVENTS"
	DefaultDiscoveryService = "_wled._tcp"
	DefaultDiscoveryDomain  = "local"
	DefaultDiscoveryWindow  = 10 * time.Second
	DefaultDiscoveryWorkers = 4
	DefaultBaseDelay        = 2500 * time.Millisecond
	DefaultMaxDelay         = 60 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultRequestTimeout   = 10 * time.Second
	DefaultUpdateTimeout    = 120 * time.Second
	DefaultGitHubAPIURL     = "https://api.github.com"
	DefaultRefreshInterval  = 6 * time.Hour
	DefaultCacheDir         = "/var/cache/wledradar"
	DefaultRosterFile       = "/var/lib/wledradar/devices.json"
)

var (
	errBackoffOrder      = errors.New("connection.base_delay must not exceed connection.max_delay")
	errDiscoveryWindow   = errors.New("discovery.window must be positive")
	errDatabaseName      = errors.New("database.database is required when database.host is set")
	errDatabasePortRange = errors.New("database.port must be between 0 and 65535")
	errNATSKeyPair       = errors.New("nats.tls.cert_file and nats.tls.key_file must be set together")
	errEventsWithoutNATS = errors.New("nats.events requires nats.url")
)

// AppConfig is the top-level configuration for wledradar.
type AppConfig struct {
	Logging     logger.Config    `json:"logging"`
	NATS        NATSConfig       `json:"nats"`
	Database    DatabaseConfig   `json:"database"`
	Discovery   DiscoveryConfig  `json:"discovery"`
	Connection  ConnectionConfig `json:"connection"`
	HTTP        HTTPConfig       `json:"http"`
	Releases    ReleasesConfig   `json:"releases"`
	CacheDir    string           `json:"cache_dir"`
	RosterFile  string           `json:"roster_file"`
	Preferences Preferences      `json:"preferences"`
}

// NATSConfig selects the JetStream KV roster backend. An empty URL keeps the roster in RosterFile.
// Events turns on device lifecycle events published to EventsStream.
type NATSConfig struct {
	URL          string         `json:"url"`
	Bucket       string         `json:"bucket"`
	TLS          *NATSTLSConfig `json:"tls,omitempty"`
	Events       bool           `json:"events"`
	EventsStream string         `json:"events_stream"`
}

// NATSTLSConfig enables TLS to the NATS server. CertFile and KeyFile together
// turn on client certificates. CAFile replaces the system roots.
type NATSTLSConfig struct {
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	CAFile     string `json:"ca_file"`
	ServerName string `json:"server_name"`
}

// DatabaseConfig selects the Postgres release catalog. An empty Host keeps the catalog in memory.
type DatabaseConfig struct {
	Host               string            `json:"host"`
	Port               int               `json:"port"`
	Database           string            `json:"database"`
	Username           string            `json:"username"`
	Password           string            `json:"password"`
	SSLMode            string            `json:"ssl_mode"`
	ApplicationName    string            `json:"application_name"`
	MaxConnections     int32             `json:"max_connections"`
	MinConnections     int32             `json:"min_connections"`
	MaxConnLifetime    Duration          `json:"max_conn_lifetime"`
	HealthCheckPeriod  Duration          `json:"health_check_period"`
	StatementTimeout   Duration          `json:"statement_timeout"`
	ExtraRuntimeParams map[string]string `json:"extra_runtime_params"`
}

// Enabled reports whether a database is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type DiscoveryConfig struct {
	Disabled bool     `json:"disabled"`
	Service  string   `json:"service"`
	Domain   string   `json:"domain"`
	Window   Duration `json:"window"`
	Interval Duration `json:"interval"` // 0 browses only on foreground
	Workers  int      `json:"workers"`
}

type ConnectionConfig struct {
	BaseDelay        Duration `json:"base_delay"`
	MaxDelay         Duration `json:"max_delay"`
	HandshakeTimeout Duration `json:"handshake_timeout"`
}

type HTTPConfig struct {
	RequestTimeout Duration `json:"request_timeout"`
	UpdateTimeout  Duration `json:"update_timeout"`
}

type ReleasesConfig struct {
	GitHubAPIURL    string   `json:"github_api_url"`
	GitHubToken     string   `json:"github_token"`
	RefreshInterval Duration `json:"refresh_interval"`
}

type Preferences struct {
	ShowHiddenDevices bool `json:"show_hidden_devices"`
	ShowOfflineLast   bool `json:"show_offline_last"`
}

// ApplyDefaults fills every unset field with its default.
func (c *AppConfig) ApplyDefaults() {
	if c.NATS.Bucket == "" {
		c.NATS.Bucket = DefaultNATSBucket
	}

	if c.NATS.EventsStream == "" {
		c.NATS.EventsStream = DefaultEventsStream
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}

	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Database.ApplicationName == "" {
		c.Database.ApplicationName = "wledradar"
	}

	if c.Discovery.Service == "" {
		c.Discovery.Service = DefaultDiscoveryService
	}

	if c.Discovery.Domain == "" {
		c.Discovery.Domain = DefaultDiscoveryDomain
	}

	if c.Discovery.Window == 0 {
		c.Discovery.Window = Duration(DefaultDiscoveryWindow)
	}

	if c.Discovery.Workers == 0 {
		c.Discovery.Workers = DefaultDiscoveryWorkers
	}

	if c.Connection.BaseDelay == 0 {
		c.Connection.BaseDelay = Duration(DefaultBaseDelay)
	}

	if c.Connection.MaxDelay == 0 {
		c.Connection.MaxDelay = Duration(DefaultMaxDelay)
	}

	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = Duration(DefaultHandshakeTimeout)
	}

	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = Duration(DefaultRequestTimeout)
	}

	if c.HTTP.UpdateTimeout == 0 {
		c.HTTP.UpdateTimeout = Duration(DefaultUpdateTimeout)
	}

	if c.Releases.GitHubAPIURL == "" {
		c.Releases.GitHubAPIURL = DefaultGitHubAPIURL
	}

	if c.Releases.RefreshInterval == 0 {
		c.Releases.RefreshInterval = Duration(DefaultRefreshInterval)
	}

	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}

	if c.RosterFile == "" {
		c.RosterFile = DefaultRosterFile
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *AppConfig) Validate() error {
	if c.Connection.BaseDelay > c.Connection.MaxDelay {
		return errBackoffOrder
	}

	if c.Discovery.Window <= 0 {
		return errDiscoveryWindow
	}

	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("%w: %d", errDatabasePortRange, c.Database.Port)
	}

	if c.Database.Enabled() && c.Database.Database == "" {
		return errDatabaseName
	}

	if t := c.NATS.TLS; t != nil && (t.CertFile == "") != (t.KeyFile == "") {
		return errNATSKeyPair
	}

	if c.NATS.Events && c.NATS.URL == "" {
		return errEventsWithoutNATS
	}

	return nil
}
