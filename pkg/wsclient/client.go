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

// Package wsclient keeps one realtime websocket open to a WLED device.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/observable"
	"github.com/carverauto/wledradar/pkg/release"
	"github.com/carverauto/wledradar/pkg/roster"
	"github.com/carverauto/wledradar/pkg/wledapi"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	persistTimeout          = 5 * time.Second
	closeWriteTimeout       = time.Second
)

var errMissingInfo = errors.New("message has no info object")

// DevicePersister is the roster surface the client writes telemetry through.
type DevicePersister interface {
	FindByMAC(ctx context.Context, mac string) (*models.Device, error)
	Update(ctx context.Context, device *models.Device) error
}

// Client owns the websocket of one device. All connection state changes go
// through mu and are published as immutable ConnectionState snapshots.
type Client struct {
	persister DevicePersister
	logger    logger.Logger

	dialer           Dialer
	afterFunc        AfterFunc
	now              func() time.Time
	baseDelay        time.Duration
	maxDelay         time.Duration
	handshakeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	device     models.Device
	conn       *websocket.Conn
	connCancel context.CancelFunc
	connecting bool
	manual     bool
	destroyed  bool
	retryCount int
	timer      Timer
	pending    *models.State
	// gen increments on every connect and disconnect so events from a
	// superseded socket are ignored.
	gen uint64

	writeMu sync.Mutex

	state *observable.Value[models.ConnectionState]
}

// NewClient binds a client to device. It does not connect.
func NewClient(device models.Device, persister DevicePersister, log logger.Logger, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		persister:        persister,
		logger:           logger.Wrap(log.With().Str("mac", device.MACAddress).Logger()),
		dialer:           websocket.DefaultDialer,
		afterFunc:        defaultAfterFunc,
		now:              time.Now,
		baseDelay:        DefaultBaseDelay,
		maxDelay:         DefaultMaxDelay,
		handshakeTimeout: defaultHandshakeTimeout,
		ctx:              ctx,
		cancel:           cancel,
		device:           device,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.state = observable.New(models.ConnectionState{Device: device, Status: models.StatusDisconnected})

	return c
}

// Device returns the record the client is bound to.
func (c *Client) Device() models.Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.device
}

// State returns the latest connection snapshot.
func (c *Client) State() models.ConnectionState {
	return c.state.Get()
}

// Subscribe yields the current snapshot and every later one until ctx is done
// or the client is destroyed.
func (c *Client) Subscribe(ctx context.Context) <-chan models.ConnectionState {
	return c.state.Subscribe(ctx)
}

// Connect opens the socket unless one is open or opening. It clears the
// manual-disconnect flag and cancels a pending backoff timer.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connectLocked()
}

func (c *Client) connectLocked() {
	if c.destroyed || c.conn != nil || c.connecting {
		return
	}

	c.manual = false
	c.connecting = true
	c.stopTimerLocked()
	c.gen++

	gen := c.gen
	address := c.device.Address

	ctx, cancel := context.WithCancel(c.ctx)
	c.connCancel = cancel

	c.publishLocked(func(s *models.ConnectionState) {
		s.Status = models.StatusConnecting
	})

	go c.run(ctx, gen, address)
}

// Disconnect closes the socket with a normal closure and suppresses
// reconnection until the next Connect. The Disconnected snapshot is published
// before Disconnect returns.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.detachLocked()
	c.manual = true
	c.stopTimerLocked()
	c.publishLocked(func(s *models.ConnectionState) {
		s.Status = models.StatusDisconnected
	})
	c.mu.Unlock()

	if conn != nil {
		c.closeConn(conn)
	}
}

// Reconnect schedules a Connect after the current backoff delay. It is a
// no-op while manually disconnected, connecting, or already scheduled.
func (c *Client) Reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconnectLocked()
}

func (c *Client) reconnectLocked() {
	if c.destroyed || c.manual || c.connecting || c.timer != nil {
		return
	}

	delay := Backoff(c.baseDelay, c.maxDelay, c.retryCount)

	c.logger.Debug().Dur("delay", delay).Str("address", c.device.Address).Msg("Scheduling reconnect")

	var t Timer

	t = c.afterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		// Stop cannot recall a callback already waiting on mu.
		if c.timer != t {
			return
		}

		c.timer = nil
		if c.destroyed || c.manual {
			return
		}

		c.retryCount++
		c.connectLocked()
	})
	c.timer = t
}

// SendState transmits a partial state. When the socket is not connected it
// first triggers Connect and the latest command is sent once the socket opens.
func (c *Client) SendState(state models.State) {
	c.mu.Lock()
	if c.state.Get().Status != models.StatusConnected {
		c.logger.Debug().Str("address", c.device.Address).Msg("Not connected, connecting before send")
		c.connectLocked()
	}

	conn := c.conn
	gen := c.gen

	if conn == nil {
		c.pending = &state
		c.mu.Unlock()

		return
	}
	c.mu.Unlock()

	c.write(conn, gen, state)
}

// UpdateDevice rebinds the client to a newer roster record for the same hardware address.
func (c *Client) UpdateDevice(device models.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.device = device
	c.publishLocked(func(s *models.ConnectionState) {
		s.Device = device
	})
}

// Destroy disconnects, cancels background work and closes subscriptions. It is idempotent.
func (c *Client) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}

	c.destroyed = true
	c.mu.Unlock()

	c.Disconnect()
	c.cancel()
	c.state.Close()
}

func (c *Client) run(ctx context.Context, gen uint64, address string) {
	url, err := wledapi.WebsocketURL(address)
	if err != nil {
		c.fail(gen, err)
		return
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	conn, resp, err := c.dialer.DialContext(dialCtx, url, nil)

	cancel()

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		c.logger.Debug().Err(err).Str("url", url).Msg("Websocket dial failed")
		c.fail(gen, err)

		return
	}

	pending, ok := c.opened(gen, conn)
	if !ok {
		c.closeConn(conn)
		return
	}

	c.logger.Info().Str("address", address).Msg("Websocket connected")

	if pending != nil {
		c.write(conn, gen, *pending)
	}

	c.readLoop(ctx, gen, conn)
}

// opened records a successful dial. It reports false when the attempt was superseded.
func (c *Client) opened(gen uint64, conn *websocket.Conn) (*models.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.destroyed || c.manual {
		return nil, false
	}

	c.conn = conn
	c.connecting = false
	c.retryCount = 0

	pending := c.pending
	c.pending = nil

	c.publishLocked(func(s *models.ConnectionState) {
		s.Status = models.StatusConnected
	})

	return pending, true
}

func (c *Client) readLoop(ctx context.Context, gen uint64, conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug().Err(err).Msg("Websocket closed by device")
			} else {
				c.logger.Warn().Err(err).Msg("Websocket failure")
			}

			c.fail(gen, err)

			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		c.handleMessage(ctx, gen, data)
	}
}

func (c *Client) handleMessage(ctx context.Context, gen uint64, data []byte) {
	var msg models.DeviceStateInfo
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to parse websocket message")
		return
	}

	if msg.Info.MACAddress == "" && msg.Info.Version == "" && msg.Info.Name == "" {
		c.logger.Debug().Err(errMissingInfo).Msg("Ignoring websocket message")
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	device := c.device
	c.publishLocked(func(s *models.ConnectionState) {
		s.StateInfo = &msg
	})
	c.mu.Unlock()

	c.persistTelemetry(ctx, device, &msg.Info)
}

// persistTelemetry records name, last-seen and an inferred branch. Errors are logged only.
func (c *Client) persistTelemetry(ctx context.Context, device models.Device, info *models.Info) {
	if c.persister == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	current, err := c.persister.FindByMAC(ctx, device.MACAddress)
	if errors.Is(err, roster.ErrDeviceNotFound) {
		return
	}

	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to load device for telemetry")
		return
	}

	updated := *current
	updated.OriginalName = info.Name
	updated.LastSeen = c.now().UnixMilli()

	if updated.Branch == models.BranchUnknown || updated.Branch == "" {
		updated.Branch = release.InferBranch(info.Version)
	}

	if err := c.persister.Update(ctx, &updated); err != nil && !errors.Is(err, roster.ErrDeviceNotFound) {
		c.logger.Warn().Err(err).Msg("Failed to persist telemetry")
	}
}

func (c *Client) write(conn *websocket.Conn, gen uint64, state models.State) {
	data, err := json.Marshal(state)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode state")
		return
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send state")
		c.fail(gen, err)
	}
}

// fail drops the socket of generation gen and schedules a reconnect. A clean
// close from the device takes the same path: the device firmware closes
// sockets on reboot and OTA, and a client left Disconnected would stay offline
// until the next manual Connect.
func (c *Client) fail(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	conn := c.detachLocked()
	c.publishLocked(func(s *models.ConnectionState) {
		s.Status = models.StatusDisconnected
	})
	c.reconnectLocked()
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	c.logger.Debug().Err(err).Msg("Connection dropped")
}

// detachLocked clears the socket and invalidates in-flight work of the current generation.
func (c *Client) detachLocked() *websocket.Conn {
	conn := c.conn
	c.conn = nil
	c.connecting = false
	c.gen++

	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}

	return conn
}

func (c *Client) closeConn(conn *websocket.Conn) {
	c.writeMu.Lock()
	err := conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client disconnected"),
		time.Now().Add(closeWriteTimeout))
	c.writeMu.Unlock()

	if err != nil {
		c.logger.Debug().Err(err).Msg("Failed to write close frame")
	}

	_ = conn.Close()
}

func (c *Client) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Client) publishLocked(mutate func(s *models.ConnectionState)) {
	c.state.Update(func(s models.ConnectionState) models.ConnectionState {
		mutate(&s)
		s.Device = c.device
		s.RetryCount = c.retryCount
		s.ManualDisconnect = c.manual

		return s
	})
}
