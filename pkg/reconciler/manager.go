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

package reconciler

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/observable"
)

const teardownConcurrency = 16

type entry struct {
	client ConnectionClient
	cancel context.CancelFunc
}

// Manager owns the hardware address to client mapping. Only the fold step in
// Apply adds or removes entries; every other operation acts on existing clients.
type Manager struct {
	roster    RosterSource
	factory   ClientFactory
	evaluator UpdateEvaluator
	logger    logger.Logger

	mu         sync.Mutex
	devices    map[string]models.Device
	clients    map[string]*entry
	views      map[string]models.DeviceView
	background bool
	prefs      Preferences
	ctx        context.Context

	readModel *observable.Value[[]models.DeviceView]
}

// NewManager wires a manager. evaluator may be nil, in which case no update tags are computed.
func NewManager(
	roster RosterSource, factory ClientFactory, evaluator UpdateEvaluator, prefs Preferences, log logger.Logger,
) *Manager {
	return &Manager{
		roster:    roster,
		factory:   factory,
		evaluator: evaluator,
		logger:    log,
		devices:   make(map[string]models.Device),
		clients:   make(map[string]*entry),
		views:     make(map[string]models.DeviceView),
		prefs:     prefs,
		ctx:       context.Background(),
		readModel: observable.New([]models.DeviceView{}),
	}
}

// Run folds roster snapshots in arrival order until ctx is done, then destroys
// every client. A tick on revisions recomputes update tags.
func (m *Manager) Run(ctx context.Context, revisions <-chan uint64) error {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	defer m.DestroyAll()

	snapshots, err := m.roster.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}

			m.Apply(snap)
		case _, ok := <-revisions:
			if !ok {
				revisions = nil
				continue
			}

			m.RecomputeUpdateTags(ctx)
		}
	}
}

// Apply runs one fold step and executes its effects before the next snapshot can start.
func (m *Manager) Apply(snapshot []models.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, effects := Fold(m.devices, snapshot, m.background)
	m.devices = next

	for _, eff := range effects {
		switch eff.Kind {
		case EffectDestroy:
			m.destroyLocked(eff.MAC)
		case EffectCreate:
			m.createLocked(eff.MAC, eff.Device, eff.Connect)
		case EffectUpdate:
			if e, ok := m.clients[eff.MAC]; ok {
				e.client.UpdateDevice(eff.Device)
			}

			view := m.views[eff.MAC]
			view.Device = eff.Device
			view.Connection.Device = eff.Device
			m.views[eff.MAC] = view
		}
	}

	if len(effects) > 0 {
		m.logger.Debug().Int("effects", len(effects)).Int("devices", len(next)).Msg("Roster reconciled")
		m.publishLocked()
	}
}

// SetBackground disconnects every client when entering background and
// reconnects them all on return to foreground. Clients stay mapped either way.
func (m *Manager) SetBackground(background bool) {
	m.mu.Lock()
	m.background = background
	clients := m.clientsLocked()
	m.mu.Unlock()

	if background {
		m.forEach(clients, ConnectionClient.Disconnect)
		return
	}

	m.forEach(clients, ConnectionClient.Connect)
}

// IsBackground reports the current lifecycle state.
func (m *Manager) IsBackground() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.background
}

// RefreshOfflineDevices connects every disconnected client now, skipping any pending backoff.
func (m *Manager) RefreshOfflineDevices() int {
	m.mu.Lock()
	clients := m.clientsLocked()
	m.mu.Unlock()

	var offline []ConnectionClient

	for _, c := range clients {
		if c.State().Status == models.StatusDisconnected {
			offline = append(offline, c)
		}
	}

	m.forEach(offline, ConnectionClient.Connect)

	return len(offline)
}

// SendState forwards a partial state to the device's client.
func (m *Manager) SendState(mac string, state models.State) error {
	c, ok := m.Client(mac)
	if !ok {
		return ErrUnknownDevice
	}

	c.SendState(state)

	return nil
}

func (m *Manager) SetPower(mac string, on bool) error {
	return m.SendState(mac, models.State{On: models.Bool(on)})
}

// SetBrightness clamps to the device range 1..255.
func (m *Manager) SetBrightness(mac string, brightness int) error {
	return m.SendState(mac, models.State{Brightness: models.Int(min(max(brightness, 1), 255))})
}

// Client returns the live client for a hardware address.
func (m *Manager) Client(mac string) (ConnectionClient, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.clients[models.NormalizeMAC(mac)]
	if !ok {
		return nil, false
	}

	return e.client, true
}

// Len is the number of mapped clients.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.clients)
}

// DestroyAll tears down every client and empties the mapping.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	entries := m.clients
	m.clients = make(map[string]*entry)
	m.devices = make(map[string]models.Device)
	m.views = make(map[string]models.DeviceView)
	m.publishLocked()
	m.mu.Unlock()

	clients := make([]ConnectionClient, 0, len(entries))

	for _, e := range entries {
		e.cancel()
		clients = append(clients, e.client)
	}

	m.forEach(clients, ConnectionClient.Destroy)
}

// SetPreferences changes the read model filter and order.
func (m *Manager) SetPreferences(prefs Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prefs = prefs
	m.publishLocked()
}

// Devices returns the current read model.
func (m *Manager) Devices() []models.DeviceView {
	return m.readModel.Get()
}

// Subscribe yields the read model now and after every change.
func (m *Manager) Subscribe(ctx context.Context) <-chan []models.DeviceView {
	return m.readModel.Subscribe(ctx)
}

// RecomputeUpdateTags re-evaluates every device with telemetry, typically after a catalog refresh.
func (m *Manager) RecomputeUpdateTags(ctx context.Context) {
	if m.evaluator == nil {
		return
	}

	m.mu.Lock()
	views := make([]models.DeviceView, 0, len(m.views))
	for _, v := range m.views {
		views = append(views, v)
	}
	m.mu.Unlock()

	tags := make(map[string]string, len(views))

	for i := range views {
		v := &views[i]
		if v.Connection.StateInfo == nil {
			continue
		}

		tags[models.NormalizeMAC(v.Device.MACAddress)] = m.evaluator.UpdateTagFor(ctx, &v.Device, &v.Connection.StateInfo.Info)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, tag := range tags {
		if v, ok := m.views[key]; ok {
			v.UpdateTag = tag
			m.views[key] = v
		}
	}

	m.publishLocked()
}

func (m *Manager) createLocked(mac string, device models.Device, connect bool) {
	client := m.factory(device)
	ctx, cancel := context.WithCancel(m.ctx)
	e := &entry{client: client, cancel: cancel}

	m.clients[mac] = e
	m.views[mac] = models.DeviceView{Device: device, Connection: client.State()}

	go m.forward(ctx, mac, e)

	if connect {
		client.Connect()
	}
}

func (m *Manager) destroyLocked(mac string) {
	e, ok := m.clients[mac]
	if !ok {
		return
	}

	delete(m.clients, mac)
	delete(m.views, mac)
	e.cancel()
	e.client.Destroy()
}

// forward folds one client's snapshots into the read model until the client is replaced.
func (m *Manager) forward(ctx context.Context, mac string, e *entry) {
	for st := range e.client.Subscribe(ctx) {
		tag := ""

		if m.evaluator != nil && st.StateInfo != nil {
			tag = m.evaluator.UpdateTagFor(ctx, &st.Device, &st.StateInfo.Info)
		}

		m.mu.Lock()
		if m.clients[mac] != e {
			m.mu.Unlock()
			return
		}

		m.views[mac] = models.DeviceView{Device: m.devices[mac], Connection: st, UpdateTag: tag}
		m.publishLocked()
		m.mu.Unlock()
	}
}

func (m *Manager) clientsLocked() []ConnectionClient {
	clients := make([]ConnectionClient, 0, len(m.clients))
	for _, e := range m.clients {
		clients = append(clients, e.client)
	}

	return clients
}

func (m *Manager) forEach(clients []ConnectionClient, fn func(ConnectionClient)) {
	var g errgroup.Group

	g.SetLimit(teardownConcurrency)

	for _, c := range clients {
		g.Go(func() error {
			fn(c)
			return nil
		})
	}

	_ = g.Wait()
}

func (m *Manager) publishLocked() {
	m.readModel.Set(BuildReadModel(m.views, m.prefs))
}

// BuildReadModel filters hidden devices unless shown and sorts by display
// name, case-insensitively. Offline devices sink to the end when requested.
func BuildReadModel(views map[string]models.DeviceView, prefs Preferences) []models.DeviceView {
	out := make([]models.DeviceView, 0, len(views))

	for _, v := range views {
		if v.Device.IsHidden && !prefs.ShowHiddenDevices {
			continue
		}

		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]

		if prefs.ShowOfflineLast {
			ao, bo := a.Connection.IsOnline(), b.Connection.IsOnline()
			if ao != bo {
				return ao
			}
		}

		an, bn := strings.ToLower(a.Device.DisplayName()), strings.ToLower(b.Device.DisplayName())
		if an != bn {
			return an < bn
		}

		return a.Device.MACAddress < b.Device.MACAddress
	})

	return out
}
