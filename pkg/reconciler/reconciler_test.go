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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/observable"
	"github.com/carverauto/wledradar/pkg/roster"
)

const waitFor = 2 * time.Second

type fakeClient struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	destroys    int
	sent        []models.State
	state       *observable.Value[models.ConnectionState]
}

func newFakeClient(device models.Device) *fakeClient {
	return &fakeClient{state: observable.New(models.ConnectionState{Device: device})}
}

func (f *fakeClient) Connect() {
	f.mu.Lock()
	f.connects++
	f.mu.Unlock()
	f.setStatus(models.StatusConnected)
}

func (f *fakeClient) Disconnect() {
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
	f.setStatus(models.StatusDisconnected)
}

func (f *fakeClient) SendState(state models.State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, state)
}

func (f *fakeClient) UpdateDevice(device models.Device) {
	f.state.Update(func(s models.ConnectionState) models.ConnectionState {
		s.Device = device
		return s
	})
}

func (f *fakeClient) Destroy() {
	f.mu.Lock()
	f.destroys++
	f.mu.Unlock()
	f.state.Close()
}

func (f *fakeClient) State() models.ConnectionState { return f.state.Get() }

func (f *fakeClient) Subscribe(ctx context.Context) <-chan models.ConnectionState {
	return f.state.Subscribe(ctx)
}

func (f *fakeClient) setStatus(status models.ConnectionStatus) {
	f.state.Update(func(s models.ConnectionState) models.ConnectionState {
		s.Status = status
		return s
	})
}

func (f *fakeClient) counts() (connects, disconnects, destroys int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.connects, f.disconnects, f.destroys
}

type fakeFactory struct {
	mu      sync.Mutex
	created []*fakeClient
}

func (f *fakeFactory) New(device models.Device) ConnectionClient {
	c := newFakeClient(device)

	f.mu.Lock()
	f.created = append(f.created, c)
	f.mu.Unlock()

	return c
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.created)
}

type stubEvaluator struct {
	tag atomic.Value
}

func (s *stubEvaluator) UpdateTagFor(_ context.Context, device *models.Device, _ *models.Info) string {
	tag, _ := s.tag.Load().(string)
	if tag == device.SkipUpdateTag {
		return ""
	}

	return tag
}

func dev(mac, address, name string) models.Device {
	return models.Device{MACAddress: mac, Address: address, OriginalName: name}
}

func newManager(f *fakeFactory, eval UpdateEvaluator, prefs Preferences) *Manager {
	return NewManager(roster.NewMemoryRepository(), f.New, eval, prefs, logger.NewTestLogger())
}

func TestFold(t *testing.T) {
	a := dev("aa", "10.0.0.1", "A")
	b := dev("bb", "10.0.0.2", "B")
	bMoved := dev("bb", "10.0.0.9", "B")
	bRenamed := dev("bb", "10.0.0.2", "Bee")

	tests := []struct {
		name       string
		prev       []models.Device
		snapshot   []models.Device
		background bool
		want       []Effect
	}{
		{
			name:     "new devices connect",
			snapshot: []models.Device{b, a},
			want: []Effect{
				{Kind: EffectCreate, MAC: "aa", Device: a, Connect: true},
				{Kind: EffectCreate, MAC: "bb", Device: b, Connect: true},
			},
		},
		{
			name:       "new devices stay idle in background",
			snapshot:   []models.Device{a},
			background: true,
			want:       []Effect{{Kind: EffectCreate, MAC: "aa", Device: a}},
		},
		{
			name:     "removed device destroyed",
			prev:     []models.Device{a, b},
			snapshot: []models.Device{a},
			want:     []Effect{{Kind: EffectDestroy, MAC: "bb", Device: b}},
		},
		{
			name:     "address change recreates",
			prev:     []models.Device{b},
			snapshot: []models.Device{bMoved},
			want: []Effect{
				{Kind: EffectDestroy, MAC: "bb", Device: b},
				{Kind: EffectCreate, MAC: "bb", Device: bMoved, Connect: true},
			},
		},
		{
			name:     "other field change updates in place",
			prev:     []models.Device{b},
			snapshot: []models.Device{bRenamed},
			want:     []Effect{{Kind: EffectUpdate, MAC: "bb", Device: bRenamed}},
		},
		{
			name:     "same snapshot is a no-op",
			prev:     []models.Device{a, b},
			snapshot: []models.Device{b, a},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, _ := Fold(nil, tt.prev, false)
			next, effects := Fold(prev, tt.snapshot, tt.background)

			if len(tt.want) == 0 {
				assert.Empty(t, effects)
			} else {
				assert.Equal(t, tt.want, effects)
			}

			assert.Len(t, next, len(tt.snapshot))
		})
	}
}

func TestApplySameSnapshotTwiceHasNoChurn(t *testing.T) {
	f := &fakeFactory{}
	m := newManager(f, nil, Preferences{})
	defer m.DestroyAll()

	snap := []models.Device{dev("aa", "10.0.0.1", "A"), dev("bb", "10.0.0.2", "B")}

	m.Apply(snap)
	m.Apply(snap)

	assert.Equal(t, 2, f.count())
	assert.Equal(t, 2, m.Len())

	for _, c := range f.created {
		connects, _, destroys := c.counts()
		assert.Equal(t, 1, connects)
		assert.Zero(t, destroys)
	}
}

func TestRemovingConnectedDeviceDestroysOnce(t *testing.T) {
	f := &fakeFactory{}
	m := newManager(f, nil, Preferences{})
	defer m.DestroyAll()

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A")})

	c, ok := m.Client("aa")
	require.True(t, ok)
	require.Equal(t, models.StatusConnected, c.State().Status)

	m.Apply(nil)
	m.Apply(nil)

	_, ok = m.Client("aa")
	assert.False(t, ok)

	_, _, destroys := f.created[0].counts()
	assert.Equal(t, 1, destroys)
}

func TestAddressChangeReplacesClient(t *testing.T) {
	f := &fakeFactory{}
	m := newManager(f, nil, Preferences{})
	defer m.DestroyAll()

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A")})
	m.Apply([]models.Device{dev("aa", "10.0.0.7", "A")})

	require.Equal(t, 2, f.count())

	_, _, destroys := f.created[0].counts()
	assert.Equal(t, 1, destroys)

	c, ok := m.Client("aa")
	require.True(t, ok)
	assert.Same(t, f.created[1], c)
	assert.Equal(t, "10.0.0.7", c.State().Device.Address)
}

func TestUpdatePushesRecordWithoutReconnect(t *testing.T) {
	f := &fakeFactory{}
	m := newManager(f, nil, Preferences{})
	defer m.DestroyAll()

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A")})

	renamed := dev("aa", "10.0.0.1", "A")
	renamed.CustomName = "Desk"
	m.Apply([]models.Device{renamed})

	require.Equal(t, 1, f.count())
	assert.Equal(t, "Desk", f.created[0].State().Device.CustomName)

	connects, _, _ := f.created[0].counts()
	assert.Equal(t, 1, connects)
}

func TestBackgroundForeground(t *testing.T) {
	f := &fakeFactory{}
	m := newManager(f, nil, Preferences{})
	defer m.DestroyAll()

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A")})
	m.SetBackground(true)
	assert.True(t, m.IsBackground())

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A"), dev("bb", "10.0.0.2", "B")})
	require.Equal(t, 2, m.Len())

	connects, disconnects, destroys := f.created[0].counts()
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, disconnects)
	assert.Zero(t, destroys)

	connects, _, _ = f.created[1].counts()
	assert.Zero(t, connects, "device added while backgrounded must not connect")

	m.SetBackground(false)

	for _, c := range f.created {
		assert.Equal(t, models.StatusConnected, c.State().Status)
	}
}

func TestRefreshOfflineDevices(t *testing.T) {
	f := &fakeFactory{}
	m := newManager(f, nil, Preferences{})
	defer m.DestroyAll()

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A"), dev("bb", "10.0.0.2", "B")})
	f.created[1].setStatus(models.StatusDisconnected)

	assert.Equal(t, 1, m.RefreshOfflineDevices())

	connects, _, _ := f.created[0].counts()
	assert.Equal(t, 1, connects)

	connects, _, _ = f.created[1].counts()
	assert.Equal(t, 2, connects)
}

func TestCommandsReachClient(t *testing.T) {
	f := &fakeFactory{}
	m := newManager(f, nil, Preferences{})
	defer m.DestroyAll()

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A")})

	require.NoError(t, m.SetPower("AA", false))
	require.NoError(t, m.SetBrightness("aa", 999))
	require.ErrorIs(t, m.SetPower("zz", true), ErrUnknownDevice)

	c := f.created[0]
	c.mu.Lock()
	defer c.mu.Unlock()

	require.Len(t, c.sent, 2)
	assert.False(t, *c.sent[0].On)
	assert.Equal(t, 255, *c.sent[1].Brightness)
}

func TestReadModelFiltersAndSorts(t *testing.T) {
	hidden := dev("cc", "10.0.0.3", "Attic")
	hidden.IsHidden = true

	custom := dev("dd", "10.0.0.4", "zzz")
	custom.CustomName = "bedroom"

	views := map[string]models.DeviceView{
		"aa": {Device: dev("aa", "10.0.0.1", "kitchen")},
		"bb": {Device: dev("bb", "10.0.0.2", "Bar"), Connection: models.ConnectionState{Status: models.StatusConnected}},
		"cc": {Device: hidden},
		"dd": {Device: custom},
	}

	names := func(list []models.DeviceView) []string {
		out := make([]string, 0, len(list))
		for _, v := range list {
			out = append(out, v.Device.DisplayName())
		}

		return out
	}

	assert.Equal(t, []string{"Bar", "bedroom", "kitchen"}, names(BuildReadModel(views, Preferences{})))
	assert.Equal(t, []string{"Attic", "Bar", "bedroom", "kitchen"},
		names(BuildReadModel(views, Preferences{ShowHiddenDevices: true})))
	assert.Equal(t, []string{"Bar", "bedroom", "kitchen"},
		names(BuildReadModel(views, Preferences{ShowOfflineLast: true})))

	views["bb"] = models.DeviceView{Device: dev("bb", "10.0.0.2", "Bar")}
	views["aa"] = models.DeviceView{Device: dev("aa", "10.0.0.1", "kitchen"), Connection: models.ConnectionState{Status: models.StatusConnected}}
	assert.Equal(t, []string{"kitchen", "Bar", "bedroom"},
		names(BuildReadModel(views, Preferences{ShowOfflineLast: true})))
}

func TestUpdateTagTracksTelemetryAndCatalog(t *testing.T) {
	f := &fakeFactory{}
	eval := &stubEvaluator{}
	eval.tag.Store("")

	m := newManager(f, eval, Preferences{})
	defer m.DestroyAll()

	m.Apply([]models.Device{dev("aa", "10.0.0.1", "A")})

	f.created[0].state.Update(func(s models.ConnectionState) models.ConnectionState {
		s.StateInfo = &models.DeviceStateInfo{Info: models.Info{Version: "0.14.0", Brand: "WLED"}}
		return s
	})

	require.Eventually(t, func() bool {
		list := m.Devices()
		return len(list) == 1 && list[0].Connection.StateInfo != nil
	}, waitFor, 5*time.Millisecond)
	assert.Empty(t, m.Devices()[0].UpdateTag)

	eval.tag.Store("0.15.0")
	m.RecomputeUpdateTags(context.Background())
	assert.Equal(t, "0.15.0", m.Devices()[0].UpdateTag)

	skipped := dev("aa", "10.0.0.1", "A")
	skipped.SkipUpdateTag = "0.15.0"
	m.Apply([]models.Device{skipped})

	require.Eventually(t, func() bool {
		return m.Devices()[0].UpdateTag == ""
	}, waitFor, 5*time.Millisecond)
}

func TestRunFollowsRosterAndDestroysOnShutdown(t *testing.T) {
	repo := roster.NewMemoryRepository()
	f := &fakeFactory{}
	m := NewManager(repo, f.New, nil, Preferences{}, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- m.Run(ctx, nil) }()

	require.NoError(t, repo.Insert(context.Background(), &models.Device{MACAddress: "aabbccddeeff", Address: "10.0.0.1"}))

	require.Eventually(t, func() bool { return m.Len() == 1 }, waitFor, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Zero(t, m.Len())

	_, _, destroys := f.created[0].counts()
	assert.Equal(t, 1, destroys)
}
