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
package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

func view(mac string, status models.ConnectionStatus, tag string) models.DeviceView {
	return models.DeviceView{
		Device:     models.Device{MACAddress: mac, Address: "192.168.1.10", OriginalName: "Desk " + mac},
		Connection: models.ConnectionState{Status: status},
		UpdateTag:  tag,
	}
}

func kinds(changes []Change) []Kind {
	out := make([]Kind, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Kind)
	}

	return out
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name  string
		prev  []models.DeviceView
		views []models.DeviceView
		want  []Kind
	}{
		{
			name:  "first sighting connecting is quiet",
			views: []models.DeviceView{view("a", models.StatusConnecting, "")},
		},
		{
			name:  "first sighting online",
			views: []models.DeviceView{view("a", models.StatusConnected, "")},
			want:  []Kind{KindOnline},
		},
		{
			name:  "connecting to connected",
			prev:  []models.DeviceView{view("a", models.StatusConnecting, "")},
			views: []models.DeviceView{view("a", models.StatusConnected, "")},
			want:  []Kind{KindOnline},
		},
		{
			name:  "still online",
			prev:  []models.DeviceView{view("a", models.StatusConnected, "")},
			views: []models.DeviceView{view("a", models.StatusConnected, "")},
		},
		{
			name:  "drop to disconnected",
			prev:  []models.DeviceView{view("a", models.StatusConnected, "")},
			views: []models.DeviceView{view("a", models.StatusDisconnected, "")},
			want:  []Kind{KindOffline},
		},
		{
			name:  "update offered once",
			prev:  []models.DeviceView{view("a", models.StatusConnected, "")},
			views: []models.DeviceView{view("a", models.StatusConnected, "0.15.0")},
			want:  []Kind{KindUpdateAvailable},
		},
		{
			name:  "same update is quiet",
			prev:  []models.DeviceView{view("a", models.StatusConnected, "0.15.0")},
			views: []models.DeviceView{view("a", models.StatusConnected, "0.15.0")},
		},
		{
			name:  "removed sorted after changes",
			prev:  []models.DeviceView{view("c", models.StatusConnected, ""), view("b", models.StatusConnected, "")},
			views: []models.DeviceView{view("a", models.StatusConnected, "0.15.0")},
			want:  []Kind{KindOnline, KindUpdateAvailable, KindRemoved, KindRemoved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := map[string]models.DeviceView{}
			for _, v := range tt.prev {
				prev[v.Device.MACAddress] = v
			}

			next, changes := Diff(prev, tt.views)
			assert.Equal(t, tt.want, kinds(changes))
			assert.Len(t, next, len(tt.views))
		})
	}
}

func TestDiffRemovalOrder(t *testing.T) {
	prev := map[string]models.DeviceView{
		"c": view("c", models.StatusConnected, ""),
		"b": view("b", models.StatusDisconnected, ""),
	}

	_, changes := Diff(prev, nil)
	require.Len(t, changes, 2)
	assert.Equal(t, "b", changes[0].View.Device.MACAddress)
	assert.Equal(t, "c", changes[1].View.Device.MACAddress)
}

func newTestWatcher(pub Publisher) *Watcher {
	w := NewWatcher(pub, logger.NewTestLogger())
	w.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	w.newID = func() string { return "evt-1" }

	return w
}

func TestWatcherPublishesCloudEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := NewMockPublisher(ctrl)
	w := newTestWatcher(pub)

	v := view("a", models.StatusConnected, "")
	v.Connection.StateInfo = &models.DeviceStateInfo{Info: models.Info{Version: "0.14.4"}}

	var got CloudEvent

	pub.EXPECT().Publish(gomock.Any(), "wledradar.devices.online", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) error {
			return json.Unmarshal(payload, &got)
		})

	assert.Equal(t, 1, w.Observe(context.Background(), []models.DeviceView{v}))

	assert.Equal(t, "1.0", got.SpecVersion)
	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, "com.carverauto.wledradar.device.online", got.Type)
	assert.Equal(t, "a", got.Subject)
	assert.Equal(t, DeviceEvent{
		MACAddress: "a",
		Name:       "Desk a",
		Address:    "192.168.1.10",
		Status:     "connected",
		Version:    "0.14.4",
		Timestamp:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}, got.Data)

	var removed CloudEvent

	pub.EXPECT().Publish(gomock.Any(), "wledradar.devices.removed", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) error {
			return json.Unmarshal(payload, &removed)
		})

	assert.Equal(t, 1, w.Observe(context.Background(), nil))
	assert.Equal(t, "removed", removed.Data.Status)
	assert.Equal(t, "connected", removed.Data.PreviousStatus)
}

func TestWatcherKeepsGoingAfterPublishFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := NewMockPublisher(ctrl)
	w := newTestWatcher(pub)

	gomock.InOrder(
		pub.EXPECT().Publish(gomock.Any(), KindOnline.Subject(), gomock.Any()).Return(errors.New("no responders")),
		pub.EXPECT().Publish(gomock.Any(), KindUpdateAvailable.Subject(), gomock.Any()).Return(nil),
	)

	sent := w.Observe(context.Background(), []models.DeviceView{view("a", models.StatusConnected, "0.15.0")})
	assert.Equal(t, 1, sent)
}

func TestWatcherRunStopsWhenViewsClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := NewMockPublisher(ctrl)
	w := newTestWatcher(pub)

	pub.EXPECT().Publish(gomock.Any(), KindOnline.Subject(), gomock.Any()).Return(nil)

	views := make(chan []models.DeviceView, 2)
	views <- []models.DeviceView{view("a", models.StatusConnecting, "")}
	views <- []models.DeviceView{view("a", models.StatusConnected, "")}
	close(views)

	done := make(chan struct{})

	go func() {
		w.Run(context.Background(), views)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
