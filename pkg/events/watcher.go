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
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

// Change is one lifecycle transition found between two read models.
type Change struct {
	Kind     Kind
	View     models.DeviceView
	Previous *models.DeviceView
}

// Diff compares the previous views, keyed by MAC, with the current read
// model. Changes follow the order of views. Removals come last, sorted by MAC.
func Diff(prev map[string]models.DeviceView, views []models.DeviceView) (map[string]models.DeviceView, []Change) {
	next := make(map[string]models.DeviceView, len(views))

	var changes []Change

	for _, v := range views {
		mac := v.Device.MACAddress
		next[mac] = v

		old, existed := prev[mac]

		var before *models.DeviceView
		if existed {
			before = &old
		}

		online := v.Connection.IsOnline()

		switch {
		case online && (!existed || !old.Connection.IsOnline()):
			changes = append(changes, Change{Kind: KindOnline, View: v, Previous: before})
		case !online && existed && old.Connection.IsOnline():
			changes = append(changes, Change{Kind: KindOffline, View: v, Previous: before})
		}

		if v.UpdateTag != "" && (!existed || old.UpdateTag != v.UpdateTag) {
			changes = append(changes, Change{Kind: KindUpdateAvailable, View: v, Previous: before})
		}
	}

	var removed []string

	for mac := range prev {
		if _, ok := next[mac]; !ok {
			removed = append(removed, mac)
		}
	}

	sort.Strings(removed)

	for _, mac := range removed {
		old := prev[mac]
		changes = append(changes, Change{Kind: KindRemoved, View: old, Previous: &old})
	}

	return next, changes
}

// Watcher turns read model updates into published events.
type Watcher struct {
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
	newID     func() string
	last      map[string]models.DeviceView
}

func NewWatcher(publisher Publisher, log logger.Logger) *Watcher {
	return &Watcher{
		publisher: publisher,
		logger:    log,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		last:      map[string]models.DeviceView{},
	}
}

// Run publishes the changes of every read model received until views closes
// or ctx is done. Publish failures are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, views <-chan []models.DeviceView) {
	for {
		select {
		case <-ctx.Done():
			return
		case vs, ok := <-views:
			if !ok {
				return
			}

			w.Observe(ctx, vs)
		}
	}
}

// Observe diffs one read model against the last and publishes the result.
// It returns the number of events delivered.
func (w *Watcher) Observe(ctx context.Context, views []models.DeviceView) int {
	var changes []Change

	w.last, changes = Diff(w.last, views)

	sent := 0

	for _, c := range changes {
		ev := w.envelope(c)

		payload, err := json.Marshal(ev)
		if err != nil {
			w.logger.Error().Err(err).Str("type", ev.Type).Msg("Failed to encode event")
			continue
		}

		if err := w.publisher.Publish(ctx, c.Kind.Subject(), payload); err != nil {
			w.logger.Warn().Err(err).Str("mac", c.View.Device.MACAddress).Str("type", ev.Type).Msg("Failed to publish device event")
			continue
		}

		sent++
	}

	return sent
}

func (w *Watcher) envelope(c Change) CloudEvent {
	ts := w.now().UTC()
	v := c.View

	data := DeviceEvent{
		MACAddress: v.Device.MACAddress,
		Name:       v.Device.DisplayName(),
		Address:    v.Device.Address,
		Status:     v.Connection.Status.String(),
		UpdateTag:  v.UpdateTag,
		RetryCount: v.Connection.RetryCount,
		Timestamp:  ts,
	}

	if c.Kind == KindRemoved {
		data.Status = string(KindRemoved)
	}

	if c.Previous != nil {
		data.PreviousStatus = c.Previous.Connection.Status.String()
	}

	if si := v.Connection.StateInfo; si != nil {
		data.Version = si.Info.Version
	}

	return CloudEvent{
		SpecVersion:     specVersion,
		ID:              w.newID(),
		Source:          eventSource,
		Type:            c.Kind.Type(),
		DataContentType: "application/json",
		Subject:         v.Device.MACAddress,
		Time:            &ts,
		Data:            data,
	}
}
