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

package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/carverauto/wledradar/pkg/kv"
	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

// KeyPrefix namespaces roster entries in the bucket.
const KeyPrefix = "devices."

// KVRepository stores one JSON document per device under devices.<mac>.
// Writes are read-check-put and rely on a single writer per hardware address.
type KVRepository struct {
	store  kv.KVStore
	logger logger.Logger
}

func NewKVRepository(store kv.KVStore, log logger.Logger) *KVRepository {
	return &KVRepository{store: store, logger: log}
}

var _ Repository = (*KVRepository)(nil)

// Key returns the bucket key of a hardware address.
func Key(mac string) string {
	return KeyPrefix + models.NormalizeMAC(mac)
}

func (r *KVRepository) FindByMAC(ctx context.Context, mac string) (*models.Device, error) {
	data, found, err := r.store.Get(ctx, Key(mac))
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, ErrDeviceNotFound
	}

	var d models.Device
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode device %s: %w", mac, err)
	}

	return &d, nil
}

func (r *KVRepository) Insert(ctx context.Context, device *models.Device) error {
	if _, err := r.FindByMAC(ctx, device.MACAddress); err == nil {
		return ErrDeviceExists
	} else if err != ErrDeviceNotFound { //nolint:errorlint // sentinel returned directly
		return err
	}

	return r.put(ctx, device)
}

func (r *KVRepository) Update(ctx context.Context, device *models.Device) error {
	if _, err := r.FindByMAC(ctx, device.MACAddress); err != nil {
		return err
	}

	return r.put(ctx, device)
}

func (r *KVRepository) Upsert(ctx context.Context, device *models.Device) error {
	return r.put(ctx, device)
}

func (r *KVRepository) Delete(ctx context.Context, mac string) error {
	return r.store.Delete(ctx, Key(mac))
}

func (r *KVRepository) List(ctx context.Context) ([]models.Device, error) {
	keys, err := r.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}

	sort.Strings(keys)

	devices := make([]models.Device, 0, len(keys))

	for _, key := range keys {
		d, err := r.FindByMAC(ctx, strings.TrimPrefix(key, KeyPrefix))
		if err == ErrDeviceNotFound { //nolint:errorlint // sentinel returned directly
			continue
		}

		if err != nil {
			return nil, err
		}

		devices = append(devices, *d)
	}

	return devices, nil
}

// Subscribe folds the bucket watch into full roster snapshots. Nothing is
// emitted until the watch has replayed the current values.
func (r *KVRepository) Subscribe(ctx context.Context) (<-chan []models.Device, error) {
	events, err := r.store.WatchPrefix(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}

	out := make(chan []models.Device, 1)

	go func() {
		defer close(out)

		devices := make(map[string]models.Device)
		synced := false

		for ev := range events {
			switch {
			case ev.Synced:
				synced = true
			case ev.Deleted:
				delete(devices, strings.TrimPrefix(ev.Key, KeyPrefix))
			default:
				var d models.Device
				if err := json.Unmarshal(ev.Value, &d); err != nil {
					r.logger.Warn().Err(err).Str("key", ev.Key).Msg("Skipping undecodable roster entry")
					continue
				}

				devices[strings.TrimPrefix(ev.Key, KeyPrefix)] = d
			}

			if synced {
				latest(out, sortedDevices(devices))
			}
		}
	}()

	return out, nil
}

func (r *KVRepository) put(ctx context.Context, device *models.Device) error {
	if models.NormalizeMAC(device.MACAddress) == "" {
		return ErrEmptyMAC
	}

	data, err := json.Marshal(device)
	if err != nil {
		return err
	}

	return r.store.Put(ctx, Key(device.MACAddress), data)
}

// latest replaces any unread snapshot with v.
func latest(ch chan []models.Device, v []models.Device) {
	select {
	case <-ch:
	default:
	}

	ch <- v
}

func sortedDevices(m map[string]models.Device) []models.Device {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	list := make([]models.Device, 0, len(keys))
	for _, k := range keys {
		list = append(list, m[k])
	}

	return list
}
