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
	"sort"
	"sync"

	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/observable"
)

// MemoryRepository keeps the roster in memory. An optional persist hook is
// called with the full roster after every write, under the write lock.
type MemoryRepository struct {
	mu       sync.Mutex
	devices  map[string]models.Device
	snapshot *observable.Value[[]models.Device]
	persist  func([]models.Device) error
}

func NewMemoryRepository() *MemoryRepository {
	return newMemoryRepository(nil, nil)
}

func newMemoryRepository(initial []models.Device, persist func([]models.Device) error) *MemoryRepository {
	m := &MemoryRepository{
		devices: make(map[string]models.Device, len(initial)),
		persist: persist,
	}

	for _, d := range initial {
		key := models.NormalizeMAC(d.MACAddress)
		if key == "" {
			continue
		}

		m.devices[key] = d
	}

	m.snapshot = observable.New(m.sortedLocked())

	return m
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) FindByMAC(_ context.Context, mac string) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[models.NormalizeMAC(mac)]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	return &d, nil
}

func (m *MemoryRepository) Insert(_ context.Context, device *models.Device) error {
	return m.write(device, func(exists bool) error {
		if exists {
			return ErrDeviceExists
		}

		return nil
	})
}

func (m *MemoryRepository) Update(_ context.Context, device *models.Device) error {
	return m.write(device, func(exists bool) error {
		if !exists {
			return ErrDeviceNotFound
		}

		return nil
	})
}

func (m *MemoryRepository) Upsert(_ context.Context, device *models.Device) error {
	return m.write(device, func(bool) error { return nil })
}

func (m *MemoryRepository) Delete(_ context.Context, mac string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.NormalizeMAC(mac)
	prev, ok := m.devices[key]

	if !ok {
		return nil
	}

	delete(m.devices, key)

	if err := m.commitLocked(); err != nil {
		m.devices[key] = prev

		return err
	}

	return nil
}

func (m *MemoryRepository) List(_ context.Context) ([]models.Device, error) {
	return m.snapshot.Get(), nil
}

func (m *MemoryRepository) Subscribe(ctx context.Context) (<-chan []models.Device, error) {
	return m.snapshot.Subscribe(ctx), nil
}

func (m *MemoryRepository) write(device *models.Device, check func(exists bool) error) error {
	key := models.NormalizeMAC(device.MACAddress)
	if key == "" {
		return ErrEmptyMAC
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, exists := m.devices[key]
	if err := check(exists); err != nil {
		return err
	}

	if exists && prev == *device {
		return nil
	}

	m.devices[key] = *device

	if err := m.commitLocked(); err != nil {
		if exists {
			m.devices[key] = prev
		} else {
			delete(m.devices, key)
		}

		return err
	}

	return nil
}

func (m *MemoryRepository) commitLocked() error {
	list := m.sortedLocked()

	if m.persist != nil {
		if err := m.persist(list); err != nil {
			return err
		}
	}

	m.snapshot.Set(list)

	return nil
}

func (m *MemoryRepository) sortedLocked() []models.Device {
	keys := make([]string, 0, len(m.devices))
	for k := range m.devices {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	list := make([]models.Device, 0, len(keys))
	for _, k := range keys {
		list = append(list, m.devices[k])
	}

	return list
}
