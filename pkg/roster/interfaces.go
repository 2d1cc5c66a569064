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

// Package roster persists the set of known devices and notifies subscribers of changes.
package roster

import (
	"context"

	"github.com/carverauto/wledradar/pkg/models"
)

// Repository stores devices keyed by normalized hardware address.
type Repository interface {
	FindByMAC(ctx context.Context, mac string) (*models.Device, error)
	// Insert fails with ErrDeviceExists when the hardware address is taken.
	Insert(ctx context.Context, device *models.Device) error
	// Update fails with ErrDeviceNotFound for an unknown hardware address.
	Update(ctx context.Context, device *models.Device) error
	Upsert(ctx context.Context, device *models.Device) error
	Delete(ctx context.Context, mac string) error
	List(ctx context.Context) ([]models.Device, error)
	// Subscribe yields the full roster now and again after every change,
	// sorted by hardware address. A slow reader only sees the latest roster.
	Subscribe(ctx context.Context) (<-chan []models.Device, error)
}
