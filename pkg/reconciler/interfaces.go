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
	"errors"

	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/wsclient"
)

// ErrUnknownDevice is returned for a hardware address with no live client.
var ErrUnknownDevice = errors.New("no connection for device")

// ConnectionClient is the per-device connection the manager drives.
type ConnectionClient interface {
	Connect()
	Disconnect()
	SendState(state models.State)
	UpdateDevice(device models.Device)
	Destroy()
	State() models.ConnectionState
	Subscribe(ctx context.Context) <-chan models.ConnectionState
}

var _ ConnectionClient = (*wsclient.Client)(nil)

// ClientFactory builds an unconnected client for a roster record.
type ClientFactory func(device models.Device) ConnectionClient

// UpdateEvaluator computes the update tag to show for a device, "" for none.
type UpdateEvaluator interface {
	UpdateTagFor(ctx context.Context, device *models.Device, info *models.Info) string
}

// RosterSource streams full roster snapshots.
type RosterSource interface {
	Subscribe(ctx context.Context) (<-chan []models.Device, error)
}

// Preferences shape the read model.
type Preferences struct {
	ShowHiddenDevices bool
	ShowOfflineLast   bool
}
