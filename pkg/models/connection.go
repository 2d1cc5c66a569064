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

// ConnectionStatus is the state of a device websocket.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ConnectionState is an immutable snapshot of one device connection.
// Snapshots are replaced wholesale, never mutated after publication.
type ConnectionState struct {
	Device           Device
	Status           ConnectionStatus
	StateInfo        *DeviceStateInfo
	RetryCount       int
	ManualDisconnect bool
}

// IsOnline reports whether the socket is open.
func (c *ConnectionState) IsOnline() bool {
	return c.Status == StatusConnected
}

// DeviceView is one row of the read model: a roster record, its connection
// snapshot and the pending update tag, if any.
type DeviceView struct {
	Device     Device
	Connection ConnectionState
	UpdateTag  string
}
