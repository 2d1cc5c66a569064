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
// Package events publishes device lifecycle changes as CloudEvents on NATS JetStream.
package events

import "time"

const (
	specVersion   = "1.0"
	eventSource   = "wledradar/daemon"
	typePrefix    = "com.carverauto.wledradar.device."
	subjectPrefix = "wledradar.devices."

	// SubjectWildcard matches every subject the watcher publishes on.
	SubjectWildcard = subjectPrefix + ">"
)

// Kind names one device lifecycle transition.
type Kind string

const (
	KindOnline          Kind = "online"
	KindOffline         Kind = "offline"
	KindUpdateAvailable Kind = "update_available"
	KindRemoved         Kind = "removed"
)

// Type is the CloudEvent type attribute for k.
func (k Kind) Type() string {
	return typePrefix + string(k)
}

// Subject is the NATS subject events of kind k are published on.
func (k Kind) Subject() string {
	return subjectPrefix + string(k)
}

// CloudEvent is a CloudEvents 1.0 envelope in JSON structured mode.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            DeviceEvent `json:"data"`
}

// DeviceEvent is the payload of every device lifecycle event.
type DeviceEvent struct {
	MACAddress     string    `json:"mac_address"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Status         string    `json:"status"`
	Version        string    `json:"version,omitempty"`
	UpdateTag      string    `json:"update_tag,omitempty"`
	RetryCount     int       `json:"retry_count,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
