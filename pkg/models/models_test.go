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

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AA:BB:CC:DD:EE:FF", "aabbccddeeff"},
		{"aa-bb-cc-dd-ee-ff", "aabbccddeeff"},
		{"aabbccddeeff", "aabbccddeeff"},
		{"AABB.CCDD.EEFF", "aabbccddeeff"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMAC(tt.in))
		})
	}
}

func TestIsIPAddress(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"4.3.2.1", true},
		{"192.168.1.20:8080", true},
		{"fe80::1", true},
		{"[fe80::1]:80", true},
		{"http://1.2.3.4", true},
		{"https://192.168.1.20:8443/", true},
		{"http://wled-kitchen.local", false},
		{"wled-kitchen.local", false},
		{"lamp", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIPAddress(tt.address))
		})
	}
}

func TestDisplayName(t *testing.T) {
	d := Device{OriginalName: "WLED", CustomName: "  "}
	assert.Equal(t, "WLED", d.DisplayName())

	d.CustomName = "Kitchen"
	assert.Equal(t, "Kitchen", d.DisplayName())
}

func TestInfoIsOTAEnabled(t *testing.T) {
	info := Info{}
	assert.True(t, info.IsOTAEnabled(), "absent options means the firmware predates the flag")

	info.Options = Int(0x79)
	assert.True(t, info.IsOTAEnabled())

	info.Options = Int(0x78)
	assert.False(t, info.IsOTAEnabled())
}

func TestStateOmitsUnsetFields(t *testing.T) {
	body, err := json.Marshal(State{Brightness: Int(128)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bri":128}`, string(body))
}

func TestDurationJSON(t *testing.T) {
	var cfg struct {
		Delay Duration `json:"delay"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"delay":"2.5s"}`), &cfg))
	assert.Equal(t, 2500*time.Millisecond, cfg.Delay.Std())

	require.NoError(t, json.Unmarshal([]byte(`{"delay":1000}`), &cfg))
	assert.Equal(t, time.Microsecond, cfg.Delay.Std())

	require.Error(t, json.Unmarshal([]byte(`{"delay":"soon"}`), &cfg))
	require.Error(t, json.Unmarshal([]byte(`{"delay":true}`), &cfg))

	body, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"1m30s"`, string(body))
}

func TestAppConfigDefaultsAndValidate(t *testing.T) {
	var cfg AppConfig
	cfg.ApplyDefaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBaseDelay, cfg.Connection.BaseDelay.Std())
	assert.Equal(t, DefaultMaxDelay, cfg.Connection.MaxDelay.Std())
	assert.Equal(t, DefaultDiscoveryService, cfg.Discovery.Service)
	assert.False(t, cfg.Database.Enabled())

	cfg.Connection.BaseDelay = Duration(2 * time.Minute)
	require.ErrorIs(t, cfg.Validate(), errBackoffOrder)

	cfg.Connection.BaseDelay = Duration(time.Second)
	cfg.Database.Host = "db"
	require.ErrorIs(t, cfg.Validate(), errDatabaseName)

	cfg.Database.Host = ""
	cfg.NATS.TLS = &NATSTLSConfig{CertFile: "client.pem"}
	require.ErrorIs(t, cfg.Validate(), errNATSKeyPair)

	cfg.NATS.TLS.KeyFile = "client-key.pem"
	require.NoError(t, cfg.Validate())

	cfg.NATS.Events = true
	require.ErrorIs(t, cfg.Validate(), errEventsWithoutNATS)
	assert.Equal(t, DefaultEventsStream, cfg.NATS.EventsStream)
}
