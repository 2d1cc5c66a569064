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
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// Branch is the firmware update channel of a device.
type Branch string

const (
	BranchUnknown Branch = "unknown"
	BranchStable  Branch = "stable"
	BranchBeta    Branch = "beta"
)

// ParseBranch maps user input to a Branch, defaulting to BranchUnknown.
func ParseBranch(s string) Branch {
	switch Branch(strings.ToLower(strings.TrimSpace(s))) {
	case BranchStable:
		return BranchStable
	case BranchBeta:
		return BranchBeta
	default:
		return BranchUnknown
	}
}

// Device is a roster record. MACAddress is the immutable identity; Address may change.
type Device struct {
	MACAddress    string `json:"mac_address"`
	Address       string `json:"address"`
	IsHidden      bool   `json:"is_hidden"`
	OriginalName  string `json:"original_name"`
	CustomName    string `json:"custom_name"`
	SkipUpdateTag string `json:"skip_update_tag"`
	Branch        Branch `json:"branch"`
	LastSeen      int64  `json:"last_seen"` // epoch millis
}

// DisplayName is the custom name when set, otherwise the device-reported name.
func (d *Device) DisplayName() string {
	if name := strings.TrimSpace(d.CustomName); name != "" {
		return name
	}

	return d.OriginalName
}

// LastSeenTime converts LastSeen to a time.Time. Zero means never seen.
func (d *Device) LastSeenTime() time.Time {
	if d.LastSeen == 0 {
		return time.Time{}
	}

	return time.UnixMilli(d.LastSeen)
}

// NormalizeMAC lowercases a hardware address and strips separators so that
// "AA:BB:CC:DD:EE:FF" and "aabbccddeeff" name the same device.
func NormalizeMAC(mac string) string {
	if hw, err := net.ParseMAC(mac); err == nil {
		return strings.ReplaceAll(hw.String(), ":", "")
	}

	r := strings.NewReplacer(":", "", "-", "", ".", "", " ", "")

	return strings.ToLower(r.Replace(mac))
}

// IsIPAddress reports whether address is an IP literal, optionally with a port
// or an http(s) scheme.
func IsIPAddress(address string) bool {
	host := strings.TrimSpace(address)

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		u, err := url.Parse(host)
		if err != nil {
			return false
		}

		host = u.Host
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	_, err := netip.ParseAddr(host)

	return err == nil
}
