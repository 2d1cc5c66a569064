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

const otaEnabledFlag = 0x01

// Info is the device-reported body of GET /json/info.
type Info struct {
	Leds                 *Leds       `json:"leds,omitempty"`
	Wifi                 *Wifi       `json:"wifi,omitempty"`
	Version              string      `json:"ver,omitempty"`
	BuildID              int64       `json:"vid,omitempty"`
	CodeName             string      `json:"cn,omitempty"`
	Release              string      `json:"release,omitempty"`
	Name                 string      `json:"name"`
	SyncToggleReceive    *bool       `json:"str,omitempty"`
	UDPPort              int         `json:"udpport,omitempty"`
	IsUpdatedLive        *bool       `json:"live,omitempty"`
	RealtimeMode         string      `json:"lm,omitempty"`
	RealtimeIP           string      `json:"lip,omitempty"`
	WebsocketClientCount int         `json:"ws,omitempty"`
	EffectCount          int         `json:"fxcount,omitempty"`
	PaletteCount         int         `json:"palcount,omitempty"`
	FileSystem           *FileSystem `json:"fs,omitempty"`
	NodeListCount        int         `json:"ndc,omitempty"`
	PlatformName         string      `json:"arch,omitempty"`
	ArduinoCoreVersion   string      `json:"core,omitempty"`
	ClockFrequency       int         `json:"clock,omitempty"`
	FlashChipSize        int         `json:"flash,omitempty"`
	FreeHeap             int64       `json:"freeheap,omitempty"`
	Uptime               int64       `json:"uptime,omitempty"`
	Time                 string      `json:"time,omitempty"`
	Options              *int        `json:"opt,omitempty"`
	Brand                string      `json:"brand,omitempty"`
	Product              string      `json:"product,omitempty"`
	MACAddress           string      `json:"mac,omitempty"`
	IPAddress            string      `json:"ip,omitempty"`
}

// IsOTAEnabled reports bit 0 of the options bitmask. Firmware that omits
// the field predates the option and always accepts updates.
func (i *Info) IsOTAEnabled() bool {
	if i.Options == nil {
		return true
	}

	return *i.Options&otaEnabledFlag != 0
}

type Leds struct {
	Count              int   `json:"count"`
	EstimatedPower     int   `json:"pwr,omitempty"`
	FPS                int   `json:"fps,omitempty"`
	MaxPower           int   `json:"maxpwr,omitempty"`
	MaxSegments        int   `json:"maxseg,omitempty"`
	SegmentLightCaps   []int `json:"seglc,omitempty"`
	CombinedLightCaps  int   `json:"lc,omitempty"`
	HasWhiteChannel    *bool `json:"rgbw,omitempty"`
	HasWhiteSlider     *bool `json:"wv,omitempty"`
	HasColorTempSlider *bool `json:"cct,omitempty"`
}

type Wifi struct {
	BSSID   string `json:"bssid,omitempty"`
	RSSI    int    `json:"rssi,omitempty"`
	Signal  int    `json:"signal,omitempty"`
	Channel int    `json:"channel,omitempty"`
}

type FileSystem struct {
	Used          int   `json:"u,omitempty"`
	Total         int   `json:"t,omitempty"`
	LastPresetMod int64 `json:"pmt,omitempty"`
}

// State is both the reported operational state and a partial update command.
// Nil fields are omitted and left unchanged on the device.
type State struct {
	On                 *bool `json:"on,omitempty"`
	Brightness         *int  `json:"bri,omitempty"`
	Transition         *int  `json:"transition,omitempty"`
	SelectedPresetID   *int  `json:"ps,omitempty"`
	SelectedPlaylistID *int  `json:"pl,omitempty"`
}

// IsOn is false when the device did not report a power state.
func (s *State) IsOn() bool {
	return s != nil && s.On != nil && *s.On
}

// BrightnessOrZero returns the reported brightness or 0.
func (s *State) BrightnessOrZero() int {
	if s == nil || s.Brightness == nil {
		return 0
	}

	return *s.Brightness
}

// DeviceStateInfo is the envelope pushed over the device websocket and returned by GET /json.
type DeviceStateInfo struct {
	State State `json:"state"`
	Info  Info  `json:"info"`
}

type Preset struct {
	Name        string `json:"n"`
	On          *bool  `json:"on,omitempty"`
	Brightness  *int   `json:"bri,omitempty"`
	MainSegment *int   `json:"mainseg,omitempty"`
}

// Presets maps preset id strings to their definition, as served by /presets.json.
type Presets map[string]Preset

// Bool and Int build pointer fields for partial State commands.
func Bool(v bool) *bool { return &v }

func Int(v int) *int { return &v }
