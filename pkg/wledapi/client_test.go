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

package wledapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/wledradar/pkg/models"
)

func serverAddress(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{name: "bare ip", address: "4.3.2.1", want: "http://4.3.2.1/"},
		{name: "host and port", address: "wled.local:8080", want: "http://wled.local:8080/"},
		{name: "explicit http", address: "http://wled.local", want: "http://wled.local/"},
		{name: "explicit https", address: "https://wled.example.com/", want: "https://wled.example.com/"},
		{name: "empty", address: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := BaseURL(tt.address)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestWebsocketURL(t *testing.T) {
	u, err := WebsocketURL("4.3.2.1")
	require.NoError(t, err)
	assert.Equal(t, "ws://4.3.2.1/ws", u)

	u, err = WebsocketURL("https://wled.example.com")
	require.NoError(t, err)
	assert.Equal(t, "wss://wled.example.com/ws", u)
}

func TestGetInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/info", r.URL.Path)
		_, _ = io.WriteString(w, `{"ver":"0.14.0","name":"Lamp","mac":"aabbccddeeff","brand":"WLED","arch":"esp32","opt":79,"leds":{"count":30}}`)
	}))
	defer srv.Close()

	info, err := NewClient().GetInfo(context.Background(), serverAddress(srv))
	require.NoError(t, err)
	assert.Equal(t, "0.14.0", info.Version)
	assert.Equal(t, "Lamp", info.Name)
	assert.Equal(t, "aabbccddeeff", info.MACAddress)
	assert.Equal(t, "esp32", info.PlatformName)
	assert.True(t, info.IsOTAEnabled())
	require.NotNil(t, info.Leds)
	assert.Equal(t, 30, info.Leds.Count)
}

func TestGetInfoNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().GetInfo(context.Background(), serverAddress(srv))
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestGetInfoTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(WithTimeouts(50*time.Millisecond, 0)).GetInfo(context.Background(), serverAddress(srv))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPostStateSendsOnlySetFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/json/state", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"on": false}, body)

		_, _ = io.WriteString(w, `{"on":false,"bri":200,"ps":3}`)
	}))
	defer srv.Close()

	state, err := NewClient().PostState(context.Background(), serverAddress(srv), models.State{On: models.Bool(false)})
	require.NoError(t, err)
	assert.False(t, state.IsOn())
	assert.Equal(t, 200, state.BrightnessOrZero())
	require.NotNil(t, state.SelectedPresetID)
	assert.Equal(t, 3, *state.SelectedPresetID)
}

func TestGetPresets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/presets.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"0":{},"1":{"n":"Evening","on":true,"bri":90,"mainseg":0}}`)
	}))
	defer srv.Close()

	presets, err := NewClient().GetPresets(context.Background(), serverAddress(srv))
	require.NoError(t, err)
	require.Contains(t, presets, "1")
	assert.Equal(t, "Evening", presets["1"].Name)
	assert.Equal(t, 90, *presets["1"].Brightness)
}

func TestUploadFirmware(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/update", r.URL.Path)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = file.Close() }()

		assert.Equal(t, "binary", header.Filename)

		data, _ := io.ReadAll(file)
		assert.Equal(t, "firmware-bytes", string(data))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient().UploadFirmware(context.Background(), serverAddress(srv), strings.NewReader("firmware-bytes"))
	require.NoError(t, err)
}

func TestUploadFirmwareRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `<html><head><title>Oops</title></head><body><h2>Update failed!</h2><br>Could not activate the firmware &amp; reboot.<button>Back</button></body></html>`)
	}))
	defer srv.Close()

	err := NewClient().UploadFirmware(context.Background(), serverAddress(srv), strings.NewReader("x"))

	var updateErr *UpdateError
	require.ErrorAs(t, err, &updateErr)
	assert.Equal(t, http.StatusInternalServerError, updateErr.StatusCode)
	assert.Equal(t, "Update failed! Could not activate the firmware & reboot.", updateErr.Message)
	assert.Equal(t, "500: Update failed! Could not activate the firmware & reboot.", err.Error())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestExtractHTMLMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "  not   html\n", want: "not html"},
		{name: "drops script and style", in: "<body><script>var a=1;</script><style>p{}</style><p>Bad\n\n file</p></body>", want: "Bad file"},
		{name: "no body element", in: "<h2>Error</h2><p>Wrong&nbsp;size</p>", want: "Error Wrong size"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHTMLMessage(tt.in))
		})
	}
}
