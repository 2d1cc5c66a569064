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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/wledradar/pkg/firstcontact"
	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/reconciler"
	"github.com/carverauto/wledradar/pkg/release"
	"github.com/carverauto/wledradar/pkg/roster"
	"github.com/carverauto/wledradar/pkg/wledapi"
)

var errNoClipboard = errors.New("no clipboard")

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		check   func(t *testing.T, cfg *CmdConfig)
	}{
		{name: "missing", args: nil, wantErr: errMissingSubcommand},
		{name: "unknown", args: []string{"frobnicate"}, wantErr: errUnknownSubcommand},
		{
			name: "help",
			args: []string{"help"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.True(t, cfg.Help)
			},
		},
		{
			name: "run with config",
			args: []string{"run", "--config", "/tmp/w.json", "--memory"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "run", cfg.SubCmd)
				assert.Equal(t, "/tmp/w.json", cfg.ConfigFile)
				assert.True(t, cfg.Memory)
			},
		},
		{
			name: "add",
			args: []string{"add", "192.168.1.10"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "192.168.1.10", cfg.Address)
			},
		},
		{name: "add without address", args: []string{"add"}, wantErr: errRequiresAddress},
		{name: "set without mac", args: []string{"set", "--on"}, wantErr: errRequiresMAC},
		{name: "set on and off", args: []string{"set", "--mac", "aa", "--on", "--off"}, wantErr: errPowerConflict},
		{name: "set nothing", args: []string{"set", "--mac", "aa"}, wantErr: errNothingToSet},
		{name: "set brightness range", args: []string{"set", "--mac", "aa", "--bri", "300"}, wantErr: errBrightnessRange},
		{
			name: "set brightness",
			args: []string{"set", "--mac", "aa", "--bri", "128", "--off"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, 128, cfg.Brightness)
				assert.True(t, cfg.Off)
			},
		},
		{
			name: "edit only given flags",
			args: []string{"edit", "--mac", "aa", "--name", "", "--hidden", "true"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				require.NotNil(t, cfg.Name)
				assert.Empty(t, *cfg.Name)
				require.NotNil(t, cfg.Hidden)
				assert.True(t, *cfg.Hidden)
				assert.Nil(t, cfg.SkipTag)
				assert.Empty(t, cfg.Branch)
			},
		},
		{name: "edit nothing", args: []string{"edit", "--mac", "aa"}, wantErr: errNothingToEdit},
		{
			name: "update with tag",
			args: []string{"update", "--mac", "aa", "--tag", "v0.15.0"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "v0.15.0", cfg.Tag)
			},
		},
		{name: "remove without mac", args: []string{"remove"}, wantErr: errRequiresMAC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestParseFlagsHelpFlag(t *testing.T) {
	_, err := ParseFlags([]string{"list", "-h"})
	require.ErrorIs(t, err, flag.ErrHelp)
}

type fakeDevice struct {
	mu      sync.Mutex
	info    models.Info
	state   models.State
	posted  []models.State
	uploads int
	status  int
}

func (f *fakeDevice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/json/info":
		_ = json.NewEncoder(w).Encode(f.info)
	case "/json/state":
		var s models.State
		_ = json.NewDecoder(r.Body).Decode(&s)
		f.posted = append(f.posted, s)

		if s.On != nil {
			f.state.On = s.On
		}

		if s.Brightness != nil {
			f.state.Brightness = s.Brightness
		}

		_ = json.NewEncoder(w).Encode(f.state)
	case "/update":
		_, _ = io.Copy(io.Discard, r.Body)
		f.uploads++

		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, "<html><body><h2>Update failed!</h2><button>Back</button></body></html>")

			return
		}

		_, _ = io.WriteString(w, "Update successful!")
	default:
		http.NotFound(w, r)
	}
}

func releasesHandler(assetURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "Aircoookie/WLED"):
			_ = json.NewEncoder(w).Encode([]release.GitHubRelease{
				{
					TagName:     "v0.15.0",
					PublishedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
					Assets: []release.GitHubAsset{{
						ID: 1, Name: "WLED_0.15.0_ESP32.bin", Size: 8, BrowserDownloadURL: assetURL,
					}},
				},
				{TagName: "v0.14.4", PublishedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
			})
		case strings.Contains(r.URL.Path, "intermittech/QuinLED-Firmware"):
			_ = json.NewEncoder(w).Encode([]release.GitHubRelease{
				{TagName: "v0.15.0-q1", PublishedAt: time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)},
			})
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestApp(t *testing.T, githubURL string) *App {
	t.Helper()

	cfg := &models.AppConfig{CacheDir: t.TempDir()}
	cfg.ApplyDefaults()

	log := logger.NewTestLogger()
	repo := roster.NewMemoryRepository()
	catalog := release.NewMemoryCatalog()
	api := wledapi.NewClient(wledapi.WithTimeouts(2*time.Second, 2*time.Second))

	github, err := release.NewGitHubClient(githubURL, "", 2*time.Second)
	require.NoError(t, err)

	return &App{
		Config:    cfg,
		Logger:    log,
		Roster:    repo,
		API:       api,
		Catalog:   catalog,
		Refresher: release.NewRefresher(github, catalog, nil, log),
		Evaluator: release.NewEvaluator(catalog, log),
		Resolver:  firstcontact.NewResolver(api, repo, log),
	}
}

func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestRosterCommands(t *testing.T) {
	ctx := context.Background()
	dev := &fakeDevice{info: models.Info{Name: "Desk", MACAddress: "AA:BB:CC:DD:EE:FF", Version: "0.14.4"}}
	srv := httptest.NewServer(dev)
	defer srv.Close()

	app := newTestApp(t, "http://127.0.0.1:1")

	var out bytes.Buffer

	require.NoError(t, RunAdd(ctx, app, &CmdConfig{Address: hostOf(srv)}, &out))
	assert.Contains(t, out.String(), "Desk (aabbccddeeff)")

	name := "Kitchen"
	hidden := true

	out.Reset()
	require.NoError(t, RunEdit(ctx, app, &CmdConfig{MAC: "aabbccddeeff", Name: &name, Hidden: &hidden, Branch: "beta"}, &out))

	d, err := app.Roster.FindByMAC(ctx, "aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", d.CustomName)
	assert.True(t, d.IsHidden)
	assert.Equal(t, models.BranchBeta, d.Branch)

	out.Reset()
	require.NoError(t, RunList(ctx, app, &CmdConfig{}, &out))
	assert.Contains(t, out.String(), "Kitchen")
	assert.Contains(t, out.String(), hostOf(srv))
	assert.Contains(t, out.String(), "never")

	out.Reset()
	require.NoError(t, RunList(ctx, app, &CmdConfig{JSON: true}, &out))

	var listed []models.Device
	require.NoError(t, json.Unmarshal(out.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "aabbccddeeff", listed[0].MACAddress)

	out.Reset()
	require.NoError(t, RunSet(ctx, app, &CmdConfig{MAC: "aabbccddeeff", On: true, Brightness: 40}, &out))
	assert.Equal(t, "Kitchen is on at brightness 40\n", out.String())

	dev.mu.Lock()
	require.Len(t, dev.posted, 1)
	assert.Equal(t, models.State{On: models.Bool(true), Brightness: models.Int(40)}, dev.posted[0])
	dev.mu.Unlock()

	out.Reset()
	require.NoError(t, RunRemove(ctx, app, &CmdConfig{MAC: "AA:BB:CC:DD:EE:FF"}, &out))

	_, err = app.Roster.FindByMAC(ctx, "aabbccddeeff")
	require.ErrorIs(t, err, roster.ErrDeviceNotFound)
}

func TestRunAddPropagatesContactFailure(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	err := RunAdd(context.Background(), app, &CmdConfig{Address: "127.0.0.1:1"}, io.Discard)
	require.ErrorIs(t, err, firstcontact.ErrContact)
}

func TestRunAddRejectsMalformedAddress(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	err := RunAdd(context.Background(), app, &CmdConfig{Address: "192.168.1.10 extra"}, io.Discard)
	require.ErrorIs(t, err, firstcontact.ErrInvalidAddress)
}

func TestRunReleases(t *testing.T) {
	gh := httptest.NewServer(releasesHandler("http://unused/"))
	defer gh.Close()

	app := newTestApp(t, gh.URL)

	var out bytes.Buffer

	require.NoError(t, RunReleases(context.Background(), app, &out))
	assert.Contains(t, out.String(), "Aircoookie/WLED")
	assert.Contains(t, out.String(), "0.15.0")
	assert.Contains(t, out.String(), "0.15.0-q1")
}

func TestRunReleasesPropagatesFailure(t *testing.T) {
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer gh.Close()

	app := newTestApp(t, gh.URL)

	err := RunReleases(context.Background(), app, io.Discard)
	require.ErrorIs(t, err, release.ErrFetchReleases)
}

func TestRunUpdateInstallsOfferedRelease(t *testing.T) {
	ctx := context.Background()

	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "FIRMWARE")
	}))
	defer assets.Close()

	gh := httptest.NewServer(releasesHandler(assets.URL + "/WLED_0.15.0_ESP32.bin"))
	defer gh.Close()

	dev := &fakeDevice{info: models.Info{
		Name: "Desk", MACAddress: "aabbccddeeff", Version: "0.14.4", Brand: "WLED", Release: "ESP32",
	}}
	srv := httptest.NewServer(dev)
	defer srv.Close()

	app := newTestApp(t, gh.URL)
	require.NoError(t, app.Roster.Insert(ctx, &models.Device{
		MACAddress: "aabbccddeeff", Address: hostOf(srv), Branch: models.BranchStable, SkipUpdateTag: "0.14.9",
	}))

	var out bytes.Buffer

	require.NoError(t, RunUpdate(ctx, app, &CmdConfig{MAC: "aabbccddeeff"}, &out))
	assert.Contains(t, out.String(), "WLED_0.15.0_ESP32.bin")
	assert.Contains(t, out.String(), "done")

	dev.mu.Lock()
	assert.Equal(t, 1, dev.uploads)
	dev.mu.Unlock()

	d, err := app.Roster.FindByMAC(ctx, "aabbccddeeff")
	require.NoError(t, err)
	assert.Empty(t, d.SkipUpdateTag)
}

func TestRunUpdateReportsRejection(t *testing.T) {
	ctx := context.Background()

	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "FIRMWARE")
	}))
	defer assets.Close()

	gh := httptest.NewServer(releasesHandler(assets.URL + "/fw"))
	defer gh.Close()

	dev := &fakeDevice{
		info:   models.Info{MACAddress: "aabbccddeeff", Version: "0.14.4", Brand: "WLED", Release: "ESP32"},
		status: http.StatusInternalServerError,
	}
	srv := httptest.NewServer(dev)
	defer srv.Close()

	app := newTestApp(t, gh.URL)
	require.NoError(t, app.Roster.Insert(ctx, &models.Device{MACAddress: "aabbccddeeff", Address: hostOf(srv)}))

	err := RunUpdate(ctx, app, &CmdConfig{MAC: "aabbccddeeff", Tag: "v0.15.0"}, io.Discard)
	require.ErrorIs(t, err, errInstallFailed)
	assert.Contains(t, err.Error(), "Update failed!")
}

func TestRunUpdateNothingOffered(t *testing.T) {
	ctx := context.Background()

	gh := httptest.NewServer(releasesHandler("http://unused/"))
	defer gh.Close()

	dev := &fakeDevice{info: models.Info{MACAddress: "aabbccddeeff", Version: "0.15.0", Brand: "WLED"}}
	srv := httptest.NewServer(dev)
	defer srv.Close()

	app := newTestApp(t, gh.URL)
	require.NoError(t, app.Roster.Insert(ctx, &models.Device{MACAddress: "aabbccddeeff", Address: hostOf(srv)}))

	err := RunUpdate(ctx, app, &CmdConfig{MAC: "aabbccddeeff"}, io.Discard)
	require.ErrorIs(t, err, errNoUpdate)
}

type fakeTarget struct {
	mu         sync.Mutex
	background bool
	refreshes  int
}

func (f *fakeTarget) SetBackground(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.background = b
}

func (f *fakeTarget) IsBackground() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.background
}

func (f *fakeTarget) RefreshOfflineDevices() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refreshes++

	return 2
}

type fakeDiscoverer struct {
	windows chan time.Duration
}

func (f *fakeDiscoverer) RunTimed(_ context.Context, window time.Duration) int {
	f.windows <- window
	return 0
}

func TestControllerHandle(t *testing.T) {
	target := &fakeTarget{}
	disc := &fakeDiscoverer{windows: make(chan time.Duration, 1)}
	c := &controller{target: target, discovery: disc, window: 10 * time.Second, logger: logger.NewTestLogger()}
	ctx := context.Background()

	c.handle(ctx, ControlBackground)
	assert.True(t, target.IsBackground())

	c.handle(ctx, ControlRefreshOffline)
	assert.Equal(t, 0, target.refreshes, "background ignores refresh")

	c.handle(ctx, ControlForeground)
	assert.False(t, target.IsBackground())

	select {
	case w := <-disc.windows:
		assert.Equal(t, 10*time.Second, w)
	case <-time.After(time.Second):
		t.Fatal("foreground did not start discovery")
	}

	c.handle(ctx, ControlRefreshOffline)
	assert.Equal(t, 1, target.refreshes)
}

type fakeController struct {
	power      map[string]bool
	brightness map[string]int
	prefs      []reconciler.Preferences
	refreshes  int
}

func newFakeController() *fakeController {
	return &fakeController{power: map[string]bool{}, brightness: map[string]int{}}
}

func (f *fakeController) SetPower(mac string, on bool) error {
	f.power[mac] = on
	return nil
}

func (f *fakeController) SetBrightness(mac string, brightness int) error {
	f.brightness[mac] = brightness
	return nil
}

func (f *fakeController) RefreshOfflineDevices() int {
	f.refreshes++
	return 1
}

func (f *fakeController) SetPreferences(prefs reconciler.Preferences) {
	f.prefs = append(f.prefs, prefs)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWatchModel(t *testing.T) {
	ctrl := newFakeController()
	m := newWatchModel(ctrl, make(chan []models.DeviceView), reconciler.Preferences{})

	var copied string

	m.copy = func(s string) error {
		copied = s
		return nil
	}

	views := []models.DeviceView{
		{
			Device: models.Device{MACAddress: "000000000001", Address: "10.0.0.1", OriginalName: "Desk"},
			Connection: models.ConnectionState{
				Status: models.StatusConnected,
				StateInfo: &models.DeviceStateInfo{
					Info:  models.Info{Version: "0.14.4"},
					State: models.State{On: models.Bool(true), Brightness: models.Int(250)},
				},
			},
			UpdateTag: "0.15.0",
		},
		{
			Device:     models.Device{MACAddress: "000000000002", Address: "10.0.0.2", OriginalName: "Shelf"},
			Connection: models.ConnectionState{Status: models.StatusDisconnected, RetryCount: 3},
		},
	}

	_, cmd := m.Update(viewsMsg(views))
	require.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "2 devices")
	assert.Contains(t, view, "Desk")
	assert.Contains(t, view, "0.15.0")
	assert.Contains(t, view, "disconnected #3")

	m.Update(keyRunes("p"))
	assert.False(t, ctrl.power["000000000001"])

	m.Update(keyRunes("+"))
	assert.Equal(t, 255, ctrl.brightness["000000000001"])

	m.Update(keyRunes("c"))
	assert.Equal(t, "10.0.0.1", copied)

	m.Update(keyRunes("h"))
	require.Len(t, ctrl.prefs, 1)
	assert.True(t, ctrl.prefs[0].ShowHiddenDevices)

	m.Update(keyRunes("r"))
	assert.Equal(t, 1, ctrl.refreshes)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(keyRunes("-"))
	assert.Equal(t, minBrightness, ctrl.brightness["000000000002"])

	m.copy = func(string) error { return errNoClipboard }
	m.Update(keyRunes("c"))
	assert.Contains(t, m.View(), "clipboard unavailable")

	_, cmd = m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestViewRowWithoutTelemetry(t *testing.T) {
	row := viewRow(&models.DeviceView{Device: models.Device{MACAddress: "01", Address: "h", IsHidden: true}})
	assert.Equal(t, fmt.Sprint([]string{"01 (hidden)", "h", "disconnected", "-", "-", "-", ""}), fmt.Sprint(row))
}

func TestVersionCommand(t *testing.T) {
	cfg, err := ParseFlags([]string{"version"})
	require.NoError(t, err)

	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), cfg, &out))
	assert.True(t, strings.HasPrefix(out.String(), "wledradar dev (build: dev"))
}
