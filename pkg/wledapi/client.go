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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/version"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultUpdateTimeout  = 120 * time.Second
	maxErrorBodyBytes     = 64 * 1024
)

// Client talks to the JSON API of WLED devices. One Client serves every
// device; the address is passed per call.
type Client struct {
	http           *http.Client
	requestTimeout time.Duration
	updateTimeout  time.Duration
	userAgent      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeouts sets the per-request and firmware-upload deadlines. Zero keeps the default.
func WithTimeouts(request, update time.Duration) Option {
	return func(cl *Client) {
		if request > 0 {
			cl.requestTimeout = request
		}

		if update > 0 {
			cl.updateTimeout = update
		}
	}
}

// NewClient builds a Client with 10s request and 120s upload deadlines.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:           &http.Client{},
		requestTimeout: defaultRequestTimeout,
		updateTimeout:  defaultUpdateTimeout,
		userAgent:      version.UserAgent(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL normalizes a device address: a bare host becomes http://host/,
// explicit http:// and https:// prefixes are kept.
func BaseURL(address string) (*url.URL, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, ErrEmptyAddress
	}

	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse device address %q: %w", address, err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("parse device address %q: %w", address, ErrEmptyAddress)
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	u.RawQuery = ""
	u.Fragment = ""

	return u, nil
}

// WebsocketURL returns ws://{address}/ws, or wss:// for https addresses.
func WebsocketURL(address string) (string, error) {
	base, err := BaseURL(address)
	if err != nil {
		return "", err
	}

	ws := *base
	ws.Scheme = "ws"

	if base.Scheme == "https" {
		ws.Scheme = "wss"
	}

	return ws.ResolveReference(&url.URL{Path: "ws"}).String(), nil
}

// GetInfo fetches GET /json/info.
func (c *Client) GetInfo(ctx context.Context, address string) (*models.Info, error) {
	var info models.Info
	if err := c.doJSON(ctx, http.MethodGet, address, "json/info", nil, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// GetState fetches GET /json/state.
func (c *Client) GetState(ctx context.Context, address string) (*models.State, error) {
	var state models.State
	if err := c.doJSON(ctx, http.MethodGet, address, "json/state", nil, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// GetStateInfo fetches GET /json, the same envelope the websocket pushes.
func (c *Client) GetStateInfo(ctx context.Context, address string) (*models.DeviceStateInfo, error) {
	var si models.DeviceStateInfo
	if err := c.doJSON(ctx, http.MethodGet, address, "json", nil, &si); err != nil {
		return nil, err
	}

	return &si, nil
}

// PostState applies a partial state update and returns the state the device reports back.
func (c *Client) PostState(ctx context.Context, address string, state models.State) (*models.State, error) {
	body, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	var out models.State
	if err := c.doJSON(ctx, http.MethodPost, address, "json/state", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetPresets fetches /presets.json.
func (c *Client) GetPresets(ctx context.Context, address string) (models.Presets, error) {
	presets := models.Presets{}
	if err := c.doJSON(ctx, http.MethodGet, address, "presets.json", nil, &presets); err != nil {
		return nil, err
	}

	return presets, nil
}

// UploadFirmware posts firmware to /update as a multipart part named "file".
// A non-2xx answer is returned as *UpdateError.
func (c *Client) UploadFirmware(ctx context.Context, address string, firmware io.Reader) error {
	reqURL, err := endpoint(address, "update")
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", "binary")
		if err == nil {
			_, err = io.Copy(part, firmware)
		}

		if err == nil {
			err = mw.Close()
		}

		_ = pw.CloseWithError(err)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.updateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return fmt.Errorf("upload firmware to %s: %w", address, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	return &UpdateError{StatusCode: resp.StatusCode, Message: ExtractHTMLMessage(string(raw))}
}

func endpoint(address, path string) (string, error) {
	base, err := BaseURL(address)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(&url.URL{Path: path}).String(), nil
}

func (c *Client) doJSON(ctx context.Context, method, address, path string, body []byte, dest any) error {
	reqURL, err := endpoint(address, path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, reqURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
