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

//go:generate mockgen -destination=mock_wledapi.go -package=wledapi github.com/carverauto/wledradar/pkg/wledapi InfoFetcher,FirmwareUploader

// Package wledapi is an HTTP client for the WLED JSON API.
package wledapi

import (
	"context"
	"io"

	"github.com/carverauto/wledradar/pkg/models"
)

// InfoFetcher reads GET /json/info from a device.
type InfoFetcher interface {
	GetInfo(ctx context.Context, address string) (*models.Info, error)
}

// FirmwareUploader posts a firmware binary to a device.
type FirmwareUploader interface {
	UploadFirmware(ctx context.Context, address string, firmware io.Reader) error
}

var (
	_ InfoFetcher      = (*Client)(nil)
	_ FirmwareUploader = (*Client)(nil)
)
