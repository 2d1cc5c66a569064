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

package deviceupdate

import "errors"

var (
	// ErrUpdateInProgress rejects a second install for a device that is already updating.
	ErrUpdateInProgress = errors.New("update already in progress for device")
	// ErrNoCompatibleAsset means the release has no binary for the device.
	ErrNoCompatibleAsset = errors.New("no compatible firmware asset")
	// ErrDownloadStatus is a non-2xx answer from the asset host.
	ErrDownloadStatus = errors.New("unexpected status downloading firmware")
	// ErrSizeMismatch is a completed download whose size differs from the catalog.
	ErrSizeMismatch = errors.New("downloaded firmware size mismatch")

	errMissingDevice  = errors.New("device and info are required")
	errMissingVersion = errors.New("version is required")
)
