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

package release

import "errors"

var (
	// ErrFetchReleases wraps a transport or decode failure talking to the release feed.
	ErrFetchReleases = errors.New("failed to fetch releases")
	// ErrEmptyCatalog marks a refresh whose feed returned zero releases. The stored catalog is kept.
	ErrEmptyCatalog = errors.New("release feed returned no releases")
	// ErrUnexpectedStatus is a non-2xx answer from the release feed.
	ErrUnexpectedStatus = errors.New("unexpected status from release feed")
)
