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

package firstcontact

import "errors"

var (
	// ErrContact wraps every reason a device could not be identified.
	ErrContact = errors.New("could not contact device")
	// ErrInvalidAddress rejects an address before any request is made.
	ErrInvalidAddress = errors.New("invalid device address")

	errMissingMAC      = errors.New("device did not report a hardware address")
	errSessionReplaced = errors.New("add session was cleared")
)
