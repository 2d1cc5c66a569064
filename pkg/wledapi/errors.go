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
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx device response.
	ErrUnexpectedStatus = errors.New("unexpected status from device")
	// ErrEmptyAddress is returned when no device address is given.
	ErrEmptyAddress = errors.New("device address is empty")
)

// UpdateError is a rejected firmware upload. Message is the text decoded from
// the device's HTML error page.
type UpdateError struct {
	StatusCode int
	Message    string
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (*UpdateError) Unwrap() error {
	return ErrUnexpectedStatus
}
