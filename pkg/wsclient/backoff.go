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

package wsclient

import "time"

const (
	DefaultBaseDelay = 2500 * time.Millisecond
	DefaultMaxDelay  = 60 * time.Second
)

// Backoff returns min(base * 2^retry, maxDelay).
func Backoff(base, maxDelay time.Duration, retry int) time.Duration {
	delay := base
	for i := 0; i < retry && delay < maxDelay; i++ {
		delay *= 2
	}

	return min(delay, maxDelay)
}
