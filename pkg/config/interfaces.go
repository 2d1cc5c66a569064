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

// Package config loads wledradar configuration from a file, the environment or a KV bucket.
package config

import "context"

// ConfigLoader populates dst from some source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configuration structs that can check themselves.
type Validator interface {
	Validate() error
}

// Defaulter is implemented by configuration structs that fill unset fields.
type Defaulter interface {
	ApplyDefaults()
}

// KVGetter is the read side of a KV store, satisfied by kv.NatsStore.
type KVGetter interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
}
