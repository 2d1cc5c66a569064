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

//go:generate mockgen -destination=mock_kv.go -package=kv github.com/carverauto/wledradar/pkg/kv KVStore

// Package kv stores device records in a NATS JetStream key-value bucket.
package kv

import (
	"context"
)

// KVStore is the key-value surface the roster and config loaders need.
type KVStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Put(ctx context.Context, key string, value []byte) error

	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key string) error

	// Keys lists the keys that start with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// WatchPrefix streams every change under prefix, starting with the current
	// values followed by a single Synced event. The channel closes when ctx is done.
	WatchPrefix(ctx context.Context, prefix string) (<-chan Event, error)

	Close() error
}

// Event is one change observed by WatchPrefix.
type Event struct {
	Key     string
	Value   []byte
	Deleted bool
	// Synced marks the end of the initial values.
	Synced bool
}
