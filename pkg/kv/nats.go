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

package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

const connectTimeout = 5 * time.Second

// Connect dials natsURL with reconnects enabled and connection changes logged.
func Connect(natsURL string, tlsCfg *models.NATSTLSConfig, log logger.Logger) (*nats.Conn, error) {
	if natsURL == "" {
		return nil, errEmptyURL
	}

	tc, err := TLSConfig(tlsCfg)
	if err != nil {
		return nil, err
	}

	opts := []nats.Option{
		nats.Name("wledradar"),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if tc != nil {
		opts = append(opts, nats.Secure(tc))
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

type NatsStore struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	logger logger.Logger
}

// NewNatsStore connects to natsURL and opens (creating when missing) the bucket.
// A nil tlsCfg connects in plain text unless the URL scheme asks for TLS.
func NewNatsStore(
	ctx context.Context, natsURL, bucket string, tlsCfg *models.NATSTLSConfig, log logger.Logger,
) (*NatsStore, error) {
	if natsURL == "" {
		return nil, errEmptyURL
	}

	if bucket == "" {
		return nil, errEmptyBucket
	}

	nc, err := Connect(natsURL, tlsCfg, log)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "wledradar device roster",
		History:     1,
	})
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}

	return &NatsStore{
		nc:     nc,
		kv:     kv,
		logger: log,
	}, nil
}

func (n *NatsStore) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	var entry jetstream.KeyValueEntry

	entry, err = n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return entry.Value(), true, nil
}

func (n *NatsStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := n.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	lister, err := n.kv.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	defer func() {
		if err := lister.Stop(); err != nil {
			n.logger.Debug().Err(err).Msg("Failed to stop key lister")
		}
	}()

	var keys []string

	for key := range lister.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (n *NatsStore) WatchPrefix(ctx context.Context, prefix string) (<-chan Event, error) {
	watcher, err := n.kv.Watch(ctx, prefix+">")
	if err != nil {
		return nil, fmt.Errorf("failed to watch prefix %s: %w", prefix, err)
	}

	ch := make(chan Event, 1)
	go n.handleWatchUpdates(ctx, prefix, watcher, ch)

	return ch, nil
}

func (n *NatsStore) handleWatchUpdates(ctx context.Context, prefix string, watcher jetstream.KeyWatcher, ch chan<- Event) {
	defer func() {
		if err := watcher.Stop(); err != nil {
			n.logger.Debug().Err(err).Str("prefix", prefix).Msg("Failed to stop watcher")
		}

		close(ch)
	}()

	for {
		var ev Event

		select {
		case <-ctx.Done():
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				return
			}

			// a nil entry marks the end of the initial values
			if entry == nil {
				ev = Event{Synced: true}
			} else {
				op := entry.Operation()
				ev = Event{
					Key:     entry.Key(),
					Value:   entry.Value(),
					Deleted: op == jetstream.KeyValueDelete || op == jetstream.KeyValuePurge,
				}
			}
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (n *NatsStore) Close() error {
	n.nc.Close()

	return nil
}

var _ KVStore = (*NatsStore)(nil)
