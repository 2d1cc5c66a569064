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
//go:generate mockgen -destination=mock_events.go -package=events github.com/carverauto/wledradar/pkg/events Publisher

package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/wledradar/pkg/kv"
	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

// Publisher delivers an encoded event to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// JetStreamPublisher publishes into a stream that captures SubjectWildcard.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	logger logger.Logger
}

// NewJetStreamPublisher connects to cfg.URL and creates or updates cfg.EventsStream.
func NewJetStreamPublisher(ctx context.Context, cfg *models.NATSConfig, log logger.Logger) (*JetStreamPublisher, error) {
	nc, err := kv.Connect(cfg.URL, cfg.TLS, log)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.EventsStream,
		Description: "wledradar device lifecycle events",
		Subjects:    []string{SubjectWildcard},
	}); err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create or update stream %s: %w", cfg.EventsStream, err)
	}

	return &JetStreamPublisher{nc: nc, js: js, stream: cfg.EventsStream, logger: log}, nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug().Str("stream", ack.Stream).Uint64("seq", ack.Sequence).Str("subject", subject).Msg("Published event")

	return nil
}

// Close drains the connection so in-flight publishes complete.
func (p *JetStreamPublisher) Close() error {
	return p.nc.Drain()
}
