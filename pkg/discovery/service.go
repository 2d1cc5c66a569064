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

package discovery

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

// Resolver is the first-contact surface discovery needs.
type Resolver interface {
	ResolveAndUpsert(ctx context.Context, address string) (*models.Device, error)
	FastResolveByHardwareAddress(ctx context.Context, mac, address string) (bool, error)
}

// Service turns browser observations into roster writes.
type Service struct {
	browser  Browser
	resolver Resolver
	workers  int
	logger   logger.Logger

	mu      sync.Mutex
	running bool
}

func NewService(browser Browser, resolver Resolver, workers int, log logger.Logger) *Service {
	if workers <= 0 {
		workers = models.DefaultDiscoveryWorkers
	}

	return &Service{browser: browser, resolver: resolver, workers: workers, logger: log}
}

// HandleObservation resolves one announcement. Failures are logged and dropped.
func (s *Service) HandleObservation(ctx context.Context, obs Observation) {
	if obs.MAC != "" {
		found, err := s.resolver.FastResolveByHardwareAddress(ctx, obs.MAC, obs.Address)
		if err != nil {
			s.logger.Warn().Err(err).Str("mac", obs.MAC).Str("address", obs.Address).
				Msg("Failed to update discovered device")

			return
		}

		if found {
			return
		}
	}

	if _, err := s.resolver.ResolveAndUpsert(ctx, obs.Address); err != nil {
		s.logger.Debug().Err(err).Str("address", obs.Address).Msg("Discovered device did not answer")
	}
}

// RunTimed browses for window and resolves every distinct address seen.
// Overlapping calls are coalesced; the second returns 0 immediately.
func (s *Service) RunTimed(ctx context.Context, window time.Duration) int {
	if window <= 0 {
		window = models.DefaultDiscoveryWindow
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()

		return 0
	}

	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	browseCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	observations, err := s.browser.Browse(browseCtx, window)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Discovery browse failed")

		return 0
	}

	seen := make(map[string]struct{})

	var g errgroup.Group

	g.SetLimit(s.workers)

	for obs := range observations {
		if _, ok := seen[obs.Address]; ok {
			continue
		}

		seen[obs.Address] = struct{}{}

		// resolution may outlive the browse window
		g.Go(func() error {
			s.HandleObservation(ctx, obs)

			return nil
		})
	}

	_ = g.Wait()

	s.logger.Info().Int("addresses", len(seen)).Dur("window", window).Msg("Discovery window closed")

	return len(seen)
}

// Run browses once immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval, window time.Duration) {
	s.RunTimed(ctx, window)

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunTimed(ctx, window)
		}
	}
}
