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

// Package discovery finds WLED devices on the local network and feeds them to first contact.
package discovery

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

const (
	defaultHTTPPort = 80
	entryBuffer     = 16
	macTXTKey       = "mac="
)

// Observation is one device announcement seen on the network.
type Observation struct {
	Address string
	MAC     string
}

// Browser emits observations until the window elapses or ctx is done.
// The returned channel is closed when browsing stops.
type Browser interface {
	Browse(ctx context.Context, window time.Duration) (<-chan Observation, error)
}

// QueryFunc runs one mDNS query. mdns.Query satisfies it.
type QueryFunc func(params *mdns.QueryParam) error

// MDNSBrowser browses a DNS-SD service type over multicast DNS.
type MDNSBrowser struct {
	service string
	domain  string
	query   QueryFunc
	logger  logger.Logger
}

// NewMDNSBrowser browses service (e.g. "_wled._tcp") in domain (e.g. "local").
// A nil query uses mdns.Query.
func NewMDNSBrowser(service, domain string, query QueryFunc, log logger.Logger) *MDNSBrowser {
	if service == "" {
		service = models.DefaultDiscoveryService
	}

	if domain == "" {
		domain = models.DefaultDiscoveryDomain
	}

	if query == nil {
		query = mdns.Query
	}

	return &MDNSBrowser{service: service, domain: domain, query: query, logger: log}
}

func (b *MDNSBrowser) Browse(ctx context.Context, window time.Duration) (<-chan Observation, error) {
	entries := make(chan *mdns.ServiceEntry, entryBuffer)
	out := make(chan Observation, entryBuffer)

	go func() {
		params := &mdns.QueryParam{
			Service:             b.service,
			Domain:              b.domain,
			Timeout:             window,
			Entries:             entries,
			DisableIPv6:         true,
			WantUnicastResponse: true,
		}

		if err := b.query(params); err != nil {
			b.logger.Warn().Err(err).Str("service", b.service).Msg("mDNS query failed")
		}

		close(entries)
	}()

	go func() {
		defer close(out)

		for entry := range entries {
			obs, ok := ObservationFromEntry(entry)
			if !ok {
				continue
			}

			b.logger.Debug().Str("address", obs.Address).Str("mac", obs.MAC).Str("name", entry.Name).
				Msg("mDNS entry")

			select {
			case out <- obs:
			case <-ctx.Done():
				// drain so the query goroutine can finish
				for range entries {
				}

				return
			}
		}
	}()

	return out, nil
}

// ObservationFromEntry maps a resolved service entry to an observation. Entries
// without an IPv4 address are skipped. A non-default port is kept in the address.
func ObservationFromEntry(entry *mdns.ServiceEntry) (Observation, bool) {
	if entry == nil || entry.AddrV4 == nil || entry.AddrV4.IsUnspecified() {
		return Observation{}, false
	}

	host := entry.AddrV4.String()

	address := host
	if entry.Port != 0 && entry.Port != defaultHTTPPort {
		address = net.JoinHostPort(host, strconv.Itoa(entry.Port))
	}

	return Observation{Address: address, MAC: macFromTXT(entry.InfoFields)}, true
}

func macFromTXT(fields []string) string {
	for _, f := range fields {
		if len(f) > len(macTXTKey) && strings.EqualFold(f[:len(macTXTKey)], macTXTKey) {
			return models.NormalizeMAC(f[len(macTXTKey):])
		}
	}

	return ""
}
