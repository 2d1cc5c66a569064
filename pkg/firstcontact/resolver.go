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

// Package firstcontact turns a network address into a durable roster record.
package firstcontact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/roster"
	"github.com/carverauto/wledradar/pkg/wledapi"
)

// Resolver is the only component that creates roster records.
type Resolver struct {
	api    wledapi.InfoFetcher
	repo   roster.Repository
	logger logger.Logger
}

func NewResolver(api wledapi.InfoFetcher, repo roster.Repository, log logger.Logger) *Resolver {
	return &Resolver{api: api, repo: repo, logger: log}
}

// ResolveAndUpsert fetches /json/info from address and creates or refreshes the
// matching record. Every failure wraps ErrContact and leaves the roster untouched.
func (r *Resolver) ResolveAndUpsert(ctx context.Context, address string) (*models.Device, error) {
	address = strings.TrimSpace(address)

	info, err := r.api.GetInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrContact, address, err)
	}

	mac := models.NormalizeMAC(info.MACAddress)
	if mac == "" {
		r.logger.Warn().Str("address", address).Msg("Device info has no hardware address")

		return nil, fmt.Errorf("%w %s: %w", ErrContact, address, errMissingMAC)
	}

	existing, err := r.repo.FindByMAC(ctx, mac)

	switch {
	case errors.Is(err, roster.ErrDeviceNotFound):
		device := &models.Device{
			MACAddress:   mac,
			Address:      address,
			OriginalName: info.Name,
			Branch:       models.BranchUnknown,
		}

		if err := r.repo.Insert(ctx, device); err != nil {
			return nil, fmt.Errorf("failed to store device %s: %w", mac, err)
		}

		r.logger.Info().Str("mac", mac).Str("address", address).Msg("Created device")

		return device, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up device %s: %w", mac, err)
	}

	if existing.Address == address && existing.OriginalName == info.Name {
		return existing, nil
	}

	updated := *existing
	updated.Address = ChooseAddress(existing.Address, address)
	updated.OriginalName = info.Name

	if err := r.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update device %s: %w", mac, err)
	}

	r.logger.Debug().Str("mac", mac).Str("address", updated.Address).Msg("Updated device")

	return &updated, nil
}

// FastResolveByHardwareAddress updates a known device's address without a
// network round trip. It returns false when no record has that hardware address.
func (r *Resolver) FastResolveByHardwareAddress(ctx context.Context, mac, address string) (bool, error) {
	if models.NormalizeMAC(mac) == "" {
		return false, nil
	}

	existing, err := r.repo.FindByMAC(ctx, mac)
	if errors.Is(err, roster.ErrDeviceNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	if existing.Address == address {
		return true, nil
	}

	next := ChooseAddress(existing.Address, address)
	if next == existing.Address {
		return true, nil
	}

	updated := *existing
	updated.Address = next

	if err := r.repo.Update(ctx, &updated); err != nil {
		return true, fmt.Errorf("failed to update device %s: %w", existing.MACAddress, err)
	}

	r.logger.Info().Str("mac", existing.MACAddress).Str("address", next).Msg("Device address changed")

	return true, nil
}

// ChooseAddress applies the address-update policy. A stored IP literal is
// always replaced. A stored hostname is never replaced, since it may route to
// the device across networks where an observed address would not.
func ChooseAddress(current, observed string) string {
	if current == "" || models.IsIPAddress(current) {
		return observed
	}

	return current
}
