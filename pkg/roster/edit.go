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

package roster

import (
	"context"
	"strings"

	"github.com/carverauto/wledradar/pkg/models"
)

// Modify loads the device, applies fn and writes it back.
func Modify(ctx context.Context, repo Repository, mac string, fn func(d *models.Device)) (*models.Device, error) {
	d, err := repo.FindByMAC(ctx, mac)
	if err != nil {
		return nil, err
	}

	fn(d)

	if err := repo.Update(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

// SetCustomName stores a display override. Blank names clear it.
func SetCustomName(ctx context.Context, repo Repository, mac, name string) error {
	_, err := Modify(ctx, repo, mac, func(d *models.Device) {
		d.CustomName = strings.TrimSpace(name)
	})

	return err
}

func SetHidden(ctx context.Context, repo Repository, mac string, hidden bool) error {
	_, err := Modify(ctx, repo, mac, func(d *models.Device) {
		d.IsHidden = hidden
	})

	return err
}

func SetBranch(ctx context.Context, repo Repository, mac string, branch models.Branch) error {
	_, err := Modify(ctx, repo, mac, func(d *models.Device) {
		d.Branch = branch
	})

	return err
}

func SetSkipUpdateTag(ctx context.Context, repo Repository, mac, tag string) error {
	_, err := Modify(ctx, repo, mac, func(d *models.Device) {
		d.SkipUpdateTag = tag
	})

	return err
}

func ClearSkipUpdateTag(ctx context.Context, repo Repository, mac string) error {
	return SetSkipUpdateTag(ctx, repo, mac, "")
}
