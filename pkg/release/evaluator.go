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

package release

import (
	"context"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

// Evaluator decides whether a device should be offered a firmware update.
type Evaluator struct {
	catalog Catalog
	logger  logger.Logger
}

func NewEvaluator(catalog Catalog, log logger.Logger) *Evaluator {
	return &Evaluator{catalog: catalog, logger: log}
}

// NewerReleaseTag returns the catalog tag to offer the device, or "" when no
// update applies. An unknown branch is inferred from the device version.
func (e *Evaluator) NewerReleaseTag(
	ctx context.Context, info *models.Info, branch models.Branch, ignoredTag string, source Source,
) string {
	if info == nil || info.Version == "" {
		return ""
	}

	if info.Brand != source.BrandPattern {
		return ""
	}

	if !info.IsOTAEnabled() {
		return ""
	}

	if branch == models.BranchUnknown {
		branch = InferBranch(info.Version)
	}

	latest, err := e.latest(ctx, source.Repository(), branch)
	if err != nil {
		e.logger.Warn().Err(err).Str("repository", source.Repository()).Msg("Release catalog lookup failed")
		return ""
	}

	if latest == nil {
		return ""
	}

	tag := latest.Version.TagName

	if tag == ignoredTag {
		return ""
	}

	if SanitizeTag(tag) == SanitizeTag(info.Version) {
		return ""
	}

	onBeta := IsBetaVersion(info.Version)

	// Switching channel is always an update, even to a numerically older tag.
	if branch == models.BranchStable && onBeta {
		return tag
	}

	if branch == models.BranchBeta && !onBeta {
		return tag
	}

	if IsNewer(tag, info.Version) {
		return tag
	}

	return ""
}

// UpdateTagFor picks the source by brand and evaluates the device's own
// branch and skip marker. It is the per-device entry point used by the read model.
func (e *Evaluator) UpdateTagFor(ctx context.Context, device *models.Device, info *models.Info) string {
	source, ok := SourceForInfo(info)
	if !ok {
		return ""
	}

	return e.NewerReleaseTag(ctx, info, device.Branch, device.SkipUpdateTag, source)
}

func (e *Evaluator) latest(ctx context.Context, repository string, branch models.Branch) (*models.VersionWithAssets, error) {
	if branch == models.BranchBeta {
		return e.catalog.LatestBeta(ctx, repository)
	}

	return e.catalog.LatestStable(ctx, repository)
}
