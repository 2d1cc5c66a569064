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

//go:generate mockgen -destination=mock_release.go -package=release github.com/carverauto/wledradar/pkg/release ReleaseSource

// Package release evaluates firmware update availability against a stored release catalog.
package release

import (
	"context"
	"time"

	"github.com/carverauto/wledradar/pkg/models"
)

// GitHubRelease is one entry of the GitHub list-releases API.
type GitHubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	Body        string        `json:"body"`
	Prerelease  bool          `json:"prerelease"`
	Draft       bool          `json:"draft"`
	PublishedAt time.Time     `json:"published_at"`
	HTMLURL     string        `json:"html_url"`
	Assets      []GitHubAsset `json:"assets"`
}

type GitHubAsset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Digest             string `json:"digest"`
}

// ReleaseSource lists every release of an upstream feed.
type ReleaseSource interface {
	ListReleases(ctx context.Context, source Source) ([]GitHubRelease, error)
}

// Catalog reads the stored releases of one repository.
// Both lookups return nil, nil when the repository has no matching release.
type Catalog interface {
	LatestStable(ctx context.Context, repository string) (*models.VersionWithAssets, error)
	LatestBeta(ctx context.Context, repository string) (*models.VersionWithAssets, error)
	Get(ctx context.Context, repository, tagName string) (*models.VersionWithAssets, error)
	List(ctx context.Context, repository string) ([]models.Version, error)
}

// CatalogStore replaces the stored releases of one repository in a single atomic step.
type CatalogStore interface {
	Catalog
	ReplaceAll(ctx context.Context, repository string, versions []models.Version, assets []models.Asset) error
}
