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

package models

import "time"

// Version is one catalog release of a repository ("owner/repo").
// TagName is stored without a leading "v".
type Version struct {
	Repository   string    `json:"repository"`
	TagName      string    `json:"tag_name"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsPrerelease bool      `json:"is_prerelease"`
	PublishedAt  time.Time `json:"published_at"`
	HTMLURL      string    `json:"html_url"`
}

// Asset is a downloadable binary that belongs to exactly one Version.
type Asset struct {
	Repository     string `json:"repository"`
	VersionTagName string `json:"version_tag_name"`
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	DownloadURL    string `json:"download_url"`
	AssetID        int64  `json:"asset_id"`
	// Digest is the published checksum, e.g. "sha256:<hex>". Empty when the feed has none.
	Digest string `json:"digest,omitempty"`
}

// VersionWithAssets groups a Version with its Assets.
type VersionWithAssets struct {
	Version Version `json:"version"`
	Assets  []Asset `json:"assets"`
}

// FindAsset returns the asset with the given file name.
func (v *VersionWithAssets) FindAsset(name string) (Asset, bool) {
	for _, a := range v.Assets {
		if a.Name == name {
			return a, true
		}
	}

	return Asset{}, false
}
