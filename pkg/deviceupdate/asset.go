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

// Package deviceupdate downloads firmware from the release catalog and installs it over HTTP.
package deviceupdate

import (
	"slices"
	"strings"

	"github.com/carverauto/wledradar/pkg/models"
)

// legacyPlatforms name their binaries by platform before per-release names existed.
var legacyPlatforms = []string{"esp01", "esp02", "esp32", "esp8266"}

// ResolveAsset picks the binary for info from v. The per-release name
// WLED_{tag}_{release}.bin wins; older firmware falls back to
// WLED_{tag}_{PLATFORM}.bin. name is the last candidate tried, so callers
// can report it when ok is false.
func ResolveAsset(v *models.VersionWithAssets, info *models.Info) (name string, asset models.Asset, ok bool) {
	if v == nil || info == nil {
		return "", models.Asset{}, false
	}

	if info.Release != "" {
		name = assetName(v.Version.TagName, info.Release)
		if asset, ok = v.FindAsset(name); ok {
			return name, asset, true
		}
	}

	if slices.Contains(legacyPlatforms, info.PlatformName) {
		name = assetName(v.Version.TagName, strings.ToUpper(info.PlatformName))
		if asset, ok = v.FindAsset(name); ok {
			return name, asset, true
		}
	}

	return name, models.Asset{}, false
}

func assetName(tag, suffix string) string {
	combined := tag + "_" + suffix
	if len(combined) > 0 && (combined[0] == 'v' || combined[0] == 'V') {
		combined = combined[1:]
	}

	return "WLED_" + combined + ".bin"
}
