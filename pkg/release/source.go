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

import "github.com/carverauto/wledradar/pkg/models"

// SourceType identifies a firmware family.
type SourceType string

const (
	SourceOfficialWLED SourceType = "official_wled"
	SourceQuinLED      SourceType = "quinled"
)

// Source is an upstream release feed and the device brand it serves.
type Source struct {
	Type         SourceType
	BrandPattern string
	GitHubOwner  string
	GitHubRepo   string
}

// Repository is the "owner/repo" catalog key of the source.
func (s Source) Repository() string {
	return s.GitHubOwner + "/" + s.GitHubRepo
}

// Sources is the registry of known update feeds.
var Sources = []Source{
	{
		Type:         SourceOfficialWLED,
		BrandPattern: "WLED",
		GitHubOwner:  "Aircoookie",
		GitHubRepo:   "WLED",
	},
	{
		Type:         SourceQuinLED,
		BrandPattern: "QuinLED",
		GitHubOwner:  "intermittech",
		GitHubRepo:   "QuinLED-Firmware",
	},
}

// SourceForInfo returns the source whose brand matches the device exactly.
func SourceForInfo(info *models.Info) (Source, bool) {
	if info == nil {
		return Source{}, false
	}

	for _, s := range Sources {
		if s.BrandPattern == info.Brand {
			return s, true
		}
	}

	return Source{}, false
}
