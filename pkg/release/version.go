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
	"strings"

	"golang.org/x/mod/semver"

	"github.com/carverauto/wledradar/pkg/models"
)

// betaSuffixes mark a pre-release firmware version, matched case-insensitively.
var betaSuffixes = []string{"-a", "-b", "-rc"}

// SanitizeTag strips one leading "v" or "V" and surrounding whitespace.
func SanitizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if strings.HasPrefix(tag, "v") || strings.HasPrefix(tag, "V") {
		return tag[1:]
	}

	return tag
}

// IsBetaVersion reports whether a version string carries a pre-release marker.
func IsBetaVersion(version string) bool {
	lower := strings.ToLower(version)
	for _, suffix := range betaSuffixes {
		if strings.Contains(lower, suffix) {
			return true
		}
	}

	return false
}

// InferBranch classifies a device version string as beta or stable.
func InferBranch(version string) models.Branch {
	if IsBetaVersion(version) {
		return models.BranchBeta
	}

	return models.BranchStable
}

// IsNewer reports whether candidate is a later version than current.
// Both are compared as major.minor.patch[-pre]; when either does not parse,
// candidate counts as newer whenever it differs from current.
func IsNewer(candidate, current string) bool {
	c, okCandidate := canonical(candidate)
	cur, okCurrent := canonical(current)

	if !okCandidate || !okCurrent {
		return SanitizeTag(candidate) != SanitizeTag(current)
	}

	return semver.Compare(c, cur) > 0
}

// canonical returns the "v"-prefixed form of a strict three-component version.
func canonical(version string) (string, bool) {
	bare := SanitizeTag(version)
	if bare == "" {
		return "", false
	}

	v := "v" + bare
	if !semver.IsValid(v) {
		return "", false
	}

	core := strings.SplitN(strings.SplitN(bare, "+", 2)[0], "-", 2)[0]
	if strings.Count(core, ".") != 2 {
		return "", false
	}

	return v, true
}
