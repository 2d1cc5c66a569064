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
// Package version reports the wledradar build stamped in by the linker.
package version

import "runtime"

//nolint:gochecknoglobals // set through -ldflags -X
var (
	version = "dev"
	buildID = "dev"
)

// Version is the release tag, or "dev" for local builds.
func Version() string {
	return version
}

// UserAgent is the User-Agent sent to devices and the release feed.
func UserAgent() string {
	return "wledradar/" + version
}

// Full describes the build for the version command.
func Full() string {
	return "wledradar " + version + " (build: " + buildID + ", " + runtime.Version() + " " +
		runtime.GOOS + "/" + runtime.GOARCH + ")"
}
