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

package cli

import "errors"

var (
	errUnknownSubcommand = errors.New("unknown subcommand")
	errMissingSubcommand = errors.New("missing subcommand")
	errRequiresAddress   = errors.New("add requires a device address")
	errRequiresMAC       = errors.New("--mac is required")
	errPowerConflict     = errors.New("--on and --off are mutually exclusive")
	errNothingToSet      = errors.New("set needs --on, --off or --bri")
	errNothingToEdit     = errors.New("edit needs at least one of --name, --hidden, --branch, --skip")
	errBrightnessRange   = errors.New("--bri must be between 1 and 255")
	errNoUpdate          = errors.New("no update available for device")
	errVersionNotFound   = errors.New("release not found in catalog")
	errInstallFailed     = errors.New("firmware install failed")
)
