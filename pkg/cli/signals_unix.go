//go:build unix

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

import (
	"os"

	"golang.org/x/sys/unix"
)

func controlSignals() []os.Signal {
	return []os.Signal{unix.SIGUSR1, unix.SIGUSR2, unix.SIGHUP}
}

func controlFor(sig os.Signal) Control {
	switch sig {
	case unix.SIGUSR1:
		return ControlBackground
	case unix.SIGUSR2:
		return ControlForeground
	case unix.SIGHUP:
		return ControlRefreshOffline
	default:
		return ControlNone
	}
}
