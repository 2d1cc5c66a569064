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
	"fmt"
	"io"
)

const usage = `wledradar keeps live connections to the WLED devices on your network.

Usage:
  wledradar <command> [flags]

Commands:
  run                        run the daemon (roster, connections, discovery, release refresh)
  add <address>              contact a device and add it to the roster
  list [--json]              print the roster
  set --mac M [--on|--off] [--bri N]
                             change power or brightness of a device
  edit --mac M [--name S] [--hidden B] [--branch B] [--skip TAG]
                             edit a roster record
  remove --mac M             delete a roster record
  releases                   refresh the release catalog and print the latest versions
  update --mac M [--tag T]   download and install firmware on a device
  watch                      interactive view of every device
  version                    print the build version

Common flags:
  --config PATH              configuration file (CONFIG_SOURCE=file|env|kv)
  --memory                   keep the roster in memory only

Daemon signals:
  SIGUSR1                    go to background (disconnect every device)
  SIGUSR2                    return to foreground (reconnect and browse for devices)
  SIGHUP                     reconnect offline devices
`

// ShowHelp writes usage to w.
func ShowHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, usage)
}
