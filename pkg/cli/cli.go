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

// Package cli implements the wledradar command line: the daemon, one-shot
// roster and device commands, and the watch TUI.
package cli

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

const (
	minBrightness = 1
	maxBrightness = 255
)

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

func newFlagSet(name string, cfg *CmdConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "path to wledradar.json")
	fs.BoolVar(&cfg.Memory, "memory", cfg.Memory, "keep the roster in memory only")

	return fs
}

// RunHandler handles flags for the run subcommand.
type RunHandler struct{}

func (RunHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("run", cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing run flags: %w", err)
	}

	return nil
}

// AddHandler handles flags for the add subcommand.
type AddHandler struct{}

func (AddHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("add", cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing add flags: %w", err)
	}

	if fs.NArg() != 1 {
		return errRequiresAddress
	}

	cfg.Address = fs.Arg(0)

	return nil
}

// ListHandler handles flags for the list subcommand.
type ListHandler struct{}

func (ListHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("list", cfg)
	fs.BoolVar(&cfg.JSON, "json", false, "print the roster as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing list flags: %w", err)
	}

	return nil
}

// SetHandler handles flags for the set subcommand.
type SetHandler struct{}

func (SetHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("set", cfg)
	fs.StringVar(&cfg.MAC, "mac", "", "device hardware address")
	fs.BoolVar(&cfg.On, "on", false, "turn the device on")
	fs.BoolVar(&cfg.Off, "off", false, "turn the device off")
	fs.IntVar(&cfg.Brightness, "bri", 0, "brightness (1-255)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing set flags: %w", err)
	}

	if cfg.MAC == "" {
		return errRequiresMAC
	}

	if cfg.On && cfg.Off {
		return errPowerConflict
	}

	if cfg.Brightness != 0 && (cfg.Brightness < minBrightness || cfg.Brightness > maxBrightness) {
		return errBrightnessRange
	}

	if !cfg.On && !cfg.Off && cfg.Brightness == 0 {
		return errNothingToSet
	}

	return nil
}

// EditHandler handles flags for the edit subcommand. Only flags given on the
// command line are applied.
type EditHandler struct{}

func (EditHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("edit", cfg)
	fs.StringVar(&cfg.MAC, "mac", "", "device hardware address")
	name := fs.String("name", "", "custom name, empty clears it")
	hidden := fs.String("hidden", "", "hide the device (true/false)")
	fs.StringVar(&cfg.Branch, "branch", "", "update branch: stable, beta or unknown")
	skip := fs.String("skip", "", "skip this update tag, empty clears it")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing edit flags: %w", err)
	}

	if cfg.MAC == "" {
		return errRequiresMAC
	}

	var setErr error

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = name
		case "skip":
			cfg.SkipTag = skip
		case "hidden":
			v, err := strconv.ParseBool(*hidden)
			if err != nil {
				setErr = fmt.Errorf("parsing --hidden: %w", err)
				return
			}

			cfg.Hidden = &v
		}
	})

	if setErr != nil {
		return setErr
	}

	if cfg.Name == nil && cfg.Hidden == nil && cfg.SkipTag == nil && cfg.Branch == "" {
		return errNothingToEdit
	}

	return nil
}

// MACHandler handles subcommands that take only --mac.
type MACHandler struct {
	Name string
}

func (h MACHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(h.Name, cfg)
	fs.StringVar(&cfg.MAC, "mac", "", "device hardware address")

	if h.Name == "update" {
		fs.StringVar(&cfg.Tag, "tag", "", "install this release instead of the offered update")
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing %s flags: %w", h.Name, err)
	}

	if cfg.MAC == "" {
		return errRequiresMAC
	}

	return nil
}

// PlainHandler handles subcommands with only the common flags.
type PlainHandler struct {
	Name string
}

func (h PlainHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(h.Name, cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing %s flags: %w", h.Name, err)
	}

	return nil
}

func subcommands() map[string]SubcommandHandler {
	return map[string]SubcommandHandler{
		"run":      RunHandler{},
		"add":      AddHandler{},
		"list":     ListHandler{},
		"set":      SetHandler{},
		"edit":     EditHandler{},
		"remove":   MACHandler{Name: "remove"},
		"update":   MACHandler{Name: "update"},
		"releases": PlainHandler{Name: "releases"},
		"watch":    PlainHandler{Name: "watch"},
		"version":  PlainHandler{Name: "version"},
	}
}

// ParseFlags parses the subcommand in args[0] and its flags.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{}

	if len(args) == 0 {
		return cfg, errMissingSubcommand
	}

	cfg.SubCmd = strings.ToLower(args[0])

	switch cfg.SubCmd {
	case "help", "-h", "-help", "--help":
		cfg.Help = true

		return cfg, nil
	}

	handler, ok := subcommands()[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	cfg.Args = args[1:]

	return cfg, nil
}
