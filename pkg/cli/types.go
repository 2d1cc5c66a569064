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

import "github.com/charmbracelet/lipgloss"

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

// CmdConfig holds the parsed subcommand and its flags.
type CmdConfig struct {
	Help       bool
	SubCmd     string
	ConfigFile string
	Memory     bool
	Args       []string

	Address    string
	MAC        string
	On         bool
	Off        bool
	Brightness int
	Name       *string
	Hidden     *bool
	Branch     string
	SkipTag    *string
	Tag        string
	JSON       bool
}

// logStyles defines styles for command output.
type logStyles struct {
	info, success, warning, error, header, muted lipgloss.Style
}

func newLogStyles() logStyles {
	return logStyles{
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan)),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaOrange)),
		error:   lipgloss.NewStyle().Foreground(lipgloss.Color(draculaRed)).Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple)).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment)),
	}
}
