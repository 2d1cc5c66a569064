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
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/reconciler"
)

const (
	brightnessStep = 16
	tableHeight    = 14
	appPadding     = 2
)

// deviceController is the part of the reconciler the watch view drives.
type deviceController interface {
	SetPower(mac string, on bool) error
	SetBrightness(mac string, brightness int) error
	RefreshOfflineDevices() int
	SetPreferences(prefs reconciler.Preferences)
}

type viewsMsg []models.DeviceView

type keyMap struct {
	Up, Down, Power, Brighter, Dimmer, Copy, Hidden, Offline, Refresh, Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Power, k.Brighter, k.Dimmer, k.Copy, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Power, k.Brighter, k.Dimmer},
		{k.Copy, k.Hidden, k.Offline, k.Refresh, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Power:    key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "power")),
		Brighter: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "brighter")),
		Dimmer:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "dimmer")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy address")),
		Hidden:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "show hidden")),
		Offline:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "offline last")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reconnect offline")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

type watchStyles struct {
	app, title, status, error, update lipgloss.Style
}

func newWatchStyles() watchStyles {
	return watchStyles{
		app:    lipgloss.NewStyle().Padding(1, appPadding),
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPink)).Bold(true),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment)),
		error:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaRed)).Bold(true),
		update: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaYellow)),
	}
}

type watchModel struct {
	devices deviceController
	updates <-chan []models.DeviceView
	views   []models.DeviceView
	prefs   reconciler.Preferences
	table   table.Model
	keys    keyMap
	help    help.Model
	styles  watchStyles
	status  string
	err     error
	copy    func(string) error
}

func newWatchModel(devices deviceController, updates <-chan []models.DeviceView, prefs reconciler.Preferences) *watchModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 22},
			{Title: "Address", Width: 18},
			{Title: "Status", Width: 16},
			{Title: "Power", Width: 5},
			{Title: "Bri", Width: 4},
			{Title: "Version", Width: 12},
			{Title: "Update", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(tableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(lipgloss.Color(draculaPurple)).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color(draculaForeground)).Background(lipgloss.Color(draculaComment))
	t.SetStyles(s)

	return &watchModel{
		devices: devices,
		updates: updates,
		prefs:   prefs,
		table:   t,
		keys:    newKeyMap(),
		help:    help.New(),
		styles:  newWatchStyles(),
		copy:    clipboard.WriteAll,
	}
}

func (m *watchModel) Init() tea.Cmd {
	return waitForViews(m.updates)
}

func waitForViews(ch <-chan []models.DeviceView) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return tea.Quit()
		}

		return viewsMsg(v)
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewsMsg:
		m.setViews(msg)

		return m, waitForViews(m.updates)
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd

	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *watchModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Power):
		m.togglePower()
	case key.Matches(msg, m.keys.Brighter):
		m.stepBrightness(brightnessStep)
	case key.Matches(msg, m.keys.Dimmer):
		m.stepBrightness(-brightnessStep)
	case key.Matches(msg, m.keys.Copy):
		m.copyAddress()
	case key.Matches(msg, m.keys.Hidden):
		m.prefs.ShowHiddenDevices = !m.prefs.ShowHiddenDevices
		m.devices.SetPreferences(m.prefs)
		m.status = fmt.Sprintf("show hidden: %t", m.prefs.ShowHiddenDevices)
	case key.Matches(msg, m.keys.Offline):
		m.prefs.ShowOfflineLast = !m.prefs.ShowOfflineLast
		m.devices.SetPreferences(m.prefs)
		m.status = fmt.Sprintf("offline last: %t", m.prefs.ShowOfflineLast)
	case key.Matches(msg, m.keys.Refresh):
		m.status = fmt.Sprintf("reconnecting %d offline devices", m.devices.RefreshOfflineDevices())
	default:
		return nil, false
	}

	return nil, true
}

func (m *watchModel) selected() (models.DeviceView, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.views) {
		return models.DeviceView{}, false
	}

	return m.views[i], true
}

func (m *watchModel) togglePower() {
	v, ok := m.selected()
	if !ok {
		return
	}

	on := true
	if info := v.Connection.StateInfo; info != nil {
		on = !info.State.IsOn()
	}

	m.err = m.devices.SetPower(v.Device.MACAddress, on)
	m.status = fmt.Sprintf("%s power %t", v.Device.DisplayName(), on)
}

func (m *watchModel) stepBrightness(delta int) {
	v, ok := m.selected()
	if !ok {
		return
	}

	current := 0
	if info := v.Connection.StateInfo; info != nil {
		current = info.State.BrightnessOrZero()
	}

	next := min(max(current+delta, minBrightness), maxBrightness)
	m.err = m.devices.SetBrightness(v.Device.MACAddress, next)
	m.status = fmt.Sprintf("%s brightness %d", v.Device.DisplayName(), next)
}

func (m *watchModel) copyAddress() {
	v, ok := m.selected()
	if !ok {
		return
	}

	if err := m.copy(v.Device.Address); err != nil {
		m.err = fmt.Errorf("clipboard unavailable: %w", err)
		return
	}

	m.err = nil
	m.status = "copied " + v.Device.Address
}

func (m *watchModel) setViews(views []models.DeviceView) {
	m.views = views

	rows := make([]table.Row, 0, len(views))
	for i := range views {
		rows = append(rows, viewRow(&views[i]))
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func viewRow(v *models.DeviceView) table.Row {
	status := v.Connection.Status.String()
	if v.Connection.RetryCount > 0 && !v.Connection.IsOnline() {
		status += " #" + strconv.Itoa(v.Connection.RetryCount)
	}

	power, bri, version := "-", "-", "-"

	if info := v.Connection.StateInfo; info != nil {
		power = "off"
		if info.State.IsOn() {
			power = "on"
		}

		bri = strconv.Itoa(info.State.BrightnessOrZero())

		if info.Info.Version != "" {
			version = info.Info.Version
		}
	}

	name := v.Device.DisplayName()
	if name == "" {
		name = v.Device.MACAddress
	}

	if v.Device.IsHidden {
		name += " (hidden)"
	}

	return table.Row{name, v.Device.Address, status, power, bri, version, v.UpdateTag}
}

func (m *watchModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render(fmt.Sprintf("wledradar: %d devices", len(m.views))))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.styles.error.Render(m.err.Error()))
	} else {
		b.WriteString(m.styles.status.Render(m.status))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return m.styles.app.Render(b.String())
}

// RunWatch runs a local reconciler and renders its read model until the user quits.
func RunWatch(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	manager := app.NewManager()

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		if err := manager.Run(ctx, app.Refresher.Revisions(ctx)); err != nil {
			app.Logger.Error().Err(err).Msg("Reconciler stopped")
		}
	}()

	go func() {
		defer wg.Done()
		app.Refresher.Run(ctx, app.Config.Releases.RefreshInterval.Std())
	}()

	model := newWatchModel(manager, manager.Subscribe(ctx), app.Preferences())

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	cancel()
	wg.Wait()

	return err
}
