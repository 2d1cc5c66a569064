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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/carverauto/wledradar/pkg/deviceupdate"
	"github.com/carverauto/wledradar/pkg/firstcontact"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/release"
	"github.com/carverauto/wledradar/pkg/roster"
	"github.com/carverauto/wledradar/pkg/version"
)

// Run executes a parsed command.
func Run(ctx context.Context, cmd *CmdConfig, stdout io.Writer) error {
	if cmd.Help {
		ShowHelp(stdout)
		return nil
	}

	if cmd.SubCmd == "version" {
		_, err := fmt.Fprintln(stdout, version.Full())
		return err
	}

	mode := logsStderr

	switch cmd.SubCmd {
	case "run":
		mode = logsConfigured
	case "watch":
		mode = logsOff
	}

	app, err := NewApp(ctx, cmd, mode)
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd.SubCmd {
	case "run":
		return RunDaemon(ctx, app)
	case "watch":
		return RunWatch(ctx, app)
	case "add":
		return RunAdd(ctx, app, cmd, stdout)
	case "list":
		return RunList(ctx, app, cmd, stdout)
	case "set":
		return RunSet(ctx, app, cmd, stdout)
	case "edit":
		return RunEdit(ctx, app, cmd, stdout)
	case "remove":
		return RunRemove(ctx, app, cmd, stdout)
	case "releases":
		return RunReleases(ctx, app, stdout)
	case "update":
		return RunUpdate(ctx, app, cmd, stdout)
	default:
		return fmt.Errorf("%w: %s", errUnknownSubcommand, cmd.SubCmd)
	}
}

// RunAdd runs first contact against an address and stores the device.
func RunAdd(ctx context.Context, app *App, cmd *CmdConfig, w io.Writer) error {
	if err := validateAddress(cmd.Address); err != nil {
		return err
	}

	snap := firstcontact.NewAddSession(app.Resolver).Submit(ctx, cmd.Address)
	if snap.State != firstcontact.StateSuccess {
		return snap.Err
	}

	device := snap.Device
	styles := newLogStyles()
	_, err := fmt.Fprintf(w, "%s %s (%s) at %s\n",
		styles.success.Render("added"), device.DisplayName(), device.MACAddress, device.Address)

	return err
}

func validateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return errRequiresAddress
	}

	return nil
}

// RunList prints the roster.
func RunList(ctx context.Context, app *App, cmd *CmdConfig, w io.Writer) error {
	devices, err := app.Roster.List(ctx)
	if err != nil {
		return err
	}

	if cmd.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(devices)
	}

	styles := newLogStyles()

	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, styles.muted.Render("no devices"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "MAC\tNAME\tADDRESS\tBRANCH\tHIDDEN\tLAST SEEN")

	for i := range devices {
		d := &devices[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			d.MACAddress, d.DisplayName(), d.Address, d.Branch, d.IsHidden, lastSeen(d))
	}

	return tw.Flush()
}

func lastSeen(d *models.Device) string {
	if d.LastSeen == 0 {
		return "never"
	}

	return d.LastSeenTime().Local().Format(time.DateTime)
}

// RunSet posts a partial state to the device over HTTP.
func RunSet(ctx context.Context, app *App, cmd *CmdConfig, w io.Writer) error {
	device, err := app.Roster.FindByMAC(ctx, cmd.MAC)
	if err != nil {
		return err
	}

	var state models.State

	switch {
	case cmd.On:
		state.On = models.Bool(true)
	case cmd.Off:
		state.On = models.Bool(false)
	}

	if cmd.Brightness != 0 {
		state.Brightness = models.Int(cmd.Brightness)
	}

	got, err := app.API.PostState(ctx, device.Address, state)
	if err != nil {
		return err
	}

	power := "off"
	if got.IsOn() {
		power = "on"
	}

	_, err = fmt.Fprintf(w, "%s is %s at brightness %d\n", device.DisplayName(), power, got.BrightnessOrZero())

	return err
}

// RunEdit applies the edit flags that were given.
func RunEdit(ctx context.Context, app *App, cmd *CmdConfig, w io.Writer) error {
	device, err := roster.Modify(ctx, app.Roster, cmd.MAC, func(d *models.Device) {
		if cmd.Name != nil {
			d.CustomName = strings.TrimSpace(*cmd.Name)
		}

		if cmd.Hidden != nil {
			d.IsHidden = *cmd.Hidden
		}

		if cmd.Branch != "" {
			d.Branch = models.ParseBranch(cmd.Branch)
		}

		if cmd.SkipTag != nil {
			d.SkipUpdateTag = strings.TrimSpace(*cmd.SkipTag)
		}
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "updated %s (%s)\n", device.DisplayName(), device.MACAddress)

	return err
}

// RunRemove deletes a roster record.
func RunRemove(ctx context.Context, app *App, cmd *CmdConfig, w io.Writer) error {
	if err := app.Roster.Delete(ctx, cmd.MAC); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "removed %s\n", models.NormalizeMAC(cmd.MAC))

	return err
}

// RunReleases refreshes every feed and prints the latest stable and beta
// tags. A feed failure is returned after printing what is known.
func RunReleases(ctx context.Context, app *App, w io.Writer) error {
	checkErr := app.Refresher.CheckForUpdates(ctx)

	styles := newLogStyles()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REPOSITORY\tSTABLE\tBETA")

	for _, s := range release.Sources {
		stable, err := app.Catalog.LatestStable(ctx, s.Repository())
		if err != nil {
			return err
		}

		beta, err := app.Catalog.LatestBeta(ctx, s.Repository())
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Repository(), tagOf(stable), tagOf(beta))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if checkErr != nil {
		_, _ = fmt.Fprintln(w, styles.error.Render("refresh failed: "+checkErr.Error()))
	}

	return checkErr
}

func tagOf(v *models.VersionWithAssets) string {
	if v == nil {
		return "-"
	}

	return v.Version.TagName
}

// RunUpdate installs the offered update, or --tag, on one device and prints every step.
func RunUpdate(ctx context.Context, app *App, cmd *CmdConfig, w io.Writer) error {
	device, err := app.Roster.FindByMAC(ctx, cmd.MAC)
	if err != nil {
		return err
	}

	info, err := app.API.GetInfo(ctx, device.Address)
	if err != nil {
		return err
	}

	target, err := resolveVersion(ctx, app, device, info, cmd.Tag)
	if err != nil {
		return err
	}

	steps, err := app.NewInstaller().Run(ctx, device, info, target)
	if err != nil {
		return err
	}

	styles := newLogStyles()

	var last deviceupdate.Step

	for step := range steps {
		// one line per percent
		if step.Kind == deviceupdate.StepDownloading && last.Kind == deviceupdate.StepDownloading &&
			step.Progress.Percent() == last.Progress.Percent() {
			last = step
			continue
		}

		last = step

		_, _ = fmt.Fprintln(w, renderStep(styles, step))
	}

	switch last.Kind {
	case deviceupdate.StepDone:
		return nil
	case deviceupdate.StepNoCompatibleVersion:
		return fmt.Errorf("%w: %s", deviceupdate.ErrNoCompatibleAsset, last.AssetName)
	default:
		return fmt.Errorf("%w: %s", errInstallFailed, last.Error)
	}
}

func renderStep(styles logStyles, s deviceupdate.Step) string {
	switch s.Kind {
	case deviceupdate.StepDownloading:
		return styles.info.Render(fmt.Sprintf("downloading %s %d%%", s.AssetName, s.Progress.Percent()))
	case deviceupdate.StepDone:
		return styles.success.Render("done")
	case deviceupdate.StepError:
		return styles.error.Render("error: " + s.Error)
	case deviceupdate.StepNoCompatibleVersion:
		return styles.warning.Render("no compatible firmware: " + s.AssetName)
	case deviceupdate.StepStarting, deviceupdate.StepInstalling:
		return styles.info.Render(s.Kind.String() + " " + s.AssetName)
	default:
		return s.Kind.String()
	}
}

func resolveVersion(
	ctx context.Context, app *App, device *models.Device, info *models.Info, tag string,
) (*models.VersionWithAssets, error) {
	source, ok := release.SourceForInfo(info)
	if !ok {
		return nil, fmt.Errorf("%w: unknown brand %q", errNoUpdate, info.Brand)
	}

	known, err := app.Catalog.List(ctx, source.Repository())
	if err != nil {
		return nil, err
	}

	if len(known) == 0 {
		if err := app.Refresher.CheckForUpdates(ctx); err != nil {
			return nil, err
		}
	}

	if tag == "" {
		tag = app.Evaluator.UpdateTagFor(ctx, device, info)
		if tag == "" {
			return nil, fmt.Errorf("%w %s", errNoUpdate, device.MACAddress)
		}
	}

	found, err := app.Catalog.Get(ctx, source.Repository(), tag)
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %s %s", errVersionNotFound, source.Repository(), tag)
	}

	return found, nil
}
