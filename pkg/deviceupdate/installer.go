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

package deviceupdate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/roster"
	"github.com/carverauto/wledradar/pkg/wledapi"
)

// StepKind is one phase of an install.
type StepKind int

const (
	StepStarting StepKind = iota
	StepDownloading
	StepInstalling
	StepDone
	StepError
	StepNoCompatibleVersion
)

func (k StepKind) String() string {
	switch k {
	case StepStarting:
		return "starting"
	case StepDownloading:
		return "downloading"
	case StepInstalling:
		return "installing"
	case StepDone:
		return "done"
	case StepError:
		return "error"
	case StepNoCompatibleVersion:
		return "no_compatible_version"
	default:
		return "unknown"
	}
}

// Terminal reports whether no step follows k.
func (k StepKind) Terminal() bool {
	return k == StepDone || k == StepError || k == StepNoCompatibleVersion
}

// Step is one event of an install. Progress is set for StepDownloading and
// Error for StepError.
type Step struct {
	InstallID uuid.UUID
	Kind      StepKind
	AssetName string
	Progress  Progress
	Error     string
}

// Installer runs at most one firmware install per device.
type Installer struct {
	downloader *Downloader
	uploader   wledapi.FirmwareUploader
	repo       roster.Repository
	logger     logger.Logger

	mu     sync.Mutex
	active map[string]uuid.UUID
}

func NewInstaller(
	downloader *Downloader, uploader wledapi.FirmwareUploader, repo roster.Repository, log logger.Logger,
) *Installer {
	return &Installer{
		downloader: downloader,
		uploader:   uploader,
		repo:       repo,
		logger:     log,
		active:     make(map[string]uuid.UUID),
	}
}

// Active reports whether an install is running for mac.
func (i *Installer) Active(mac string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, ok := i.active[models.NormalizeMAC(mac)]

	return ok
}

// Run starts installing version on device. The channel yields every step and
// is closed after the terminal one.
func (i *Installer) Run(
	ctx context.Context, device *models.Device, info *models.Info, version *models.VersionWithAssets,
) (<-chan Step, error) {
	if device == nil || info == nil {
		return nil, errMissingDevice
	}

	if version == nil {
		return nil, errMissingVersion
	}

	mac := models.NormalizeMAC(device.MACAddress)
	id := uuid.New()

	i.mu.Lock()
	if _, busy := i.active[mac]; busy {
		i.mu.Unlock()

		return nil, fmt.Errorf("%w %s", ErrUpdateInProgress, mac)
	}

	i.active[mac] = id
	i.mu.Unlock()

	steps := make(chan Step, 1)
	target := *device

	go func() {
		defer close(steps)
		defer func() {
			i.mu.Lock()
			delete(i.active, mac)
			i.mu.Unlock()
		}()

		i.install(ctx, id, &target, info, version, func(s Step) {
			s.InstallID = id

			select {
			case steps <- s:
			case <-ctx.Done():
			}
		})
	}()

	return steps, nil
}

func (i *Installer) install(
	ctx context.Context, id uuid.UUID, device *models.Device, info *models.Info,
	version *models.VersionWithAssets, emit func(Step),
) {
	log := logger.Wrap(i.logger.With().Str("mac", device.MACAddress).Str("install_id", id.String()).Logger())
	tag := version.Version.TagName

	emit(Step{Kind: StepStarting})

	name, asset, ok := ResolveAsset(version, info)
	if !ok {
		log.Warn().Str("asset", name).Str("tag", tag).Msg("No compatible firmware asset")
		emit(Step{Kind: StepNoCompatibleVersion, AssetName: name})

		return
	}

	path, err := i.downloader.Download(ctx, tag, asset, func(p Progress) {
		emit(Step{Kind: StepDownloading, AssetName: name, Progress: p})
	})
	if err != nil {
		log.Error().Err(err).Str("asset", name).Msg("Firmware download failed")
		emit(Step{Kind: StepError, AssetName: name, Error: err.Error()})

		return
	}

	emit(Step{Kind: StepInstalling, AssetName: name})
	log.Info().Str("asset", name).Str("address", device.Address).Msg("Uploading firmware")

	err = i.upload(ctx, device.Address, path)

	var rejected *wledapi.UpdateError
	if err == nil || errors.As(err, &rejected) {
		// the device answered, so the skipped tag no longer applies
		if clearErr := roster.ClearSkipUpdateTag(context.WithoutCancel(ctx), i.repo, device.MACAddress); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Failed to clear skipped update tag")
		}
	}

	if err != nil {
		log.Error().Err(err).Str("asset", name).Msg("Firmware install failed")
		emit(Step{Kind: StepError, AssetName: name, Error: err.Error()})

		return
	}

	log.Info().Str("asset", name).Str("tag", tag).Msg("Firmware installed")
	emit(Step{Kind: StepDone, AssetName: name})
}

func (i *Installer) upload(ctx context.Context, address, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open firmware: %w", err)
	}
	defer func() { _ = f.Close() }()

	return i.uploader.UploadFirmware(ctx, address, f)
}
