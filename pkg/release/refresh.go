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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/observable"
)

// Refresher pulls every configured feed into the catalog store.
type Refresher struct {
	source   ReleaseSource
	store    CatalogStore
	sources  []Source
	logger   logger.Logger
	revision *observable.Value[uint64]
}

// NewRefresher builds a refresher over the given feeds. A nil feed list means all known Sources.
func NewRefresher(source ReleaseSource, store CatalogStore, feeds []Source, log logger.Logger) *Refresher {
	if feeds == nil {
		feeds = Sources
	}

	return &Refresher{
		source:   source,
		store:    store,
		sources:  feeds,
		logger:   log,
		revision: observable.New[uint64](0),
	}
}

// Revisions yields a counter that increases after every refresh that changed the catalog.
func (r *Refresher) Revisions(ctx context.Context) <-chan uint64 {
	return r.revision.Subscribe(ctx)
}

// Revision returns the current catalog revision.
func (r *Refresher) Revision() uint64 {
	return r.revision.Get()
}

// CheckForUpdates refreshes every feed and returns the joined failures.
func (r *Refresher) CheckForUpdates(ctx context.Context) error {
	var errs []error

	changed := false

	for _, s := range r.sources {
		if err := r.refreshSource(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Repository(), err))
			continue
		}

		changed = true
	}

	if changed {
		r.revision.Update(func(n uint64) uint64 { return n + 1 })
	}

	return errors.Join(errs...)
}

// Refresh is the passive variant used by background loops. Failures are logged only.
func (r *Refresher) Refresh(ctx context.Context) {
	if err := r.CheckForUpdates(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("Release catalog refresh failed, keeping stored catalog")
	}
}

// Run refreshes immediately and then on every interval tick until ctx is done.
// A non-positive interval refreshes once.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	r.Refresh(ctx)

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

func (r *Refresher) refreshSource(ctx context.Context, s Source) error {
	releases, err := r.source.ListReleases(ctx, s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchReleases, err)
	}

	versions, assets := MapReleases(s.Repository(), releases)
	if len(versions) == 0 {
		return ErrEmptyCatalog
	}

	if err := r.store.ReplaceAll(ctx, s.Repository(), versions, assets); err != nil {
		return fmt.Errorf("failed to store releases: %w", err)
	}

	r.logger.Info().
		Str("repository", s.Repository()).
		Int("versions", len(versions)).
		Int("assets", len(assets)).
		Msg("Release catalog replaced")

	return nil
}

// MapReleases converts feed entries into catalog rows. Drafts are dropped and
// tag names are stored without their leading "v".
func MapReleases(repository string, releases []GitHubRelease) ([]models.Version, []models.Asset) {
	versions := make([]models.Version, 0, len(releases))
	assets := make([]models.Asset, 0)
	seen := make(map[string]struct{}, len(releases))

	for i := range releases {
		rel := &releases[i]
		if rel.Draft {
			continue
		}

		tag := SanitizeTag(rel.TagName)
		if tag == "" {
			continue
		}

		if _, dup := seen[tag]; dup {
			continue
		}

		seen[tag] = struct{}{}

		versions = append(versions, models.Version{
			Repository:   repository,
			TagName:      tag,
			Name:         rel.Name,
			Description:  rel.Body,
			IsPrerelease: rel.Prerelease,
			PublishedAt:  rel.PublishedAt,
			HTMLURL:      rel.HTMLURL,
		})

		for _, a := range rel.Assets {
			assets = append(assets, models.Asset{
				Repository:     repository,
				VersionTagName: tag,
				Name:           a.Name,
				Size:           a.Size,
				DownloadURL:    a.BrowserDownloadURL,
				AssetID:        a.ID,
				Digest:         a.Digest,
			})
		}
	}

	return versions, assets
}
