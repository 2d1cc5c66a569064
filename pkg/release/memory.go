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
	"sort"
	"sync"

	"github.com/carverauto/wledradar/pkg/models"
)

// MemoryCatalog keeps the catalog in process memory, one slice per repository.
type MemoryCatalog struct {
	mu       sync.RWMutex
	versions map[string][]models.Version
	assets   map[string][]models.Asset
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		versions: make(map[string][]models.Version),
		assets:   make(map[string][]models.Asset),
	}
}

var _ CatalogStore = (*MemoryCatalog)(nil)

// ReplaceAll swaps the repository's rows in one step.
func (m *MemoryCatalog) ReplaceAll(_ context.Context, repository string, versions []models.Version, assets []models.Asset) error {
	v := append([]models.Version(nil), versions...)
	a := append([]models.Asset(nil), assets...)

	// newest first so the Latest lookups take the first match
	sort.SliceStable(v, func(i, j int) bool { return v[i].PublishedAt.After(v[j].PublishedAt) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.versions[repository] = v
	m.assets[repository] = a

	return nil
}

func (m *MemoryCatalog) LatestStable(_ context.Context, repository string) (*models.VersionWithAssets, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.versions[repository] {
		if !v.IsPrerelease {
			return m.withAssetsLocked(repository, v), nil
		}
	}

	return nil, nil
}

func (m *MemoryCatalog) LatestBeta(_ context.Context, repository string) (*models.VersionWithAssets, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.versions[repository]
	if len(versions) == 0 {
		return nil, nil
	}

	return m.withAssetsLocked(repository, versions[0]), nil
}

func (m *MemoryCatalog) Get(_ context.Context, repository, tagName string) (*models.VersionWithAssets, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tag := SanitizeTag(tagName)

	for _, v := range m.versions[repository] {
		if v.TagName == tag {
			return m.withAssetsLocked(repository, v), nil
		}
	}

	return nil, nil
}

func (m *MemoryCatalog) List(_ context.Context, repository string) ([]models.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.Version(nil), m.versions[repository]...), nil
}

func (m *MemoryCatalog) withAssetsLocked(repository string, v models.Version) *models.VersionWithAssets {
	out := &models.VersionWithAssets{Version: v}

	for _, a := range m.assets[repository] {
		if a.VersionTagName == v.TagName {
			out.Assets = append(out.Assets, a)
		}
	}

	return out
}
