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

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/release"
)

const versionColumns = `repository, tag_name, name, description, is_prerelease, published_at, html_url`

// CatalogStore is the PostgreSQL-backed release catalog.
type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

var _ release.CatalogStore = (*CatalogStore)(nil)

// ReplaceAll deletes the repository's versions (assets cascade) and copies in
// the new set inside one transaction.
func (s *CatalogStore) ReplaceAll(
	ctx context.Context, repository string, versions []models.Version, assets []models.Asset,
) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM release_versions WHERE repository = $1`, repository); err != nil {
		return fmt.Errorf("catalog: delete versions: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"release_versions"},
		[]string{"repository", "tag_name", "name", "description", "is_prerelease", "published_at", "html_url"},
		pgx.CopyFromSlice(len(versions), func(i int) ([]any, error) {
			v := versions[i]
			return []any{repository, v.TagName, v.Name, v.Description, v.IsPrerelease, v.PublishedAt, v.HTMLURL}, nil
		}),
	); err != nil {
		return fmt.Errorf("catalog: copy versions: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"release_assets"},
		[]string{"repository", "version_tag_name", "name", "size", "download_url", "asset_id", "digest"},
		pgx.CopyFromSlice(len(assets), func(i int) ([]any, error) {
			a := assets[i]
			return []any{repository, a.VersionTagName, a.Name, a.Size, a.DownloadURL, a.AssetID, a.Digest}, nil
		}),
	); err != nil {
		return fmt.Errorf("catalog: copy assets: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}

	return nil
}

func (s *CatalogStore) LatestStable(ctx context.Context, repository string) (*models.VersionWithAssets, error) {
	return s.one(ctx, `SELECT `+versionColumns+` FROM release_versions
		WHERE repository = $1 AND NOT is_prerelease
		ORDER BY published_at DESC LIMIT 1`, repository)
}

func (s *CatalogStore) LatestBeta(ctx context.Context, repository string) (*models.VersionWithAssets, error) {
	return s.one(ctx, `SELECT `+versionColumns+` FROM release_versions
		WHERE repository = $1
		ORDER BY published_at DESC LIMIT 1`, repository)
}

func (s *CatalogStore) Get(ctx context.Context, repository, tagName string) (*models.VersionWithAssets, error) {
	return s.one(ctx, `SELECT `+versionColumns+` FROM release_versions
		WHERE repository = $1 AND tag_name = $2`, repository, release.SanitizeTag(tagName))
}

func (s *CatalogStore) List(ctx context.Context, repository string) ([]models.Version, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+versionColumns+` FROM release_versions
		WHERE repository = $1 ORDER BY published_at DESC`, repository)
	if err != nil {
		return nil, fmt.Errorf("catalog: list versions: %w", err)
	}

	versions, err := pgx.CollectRows(rows, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("catalog: scan versions: %w", err)
	}

	return versions, nil
}

func (s *CatalogStore) one(ctx context.Context, query string, args ...any) (*models.VersionWithAssets, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query version: %w", err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("catalog: scan version: %w", err)
	}

	assets, err := s.assets(ctx, v.Repository, v.TagName)
	if err != nil {
		return nil, err
	}

	return &models.VersionWithAssets{Version: v, Assets: assets}, nil
}

func (s *CatalogStore) assets(ctx context.Context, repository, tag string) ([]models.Asset, error) {
	rows, err := s.pool.Query(ctx, `SELECT repository, version_tag_name, name, size, download_url, asset_id, digest
		FROM release_assets WHERE repository = $1 AND version_tag_name = $2 ORDER BY name`, repository, tag)
	if err != nil {
		return nil, fmt.Errorf("catalog: query assets: %w", err)
	}

	assets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Asset, error) {
		var a models.Asset
		err := row.Scan(&a.Repository, &a.VersionTagName, &a.Name, &a.Size, &a.DownloadURL, &a.AssetID, &a.Digest)

		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: scan assets: %w", err)
	}

	return assets, nil
}

func scanVersion(row pgx.CollectableRow) (models.Version, error) {
	var v models.Version
	err := row.Scan(&v.Repository, &v.TagName, &v.Name, &v.Description, &v.IsPrerelease, &v.PublishedAt, &v.HTMLURL)

	return v, err
}
