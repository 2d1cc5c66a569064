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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/version"
)

const (
	releasesPerPage = 100
	maxReleasePages = 20
)

// GitHubClient lists releases through the GitHub REST API.
type GitHubClient struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

// NewGitHubClient returns a client rooted at apiURL (https://api.github.com when empty).
func NewGitHubClient(apiURL, token string, timeout time.Duration) (*GitHubClient, error) {
	if apiURL == "" {
		apiURL = models.DefaultGitHubAPIURL
	}

	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}

	return &GitHubClient{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		token:   token,
	}, nil
}

var _ ReleaseSource = (*GitHubClient)(nil)

// ListReleases walks every page of the repository's releases.
func (c *GitHubClient) ListReleases(ctx context.Context, source Source) ([]GitHubRelease, error) {
	var all []GitHubRelease

	for page := 1; page <= maxReleasePages; page++ {
		batch, err := c.listPage(ctx, source, page)
		if err != nil {
			return nil, err
		}

		all = append(all, batch...)

		if len(batch) < releasesPerPage {
			break
		}
	}

	return all, nil
}

func (c *GitHubClient) listPage(ctx context.Context, source Source, page int) ([]GitHubRelease, error) {
	rel := &url.URL{
		Path: fmt.Sprintf("repos/%s/%s/releases", source.GitHubOwner, source.GitHubRepo),
		RawQuery: url.Values{
			"per_page": []string{strconv.Itoa(releasesPerPage)},
			"page":     []string{strconv.Itoa(page)},
		}.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", version.UserAgent())

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var batch []GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode releases: %w", err)
	}

	return batch, nil
}
