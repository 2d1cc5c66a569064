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
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/carverauto/wledradar/pkg/hashutil"
	"github.com/carverauto/wledradar/pkg/logger"
	"github.com/carverauto/wledradar/pkg/models"
)

const (
	partSuffix     = ".part"
	cacheDirPerm   = 0o755
	cacheFilePerm  = 0o644
	copyBufferSize = 32 * 1024
)

// Progress reports bytes written so far. Total is 0 when unknown.
type Progress struct {
	Downloaded int64
	Total      int64
}

// Percent is Downloaded/Total in [0,100], or 0 when Total is unknown.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}

	return int(p.Downloaded * 100 / p.Total)
}

// Downloader caches release assets under {dir}/{tag}/{asset}.
type Downloader struct {
	http   *http.Client
	dir    string
	logger logger.Logger
}

// NewDownloader uses client for transfers; nil means http.DefaultClient.
func NewDownloader(client *http.Client, dir string, log logger.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}

	return &Downloader{http: client, dir: dir, logger: log}
}

// Path is where the asset of tag is cached.
func (d *Downloader) Path(tag string, asset models.Asset) string {
	return filepath.Join(d.dir, tag, asset.Name)
}

// IsCached reports whether a completed download exists for the asset.
func (d *Downloader) IsCached(tag string, asset models.Asset) bool {
	st, err := os.Stat(d.Path(tag, asset))
	if err != nil || st.IsDir() {
		return false
	}

	return asset.Size <= 0 || st.Size() == asset.Size
}

// Download fetches the asset into the cache and returns its path. An existing
// partial file is resumed with a Range request. progress may be nil.
func (d *Downloader) Download(ctx context.Context, tag string, asset models.Asset, progress func(Progress)) (string, error) {
	path := d.Path(tag, asset)

	if d.IsCached(tag, asset) {
		d.logger.Debug().Str("asset", asset.Name).Msg("Reusing cached firmware")

		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), cacheDirPerm); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	part := path + partSuffix

	var offset int64
	if st, err := os.Stat(part); err == nil {
		offset = st.Size()
	}

	if asset.Size > 0 && offset == asset.Size {
		return path, d.finish(part, path, asset)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	req.Header.Set("Accept", "application/octet-stream")

	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", asset.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	flags := os.O_CREATE | os.O_WRONLY

	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
	case http.StatusOK:
		// server ignored the range
		offset = 0
		flags |= os.O_TRUNC
	default:
		return "", fmt.Errorf("%w %s: %d", ErrDownloadStatus, asset.Name, resp.StatusCode)
	}

	total := asset.Size
	if total <= 0 && resp.ContentLength > 0 {
		total = offset + resp.ContentLength
	}

	f, err := os.OpenFile(part, flags, cacheFilePerm)
	if err != nil {
		return "", fmt.Errorf("open partial file: %w", err)
	}

	written, copyErr := copyWithProgress(ctx, f, resp.Body, offset, total, progress)
	closeErr := f.Close()

	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", fmt.Errorf("download %s: %w", asset.Name, err)
	}

	d.logger.Debug().Str("asset", asset.Name).Int64("bytes", written).Int64("resumed_at", offset).
		Msg("Firmware downloaded")

	return path, d.finish(part, path, asset)
}

func (*Downloader) finish(part, path string, asset models.Asset) error {
	if asset.Size > 0 {
		st, err := os.Stat(part)
		if err != nil {
			return fmt.Errorf("stat partial file: %w", err)
		}

		if st.Size() != asset.Size {
			_ = os.Remove(part)

			return fmt.Errorf("%w: %s has %d bytes, want %d", ErrSizeMismatch, asset.Name, st.Size(), asset.Size)
		}
	}

	if asset.Digest != "" {
		if err := hashutil.VerifyFile(part, asset.Digest); err != nil {
			_ = os.Remove(part)

			return fmt.Errorf("verify %s: %w", asset.Name, err)
		}
	}

	if err := os.Rename(part, path); err != nil {
		return fmt.Errorf("finalize download: %w", err)
	}

	return nil
}

func copyWithProgress(
	ctx context.Context, dst io.Writer, src io.Reader, offset, total int64, progress func(Progress),
) (int64, error) {
	buf := make([]byte, copyBufferSize)

	var written int64

	report := func() {
		if progress != nil {
			progress(Progress{Downloaded: offset + written, Total: total})
		}
	}

	report()

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}

			written += int64(n)
			report()
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}

		if readErr != nil {
			return written, readErr
		}
	}
}
