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
// Package hashutil verifies published checksums of downloaded files.
package hashutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrUnsupportedDigest is a digest whose algorithm or encoding cannot be read.
	ErrUnsupportedDigest = errors.New("unsupported digest")
	// ErrDigestMismatch is a file whose content does not hash to the published digest.
	ErrDigestMismatch = errors.New("digest mismatch")
)

const sha256Prefix = "sha256:"

// ParseSHA256 decodes a published SHA-256 digest. The value may carry an
// "sha256:" algorithm prefix and be hex or base64 encoded.
func ParseSHA256(digest string) ([]byte, error) {
	clean := strings.TrimSpace(digest)

	if i := strings.IndexByte(clean, ':'); i >= 0 {
		if !strings.EqualFold(clean[:i+1], sha256Prefix) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedDigest, clean[:i])
		}

		clean = clean[i+1:]
	}

	if decoded, err := hex.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
		return decoded, nil
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if decoded, err := enc.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
			return decoded, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDigest, digest)
}

// FileSHA256 hashes the file at path.
func FileSHA256(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	return h.Sum(nil), nil
}

// VerifyFile checks the file at path against a published SHA-256 digest.
func VerifyFile(path, digest string) error {
	want, err := ParseSHA256(digest)
	if err != nil {
		return err
	}

	got, err := FileSHA256(path)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(want, got) != 1 {
		return fmt.Errorf("%w: %s has sha256 %s", ErrDigestMismatch, path, hex.EncodeToString(got))
	}

	return nil
}
