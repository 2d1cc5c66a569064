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

package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carverauto/wledradar/pkg/models"
)

type fileDocument struct {
	Devices []models.Device `json:"devices"`
}

// NewFileRepository loads the roster from a JSON file, creating it on the
// first write. Every write rewrites the file through a temp file and rename.
func NewFileRepository(path string) (*MemoryRepository, error) {
	var doc fileDocument

	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
		}
	}

	return newMemoryRepository(doc.Devices, func(devices []models.Device) error {
		return saveFile(path, devices)
	}), nil
}

func saveFile(path string, devices []models.Device) error {
	data, err := json.MarshalIndent(fileDocument{Devices: devices}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create roster dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}

	return os.Rename(tmp, path)
}
