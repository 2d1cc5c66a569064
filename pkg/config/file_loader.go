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

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileConfigLoader loads configuration from a local JSON or TOML file,
// chosen by extension. An empty path leaves dst untouched so that defaults apply.
type FileConfigLoader struct{}

// Load implements ConfigLoader by reading and unmarshaling a config file.
func (*FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if data, err = tomlToJSON(data); err != nil {
			return fmt.Errorf("failed to parse TOML from '%s': %w", path, err)
		}
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return nil
}

// tomlToJSON re-encodes a TOML document as JSON so that both formats share
// the json struct tags and custom decoders of the config models.
func tomlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any

	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return json.Marshal(doc)
}

// KVConfigLoader loads configuration from a KV store under config/<file name>.
type KVConfigLoader struct {
	store KVGetter
}

// NewKVConfigLoader creates a new KVConfigLoader with the given KV store.
func NewKVConfigLoader(store KVGetter) *KVConfigLoader {
	return &KVConfigLoader{store: store}
}

// KVKey returns the key a config file path is stored under.
func KVKey(filePath string) string {
	name := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	if name == "." || name == "/" {
		name = "wledradar.json"
	}

	return "config." + strings.TrimSuffix(strings.TrimSuffix(name, ".json"), ".toml")
}

// Load implements ConfigLoader by fetching and unmarshaling data from the KV store.
func (k *KVConfigLoader) Load(ctx context.Context, filePath string, dst interface{}) error {
	key := KVKey(filePath)

	data, found, err := k.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get key '%s' from KV store: %w", key, err)
	}

	if !found {
		return fmt.Errorf("%w: '%s'", ErrKVKeyNotFound, key)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal JSON from key '%s': %w", key, err)
	}

	return nil
}
