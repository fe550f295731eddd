// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/synrewrite/pkg/logging"
)

// DefaultPath returns ~/.synrewrite/synrewrite.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".synrewrite", "synrewrite.yaml"), nil
}

// Load reads the config at path, creating it with defaults on first run.
//
// # Description
//
// Keys missing from the file keep their DefaultConfig values, so old
// config files keep working when settings are added. Paths are expanded
// and the result is validated.
//
// # Inputs
//
//   - path: Config file. Empty selects DefaultPath.
//
// # Outputs
//
//   - *SynrewriteConfig: The loaded configuration.
//   - bool: True if the file was created by this call.
//   - error: Read, parse or validation failures.
func Load(path string) (*SynrewriteConfig, bool, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, false, err
		}
		path = p
	}
	path = logging.ExpandPath(path)

	created := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, false, err
		}
		created = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, created, fmt.Errorf("failed to read the config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, created, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	cfg.ExpandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, created, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, created, nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	defaultCfg := DefaultConfig()
	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
