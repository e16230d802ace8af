// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"

	"github.com/goccy/go-yaml"
)

// ParseYAML decodes a YAML config. Unknown keys are an error.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, errors.Join(ErrParseConfig, err)
	}

	return cfg, nil
}
