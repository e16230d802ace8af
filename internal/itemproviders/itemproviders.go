// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package itemproviders lists the values used to build a mapfile column.
package itemproviders

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// FsFactory is a function that returns an afero filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// ErrNoMatches is returned when no pattern matched any file.
var ErrNoMatches = errors.New("no files matched")

// IncludeHidden is a type that indicates whether to include hidden files.
type IncludeHidden bool

var (
	// HiddenInclude includes files whose name starts with a dot.
	HiddenInclude = IncludeHidden(true)
	// HiddenExclude skips files whose name starts with a dot.
	HiddenExclude = IncludeHidden(false)
)

// Provider returns a list of items relative to a working directory.
type Provider func(ctx context.Context, workingDirectory string) ([]string, error)

// ListFiles returns a provider listing the regular files matching any of the glob
// patterns. Relative patterns are matched against the working directory and returned
// relative to it. Results are sorted and unique.
func ListFiles(includeHidden IncludeHidden, patterns ...string) Provider {
	return func(ctx context.Context, workingDirectory string) ([]string, error) {
		fs := FsFactory()

		var files []string

		for _, pattern := range patterns {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			searchPattern := pattern
			if !filepath.IsAbs(pattern) {
				searchPattern = filepath.Join(workingDirectory, pattern)
			}

			matches, err := afero.Glob(fs, searchPattern)
			if err != nil {
				return nil, fmt.Errorf("failed to list files with pattern %s: %w", pattern, err)
			}

			for _, m := range matches {
				if !bool(includeHidden) && strings.HasPrefix(filepath.Base(m), ".") {
					continue
				}

				fi, err := fs.Stat(m)
				if err != nil || fi.IsDir() {
					continue
				}

				if !filepath.IsAbs(pattern) {
					if m, err = filepath.Rel(workingDirectory, m); err != nil {
						return nil, fmt.Errorf("failed to get relative path for %s: %w", m, err)
					}
				}

				files = append(files, m)
			}
		}

		if len(files) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatches, strings.Join(patterns, ", "))
		}

		slices.Sort(files)

		return slices.Compact(files), nil
	}
}
