// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fetch retrieves single files from local paths or remote locations using
// Hashicorp's go-getter URL syntax. See https://github.com/hashicorp/go-getter.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
)

// ErrGetFile is returned when a file cannot be retrieved.
var ErrGetFile = errors.New("failed to get file")

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host and path
	tempDirPattern        = "mapply-getter-*"
)

// IsRemote reports whether src must be downloaded rather than read from the local
// filesystem.
func IsRemote(src string) bool {
	if src == "" {
		return false
	}

	wd, err := os.Getwd()
	if err != nil {
		return false
	}

	req := &getter.Request{
		Src: src,
		Pwd: wd,
	}

	ok, err := getter.Detect(req, &getter.FileGetter{})

	return !ok || err != nil
}

// Get returns the content of the file at src, which is either a local path or a
// go-getter URL. Remote files are downloaded to a temporary directory that is removed
// before Get returns.
func Get(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrGetFile)
	}

	tmpDir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, errors.Join(ErrGetFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     src,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string

	// go-getter fetches directories, so a remote file URL is split into its directory
	// and file name. https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrGetFile, err)
		}

		var dirURL string

		dirURL, fileName = splitFileNameFromGetterURL(src)
		if dirURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetFile, src)
		}

		req.Src = dirURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(src)
		fileName = filepath.Base(src)
	}

	ctxlog.Debug(ctx, "fetching file", "src", req.Src, "file", fileName)

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetFile, err)
	}

	b, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrGetFile, err)
	}

	return b, nil
}

// splitFileNameFromGetterURL splits a go-getter URL whose last subdirectory part is a
// file into the URL of its directory and the file name. A ref query is kept on the
// returned URL. Empty strings are returned when url has no file part.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	if before, after, found := strings.Cut(last, goGetterRefSeparator); found {
		ref = after
		last = before
	}

	if last == "" || filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)

	if dir := filepath.Dir(last); dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	dirURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		dirURL += goGetterRefSeparator + ref
	}

	return dirURL, fileName
}
