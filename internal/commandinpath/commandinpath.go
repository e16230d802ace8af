// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package commandinpath finds the executable of a job.
package commandinpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotFound is returned when the executable cannot be found or is not executable.
var ErrNotFound = errors.New("executable not found")

// Resolve returns the absolute path of command.
// A command containing a path separator is taken relative to the current directory,
// anything else is searched for in PATH.
func Resolve(command string) (string, error) {
	if command == "" {
		return "", fmt.Errorf("%w: empty command", ErrNotFound)
	}

	if strings.ContainsRune(command, '/') || strings.ContainsRune(command, filepath.Separator) {
		abs, err := filepath.Abs(command)
		if err != nil {
			return "", errors.Join(ErrNotFound, err)
		}

		if !isExecutable(abs) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, command)
		}

		return abs, nil
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}

		for _, name := range candidates(command) {
			p := filepath.Join(dir, name)
			if isExecutable(p) {
				return filepath.Abs(p)
			}
		}
	}

	return "", fmt.Errorf("%w: %s not in PATH", ErrNotFound, command)
}

func candidates(command string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(command) != "" {
		return []string{command}
	}

	return []string{command, command + ".exe", command + ".cmd", command + ".bat"}
}

func isExecutable(p string) bool {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return false
	}

	if runtime.GOOS == "windows" {
		return true
	}

	return info.Mode()&0o111 != 0
}
