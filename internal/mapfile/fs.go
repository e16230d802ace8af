// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package mapfile

import "github.com/spf13/afero"

// FsFactory returns the filesystem that Load and Save operate on.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}
