// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package itemproviders

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFs(t *testing.T, files ...string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.FromSlash(f), []byte("x"), 0o644))
	}

	require.NoError(t, fs.MkdirAll(filepath.FromSlash("/data/reads/dir.fq"), 0o755))

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	t.Cleanup(stubs.Reset)
}

func TestListFiles(t *testing.T) {
	stubFs(t,
		"/data/reads/b.fq",
		"/data/reads/a.fq",
		"/data/reads/.hidden.fq",
		"/data/reads/notes.txt",
		"/data/other/c.fq",
	)

	wd := filepath.FromSlash("/data")

	tests := []struct {
		name     string
		patterns []string
		hidden   IncludeHidden
		want     []string
	}{
		{
			name:     "relative pattern",
			patterns: []string{"reads/*.fq"},
			hidden:   HiddenExclude,
			want:     []string{filepath.FromSlash("reads/a.fq"), filepath.FromSlash("reads/b.fq")},
		},
		{
			name:     "hidden files included",
			patterns: []string{"reads/*.fq"},
			hidden:   HiddenInclude,
			want: []string{
				filepath.FromSlash("reads/.hidden.fq"),
				filepath.FromSlash("reads/a.fq"),
				filepath.FromSlash("reads/b.fq"),
			},
		},
		{
			name:     "absolute pattern",
			patterns: []string{filepath.FromSlash("/data/other/*.fq")},
			hidden:   HiddenExclude,
			want:     []string{filepath.FromSlash("/data/other/c.fq")},
		},
		{
			name:     "several patterns are merged without duplicates",
			patterns: []string{"*/*.fq", "reads/a.*"},
			hidden:   HiddenExclude,
			want: []string{
				filepath.FromSlash("other/c.fq"),
				filepath.FromSlash("reads/a.fq"),
				filepath.FromSlash("reads/b.fq"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListFiles(tt.hidden, tt.patterns...)(context.Background(), wd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListFiles_Errors(t *testing.T) {
	stubFs(t, "/data/reads/a.fq")

	_, err := ListFiles(HiddenExclude, "*.bam")(context.Background(), filepath.FromSlash("/data"))
	require.ErrorIs(t, err, ErrNoMatches)

	_, err = ListFiles(HiddenExclude, "[")(context.Background(), filepath.FromSlash("/data"))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ListFiles(HiddenExclude, "reads/*")(ctx, filepath.FromSlash("/data"))
	require.ErrorIs(t, err, context.Canceled)
}
