// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package mapfile reads and writes parameter tables.
//
// A mapfile is delimited text. The first line holds the column names and every
// following non-blank line holds one row of values, one field per column:
//
//	input	threads
//	a.txt	4
//	b.txt	8
//
// The delimiter defaults to a tab.
package mapfile
