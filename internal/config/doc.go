// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads run settings from a YAML or HCL file.
//
// A YAML file:
//
//	max_cpus: 32
//	cpu_arg: --threads
//	success_exit_codes: [0, 3]
//	env:
//	  TMPDIR: /scratch
//
// The same settings in HCL, where num_cpus is the number of logical CPUs and env()
// reads an environment variable:
//
//	max_cpus           = num_cpus - 2
//	cpu_arg            = "--threads"
//	success_exit_codes = [0, 3]
//	env = {
//	  TMPDIR = env("SCRATCH")
//	}
package config
