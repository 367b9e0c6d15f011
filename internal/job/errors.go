// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package job

import "errors"

var (
	// ErrEngineUnavailable means the configured tool binary could not
	// be located. Fails the job before any subprocess is spawned.
	ErrEngineUnavailable = errors.New("engine unavailable")
	// ErrPreflight covers invalid profiles, unreadable inputs and
	// unwritable output directories.
	ErrPreflight = errors.New("preflight failed")
	// ErrSubprocess means the engine exited non-zero or produced no
	// usable output file.
	ErrSubprocess = errors.New("subprocess failed")

	ErrEmptyBatch        = errors.New("batch has no jobs")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrInvalidPolicy     = errors.New("invalid conflict policy")
	ErrOutputNotWritable = errors.New("output directory not writable")
)
