// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

// Package engine maps conversion requests onto concrete subprocess
// invocations for the supported transcoding tools. The scheduler only
// sees the Adapter interface, never a specific tool.
package engine

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/ZSC714725/videoconverter/internal/job"
	"github.com/ZSC714725/videoconverter/internal/progress"
)

// Adapter is the per-tool capability set: build an argument vector,
// name the output file, and parse the tool's progress output. Command
// building is pure; nothing here spawns a process.
type Adapter interface {
	Name() job.Engine
	// Resolve locates the tool binary. It returns
	// job.ErrEngineUnavailable before any subprocess is spawned when
	// the binary is missing.
	Resolve() (string, error)
	// OutputFileName derives the output file name (not path) for an
	// input file under the given profile.
	OutputFileName(inputPath string, profile job.Profile) string
	// BuildCommand returns the argument vector, binary excluded. The
	// policy selects the engine's own overwrite/no-clobber flag where
	// the tool has one.
	BuildCommand(inputPath, outputPath string, profile job.Profile, policy job.Policy) ([]string, error)
	// NewProgressParser returns a fresh parser for one run.
	// totalSeconds is the pre-probed media duration; engines that
	// report their own percentage ignore it.
	NewProgressParser(totalSeconds float64) progress.Parser
	// NeedsDuration reports whether the adapter's progress parsing
	// depends on a duration pre-probe.
	NeedsDuration() bool
}

// shellMeta are characters rejected in custom parameter strings. The
// process is spawned with an argument vector, never a shell, so none
// of these can ever be meaningful. A parameter string carrying them is
// either a mistake or an injection attempt.
const shellMeta = ";&|`$<>(){}\n"

// SplitCustomArgs validates and splits a free-form parameter string
// into argument-vector elements.
func SplitCustomArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty custom parameters", job.ErrInvalidProfile)
	}
	if i := strings.IndexAny(s, shellMeta); i >= 0 {
		return nil, fmt.Errorf("%w: custom parameters contain shell metacharacter %q", job.ErrInvalidProfile, s[i])
	}
	return strings.Fields(s), nil
}

// lookPath resolves a binary and maps a miss to ErrEngineUnavailable.
func lookPath(bin string) (string, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", job.ErrEngineUnavailable, bin, err)
	}
	return path, nil
}

// stripExt drops the extension from a file base name.
func stripExt(base string) string {
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}
