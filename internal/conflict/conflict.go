// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

// Package conflict decides the final output path for a job given an
// existing-file policy. Resolution is deterministic for a fixed
// directory snapshot; it is not re-validated afterwards, so an external
// process creating the same name between resolution and write is an
// accepted race (the engine's own overwrite/no-clobber flag is the
// second line of defense).
package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZSC714725/videoconverter/internal/job"
)

// Action tells the scheduler whether to run the engine at all.
type Action string

const (
	ActionWrite Action = "write"
	ActionSkip  Action = "skip"
)

// Resolve maps a desired output path and policy to the final path and
// the action to take.
func Resolve(desiredPath string, policy job.Policy) (string, Action, error) {
	exists := fileExists(desiredPath)

	switch policy {
	case job.PolicyOverwrite:
		return desiredPath, ActionWrite, nil
	case job.PolicySkip:
		if exists {
			return desiredPath, ActionSkip, nil
		}
		return desiredPath, ActionWrite, nil
	case job.PolicySuffix:
		if !exists {
			return desiredPath, ActionWrite, nil
		}
		return nextSuffixed(desiredPath), ActionWrite, nil
	case job.PolicyTimestamp:
		if !exists {
			return desiredPath, ActionWrite, nil
		}
		stamped := withSuffix(desiredPath, time.Now().Format("20060102_150405"))
		if !fileExists(stamped) {
			return stamped, ActionWrite, nil
		}
		// Same-second collision, fall back to integer suffixes on top
		// of the timestamp.
		return nextSuffixed(stamped), ActionWrite, nil
	}
	return "", "", fmt.Errorf("%w: %q", job.ErrInvalidPolicy, policy)
}

// nextSuffixed appends _1, _2, ... before the extension, scanning
// upward from 1 for the first name not present on disk.
func nextSuffixed(path string) string {
	for n := 1; ; n++ {
		candidate := withSuffix(path, fmt.Sprintf("%d", n))
		if !fileExists(candidate) {
			return candidate
		}
	}
}

func withSuffix(path, suffix string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+"_"+suffix+ext)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
