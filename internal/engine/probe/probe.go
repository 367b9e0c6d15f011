// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

// Package probe queries media metadata via ffprobe.
package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Duration returns the total duration of the input in seconds, learned
// once per job so time-based progress lines can be turned into
// percentages. An error here is non-fatal for the conversion; progress
// just degrades to indeterminate.
func Duration(ctx context.Context, ffprobeBin, inputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobeBin,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		inputPath,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", inputPath, err)
	}

	s := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %f", d)
	}
	return d, nil
}
