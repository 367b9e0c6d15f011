// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package engine

import (
	"fmt"
	"path/filepath"

	"github.com/ZSC714725/videoconverter/internal/job"
	"github.com/ZSC714725/videoconverter/internal/progress"
)

// HandBrake drives HandBrakeCLI. It reports its own percentage on
// stdout ("Encoding: task 1 of 1, 43.52 %"), so no duration pre-probe
// is needed.
type HandBrake struct {
	binary string
}

// NewHandBrake creates the HandBrakeCLI adapter.
func NewHandBrake(binary string) *HandBrake {
	return &HandBrake{binary: binary}
}

func (h *HandBrake) Name() job.Engine { return job.EngineHandBrake }

func (h *HandBrake) Resolve() (string, error) { return lookPath(h.binary) }

func (h *HandBrake) NeedsDuration() bool { return false }

func (h *HandBrake) NewProgressParser(totalSeconds float64) progress.Parser {
	return progress.NewPercentBased()
}

func (h *HandBrake) OutputFileName(inputPath string, profile job.Profile) string {
	// HandBrake outputs are always MP4 here, marked so they never
	// collide with the source when converting in place.
	return stripExt(filepath.Base(inputPath)) + "_converted.mp4"
}

func (h *HandBrake) BuildCommand(inputPath, outputPath string, profile job.Profile, policy job.Policy) ([]string, error) {
	args := []string{"-i", inputPath, "-o", outputPath}

	switch profile.Format {
	case job.FormatH264:
		args = append(args, "--preset", "Fast 1080p30")
	case job.FormatH265:
		args = append(args, "-e", "x265", "-q", "28", "--aencoder", "av_aac")
	case job.FormatCustom:
		custom, err := SplitCustomArgs(profile.CustomArgs)
		if err != nil {
			return nil, err
		}
		args = append(args, custom...)
	default:
		// HandBrake has no MJPEG or professional intermediate target.
		return nil, fmt.Errorf("%w: handbrake cannot produce format %q", job.ErrInvalidProfile, profile.Format)
	}

	return args, nil
}
