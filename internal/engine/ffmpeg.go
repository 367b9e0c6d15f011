// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package engine

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ZSC714725/videoconverter/internal/job"
	"github.com/ZSC714725/videoconverter/internal/progress"
)

// FFmpeg is the primary engine. Progress is derived from time= markers
// on stderr against the pre-probed input duration.
type FFmpeg struct {
	binary  string
	threads int
}

// NewFFmpeg creates the FFmpeg adapter. threads <= 0 leaves thread
// selection to the encoder.
func NewFFmpeg(binary string, threads int) *FFmpeg {
	return &FFmpeg{binary: binary, threads: threads}
}

func (f *FFmpeg) Name() job.Engine { return job.EngineFFmpeg }

func (f *FFmpeg) Resolve() (string, error) { return lookPath(f.binary) }

func (f *FFmpeg) NeedsDuration() bool { return true }

func (f *FFmpeg) NewProgressParser(totalSeconds float64) progress.Parser {
	return progress.NewTimeBased(totalSeconds)
}

// formatExt maps format presets to output containers.
func (f *FFmpeg) formatExt(format job.Format) string {
	switch format {
	case job.FormatIntermediate:
		return ".mov"
	case job.FormatMJPEG:
		return ".avi"
	case job.FormatH264, job.FormatH265:
		return ".mp4"
	}
	return ".mp4"
}

func (f *FFmpeg) OutputFileName(inputPath string, profile job.Profile) string {
	return stripExt(filepath.Base(inputPath)) + f.formatExt(profile.Format)
}

func (f *FFmpeg) BuildCommand(inputPath, outputPath string, profile job.Profile, policy job.Policy) ([]string, error) {
	args := []string{"-hide_banner"}

	// Second line of defense next to the conflict resolver: overwrite
	// only when the policy says so.
	if policy == job.PolicyOverwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	args = append(args, "-i", inputPath)

	switch profile.Format {
	case job.FormatIntermediate:
		args = append(args, "-c:v", "prores_ks", "-profile:v", "3", "-c:a", "pcm_s16le")
	case job.FormatH264:
		args = append(args, "-c:v", "libx264", "-profile:v", "baseline", "-preset", "medium", "-crf", "23", "-c:a", "aac", "-b:a", "192k")
	case job.FormatH265:
		args = append(args, "-c:v", "libx265", "-preset", "medium", "-crf", "28", "-c:a", "aac", "-b:a", "192k")
	case job.FormatMJPEG:
		args = append(args, "-c:v", "mjpeg", "-q:v", "3", "-c:a", "pcm_s16le")
	case job.FormatCustom:
		custom, err := SplitCustomArgs(profile.CustomArgs)
		if err != nil {
			return nil, err
		}
		args = append(args, custom...)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", job.ErrInvalidProfile, profile.Format)
	}

	if f.threads > 0 && profile.Format != job.FormatCustom {
		args = append(args, "-threads", strconv.Itoa(f.threads))
	}

	args = append(args, outputPath)
	return args, nil
}
