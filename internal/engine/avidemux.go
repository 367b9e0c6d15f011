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

// Avidemux drives the avidemux3_cli tool. Its batch mode prints an
// explicit percentage while saving, parsed directly.
type Avidemux struct {
	binary string
}

// NewAvidemux creates the Avidemux CLI adapter.
func NewAvidemux(binary string) *Avidemux {
	return &Avidemux{binary: binary}
}

func (a *Avidemux) Name() job.Engine { return job.EngineAvidemux }

func (a *Avidemux) Resolve() (string, error) { return lookPath(a.binary) }

func (a *Avidemux) NeedsDuration() bool { return false }

func (a *Avidemux) NewProgressParser(totalSeconds float64) progress.Parser {
	return progress.NewPercentBased()
}

func (a *Avidemux) OutputFileName(inputPath string, profile job.Profile) string {
	stem := stripExt(filepath.Base(inputPath))
	if profile.Format == job.FormatMJPEG {
		return stem + ".avi"
	}
	return stem + ".mov"
}

func (a *Avidemux) BuildCommand(inputPath, outputPath string, profile job.Profile, policy job.Policy) ([]string, error) {
	args := []string{"--nogui", "--load", inputPath}

	switch profile.Format {
	case job.FormatIntermediate:
		args = append(args, "--video-codec", "xvid4", "--audio-codec", "Lame", "--output-format", "MOV")
	case job.FormatH264:
		args = append(args, "--video-codec", "x264", "--audio-codec", "Lame", "--output-format", "MOV")
	case job.FormatH265:
		args = append(args, "--video-codec", "x265", "--audio-codec", "Lame", "--output-format", "MOV")
	case job.FormatMJPEG:
		args = append(args, "--video-codec", "mjpeg", "--audio-codec", "Lame", "--output-format", "AVI")
	case job.FormatCustom:
		custom, err := SplitCustomArgs(profile.CustomArgs)
		if err != nil {
			return nil, err
		}
		args = append(args, custom...)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", job.ErrInvalidProfile, profile.Format)
	}

	args = append(args, "--save", outputPath, "--quit")
	return args, nil
}
