// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package job

// Engine selects which external transcoding tool runs a job.
type Engine string

const (
	EngineFFmpeg    Engine = "ffmpeg"
	EngineHandBrake Engine = "handbrake"
	EngineAvidemux  Engine = "avidemux"
)

// Format is a target format preset.
type Format string

const (
	// FormatIntermediate is a professional intermediate codec in MOV,
	// suitable for editing workflows.
	FormatIntermediate Format = "intermediate"
	FormatH264         Format = "h264"
	FormatH265         Format = "h265"
	// FormatMJPEG is the legacy motion-JPEG AVI preset.
	FormatMJPEG Format = "mjpeg"
	// FormatCustom passes CustomArgs through to the engine verbatim.
	FormatCustom Format = "custom"
)

// Valid reports whether f is a known format key.
func (f Format) Valid() bool {
	switch f {
	case FormatIntermediate, FormatH264, FormatH265, FormatMJPEG, FormatCustom:
		return true
	}
	return false
}

// Profile is the chosen engine plus target format parameters for a job.
type Profile struct {
	Engine Engine `json:"engine"`
	Format Format `json:"format"`
	// CustomArgs is a free-form parameter string, only consulted when
	// Format == FormatCustom. It is split on whitespace and injected
	// into the argument vector, never a shell.
	CustomArgs string `json:"custom_args,omitempty"`
}

// Policy decides the final output path when a file already exists at
// the desired location. Selected once per batch, applied per job.
type Policy string

const (
	PolicyOverwrite Policy = "overwrite"
	PolicySkip      Policy = "skip"
	PolicySuffix    Policy = "suffix"
	PolicyTimestamp Policy = "timestamp"
)

// Valid reports whether p is a known conflict policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyOverwrite, PolicySkip, PolicySuffix, PolicyTimestamp:
		return true
	}
	return false
}
