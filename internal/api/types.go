// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package api

import (
	"github.com/ZSC714725/videoconverter/internal/job"
)

// BatchRequest submits one conversion batch.
type BatchRequest struct {
	Inputs     []string   `json:"inputs" binding:"required"`
	OutputDir  string     `json:"output_dir" binding:"required"`
	Engine     job.Engine `json:"engine"`
	Format     job.Format `json:"format" binding:"required"`
	CustomArgs string     `json:"custom_args"`
	Policy     job.Policy `json:"policy"`
}

// BatchResponse returns the enqueued job IDs in run order.
type BatchResponse struct {
	JobIDs []string `json:"job_ids"`
}

// ScanRequest asks for candidate input files in a directory.
type ScanRequest struct {
	Directory string `json:"directory" binding:"required"`
}

// ScanFile is one discovered input candidate.
type ScanFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// ScanResponse lists discovered files.
type ScanResponse struct {
	Files []ScanFile `json:"files"`
}

// StatusResponse reports the running engine process, if any.
type StatusResponse struct {
	Busy        bool    `json:"busy"`
	JobID       string  `json:"job_id,omitempty"`
	State       string  `json:"state,omitempty"`
	CPU         float64 `json:"cpu_usage,omitempty"`
	MemoryBytes uint64  `json:"memory_bytes,omitempty"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
