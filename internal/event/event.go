// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

// Package event carries the notifications the conversion core
// publishes toward its front end. The core only knows the Sink
// capability; it never imports a concrete consumer.
package event

import (
	"time"

	"github.com/ZSC714725/videoconverter/internal/job"
)

// Type classifies events.
type Type string

const (
	TypeJobStateChanged Type = "job_state_changed"
	TypeProgressUpdated Type = "progress_updated"
	TypeLogAppended     Type = "log_appended"
	TypeBatchFinished   Type = "batch_finished"
)

// Event is an immutable value delivered to observers. Per-job events
// are generated and delivered in order; jobs never overlap.
type Event struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	JobID     string    `json:"job_id,omitempty"`
	State     job.State `json:"state,omitempty"`
	// Reason is a human-readable explanation accompanying terminal
	// state changes.
	Reason string `json:"reason,omitempty"`
	// Percent stays in the payload even at zero; consumers must be
	// able to tell 0% from an event that carries no percentage.
	Percent int          `json:"percent"`
	Line    string       `json:"line,omitempty"`
	Summary *job.Summary `json:"summary,omitempty"`
}

// Sink receives published events. Delivery may be asynchronous; the
// publisher never waits on a consumer.
type Sink interface {
	Publish(e Event)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Publish(Event) {}

// StateChanged builds a state-transition event.
func StateChanged(jobID string, state job.State, reason string) Event {
	return Event{Type: TypeJobStateChanged, JobID: jobID, State: state, Reason: reason}
}

// Progress builds a progress event. percent may be
// job.ProgressIndeterminate.
func Progress(jobID string, percent int) Event {
	return Event{Type: TypeProgressUpdated, JobID: jobID, Percent: percent}
}

// Log builds a log-line event.
func Log(jobID, line string) Event {
	return Event{Type: TypeLogAppended, JobID: jobID, Line: line}
}

// BatchFinished builds the end-of-batch summary event.
func BatchFinished(summary job.Summary) Event {
	return Event{Type: TypeBatchFinished, Summary: &summary}
}
