// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package job

import (
	"container/ring"
	"fmt"
	"sync"
	"time"
)

// State of a job. Transitions move forward only, except that any
// non-terminal state can move to StateCancelled.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) String() string { return string(s) }

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ProgressIndeterminate is reported while the total media duration is
// unknown and no percentage line has been matched yet.
const ProgressIndeterminate = -1

// Line is a timestamped log line
type Line struct {
	Timestamp time.Time `json:"timestamp"`
	Data      string    `json:"data"`
}

// Job is one input-file-to-output-file conversion request and its run
// state. Mutable fields are only written by the worker executing the
// job; everyone else reads snapshots.
type Job struct {
	ID        string
	InputPath string
	// OutputPath is finalized by the conflict resolver before the job
	// leaves StatePending and never mutated afterwards.
	OutputPath string
	Profile    Profile

	mu          sync.Mutex
	state       State
	progress    int
	log         *ring.Ring
	logLines    int
	errorDetail string
	note        string
}

// New creates a pending job. logLines caps the retained log; older
// lines are dropped past the cap.
func New(id, inputPath string, profile Profile, logLines int) *Job {
	if logLines <= 0 {
		logLines = 100
	}
	return &Job{
		ID:        id,
		InputPath: inputPath,
		Profile:   profile,
		state:     StatePending,
		log:       ring.New(logLines),
		logLines:  logLines,
	}
}

// State returns the current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// SetState validates and applies a transition. Entering StateRunning
// resets progress to zero.
func (j *Job) SetState(to State) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	ok := false
	switch j.state {
	case StatePending:
		// StateCompleted directly from pending is the skip-policy path;
		// StateFailed covers preflight and engine-availability errors
		// raised before any subprocess runs.
		ok = to == StateRunning || to == StateCompleted || to == StateFailed || to == StateCancelled
	case StateRunning:
		ok = to == StateCompleted || to == StateFailed || to == StateCancelled
	}
	if !ok {
		return fmt.Errorf("job %s: can't change from %s to %s", j.ID, j.state, to)
	}

	j.state = to
	if to == StateRunning {
		j.progress = 0
	}
	return nil
}

// Progress returns the last applied percentage, or
// ProgressIndeterminate.
func (j *Job) Progress() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// SetProgress applies a parsed percentage and returns the value that
// actually took effect. Values regressing below the current one are
// clamped; the indeterminate sentinel never overwrites a real value.
func (j *Job) SetProgress(percent int) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	if percent == ProgressIndeterminate {
		if j.progress <= 0 {
			j.progress = ProgressIndeterminate
		}
		return j.progress
	}
	if percent > 100 {
		percent = 100
	}
	if percent < j.progress && j.progress != ProgressIndeterminate {
		return j.progress
	}
	j.progress = percent
	return j.progress
}

// AppendLog records one raw subprocess output line.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.log.Value = Line{Timestamp: time.Now(), Data: line}
	j.log = j.log.Next()
}

// Log returns the retained log lines, oldest first.
func (j *Job) Log() []Line {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []Line
	j.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(Line))
		}
	})
	return out
}

// LogTail returns up to n of the most recent log lines as strings.
func (j *Job) LogTail(n int) []string {
	lines := j.Log()
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Data)
	}
	return out
}

// SetError records the failure reason. Only meaningful for StateFailed.
func (j *Job) SetError(detail string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errorDetail = detail
}

// SetNote records a human-readable annotation, e.g. why a job was
// skipped.
func (j *Job) SetNote(note string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.note = note
}

// SetOutputPath fixes the resolved output path. Must happen before the
// job leaves StatePending.
func (j *Job) SetOutputPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputPath = path
}

// View is an immutable snapshot of a job for observers.
type View struct {
	ID          string  `json:"id"`
	InputPath   string  `json:"input_path"`
	OutputPath  string  `json:"output_path,omitempty"`
	Profile     Profile `json:"profile"`
	State       State   `json:"state"`
	Progress    int     `json:"progress"`
	ErrorDetail string  `json:"error_detail,omitempty"`
	Note        string  `json:"note,omitempty"`
}

// Snapshot returns a point-in-time copy of the job.
func (j *Job) Snapshot() View {
	j.mu.Lock()
	defer j.mu.Unlock()
	return View{
		ID:          j.ID,
		InputPath:   j.InputPath,
		OutputPath:  j.OutputPath,
		Profile:     j.Profile,
		State:       j.state,
		Progress:    j.progress,
		ErrorDetail: j.errorDetail,
		Note:        j.note,
	}
}

// Summary aggregates terminal states across a batch.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Pending   int `json:"pending"`
}

// Add counts one job's terminal (or leftover pending) state.
func (s *Summary) Add(state State) {
	s.Total++
	switch state {
	case StateCompleted:
		s.Completed++
	case StateFailed:
		s.Failed++
	case StateCancelled:
		s.Cancelled++
	case StatePending:
		s.Pending++
	}
}
