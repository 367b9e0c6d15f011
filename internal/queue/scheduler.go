// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

// Package queue runs conversion batches. Jobs execute strictly in
// submission order, one engine subprocess alive at a time; batch
// encoding already saturates CPU and IO, so parallel jobs would not
// shorten wall-clock time.
package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/ZSC714725/videoconverter/internal/conflict"
	"github.com/ZSC714725/videoconverter/internal/engine"
	"github.com/ZSC714725/videoconverter/internal/engine/probe"
	"github.com/ZSC714725/videoconverter/internal/event"
	"github.com/ZSC714725/videoconverter/internal/job"
	"github.com/ZSC714725/videoconverter/internal/logger"
	"github.com/ZSC714725/videoconverter/internal/process"
)

var (
	// ErrBatchActive is returned when a batch is submitted while one
	// is still draining.
	ErrBatchActive = errors.New("a batch is already running")
)

// Engines selects the adapter for a job. Implemented by
// engine.Registry; the scheduler never depends on a specific tool.
type Engines interface {
	Get(e job.Engine) (engine.Adapter, error)
	Select(e job.Engine) (engine.Adapter, string, error)
}

// Batch is one submission: an ordered list of input files converted
// under a single profile and conflict policy.
type Batch struct {
	Inputs    []string    `json:"inputs"`
	OutputDir string      `json:"output_dir"`
	Profile   job.Profile `json:"profile"`
	Policy    job.Policy  `json:"policy"`
}

// Config for the scheduler.
type Config struct {
	Registry Engines
	// FFprobe is the binary used for duration pre-probes.
	FFprobe string
	Sink    event.Sink
	Logger  logger.Logger
	// MaxLogLines caps each job's retained log.
	MaxLogLines int
	// GraceTimeout bounds termination during cancellation.
	GraceTimeout time.Duration
	// MaxJobDuration, when non-zero, cancels any single job running
	// longer than this, exactly like a user-issued cancellation.
	MaxJobDuration time.Duration
}

// Scheduler owns the job queue and the single conversion worker. All
// execution happens on the worker goroutine; Submit and the cancel
// requests never block on a running conversion.
type Scheduler struct {
	registry       Engines
	ffprobe        string
	sink           event.Sink
	logger         logger.Logger
	maxLogLines    int
	graceTimeout   time.Duration
	maxJobDuration time.Duration

	mu          sync.Mutex
	jobs        map[string]*job.Job
	order       []string
	active      bool
	cancelAll   bool
	currentID   string
	currentProc process.Process

	// test seams, defaulting to the real implementations
	newProcess    func(process.Config) (process.Process, error)
	probeDuration func(ctx context.Context, bin, path string) (float64, error)
}

// New creates an idle scheduler.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		registry:       cfg.Registry,
		ffprobe:        cfg.FFprobe,
		sink:           cfg.Sink,
		logger:         cfg.Logger,
		maxLogLines:    cfg.MaxLogLines,
		graceTimeout:   cfg.GraceTimeout,
		maxJobDuration: cfg.MaxJobDuration,
		jobs:           make(map[string]*job.Job),
		newProcess:     process.New,
		probeDuration:  probe.Duration,
	}
	if s.sink == nil {
		s.sink = event.NopSink{}
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	if s.ffprobe == "" {
		s.ffprobe = "ffprobe"
	}
	if s.maxLogLines <= 0 {
		s.maxLogLines = 200
	}
	return s
}

// Submit validates a batch, enqueues its jobs and starts draining them
// on the worker goroutine. The caller is never blocked waiting on
// conversion. Returns the IDs of the enqueued jobs in run order.
func (s *Scheduler) Submit(batch Batch) ([]string, error) {
	if err := s.preflight(batch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil, ErrBatchActive
	}

	jobs := make([]*job.Job, 0, len(batch.Inputs))
	ids := make([]string, 0, len(batch.Inputs))
	for _, input := range batch.Inputs {
		j := job.New(shortuuid.New(), input, batch.Profile, s.maxLogLines)
		s.jobs[j.ID] = j
		s.order = append(s.order, j.ID)
		jobs = append(jobs, j)
		ids = append(ids, j.ID)
	}

	s.active = true
	s.cancelAll = false
	s.mu.Unlock()

	go s.drain(jobs, batch)
	return ids, nil
}

// preflight rejects batches that could never run: empty input list,
// bad profile or policy, unwritable output directory.
func (s *Scheduler) preflight(batch Batch) error {
	if len(batch.Inputs) == 0 {
		return job.ErrEmptyBatch
	}
	if !batch.Profile.Format.Valid() {
		return fmt.Errorf("%w: format %q", job.ErrInvalidProfile, batch.Profile.Format)
	}
	if _, err := s.registry.Get(batch.Profile.Engine); err != nil {
		return err
	}
	if !batch.Policy.Valid() {
		return fmt.Errorf("%w: %q", job.ErrInvalidPolicy, batch.Policy)
	}
	if batch.Profile.Format == job.FormatCustom {
		if _, err := engine.SplitCustomArgs(batch.Profile.CustomArgs); err != nil {
			return err
		}
	}

	fi, err := os.Stat(batch.OutputDir)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", job.ErrOutputNotWritable, batch.OutputDir)
	}
	probeFile := filepath.Join(batch.OutputDir, ".write_probe_"+shortuuid.New())
	f, err := os.Create(probeFile)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", job.ErrOutputNotWritable, batch.OutputDir, err)
	}
	f.Close()
	os.Remove(probeFile)
	return nil
}

// RequestCancelCurrent terminates the currently running job, if any.
// The batch continues with the next pending job. Idempotent.
func (s *Scheduler) RequestCancelCurrent() {
	s.mu.Lock()
	proc := s.currentProc
	s.mu.Unlock()

	if proc != nil {
		proc.Stop(false)
	}
}

// RequestCancelAll terminates the running job and stops draining the
// queue; remaining pending jobs stay pending. Idempotent.
func (s *Scheduler) RequestCancelAll() {
	s.mu.Lock()
	s.cancelAll = true
	proc := s.currentProc
	s.mu.Unlock()

	if proc != nil {
		proc.Stop(false)
	}
}

// Busy reports whether a batch is draining.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Jobs returns snapshots of every known job in submission order.
func (s *Scheduler) Jobs() []job.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]job.View, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id].Snapshot())
	}
	return out
}

// Job returns one job snapshot by ID.
func (s *Scheduler) Job(id string) (job.View, bool) {
	s.mu.Lock()
	j, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return job.View{}, false
	}
	return j.Snapshot(), true
}

// JobLog returns a job's retained log lines.
func (s *Scheduler) JobLog(id string) ([]job.Line, bool) {
	s.mu.Lock()
	j, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return j.Log(), true
}

// CurrentStatus returns the running engine process status, if any.
func (s *Scheduler) CurrentStatus() (string, process.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProc == nil {
		return "", process.Status{}, false
	}
	return s.currentID, s.currentProc.Status(), true
}

// drain is the worker loop: runs each job to a terminal state, then
// publishes the batch summary. Per-job errors never abort the loop;
// only a whole-batch cancellation does.
func (s *Scheduler) drain(jobs []*job.Job, batch Batch) {
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()

		var summary job.Summary
		for _, j := range jobs {
			summary.Add(j.State())
		}
		s.logger.Info("batch done: %d completed, %d failed, %d cancelled, %d pending",
			summary.Completed, summary.Failed, summary.Cancelled, summary.Pending)
		s.sink.Publish(event.BatchFinished(summary))
	}()

	for _, j := range jobs {
		s.mu.Lock()
		stop := s.cancelAll
		s.mu.Unlock()
		if stop {
			// Remaining jobs stay pending; they are not auto-resumed.
			break
		}

		s.runJob(j, batch)
	}
}

// transition applies a state change and publishes it. Invalid
// transitions are a programming error and only logged.
func (s *Scheduler) transition(j *job.Job, to job.State, reason string) {
	if err := j.SetState(to); err != nil {
		s.logger.Error("%v", err)
		return
	}
	s.sink.Publish(event.StateChanged(j.ID, to, reason))
}

// fail marks a job failed with a reason, containing the error to this
// job only.
func (s *Scheduler) fail(j *job.Job, reason string) {
	j.SetError(reason)
	s.logger.Error("job %s failed: %s", j.ID, reason)
	s.transition(j, job.StateFailed, reason)
}

// runJob drives one job from pending to a terminal state.
func (s *Scheduler) runJob(j *job.Job, batch Batch) {
	// Input must be readable before anything is spawned.
	if fi, err := os.Stat(j.InputPath); err != nil || fi.IsDir() {
		s.fail(j, fmt.Sprintf("preflight: input not readable: %s", j.InputPath))
		return
	}

	adapter, binary, err := s.registry.Select(j.Profile.Engine)
	if err != nil {
		// A missing engine fails this job only; the batch moves on.
		s.fail(j, err.Error())
		return
	}

	desired := filepath.Join(batch.OutputDir, adapter.OutputFileName(j.InputPath, j.Profile))
	finalPath, action, err := conflict.Resolve(desired, batch.Policy)
	if err != nil {
		s.fail(j, err.Error())
		return
	}
	j.SetOutputPath(finalPath)

	if action == conflict.ActionSkip {
		note := fmt.Sprintf("skipped: %s already exists", filepath.Base(finalPath))
		j.SetNote(note)
		s.logger.Info("job %s %s", j.ID, note)
		s.transition(j, job.StateCompleted, note)
		return
	}

	args, err := adapter.BuildCommand(j.InputPath, finalPath, j.Profile, batch.Policy)
	if err != nil {
		s.fail(j, fmt.Sprintf("preflight: %v", err))
		return
	}

	s.transition(j, job.StateRunning, "")

	// Learn the total duration once so time-based status lines can be
	// normalized. Failure here degrades progress to indeterminate,
	// it never fails the job.
	var totalSeconds float64
	if adapter.NeedsDuration() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		totalSeconds, err = s.probeDuration(ctx, s.ffprobe, j.InputPath)
		cancel()
		if err != nil {
			s.logger.Debug("duration probe for %s: %v", j.InputPath, err)
			j.AppendLog(fmt.Sprintf("duration unknown, progress indeterminate: %v", err))
		}
	}
	parser := adapter.NewProgressParser(totalSeconds)

	// Whether the output predated this job decides if cancellation may
	// delete it afterwards.
	_, statErr := os.Stat(finalPath)
	outputPredates := statErr == nil

	onLine := func(line string) {
		j.AppendLog(line)
		s.sink.Publish(event.Log(j.ID, line))
		if pct, ok := parser.Feed(line); ok {
			applied := j.SetProgress(pct)
			s.sink.Publish(event.Progress(j.ID, applied))
		}
	}

	proc, err := s.newProcess(process.Config{
		Binary:       binary,
		Args:         args,
		GraceTimeout: s.graceTimeout,
		MaxDuration:  s.maxJobDuration,
		OnLine:       onLine,
		Logger:       s.logger,
	})
	if err != nil {
		s.fail(j, fmt.Sprintf("preflight: %v", err))
		return
	}

	cmdline := binary + " " + strings.Join(args, " ")
	j.AppendLog("$ " + cmdline)
	s.sink.Publish(event.Log(j.ID, "$ "+cmdline))
	s.logger.Info("job %s: %s", j.ID, cmdline)

	s.mu.Lock()
	s.currentID = j.ID
	s.currentProc = proc
	cancelled := s.cancelAll
	s.mu.Unlock()

	if cancelled {
		s.clearCurrent()
		s.transition(j, job.StateCancelled, "cancelled before start")
		return
	}

	if err := proc.Start(); err != nil {
		s.clearCurrent()
		if proc.Stopped() {
			s.transition(j, job.StateCancelled, "cancelled before start")
			return
		}
		s.fail(j, fmt.Sprintf("%v: %v", job.ErrSubprocess, err))
		return
	}

	waitErr := proc.Wait()
	stopped := proc.Stopped()
	s.clearCurrent()

	if stopped {
		s.cleanupPartial(j, finalPath, outputPredates)
		s.transition(j, job.StateCancelled, "cancelled")
		return
	}

	if waitErr != nil {
		tail := strings.Join(j.LogTail(5), "\n")
		s.fail(j, fmt.Sprintf("%v: %v\n%s", job.ErrSubprocess, waitErr, tail))
		return
	}

	// Exit code 0 still requires a non-empty output file; some engines
	// fail silently.
	fi, err := os.Stat(finalPath)
	if err != nil {
		s.fail(j, fmt.Sprintf("%v: engine exited 0 but produced no output file", job.ErrSubprocess))
		return
	}
	if fi.Size() == 0 {
		s.fail(j, fmt.Sprintf("%v: output file is empty", job.ErrSubprocess))
		return
	}

	j.SetProgress(100)
	s.sink.Publish(event.Progress(j.ID, 100))
	s.logger.Info("job %s completed: %s (%d bytes)", j.ID, finalPath, fi.Size())
	s.transition(j, job.StateCompleted, "")
}

func (s *Scheduler) clearCurrent() {
	s.mu.Lock()
	s.currentID = ""
	s.currentProc = nil
	s.mu.Unlock()
}

// cleanupPartial removes a cancelled job's half-written output. Files
// that existed before the job started are left alone.
func (s *Scheduler) cleanupPartial(j *job.Job, path string, predates bool) {
	if predates {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("job %s: removing partial output %s: %v", j.ID, path, err)
		return
	}
	s.logger.Debug("job %s: removed partial output %s", j.ID, path)
}
