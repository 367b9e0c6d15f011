// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具
//
// Package process wraps exec.Cmd for controlling one engine process.

package process

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
	"unicode/utf8"
)

// Process represents a single engine subprocess. It is one-shot:
// Start once, then Wait; Stop may interrupt at any point. Spawn always
// pairs with a guaranteed Wait so no handle outlives the run.
type Process interface {
	Start() error
	// Wait blocks until the output streams close and the process
	// exits, returning the exit error (nil on exit code 0).
	Wait() error
	// Stop requests graceful termination, escalating to a kill after
	// the configured grace timeout. Idempotent.
	Stop(wait bool) error
	// Stopped reports whether termination was requested, by a caller
	// or by the max-duration watchdog.
	Stopped() bool
	Status() Status
	IsRunning() bool
}

// Config for a process
type Config struct {
	Binary string
	Args   []string
	// GraceTimeout bounds how long a terminated process may linger
	// before the kill escalates.
	GraceTimeout time.Duration
	// MaxDuration, when non-zero, terminates the process after the
	// given wall-clock time, exactly as a user-issued stop would.
	MaxDuration time.Duration
	// OnLine receives every output line from stdout and stderr.
	OnLine func(line string)
	Logger Logger
}

// Status of a process
type Status struct {
	State    string
	Duration time.Duration
	Time     time.Time
	CPU      float64
	Memory   uint64
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type stateType string

const (
	stateIdle      stateType = "idle"
	stateStarting  stateType = "starting"
	stateRunning   stateType = "running"
	stateFinishing stateType = "finishing"
	stateFinished  stateType = "finished"
	stateFailed    stateType = "failed"
	stateKilled    stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning || s == stateFinishing
}

type process struct {
	binary string
	args   []string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	state struct {
		state stateType
		time  time.Time
		lock  sync.Mutex
	}

	onLine       func(line string)
	graceTimeout time.Duration
	maxDuration  time.Duration

	killTimer     *time.Timer
	killTimerLock sync.Mutex
	watchTimer    *time.Timer
	watchLock     sync.Mutex

	readers sync.WaitGroup

	// order serializes Start against Stop; the stored order decides
	// which of the two wins a race.
	order struct {
		order string
		lock  sync.Mutex
	}

	logger Logger
	limits Limiter
}

// New creates a new process
func New(config Config) (Process, error) {
	p := &process{
		binary:       config.Binary,
		args:         config.Args,
		onLine:       config.OnLine,
		graceTimeout: config.GraceTimeout,
		maxDuration:  config.MaxDuration,
		logger:       config.Logger,
		limits:       NewSysLimiter(),
	}

	if len(p.binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}
	if p.graceTimeout <= 0 {
		p.graceTimeout = 5 * time.Second
	}
	if p.onLine == nil {
		p.onLine = func(string) {}
	}
	if p.logger == nil {
		p.logger = &nopLogger{}
	}

	p.initState(stateIdle)
	return p, nil
}

func (p *process) initState(state stateType) {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	p.state.state = state
	p.state.time = time.Now()
}

func (p *process) setState(state stateType) error {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()

	failed := false
	switch p.state.state {
	case stateIdle:
		failed = state != stateStarting
	case stateStarting:
		failed = state != stateRunning && state != stateFailed
	case stateRunning:
		failed = state != stateFinishing && state != stateFinished && state != stateFailed && state != stateKilled
	case stateFinishing:
		failed = state != stateFinished && state != stateFailed && state != stateKilled
	default:
		// finished, failed, killed are terminal for a one-shot run
		failed = true
	}
	if failed {
		return fmt.Errorf("can't change from %s to %s", p.state.state, state)
	}

	p.state.state = state
	p.state.time = time.Now()
	return nil
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) IsRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Status() Status {
	cpu, memory := p.limits.Current()

	p.state.lock.Lock()
	stateTime := p.state.time
	stateString := p.state.state.String()
	p.state.lock.Unlock()

	return Status{
		State:    stateString,
		Duration: time.Since(stateTime),
		Time:     stateTime,
		CPU:      cpu,
		Memory:   memory,
	}
}

func (p *process) Start() error {
	p.order.lock.Lock()
	defer p.order.lock.Unlock()

	if p.order.order == "stop" {
		return fmt.Errorf("process stopped before start")
	}
	if p.order.order == "start" {
		return fmt.Errorf("process already started")
	}
	p.order.order = "start"
	p.setState(stateStarting)

	var err error
	p.cmd = exec.Command(p.binary, p.args...)
	// Own process group, so termination reaches any helpers the engine
	// forks. An orphan would otherwise hold the output pipes open and
	// block Wait for its whole lifetime.
	setProcessGroup(p.cmd)

	p.stdout, err = p.cmd.StdoutPipe()
	if err != nil {
		p.setState(stateFailed)
		return err
	}
	p.stderr, err = p.cmd.StderrPipe()
	if err != nil {
		p.setState(stateFailed)
		return err
	}

	if err := p.cmd.Start(); err != nil {
		p.setState(stateFailed)
		return err
	}

	p.limits.Start(p.cmd.Process.Pid)
	p.setState(stateRunning)
	p.logger.Debug("spawned %s (pid %d)", p.binary, p.cmd.Process.Pid)

	p.readers.Add(2)
	go p.reader(p.stdout)
	go p.reader(p.stderr)

	if p.maxDuration > 0 {
		p.watchLock.Lock()
		p.watchTimer = time.AfterFunc(p.maxDuration, func() {
			p.logger.Error("process exceeded max duration %s, terminating", p.maxDuration)
			p.Stop(false)
		})
		p.watchLock.Unlock()
	}

	return nil
}

func (p *process) Stop(wait bool) error {
	p.order.lock.Lock()
	if p.order.order == "stop" {
		p.order.lock.Unlock()
		if wait {
			p.readers.Wait()
		}
		return nil
	}
	p.order.order = "stop"

	var err error
	if p.IsRunning() {
		p.setState(stateFinishing)
		err = p.terminate()
	}
	p.order.lock.Unlock()

	if wait {
		p.readers.Wait()
	}
	return err
}

// Stopped reports whether termination was requested.
func (p *process) Stopped() bool {
	p.order.lock.Lock()
	defer p.order.lock.Unlock()
	return p.order.order == "stop"
}

func (p *process) reader(stream io.Reader) {
	defer p.readers.Done()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLine)

	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			p.onLine(line)
		}
	}
}

func (p *process) Wait() error {
	p.readers.Wait()
	err := p.cmd.Wait()

	if err != nil {
		if p.Stopped() {
			p.setState(stateKilled)
		} else {
			p.setState(stateFailed)
		}
	} else {
		p.setState(stateFinished)
	}

	p.limits.Stop()

	p.killTimerLock.Lock()
	if p.killTimer != nil {
		p.killTimer.Stop()
		p.killTimer = nil
	}
	p.killTimerLock.Unlock()

	p.watchLock.Lock()
	if p.watchTimer != nil {
		p.watchTimer.Stop()
		p.watchTimer = nil
	}
	p.watchLock.Unlock()

	return err
}

// scanLine splits on \n and \r so single-line progress updates
// (engines rewrite the line with \r) surface as individual tokens.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nopLogger struct{}

func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
func (l *nopLogger) Debug(format string, args ...interface{}) {}
