// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package job

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *Job {
	return New("j1", "/in/a.mp4", Profile{Engine: EngineFFmpeg, Format: FormatH264}, 10)
}

func TestStateMachineForward(t *testing.T) {
	j := newTestJob()
	require.Equal(t, StatePending, j.State())

	require.NoError(t, j.SetState(StateRunning))
	require.NoError(t, j.SetState(StateCompleted))

	// Terminal states accept nothing.
	assert.Error(t, j.SetState(StateRunning))
	assert.Error(t, j.SetState(StateCancelled))
}

func TestSkipPathPendingToCompleted(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.SetState(StateCompleted))
}

func TestCancelFromNonTerminal(t *testing.T) {
	for _, from := range []State{StatePending, StateRunning} {
		j := newTestJob()
		if from == StateRunning {
			require.NoError(t, j.SetState(StateRunning))
		}
		require.NoError(t, j.SetState(StateCancelled), "cancel from %s", from)
	}
}

func TestFailFromPending(t *testing.T) {
	// Preflight and engine-availability errors fail a job that never
	// started running.
	j := newTestJob()
	j.SetError("engine unavailable: ffmpeg")
	require.NoError(t, j.SetState(StateFailed))

	assert.Error(t, j.SetState(StateRunning))
	assert.Equal(t, "engine unavailable: ffmpeg", j.Snapshot().ErrorDetail)
}

func TestInvalidTransitions(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.SetState(StateRunning))
	assert.Error(t, j.SetState(StateRunning))

	j = newTestJob()
	require.NoError(t, j.SetState(StateCompleted))
	assert.Error(t, j.SetState(StateFailed))
}

func TestProgressMonotonic(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.SetState(StateRunning))
	require.Equal(t, 0, j.Progress())

	assert.Equal(t, 10, j.SetProgress(10))
	// Regressions clamp to the last value.
	assert.Equal(t, 10, j.SetProgress(7))
	assert.Equal(t, 10, j.Progress())
	assert.Equal(t, 100, j.SetProgress(150))
}

func TestProgressIndeterminate(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.SetState(StateRunning))

	assert.Equal(t, ProgressIndeterminate, j.SetProgress(ProgressIndeterminate))

	// A real value replaces the sentinel, but not the reverse.
	assert.Equal(t, 42, j.SetProgress(42))
	assert.Equal(t, 42, j.SetProgress(ProgressIndeterminate))
}

func TestLogCap(t *testing.T) {
	j := New("j2", "/in/b.mp4", Profile{}, 5)
	for i := 0; i < 8; i++ {
		j.AppendLog(fmt.Sprintf("line %d", i))
	}

	lines := j.Log()
	require.Len(t, lines, 5)
	assert.Equal(t, "line 3", lines[0].Data)
	assert.Equal(t, "line 7", lines[4].Data)

	tail := j.LogTail(2)
	require.Equal(t, []string{"line 6", "line 7"}, tail)
}

func TestSnapshot(t *testing.T) {
	j := newTestJob()
	j.SetOutputPath("/out/a.mp4")
	require.NoError(t, j.SetState(StateRunning))
	j.SetProgress(55)

	v := j.Snapshot()
	assert.Equal(t, "j1", v.ID)
	assert.Equal(t, "/out/a.mp4", v.OutputPath)
	assert.Equal(t, StateRunning, v.State)
	assert.Equal(t, 55, v.Progress)
}

func TestSummary(t *testing.T) {
	var s Summary
	for _, st := range []State{StateCompleted, StateCompleted, StateFailed, StateCancelled, StatePending} {
		s.Add(st)
	}
	assert.Equal(t, Summary{Total: 5, Completed: 2, Failed: 1, Cancelled: 1, Pending: 1}, s)
}
