// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package process

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanLine(t *testing.T) {
	collect := func(data string, atEOF bool) []string {
		var out []string
		rest := []byte(data)
		for {
			advance, token, err := scanLine(rest, atEOF)
			require.NoError(t, err)
			if token == nil {
				break
			}
			out = append(out, string(token))
			rest = rest[advance:]
		}
		return out
	}

	// Newline-terminated lines.
	assert.Equal(t, []string{"one", "two"}, collect("one\ntwo\n", false))

	// Carriage returns split exactly like newlines; this is how engine
	// progress updates rewrite a single terminal line.
	assert.Equal(t,
		[]string{"frame=  10 time=00:00:01.00", "frame=  20 time=00:00:02.00"},
		collect("frame=  10 time=00:00:01.00\rframe=  20 time=00:00:02.00\r", false))

	// Mixed \r\n sequences produce no empty tokens.
	assert.Equal(t, []string{"a", "b"}, collect("a\r\n\r\nb\r\n", false))

	// An unterminated trailing line only surfaces at EOF.
	assert.Empty(t, collect("partial", false))
	assert.Equal(t, []string{"partial"}, collect("partial", true))
}

func TestProcessCollectsOutputLines(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	var mu sync.Mutex
	var lines []string
	p, err := New(Config{
		Binary: "sh",
		Args:   []string{"-c", `printf 'alpha\nbeta\rgamma\n'`},
		OnLine: func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	require.NoError(t, p.Start())
	require.NoError(t, p.Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, lines)
	assert.False(t, p.Stopped())
	assert.Equal(t, "finished", p.Status().State)
}

func TestProcessNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	p, err := New(Config{Binary: "sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)

	require.NoError(t, p.Start())
	err = p.Wait()
	require.Error(t, err)
	assert.False(t, p.Stopped())
	assert.Equal(t, "failed", p.Status().State)
}

func TestProcessStopIsClassifiedAsKilled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	p, err := New(Config{
		Binary:       "sh",
		Args:         []string{"-c", "sleep 30"},
		GraceTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, p.Start())
	require.NoError(t, p.Stop(false))
	// A second stop is a no-op.
	require.NoError(t, p.Stop(false))

	err = p.Wait()
	require.Error(t, err)
	assert.True(t, p.Stopped())
	assert.Equal(t, "killed", p.Status().State)
}

func TestProcessMaxDurationTerminates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	p, err := New(Config{
		Binary:       "sh",
		Args:         []string{"-c", "sleep 30"},
		GraceTimeout: 100 * time.Millisecond,
		MaxDuration:  50 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, p.Start())

	done := make(chan error, 1)
	go func() { done <- p.Wait() }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchdog did not terminate the process")
	}
	assert.True(t, p.Stopped())
}

func TestStopTerminatesForkedHelpers(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	// The shell forks a background helper that inherits the output
	// pipes. Termination must reach the whole process group, or the
	// helper outlives the shell and Wait blocks on the open pipes.
	p, err := New(Config{
		Binary:       "sh",
		Args:         []string{"-c", "sleep 30 & wait"},
		GraceTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, p.Start())
	require.NoError(t, p.Stop(false))

	done := make(chan error, 1)
	go func() { done <- p.Wait() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("helper process kept the worker blocked after stop")
	}
	assert.True(t, p.Stopped())
}

func TestConcurrentStartAndStop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	// Whichever of Start and Stop wins, the outcome is a stopped
	// process and a Wait that returns promptly.
	for i := 0; i < 20; i++ {
		p, err := New(Config{
			Binary:       "sh",
			Args:         []string{"-c", "sleep 30"},
			GraceTimeout: 100 * time.Millisecond,
		})
		require.NoError(t, err)

		startErr := make(chan error, 1)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			startErr <- p.Start()
		}()
		go func() {
			defer wg.Done()
			p.Stop(false)
		}()
		wg.Wait()

		if err := <-startErr; err == nil {
			done := make(chan error, 1)
			go func() { done <- p.Wait() }()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("process survived a concurrent stop")
			}
		}
		assert.True(t, p.Stopped())
	}
}

func TestStopBeforeStart(t *testing.T) {
	p, err := New(Config{Binary: "sh", Args: []string{"-c", "true"}})
	require.NoError(t, err)

	require.NoError(t, p.Stop(false))
	err = p.Start()
	require.Error(t, err)
	assert.True(t, p.Stopped())
}

func TestNewRequiresBinary(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
