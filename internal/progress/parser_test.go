// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/videoconverter/internal/job"
)

func TestTimeBasedParsesStatusLines(t *testing.T) {
	p := NewTimeBased(100) // 100 seconds total

	pct, ok := p.Feed("frame=  120 fps= 30 q=28.0 size=     256kB time=00:00:10.00 bitrate= 209.7kbits/s speed=   1x")
	require.True(t, ok)
	assert.Equal(t, 10, pct)

	// Banners and warnings yield no event.
	_, ok = p.Feed("Stream mapping:")
	assert.False(t, ok)
	_, ok = p.Feed("[libx264 @ 0x55] using SAR=1/1")
	assert.False(t, ok)
}

func TestTimeBasedEmitsOnlyOnChange(t *testing.T) {
	p := NewTimeBased(1000)

	pct, ok := p.Feed("time=00:00:10.00")
	require.True(t, ok)
	assert.Equal(t, 1, pct)

	// Same integer percentage: no event.
	_, ok = p.Feed("time=00:00:11.00")
	assert.False(t, ok)

	pct, ok = p.Feed("time=00:00:20.00")
	require.True(t, ok)
	assert.Equal(t, 2, pct)
}

func TestTimeBasedClampsOverrun(t *testing.T) {
	p := NewTimeBased(10)

	pct, ok := p.Feed("time=00:00:15.00")
	require.True(t, ok)
	assert.Equal(t, 100, pct)
}

func TestTimeBasedNeverRegresses(t *testing.T) {
	p := NewTimeBased(100)

	pct, ok := p.Feed("time=00:00:10.00")
	require.True(t, ok)
	require.Equal(t, 10, pct)

	// A status line reporting an earlier time must not emit a lower
	// value.
	_, ok = p.Feed("time=00:00:07.00")
	assert.False(t, ok)
}

func TestTimeBasedUnknownDuration(t *testing.T) {
	p := NewTimeBased(0)

	pct, ok := p.Feed("time=00:00:10.00")
	require.True(t, ok)
	assert.Equal(t, job.ProgressIndeterminate, pct)

	// The sentinel is reported once, not per line.
	_, ok = p.Feed("time=00:00:20.00")
	assert.False(t, ok)
}

func TestPercentBasedParsesTokens(t *testing.T) {
	p := NewPercentBased()

	pct, ok := p.Feed("Encoding: task 1 of 1, 43.52 % (85.41 fps, avg 71.50 fps, ETA 00h01m32s)")
	require.True(t, ok)
	assert.Equal(t, 43, pct)

	_, ok = p.Feed("scanning title 1 of 1")
	assert.False(t, ok)
}

func TestPercentBasedNeverRegresses(t *testing.T) {
	p := NewPercentBased()

	pct, ok := p.Feed("Encoding: 10.00 %")
	require.True(t, ok)
	require.Equal(t, 10, pct)

	// 7% after 10%: clamped, never a regression event.
	_, ok = p.Feed("Encoding: 7.00 %")
	assert.False(t, ok)

	pct, ok = p.Feed("Encoding: 11.00 %")
	require.True(t, ok)
	assert.Equal(t, 11, pct)
}

func TestPercentBasedEmitsOnlyOnChange(t *testing.T) {
	p := NewPercentBased()

	_, ok := p.Feed("Done: 50%")
	require.True(t, ok)
	_, ok = p.Feed("Done: 50%")
	assert.False(t, ok)
	_, ok = p.Feed("Done: 50.90%")
	assert.False(t, ok)
}
