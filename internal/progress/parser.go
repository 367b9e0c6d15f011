// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

// Package progress turns raw engine output lines into normalized
// 0-100 percentage updates. Parsers are stateful and must be created
// fresh for every run.
package progress

import (
	"regexp"
	"strconv"

	"github.com/ZSC714725/videoconverter/internal/job"
)

// Parser consumes one raw output line at a time. ok is true only when
// the line yields a new percentage (or the indeterminate sentinel);
// unrelated lines return ok == false. Emitted percentages never
// regress within a run.
type Parser interface {
	Feed(line string) (percent int, ok bool)
}

// TimeBased parses an elapsed-time marker from status lines and
// divides by the total media duration learned from a pre-probe.
// Used for FFmpeg, whose stderr reports time= but no percentage.
type TimeBased struct {
	totalSeconds  float64
	lastEmitted   int
	emittedUnsure bool
	re            *regexp.Regexp
}

// NewTimeBased creates a parser for an input of the given duration in
// seconds. A non-positive duration degrades to indeterminate
// reporting.
func NewTimeBased(totalSeconds float64) *TimeBased {
	return &TimeBased{
		totalSeconds: totalSeconds,
		lastEmitted:  -1,
		// 支持 .0 .00 .000 等小数位
		re: regexp.MustCompile(`time=\s*(-?[0-9]+):([0-9]{2}):([0-9]{2})\.([0-9]+)`),
	}
}

func (p *TimeBased) Feed(line string) (int, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	if p.totalSeconds <= 0 {
		if p.emittedUnsure {
			return 0, false
		}
		p.emittedUnsure = true
		return job.ProgressIndeterminate, true
	}

	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	frac := 0.0
	if x, err := strconv.ParseUint(m[4], 10, 64); err == nil {
		div := 1.0
		for range m[4] {
			div *= 10
		}
		frac = float64(x) / div
	}
	elapsed := float64(h*3600+mm*60+s) + frac
	if elapsed < 0 {
		elapsed = 0
	}

	pct := int(elapsed / p.totalSeconds * 100)
	if pct > 100 {
		pct = 100
	}
	if pct <= p.lastEmitted {
		return 0, false
	}
	p.lastEmitted = pct
	return pct, true
}

// PercentBased parses an explicit percentage token from each status
// line. Used for HandBrakeCLI ("Encoding: task 1 of 1, 43.52 %") and
// the Avidemux CLI, both of which report their own percentage.
type PercentBased struct {
	lastEmitted int
	re          *regexp.Regexp
}

// NewPercentBased creates a percentage-token parser.
func NewPercentBased() *PercentBased {
	return &PercentBased{
		lastEmitted: -1,
		re:          regexp.MustCompile(`([0-9]{1,3}(?:\.[0-9]+)?)\s*%`),
	}
}

func (p *PercentBased) Feed(line string) (int, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	pct := int(f)
	if pct > 100 {
		pct = 100
	}
	// A lower value than previously emitted is clamped, never a
	// regression event.
	if pct <= p.lastEmitted {
		return 0, false
	}
	p.lastEmitted = pct
	return pct, true
}
