// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package engine

import (
	"fmt"

	"github.com/ZSC714725/videoconverter/internal/config"
	"github.com/ZSC714725/videoconverter/internal/job"
)

// Registry holds the configured adapters and resolves the one to use
// for a job. With fallback enabled, a missing engine falls through to
// the next available one in fixed order instead of failing the job.
type Registry struct {
	adapters map[job.Engine]Adapter
	order    []job.Engine
	fallback bool
}

// NewRegistry builds the adapter set from configured binary paths.
func NewRegistry(cfg config.EnginesConfig, threads int) *Registry {
	r := &Registry{
		adapters: make(map[job.Engine]Adapter),
		order:    []job.Engine{job.EngineFFmpeg, job.EngineHandBrake, job.EngineAvidemux},
		fallback: cfg.Fallback,
	}
	r.adapters[job.EngineFFmpeg] = NewFFmpeg(cfg.FFmpeg, threads)
	r.adapters[job.EngineHandBrake] = NewHandBrake(cfg.HandBrake)
	r.adapters[job.EngineAvidemux] = NewAvidemux(cfg.Avidemux)
	return r
}

// Get returns the adapter for an engine without checking availability.
func (r *Registry) Get(e job.Engine) (Adapter, error) {
	a, ok := r.adapters[e]
	if !ok {
		return nil, fmt.Errorf("%w: unknown engine %q", job.ErrInvalidProfile, e)
	}
	return a, nil
}

// Select resolves the adapter and binary for a job. The requested
// engine's binary must exist; when it does not and fallback is on, the
// remaining engines are tried in order. The returned binary path is
// what gets spawned.
func (r *Registry) Select(e job.Engine) (Adapter, string, error) {
	a, err := r.Get(e)
	if err != nil {
		return nil, "", err
	}

	bin, err := a.Resolve()
	if err == nil {
		return a, bin, nil
	}
	if !r.fallback {
		return nil, "", err
	}

	for _, name := range r.order {
		if name == e {
			continue
		}
		alt := r.adapters[name]
		if bin, altErr := alt.Resolve(); altErr == nil {
			return alt, bin, nil
		}
	}
	return nil, "", err
}

// Availability is one engine's probe result for status reporting.
type Availability struct {
	Engine    job.Engine `json:"engine"`
	Binary    string     `json:"binary,omitempty"`
	Available bool       `json:"available"`
	Error     string     `json:"error,omitempty"`
}

// Report probes every configured engine.
func (r *Registry) Report() []Availability {
	out := make([]Availability, 0, len(r.order))
	for _, name := range r.order {
		a := r.adapters[name]
		av := Availability{Engine: name}
		bin, err := a.Resolve()
		if err != nil {
			av.Error = err.Error()
		} else {
			av.Available = true
			av.Binary = bin
		}
		out = append(out, av)
	}
	return out
}
