// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/videoconverter/internal/engine"
	"github.com/ZSC714725/videoconverter/internal/event"
	"github.com/ZSC714725/videoconverter/internal/job"
	"github.com/ZSC714725/videoconverter/internal/queue"
)

// Handler serves the conversion API.
type Handler struct {
	scheduler  *queue.Scheduler
	registry   *engine.Registry
	bus        *event.Bus
	extensions map[string]bool
}

// NewHandler creates the API handler. extensions is the input scan
// allowlist (with leading dots).
func NewHandler(scheduler *queue.Scheduler, registry *engine.Registry, bus *event.Bus, extensions []string) *Handler {
	allow := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allow[strings.ToLower(ext)] = true
	}
	return &Handler{
		scheduler:  scheduler,
		registry:   registry,
		bus:        bus,
		extensions: allow,
	}
}

// Register mounts all routes under the given group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/scan", h.Scan)
	g.POST("/batch", h.SubmitBatch)
	g.GET("/jobs", h.ListJobs)
	g.GET("/jobs/:id", h.GetJob)
	g.GET("/jobs/:id/log", h.GetJobLog)
	g.POST("/cancel", h.CancelCurrent)
	g.POST("/cancel/all", h.CancelAll)
	g.GET("/events", h.Events)
	g.GET("/engines", h.Engines)
	g.GET("/status", h.Status)
}

// Scan lists candidate input files in a directory by extension
// allowlist. Discovery is a front-end convenience; the conversion core
// only ever consumes resolved paths.
func (h *Handler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	entries, err := os.ReadDir(req.Directory)
	if err != nil {
		abortError(c, http.StatusBadRequest, "cannot read directory", err)
		return
	}

	files := make([]ScanFile, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !h.extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, ScanFile{
			Path:      filepath.Join(req.Directory, e.Name()),
			SizeBytes: info.Size(),
		})
	}
	sort.Slice(files, func(i, k int) bool { return files[i].Path < files[k].Path })

	c.JSON(http.StatusOK, ScanResponse{Files: files})
}

// SubmitBatch enqueues a conversion batch.
func (h *Handler) SubmitBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if req.Engine == "" {
		req.Engine = job.EngineFFmpeg
	}
	if req.Policy == "" {
		req.Policy = job.PolicyOverwrite
	}

	ids, err := h.scheduler.Submit(queue.Batch{
		Inputs:    req.Inputs,
		OutputDir: req.OutputDir,
		Profile: job.Profile{
			Engine:     req.Engine,
			Format:     req.Format,
			CustomArgs: req.CustomArgs,
		},
		Policy: req.Policy,
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, queue.ErrBatchActive) {
			status = http.StatusConflict
		}
		abortError(c, status, "batch rejected", err)
		return
	}

	c.JSON(http.StatusAccepted, BatchResponse{JobIDs: ids})
}

// ListJobs returns snapshots of all known jobs.
func (h *Handler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Jobs())
}

// GetJob returns one job snapshot.
func (h *Handler) GetJob(c *gin.Context) {
	v, ok := h.scheduler.Job(c.Param("id"))
	if !ok {
		abortError(c, http.StatusNotFound, "job not found", nil)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetJobLog returns a job's retained log lines.
func (h *Handler) GetJobLog(c *gin.Context) {
	lines, ok := h.scheduler.JobLog(c.Param("id"))
	if !ok {
		abortError(c, http.StatusNotFound, "job not found", nil)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// CancelCurrent terminates the running job; the batch continues.
func (h *Handler) CancelCurrent(c *gin.Context) {
	h.scheduler.RequestCancelCurrent()
	c.Status(http.StatusNoContent)
}

// CancelAll terminates the running job and stops the batch.
func (h *Handler) CancelAll(c *gin.Context) {
	h.scheduler.RequestCancelAll()
	c.Status(http.StatusNoContent)
}

// Events returns events after the given sequence number. Clients poll
// with their last seen seq.
func (h *Handler) Events(c *gin.Context) {
	since, _ := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	c.JSON(http.StatusOK, h.bus.Since(since))
}

// Engines reports configured engine availability.
func (h *Handler) Engines(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Report())
}

// Status reports the current engine process resource usage.
func (h *Handler) Status(c *gin.Context) {
	resp := StatusResponse{Busy: h.scheduler.Busy()}
	if id, st, ok := h.scheduler.CurrentStatus(); ok {
		resp.JobID = id
		resp.State = st.State
		resp.CPU = st.CPU
		resp.MemoryBytes = st.Memory
	}
	c.JSON(http.StatusOK, resp)
}

func abortError(c *gin.Context, code int, message string, err error) {
	resp := ErrorResponse{Code: code, Message: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	c.JSON(code, resp)
}
