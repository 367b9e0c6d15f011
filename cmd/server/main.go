// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package main

import (
	"flag"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/videoconverter/internal/api"
	"github.com/ZSC714725/videoconverter/internal/config"
	"github.com/ZSC714725/videoconverter/internal/engine"
	"github.com/ZSC714725/videoconverter/internal/event"
	"github.com/ZSC714725/videoconverter/internal/logger"
	"github.com/ZSC714725/videoconverter/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	bindAddr := cfg.Server.Bind
	if *bind != "" {
		bindAddr = *bind
	}
	if *ffmpegBin != "" {
		cfg.Engines.FFmpeg = *ffmpegBin
	}

	logger := logger.New("videoconverter ")

	registry := engine.NewRegistry(cfg.Engines, cfg.Convert.Threads)
	for _, av := range registry.Report() {
		if av.Available {
			logger.Info("engine %s: %s", av.Engine, av.Binary)
		} else {
			logger.Info("engine %s: unavailable", av.Engine)
		}
	}

	bus := event.NewBus(cfg.Convert.EventBufferSize)

	scheduler := queue.New(queue.Config{
		Registry:       registry,
		FFprobe:        cfg.Engines.FFprobe,
		Sink:           bus,
		Logger:         logger,
		MaxLogLines:    cfg.Convert.MaxLogLines,
		GraceTimeout:   time.Duration(cfg.Convert.TerminateTimeout) * time.Second,
		MaxJobDuration: time.Duration(cfg.Convert.MaxJobDuration) * time.Second,
	})

	handler := api.NewHandler(scheduler, registry, bus, cfg.Scan.Extensions)

	r := gin.Default()
	r.Use(gin.Recovery(), cors.Default())

	v1 := r.Group("/api/v1")
	handler.Register(v1)

	log.Printf("VideoConverter listening on %s", bindAddr)
	if err := r.Run(bindAddr); err != nil {
		log.Fatalf("Server: %v", err)
	}
}
