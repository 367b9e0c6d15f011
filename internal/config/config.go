// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engines EnginesConfig `yaml:"engines"`
	Convert ConvertConfig `yaml:"convert"`
	Scan    ScanConfig    `yaml:"scan"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// EnginesConfig 各转码引擎的可执行文件路径
type EnginesConfig struct {
	FFmpeg    string `yaml:"ffmpeg"`
	FFprobe   string `yaml:"ffprobe"`
	HandBrake string `yaml:"handbrake"`
	Avidemux  string `yaml:"avidemux"`
	// Fallback enables trying the next available engine when the
	// configured one is missing. Off unless explicitly requested.
	Fallback bool `yaml:"fallback"`
}

// ConvertConfig 转码行为配置
type ConvertConfig struct {
	MaxLogLines      int    `yaml:"max_log_lines"`
	TerminateTimeout uint64 `yaml:"terminate_timeout_seconds"`
	MaxJobDuration   uint64 `yaml:"max_job_duration_seconds"`
	EventBufferSize  int    `yaml:"event_buffer_size"`
	Threads          int    `yaml:"threads"`
}

// ScanConfig 输入目录扫描配置
type ScanConfig struct {
	Extensions []string `yaml:"extensions"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8080"},
		Engines: EnginesConfig{
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
			HandBrake: "HandBrakeCLI",
			Avidemux:  "avidemux3_cli",
		},
		Convert: ConvertConfig{
			MaxLogLines:      200,
			TerminateTimeout: 5,
			EventBufferSize:  1000,
		},
		Scan: ScanConfig{
			Extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".mpg", ".mpeg", ".3gp"},
		},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 填充空值
	def := Default()
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if cfg.Engines.FFmpeg == "" {
		cfg.Engines.FFmpeg = def.Engines.FFmpeg
	}
	if cfg.Engines.FFprobe == "" {
		cfg.Engines.FFprobe = def.Engines.FFprobe
	}
	if cfg.Engines.HandBrake == "" {
		cfg.Engines.HandBrake = def.Engines.HandBrake
	}
	if cfg.Engines.Avidemux == "" {
		cfg.Engines.Avidemux = def.Engines.Avidemux
	}
	if cfg.Convert.MaxLogLines <= 0 {
		cfg.Convert.MaxLogLines = def.Convert.MaxLogLines
	}
	if cfg.Convert.TerminateTimeout == 0 {
		cfg.Convert.TerminateTimeout = def.Convert.TerminateTimeout
	}
	if cfg.Convert.EventBufferSize <= 0 {
		cfg.Convert.EventBufferSize = def.Convert.EventBufferSize
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = def.Scan.Extensions
	}

	return cfg, nil
}
