// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

//go:build windows

package process

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// terminate kills the process outright; there is no interrupt signal
// to deliver to console children on Windows.
func (p *process) terminate() error {
	return p.cmd.Process.Kill()
}
