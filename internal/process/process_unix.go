// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

//go:build !windows

package process

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcessGroup gives the child its own process group so signals
// reach every process the engine forks, not just the direct child.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate interrupts the whole process group, escalating to SIGKILL
// after the grace timeout. Caller holds the order lock, so cmd.Process
// is valid here.
func (p *process) terminate() error {
	pid := p.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGINT); err != nil {
		return p.killGroup()
	}

	p.killTimerLock.Lock()
	p.killTimer = time.AfterFunc(p.graceTimeout, func() {
		p.killGroup()
	})
	p.killTimerLock.Unlock()
	return nil
}

func (p *process) killGroup() error {
	if err := syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}
