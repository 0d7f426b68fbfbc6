//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup запускает процесс в собственной группе,
// чтобы по таймауту убить и его потомков.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcess убивает группу процессов (отрицательный PID).
func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}
