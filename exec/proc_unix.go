//go:build unix

package exec

import (
	osexec "os/exec"
	"syscall"
)

// killProcessGroup starts cmd in its own process group so that cancelling the
// context also kills anything the shell spawned.
func killProcessGroup(cmd *osexec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
