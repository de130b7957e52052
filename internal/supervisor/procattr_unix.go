//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureProcAttr puts the child in its own process group so a timeout
// can signal the whole tree (the child plus anything it forked) rather
// than just the direct child PID.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateGroup sends sig to the process group rooted at pid.
func terminateGroup(pid int, sig syscall.Signal) error {
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		// Process already gone; nothing to signal.
		return nil
	}
	return syscall.Kill(-pgid, sig)
}

// processAlive reports whether pid is still alive, using the signal-0
// liveness check (sending signal 0 performs error checking without
// actually delivering a signal).
func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
