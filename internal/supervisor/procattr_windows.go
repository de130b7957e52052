//go:build windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureProcAttr creates the child in a new process group so it can be
// terminated as a tree via taskkill /T.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// terminateGroup kills the process tree rooted at pid via taskkill, since
// Windows has no process-group signal equivalent to SIGTERM/SIGKILL.
func terminateGroup(pid int, _ syscall.Signal) error {
	kill := exec.Command("taskkill", "/T", "/F", "/PID", itoa(pid))
	return kill.Run()
}

// processAlive reports whether pid is still alive by attempting to open
// it; FindProcess never fails on Windows, so Signal(0) is used instead.
func processAlive(pid int) bool {
	proc, err := syscall.OpenProcess(syscall.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer syscall.CloseHandle(proc)
	var code uint32
	if err := syscall.GetExitCodeProcess(proc, &code); err != nil {
		return false
	}
	const stillActive = 259
	return code == stillActive
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
