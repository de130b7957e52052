//go:build linux

package diagnostics

import (
	"os"
	"syscall"
)

// CountFDs returns the number of file descriptors this process currently
// holds open and the soft RLIMIT_NOFILE ceiling. See fd_darwin.go for why
// ResourceMonitor polls this.
func CountFDs() (open, limit int) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0, 0
	}
	open = len(entries)

	var rlim syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlim); err == nil {
		// #nosec G115 -- rlimit values are always within int range on supported platforms
		limit = int(rlim.Cur)
	}

	return open, limit
}
