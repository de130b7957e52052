//go:build darwin

package diagnostics

import (
	"os"
	"syscall"
)

// CountFDs returns the number of file descriptors currently held open by
// this process and the soft RLIMIT_NOFILE ceiling. ResourceMonitor polls
// this to catch the pipeline leaking descriptors across a long multi-task
// run — canopy's supervisor opens two pipes per backend CLI invocation and
// a leak here shows up as FDUsagePercent climbing between file tasks.
func CountFDs() (open, limit int) {
	entries, err := os.ReadDir("/dev/fd") // macOS equivalent of /proc/self/fd
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
