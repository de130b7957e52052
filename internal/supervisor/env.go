package supervisor

import "fmt"

// ManagedEnv returns the environment variables canopy injects into every
// backend subprocess: an identity marker, an advisory heap cap, and an
// advisory worker-thread cap, mirroring the env-var injection pattern
// backend CLIs already honor for their own sandboxing.
func ManagedEnv(backend string, heapCapMB int) []string {
	if heapCapMB <= 0 {
		heapCapMB = 512
	}
	return []string{
		"CANOPY_MANAGED=true",
		fmt.Sprintf("CANOPY_BACKEND=%s", backend),
		fmt.Sprintf("NODE_OPTIONS=--max-old-space-size=%d", heapCapMB),
	}
}
