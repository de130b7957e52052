package adapters

// NormalizeInputTokens computes the billable input token count from a
// backend's raw usage report: raw input tokens minus whatever portion was
// served from a prompt cache, clamped to zero so a cache-read count that
// (due to backend rounding) exceeds the raw input count never produces a
// negative total (spec.md §8.1.7).
func NormalizeInputTokens(rawInput, cachedRead int) int {
	n := rawInput - cachedRead
	if n < 0 {
		return 0
	}
	return n
}
