package adapters

// dedupFragments joins text fragments, skipping any fragment that is a
// byte-for-byte repeat of one already seen. Backends that emit a
// streamed-then-final pair of identical text blocks (NDJSON event
// strategy) rely on this to avoid doubling the final artifact body.
func dedupFragments(fragments []string) string {
	seen := make(map[string]bool, len(fragments))
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	joined := ""
	for i, f := range out {
		if i > 0 {
			joined += "\n"
		}
		joined += f
	}
	return joined
}
