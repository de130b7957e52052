package changes

import (
	"os"
	"strings"
)

// SimilarityRenameDetector folds an added/deleted pair into a rename when
// their artifact bodies are sufficiently similar, using a configurable
// threshold rather than a hardcoded constant (spec.md's Open Question on
// rename detection, resolved in DESIGN.md: always a config field).
type SimilarityRenameDetector struct {
	// Threshold is the minimum Jaccard similarity (over whitespace-split
	// tokens of the two artifacts' bodies) required to call a
	// deleted+added pair a rename. Defaults to 0.85 if zero.
	Threshold float64
}

// Enrich scans deleted/added pairs and reclassifies a deleted file as
// Modified-at-new-path (keeping the added entry as the rename target)
// whenever their bodies are similar enough. A rename still produces one
// Deleted entry (old path, cleaned up) and one Modified entry (new path,
// re-run so its hash and body catch up) — spec.md §4.7 step 7 treats a
// rename as "modified at the new path plus deleted at the old path".
func (d SimilarityRenameDetector) Enrich(changesOut []FileChange) []FileChange {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = 0.85
	}

	var added, deleted, rest []FileChange
	for _, c := range changesOut {
		switch c.Classification {
		case Added:
			added = append(added, c)
		case Deleted:
			deleted = append(deleted, c)
		default:
			rest = append(rest, c)
		}
	}

	matchedDeleted := make(map[int]bool)
	out := append([]FileChange{}, rest...)
	for _, a := range added {
		best := -1
		bestScore := 0.0
		for i, del := range deleted {
			if matchedDeleted[i] {
				continue
			}
			score := similarity(ArtifactPath(a.Path), ArtifactPath(del.Path))
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best >= 0 && bestScore >= threshold {
			matchedDeleted[best] = true
			out = append(out, FileChange{Path: a.Path, Classification: Modified, CurrentHash: a.CurrentHash})
			out = append(out, deleted[best])
			continue
		}
		out = append(out, a)
	}
	for i, del := range deleted {
		if !matchedDeleted[i] {
			out = append(out, del)
		}
	}
	return out
}

// similarity computes Jaccard similarity over whitespace-split tokens of
// two artifact bodies on disk. Either path missing yields zero
// similarity rather than an error — rename detection is a best-effort
// enrichment, not load-bearing.
func similarity(aPath, bPath string) float64 {
	aTokens, aOK := tokensOf(aPath)
	bTokens, bOK := tokensOf(bPath)
	if !aOK || !bOK || len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	union := make(map[string]bool, len(aTokens)+len(bTokens))
	for t := range aTokens {
		union[t] = true
	}
	for t := range bTokens {
		union[t] = true
	}

	intersection := 0
	for t := range aTokens {
		if bTokens[t] {
			intersection++
		}
	}
	return float64(intersection) / float64(len(union))
}

func tokensOf(path string) (map[string]bool, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(string(raw)) {
		tokens[f] = true
	}
	return tokens, true
}
