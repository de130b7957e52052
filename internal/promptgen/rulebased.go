package promptgen

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/canopy-docs/canopy/internal/core"
)

// RuleBasedSynthesizer builds directory and root overviews by
// concatenating child artifact summaries under a generated heading,
// without any AI call. It satisfies pipeline.DirectorySynthesizer
// structurally (no import needed — spec.md's Open Question on AI-driven
// vs rule-based directory synthesis, resolved by making the driver
// accept either).
type RuleBasedSynthesizer struct{}

// NewRuleBasedSynthesizer constructs a RuleBasedSynthesizer.
func NewRuleBasedSynthesizer() *RuleBasedSynthesizer {
	return &RuleBasedSynthesizer{}
}

// Synthesize implements pipeline.DirectorySynthesizer. It never calls
// ctx-bound work and never returns an error; the context parameter exists
// only to satisfy the interface.
func (s *RuleBasedSynthesizer) Synthesize(_ context.Context, task *core.Task, childArtifacts []core.Artifact) (string, error) {
	sorted := make([]core.Artifact, len(childArtifacts))
	copy(sorted, childArtifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SourcePath < sorted[j].SourcePath })

	var b strings.Builder
	if task.Kind == core.KindRoot {
		fmt.Fprintf(&b, "# Project Overview\n\n")
	} else {
		fmt.Fprintf(&b, "# %s\n\n", task.Path)
	}

	if len(sorted) == 0 {
		b.WriteString("No child artifacts were available to summarize.\n")
		return b.String(), nil
	}

	for _, a := range sorted {
		fmt.Fprintf(&b, "- **%s**: %s\n", a.SourcePath, firstLine(a.Body))
	}
	return b.String(), nil
}

// firstLine returns the first non-empty line of body, trimmed, for use
// as a one-line rule-based summary of a child artifact.
func firstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return "(empty)"
}
