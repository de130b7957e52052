package artifact

import (
	"fmt"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/canopy-docs/canopy/internal/core"
)

// WriteOverview writes a directory/root overview file, prefixing body
// with core.DirectoryOverviewMarker as its first line so a later run can
// tell a generated file apart from user-authored content.
func WriteOverview(path, body string) error {
	var sb strings.Builder
	sb.WriteString(core.DirectoryOverviewMarker)
	sb.WriteByte('\n')
	sb.WriteByte('\n')
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteByte('\n')
	}
	if err := renameio.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return core.ErrSpawn(fmt.Sprintf("writing overview %s", path)).WithCause(err)
	}
	return nil
}

// IsGenerated reports whether raw's first non-blank line is exactly
// core.DirectoryOverviewMarker. A false result means the file was
// authored by hand and must be preserved, never overwritten
// (spec.md §4.6 preservation rule).
func IsGenerated(raw []byte) bool {
	text := strings.TrimLeft(string(raw), "\n\r\t ")
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimRight(line, "\r") == core.DirectoryOverviewMarker
}
