// Package artifact reads and writes the on-disk ".sum" artifact format:
// a YAML frontmatter block (generated_at, content_hash, purpose) followed
// by a free-form summary body (spec.md §6).
package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/canopy-docs/canopy/internal/core"
)

const delimiter = "---"

type frontmatter struct {
	GeneratedAt string `yaml:"generated_at"`
	ContentHash string `yaml:"content_hash"`
	Purpose     string `yaml:"purpose"`
}

// Write renders a.ContentHash/GeneratedAt/Title into frontmatter and
// a.Body below it, atomically replacing any file already at path
// (google/renameio, so a crash mid-write never leaves a truncated
// artifact behind).
func Write(path string, a core.Artifact) error {
	fm := frontmatter{
		GeneratedAt: a.GeneratedAt.UTC().Format(time.RFC3339),
		ContentHash: a.ContentHash,
		Purpose:     a.Title,
	}
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return core.ErrValidation("FRONTMATTER_ENCODE", "could not encode artifact frontmatter").WithCause(err)
	}

	var sb strings.Builder
	sb.WriteString(delimiter)
	sb.WriteByte('\n')
	sb.Write(fmBytes)
	sb.WriteString(delimiter)
	sb.WriteString("\n\n")
	sb.WriteString(a.Body)
	if !strings.HasSuffix(a.Body, "\n") {
		sb.WriteByte('\n')
	}

	if err := renameio.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return core.ErrSpawn(fmt.Sprintf("writing artifact %s", path)).WithCause(err)
	}
	return nil
}

// Read parses an artifact file. A missing or malformed content hash is
// not an error: HasValidHash on the result reports false, and callers
// treat that as "no prior artifact" per spec.md §6.
func Read(path string, raw []byte) (core.Artifact, error) {
	text := string(raw)
	fmBlock, body, ok := splitFrontmatter(text)
	if !ok {
		return core.Artifact{}, core.ErrParse(fmt.Sprintf("%s: missing frontmatter block", path))
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(fmBlock), &fm); err != nil {
		return core.Artifact{}, core.ErrParse(fmt.Sprintf("%s: malformed frontmatter", path)).WithCause(err)
	}

	a := core.Artifact{
		OutputPath:  path,
		ContentHash: strings.ToLower(strings.TrimSpace(fm.ContentHash)),
		Title:       strings.TrimSpace(fm.Purpose),
		Body:        strings.TrimSpace(body),
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fm.GeneratedAt)); err == nil {
		a.GeneratedAt = ts
	}
	return a, nil
}

// splitFrontmatter extracts the YAML block between the two leading "---"
// delimiters and whatever text follows, tolerating leading whitespace.
func splitFrontmatter(text string) (fm string, body string, ok bool) {
	trimmed := strings.TrimLeft(text, "\n\r\t ")
	if !strings.HasPrefix(trimmed, delimiter) {
		return "", "", false
	}
	rest := trimmed[len(delimiter):]
	idx := strings.Index(rest, delimiter)
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+len(delimiter):], true
}
