package core

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// hashPattern matches a lowercase-hex SHA-256 digest. Anything else found
// in an artifact's content_hash field is treated as absent per spec.md §6.
var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Artifact is a generated documentation file: a per-file summary, a
// directory overview, or the root orientation document. Its ContentHash
// is the sole piece of state canopy persists between runs (spec.md §4.7).
type Artifact struct {
	Kind         TaskKind
	SourcePath   string // path of the file/directory this artifact documents
	OutputPath   string // where the artifact is written on disk
	Title        string
	Body         string // rendered markdown body, excluding frontmatter
	ContentHash  string // sha256 hex digest of the source content at generation time
	GeneratedAt  time.Time
	ModelUsed    string
	HasMarker    bool // true for directory/root artifacts carrying the generated-marker
	UserPreserve bool // true if a ".local" sibling with user edits exists
}

// NewArtifact creates a new artifact for the given kind and source path.
func NewArtifact(kind TaskKind, sourcePath string) *Artifact {
	return &Artifact{
		Kind:       kind,
		SourcePath: sourcePath,
		GeneratedAt: time.Now(),
	}
}

// WithBody sets the artifact's rendered body.
func (a *Artifact) WithBody(body string) *Artifact {
	a.Body = body
	return a
}

// WithOutputPath sets where the artifact is written.
func (a *Artifact) WithOutputPath(path string) *Artifact {
	a.OutputPath = path
	return a
}

// WithContentHash sets the content hash that identifies the generating
// input state.
func (a *Artifact) WithContentHash(hash string) *Artifact {
	a.ContentHash = hash
	return a
}

// FileName returns the base name of the artifact's output path.
func (a *Artifact) FileName() string {
	if a.OutputPath == "" {
		return ""
	}
	return filepath.Base(a.OutputPath)
}

// HasValidHash reports whether ContentHash looks like a SHA-256 digest.
// A malformed or empty hash is treated as "no prior artifact" by
// internal/changes, never as a crash (spec.md §6/§8.3).
func (a *Artifact) HasValidHash() bool {
	return hashPattern.MatchString(a.ContentHash)
}

// Validate checks artifact invariants.
func (a *Artifact) Validate() error {
	if a.SourcePath == "" {
		return &DomainError{
			Category: ErrCatValidation,
			Code:     "ARTIFACT_SOURCE_REQUIRED",
			Message:  "artifact source path cannot be empty",
		}
	}
	if !ValidKind(a.Kind) {
		return &DomainError{
			Category: ErrCatValidation,
			Code:     "INVALID_ARTIFACT_KIND",
			Message:  fmt.Sprintf("invalid artifact kind: %s", a.Kind),
		}
	}
	if a.Body == "" && a.OutputPath == "" {
		return &DomainError{
			Category: ErrCatValidation,
			Code:     "ARTIFACT_EMPTY",
			Message:  "artifact must have a body or an output path",
		}
	}
	return nil
}

// DirectoryOverviewMarker is embedded as an HTML comment in every
// directory/root overview canopy writes. It is how canopy tells its own
// generated files apart from hand-authored ones during cleanup
// (spec.md §4.7 step 6, §6).
const DirectoryOverviewMarker = "<!-- Generated by canopy. Do not edit directly; see the .local sibling. -->"
