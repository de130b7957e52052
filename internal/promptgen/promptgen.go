// Package promptgen builds the system/user prompt pairs canopy's three
// phases send through internal/aicall. It is deliberately minimal — the
// prompt text itself is not the focus of this spec (spec.md §1.2); its
// job is only to let cmd/canopy assemble a runnable core.ExecutionPlan.
package promptgen

import (
	"fmt"
	"strings"

	"github.com/canopy-docs/canopy/internal/core"
)

const fileSystemPrompt = `You are canopy, a documentation generator. Summarize the given source ` +
	`file for a developer onboarding to this codebase. Describe its purpose, its exported ` +
	`surface, and any non-obvious behavior. Respond in Markdown, no frontmatter.`

const directorySystemPrompt = `You are canopy, a documentation generator. Synthesize an overview of ` +
	`a directory from the summaries of its contents. Describe the directory's role in the ` +
	`project and how its contents relate to each other. Respond in Markdown, no frontmatter.`

const rootSystemPrompt = `You are canopy, a documentation generator. Synthesize a top-level ` +
	`orientation document for a project from its directory overviews. Describe what the ` +
	`project does, how it's organized, and where a newcomer should start reading. Respond in ` +
	`Markdown, no frontmatter.`

// ForFile builds the prompt pair for a KindFile task: summarize one
// source file given its content.
func ForFile(path, content string) (systemPrompt, userPrompt string) {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n\n```\n%s\n```\n", path, content)
	return fileSystemPrompt, b.String()
}

// ForDirectory builds the prompt pair for a KindDirectory task: aggregate
// a directory's child artifacts (file summaries and nested directory
// overviews) into one overview.
func ForDirectory(path string, children []core.Artifact) (systemPrompt, userPrompt string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Directory: %s\n\n", path)
	writeChildren(&b, children)
	return directorySystemPrompt, b.String()
}

// ForRoot builds the prompt pair for the KindRoot task: synthesize the
// project-level orientation document from every top-level directory
// overview.
func ForRoot(children []core.Artifact) (systemPrompt, userPrompt string) {
	var b strings.Builder
	b.WriteString("Project directory overviews:\n\n")
	writeChildren(&b, children)
	return rootSystemPrompt, b.String()
}

func writeChildren(b *strings.Builder, children []core.Artifact) {
	if len(children) == 0 {
		b.WriteString("(no child artifacts available)\n")
		return
	}
	for _, a := range children {
		fmt.Fprintf(b, "## %s\n\n%s\n\n", a.SourcePath, a.Body)
	}
}
