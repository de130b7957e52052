// Package discovery walks a project tree for source files to document,
// honoring .gitignore-style excludes and config.DiscoveryConfig.
package discovery

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// rule is one parsed ignore pattern.
type rule struct {
	pattern  string
	negate   bool
	dirOnly  bool
	segments []string
}

// Matcher evaluates paths against a set of gitignore-style patterns.
// Later rules take precedence, matching git's own "last match wins"
// semantics; a "!" prefix negates (re-includes) a previously excluded path.
type Matcher struct {
	rules []rule
}

// NewMatcher builds a Matcher from a flat list of glob patterns, e.g.
// config.DiscoveryConfig.Exclude ("**/node_modules/**").
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		m.add(p)
	}
	return m
}

// LoadGitignore reads a .gitignore file (if present) at root and appends
// its rules to the matcher. Missing files are not an error.
func (m *Matcher) LoadGitignore(root string) error {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.add(line)
	}
	return scanner.Err()
}

func (m *Matcher) add(pattern string) {
	r := rule{pattern: pattern}
	if strings.HasPrefix(pattern, "!") {
		r.negate = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	pattern = strings.TrimPrefix(pattern, "/")
	r.segments = strings.Split(pattern, "/")
	m.rules = append(m.rules, r)
}

// Match reports whether relPath (slash-separated, relative to the walk
// root) should be excluded. isDir distinguishes directory-only rules.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	segments := strings.Split(filepath.ToSlash(relPath), "/")
	excluded := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if matchSegments(r.segments, segments) {
			excluded = !r.negate
		}
	}
	return excluded
}

// matchSegments matches a gitignore-style pattern (split into path
// segments, "**" meaning "zero or more segments") against a path, also
// split into segments. A pattern with no leading "**" and more than one
// segment is anchored to the start of path; a single-segment pattern
// matches any path component (gitignore's un-anchored basename rule).
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 1 && pattern[0] != "**" {
		for _, seg := range path {
			if ok, _ := filepath.Match(pattern[0], seg); ok {
				return true
			}
		}
		return false
	}
	return matchFrom(pattern, path)
}

func matchFrom(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		if matchFrom(pattern[1:], path) {
			return true
		}
		for i := 1; i <= len(path); i++ {
			if matchFrom(pattern[1:], path[i:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	if ok, _ := filepath.Match(pattern[0], path[0]); !ok {
		return false
	}
	return matchFrom(pattern[1:], path[1:])
}
