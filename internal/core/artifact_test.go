package core

import "testing"

func TestArtifact_Builder(t *testing.T) {
	a := NewArtifact(KindFile, "pkg/foo.go")
	if a.Kind != KindFile || a.SourcePath != "pkg/foo.go" {
		t.Fatalf("unexpected artifact fields: %+v", a)
	}

	a.WithBody("# foo.go\n\nSummary.").WithOutputPath("docs/pkg/foo.go.sum").WithContentHash(
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	if a.FileName() != "foo.go.sum" {
		t.Fatalf("expected file name to be derived from output path, got %q", a.FileName())
	}
}

func TestArtifact_HasValidHash(t *testing.T) {
	a := NewArtifact(KindFile, "pkg/foo.go")
	if a.HasValidHash() {
		t.Fatalf("expected empty hash to be invalid")
	}
	a.WithContentHash("not-a-hash")
	if a.HasValidHash() {
		t.Fatalf("expected malformed hash to be invalid")
	}
	a.WithContentHash("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd")
	if !a.HasValidHash() {
		t.Fatalf("expected well-formed 64-hex-digit hash to validate")
	}
}

func TestArtifact_Validate(t *testing.T) {
	a := NewArtifact(KindFile, "pkg/foo.go")
	if err := a.Validate(); err == nil {
		t.Fatalf("expected error when body and output path are empty")
	}

	a.WithBody("content")
	if err := a.Validate(); err != nil {
		t.Fatalf("unexpected error validating artifact: %v", err)
	}

	missingSource := NewArtifact(KindFile, "").WithBody("content")
	if err := missingSource.Validate(); err == nil {
		t.Fatalf("expected error for missing source path")
	}

	invalidKind := NewArtifact("bogus", "pkg/foo.go").WithBody("content")
	if err := invalidKind.Validate(); err == nil {
		t.Fatalf("expected error for invalid kind")
	}
}
