package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	inside := filepath.Join(dir, "job", "position.log")

	if err := ValidatePathWithinDirectory(inside, dir); err != nil {
		t.Fatalf("expected path inside dir to validate, got %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(dir, "..", "escape.log"), dir); err == nil {
		t.Fatal("expected traversal path to be rejected")
	}

	if err := ValidatePathWithinDirectory("/etc/passwd", dir); err == nil {
		t.Fatal("expected absolute outside path to be rejected")
	}
}

func TestValidatePathWithinDirectoryTraversalInside(t *testing.T) {
	dir := t.TempDir()

	// Dot-dot segments that still land inside the directory are fine.
	p := filepath.Join(dir, "a", "..", "b.log")
	if err := ValidatePathWithinDirectory(p, dir); err != nil {
		t.Fatalf("expected normalised inside path to validate, got %v", err)
	}
}

func TestValidatePathWithinDirectorySymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(dir, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "f.log"), dir); err == nil {
		t.Fatal("expected symlink escape to be rejected")
	}
}
