package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileProviderResolvesRelativeToEntryDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.tako"), []byte(`export fn helper() -> Number { return 1; }`), 0o644); err != nil {
		t.Fatal(err)
	}

	p := newFileProvider(filepath.Join(dir, "main.tako"))
	text, key, err := p.Resolve("./lib.tako")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key != "./lib.tako" {
		t.Errorf("canonicalKey = %q, want %q", key, "./lib.tako")
	}
	if text == "" {
		t.Error("expected non-empty source text")
	}
}

func TestFileProviderAppendsExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.tako"), []byte(`export fn x() -> Number { return 2; }`), 0o644); err != nil {
		t.Fatal(err)
	}
	p := newFileProvider(filepath.Join(dir, "main.tako"))
	if _, _, err := p.Resolve("./lib"); err != nil {
		t.Errorf("Resolve(without extension) failed: %v", err)
	}
}

func TestFileProviderMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	p := newFileProvider(filepath.Join(dir, "main.tako"))
	if _, _, err := p.Resolve("./missing.tako"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
