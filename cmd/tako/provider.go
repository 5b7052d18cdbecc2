package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tako0614/takomusic/internal/source"
)

// fileProvider resolves non-std: import specifiers against a fixed
// root directory on disk — the host half of source.Composite, the way
// a single-binary CLI invocation is the only host leafo-songtool ever
// had. Specifiers are resolved relative to root, not to the importing
// file, since every module compiled by one `tako` invocation lives
// under a single entry file's directory.
type fileProvider struct {
	root string
}

func newFileProvider(entryPath string) *fileProvider {
	return &fileProvider{root: filepath.Dir(entryPath)}
}

func (p *fileProvider) Resolve(specifier string) (string, string, error) {
	rel := specifier
	if !strings.HasSuffix(rel, ".tako") {
		rel += ".tako"
	}
	path := filepath.Join(p.root, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", &source.ErrNotFound{Specifier: specifier}
	}
	return string(data), specifier, nil
}
