// Package stdlib embeds the ten DSL-source standard library modules
// (spec.md §6.4) and serves them through a source.Provider backed by
// golang/snappy-compressed storage: each source is compressed once, on
// first use, and decompressed on every Load, the same shape as a host
// that ships its stdlib as a compressed asset bundle rather than raw
// text in the binary.
package stdlib

import (
	"fmt"
	"sync"

	"github.com/golang/snappy"

	"github.com/tako0614/takomusic/internal/source"
)

var (
	compressOnce sync.Once
	compressed   map[string][]byte
)

func ensureCompressed() {
	compressOnce.Do(func() {
		compressed = make(map[string][]byte, len(sources))
		for name, text := range sources {
			compressed[name] = snappy.Encode(nil, []byte(text))
		}
	})
}

// Load returns the decompressed DSL source for a bare module name (no
// "std:" prefix), e.g. Load("core").
func Load(name string) (string, error) {
	ensureCompressed()
	blob, ok := compressed[name]
	if !ok {
		return "", fmt.Errorf("stdlib: unknown module %q", name)
	}
	out, err := snappy.Decode(nil, blob)
	if err != nil {
		return "", fmt.Errorf("stdlib: corrupt embedded module %q: %w", name, err)
	}
	return string(out), nil
}

// CompressedSize reports the snappy-encoded size of a module.
func CompressedSize(name string) (int, error) {
	ensureCompressed()
	blob, ok := compressed[name]
	if !ok {
		return 0, fmt.Errorf("stdlib: unknown module %q", name)
	}
	return len(blob), nil
}

// Provider implements source.Provider for the `std:` namespace.
type Provider struct{}

func NewProvider() *Provider { return &Provider{} }

func (Provider) Resolve(specifier string) (string, string, error) {
	if len(specifier) < 4 || specifier[:4] != "std:" {
		return "", "", &source.ErrNotFound{Specifier: specifier}
	}
	name := specifier[4:]
	text, err := Load(name)
	if err != nil {
		return "", "", &source.ErrNotFound{Specifier: specifier}
	}
	return text, specifier, nil
}
