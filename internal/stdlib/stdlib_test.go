package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoundTripsEveryModule(t *testing.T) {
	for _, name := range Names() {
		text, err := Load(name)
		require.NoError(t, err, name)
		assert.Equal(t, sources[name], text, name)

		size, err := CompressedSize(name)
		require.NoError(t, err, name)
		assert.Greater(t, size, 0, name)
	}
}

func TestProviderResolvesStdPrefix(t *testing.T) {
	p := NewProvider()
	text, key, err := p.Resolve("std:theory")
	require.NoError(t, err)
	assert.Equal(t, "std:theory", key)
	assert.Contains(t, text, "MAJOR")
}

func TestProviderRejectsNonStdSpecifier(t *testing.T) {
	p := NewProvider()
	_, _, err := p.Resolve("./song.tako")
	assert.Error(t, err)
}
