package textx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profescore/review-extractor/pkg/textx"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hola", textx.SanitizeText("  hola  "))
	assert.Equal(t, "a\nb", textx.SanitizeText("a\nb"))
	assert.Equal(t, "ab", textx.SanitizeText("a\x00b"))
}

func TestDecodeText_UTF8(t *testing.T) {
	t.Parallel()
	s, err := textx.DecodeText([]byte("señor café"))
	require.NoError(t, err)
	assert.Equal(t, "señor café", s)
}

func TestDecodeText_Latin1Fallback(t *testing.T) {
	t.Parallel()
	// "café" in ISO 8859-1: é is 0xE9, invalid as UTF-8.
	s, err := textx.DecodeText([]byte{'c', 'a', 'f', 0xE9})
	require.NoError(t, err)
	assert.Equal(t, "café", s)
}

func TestDecodeText_CP1252Smart(t *testing.T) {
	t.Parallel()
	// 0x93/0x94 are smart quotes in cp1252; latin-1 maps them to control
	// characters. Either decode succeeds, the point is no error.
	s, err := textx.DecodeText([]byte{0x93, 'o', 'k', 0x94})
	require.NoError(t, err)
	assert.Contains(t, s, "ok")
}
