// Package textx provides small text utilities used across the project.
package textx

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/profescore/review-extractor/internal/domain"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// DecodeText decodes raw transcript bytes, trying UTF-8 first and then the
// legacy encodings WhatsApp exports show up in on older Windows/Mac systems.
// The first encoding that decodes cleanly wins; if none do, the whole input is
// rejected with domain.ErrDecodeFailed.
func DecodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		if s, err := cm.NewDecoder().Bytes(raw); err == nil {
			return string(s), nil
		}
	}
	return "", fmt.Errorf("op=textx.DecodeText: %w", domain.ErrDecodeFailed)
}
