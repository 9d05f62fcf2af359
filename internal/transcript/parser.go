// Package transcript parses exported WhatsApp chat logs into discrete
// messages.
package transcript

import (
	"regexp"
	"strings"

	"github.com/profescore/review-extractor/internal/domain"
)

// headerRe matches the start of a message in either export style:
//
//	Android/Web: "12/01/24, 9:00 - Ana: hola"
//	iOS:         "[12/01/24, 9:00:05] Ana: hola"
//
// Capture groups: (1) date, (2) time, (3) author, (4) leading body fragment.
var headerRe = regexp.MustCompile(
	`(?i)^(?:\[?)(\d{1,2}/\d{1,2}/\d{2,4})[,\s].*?` +
		`(\d{1,2}:\d{2}(?::\d{2})?(?:\s?[ap]\.?\s?m\.?)?)(?:\]?)` +
		`\s(?:-\s)?(.*?):\s(.*)$`)

// Parse turns raw exported chat text into an ordered message sequence.
// A line matching a header starts a new message; non-matching lines continue
// the open message's body (multi-line reconstruction). Blank lines never start
// or continue a record. A transcript with no matching header yields an empty
// slice, which is a valid outcome, not an error.
func Parse(content string) []domain.Message {
	var out []domain.Message
	var open *domain.Message

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			if open != nil {
				open.Body += "\n" + line
			}
			continue
		}

		if open != nil {
			out = append(out, *open)
		}
		open = &domain.Message{
			Timestamp: m[1] + " " + m[2],
			Author:    strings.TrimSpace(m[3]),
			Body:      strings.TrimSpace(m[4]),
		}
	}

	if open != nil {
		out = append(out, *open)
	}
	return out
}
