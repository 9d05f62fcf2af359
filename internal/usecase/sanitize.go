package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/profescore/review-extractor/internal/domain"
)

// Sanitizer validates raw extracted records and discards hallucinated or
// low-confidence entries. Rejection is a filtering decision, never an error.
type Sanitizer struct {
	rules Rules
}

// NewSanitizer constructs a Sanitizer with the given rule set.
func NewSanitizer(rules Rules) Sanitizer { return Sanitizer{rules: rules} }

// Sanitize applies the rejection rules in order to each loosely-typed record
// the model emitted and returns the survivors as typed candidates. Raw shapes
// are never trusted as the domain type: every field is coerced defensively.
func (s Sanitizer) Sanitize(items []map[string]any) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		name := asString(item["n"])
		comment := asString(item["c"])

		score, scoreOK := asFloat(item["s"])
		difficulty, diffOK := asFloat(item["d"])
		if !scoreOK || !diffOK {
			slog.Debug("sanitizer rejected record", slog.String("reason", "missing_score_or_difficulty"), slog.String("name", name))
			continue
		}

		if containsAnyFold(comment, s.rules.JunkPhrases) {
			slog.Debug("sanitizer rejected record", slog.String("reason", "junk_phrase"), slog.String("name", name))
			continue
		}

		upper := strings.ToUpper(name)
		if utf8.RuneCountInString(upper) < s.rules.MinNameLen || containsAny(upper, s.rules.BannedNames) {
			slog.Debug("sanitizer rejected record", slog.String("reason", "banned_or_short_name"), slog.String("name", name))
			continue
		}

		out = append(out, domain.Candidate{
			InstructorName: name,
			Comment:        comment,
			Score:          score,
			Difficulty:     int(difficulty),
			SourceID:       rawID(item["id"]),
		})
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAnyFold(s string, subs []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%g", &f); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// rawID keeps the message-id reference untouched: numbers keep their literal
// rendering, strings pass through, anything else stringifies.
func rawID(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
