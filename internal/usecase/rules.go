package usecase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules configures the sanitizer's hallucination filter. The model has no
// grounding beyond the batch text, so it occasionally emits institutional
// boilerplate or department acronyms where a person's name belongs; these
// lists catch that empirically.
type Rules struct {
	// BannedNames are placeholder tokens rejected as case-insensitive
	// substrings of the (uppercased) instructor name.
	BannedNames []string `yaml:"banned_names"`
	// JunkPhrases are "no-answer" phrases rejected as case-insensitive
	// substrings of the comment.
	JunkPhrases []string `yaml:"junk_phrases"`
	// MinNameLen is the minimum instructor name length in runes.
	MinNameLen int `yaml:"min_name_len"`
}

// DefaultRules returns the reference rule set.
func DefaultRules() Rules {
	return Rules{
		BannedNames: []string{
			"PROFESOR", "AYDA", "BASE DE DATOS", "CALCULO", "ESIME",
			"ESCOM", "GOD", "DESCONOCIDO", "ALGUIEN", "REINAS",
		},
		JunkPhrases: []string{
			"sin respuesta", "preguntado por", "nadie contestó",
			"no hay información", "se desconoce",
		},
		MinNameLen: 4,
	}
}

// LoadRules reads a YAML rules file, falling back to the defaults for any
// field the file leaves empty. An empty path means the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	def := DefaultRules()
	if path == "" {
		return def, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("op=rules.Load: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("op=rules.Load: %w", err)
	}
	if len(r.BannedNames) == 0 {
		r.BannedNames = def.BannedNames
	}
	if len(r.JunkPhrases) == 0 {
		r.JunkPhrases = def.JunkPhrases
	}
	if r.MinNameLen <= 0 {
		r.MinNameLen = def.MinNameLen
	}
	return r, nil
}
