package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/profescore/review-extractor/internal/adapter/ai/tokencount"
	"github.com/profescore/review-extractor/internal/domain"
)

// arrayRe extracts the first top-level bracketed array, defensive against
// commentary the model sometimes emits around it despite JSON output mode.
var arrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// Extractor performs a single extraction attempt for one batch: prompt
// construction, submission, and response interpretation. No retry lives here;
// failures are classified into the domain sentinels for the orchestrator.
type Extractor struct {
	Gen             domain.Generator
	Sanitizer       Sanitizer
	MaxOutputTokens int
}

// NewExtractor constructs an Extractor.
func NewExtractor(gen domain.Generator, s Sanitizer, maxOutputTokens int) Extractor {
	return Extractor{Gen: gen, Sanitizer: s, MaxOutputTokens: maxOutputTokens}
}

// Extract submits one batch to the given model tier and returns the sanitized
// candidates. An empty result is success, not an error.
func (e Extractor) Extract(ctx domain.Context, model string, batch []domain.Message) ([]domain.Candidate, error) {
	prompt := buildPrompt(batch)
	slog.Debug("submitting batch",
		slog.String("model", model),
		slog.Int("messages", len(batch)),
		slog.Int("prompt_tokens_est", tokencount.Estimate(prompt)))

	resp, err := e.Gen.Generate(ctx, domain.GenerationRequest{
		Model:           model,
		Prompt:          prompt,
		Temperature:     0,
		MaxOutputTokens: e.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	// A length-exceeded completion is cut mid-array; parsing it would yield
	// garbage. Treat it like quota exhaustion so the orchestrator escalates.
	if resp.FinishReason == domain.FinishLengthExceeded {
		return nil, fmt.Errorf("op=extract: output truncated at token ceiling: %w", domain.ErrQuotaExhausted)
	}

	clean := stripFences(resp.Text)
	if m := arrayRe.FindString(clean); m != "" {
		clean = m
	}
	if clean == "" || clean == "[]" {
		return nil, nil
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("op=extract: %v: %w", err, domain.ErrMalformedOutput)
	}

	return e.Sanitizer.Sanitize(items), nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// buildPrompt renders the batch as "[id] author: body" lines inside a compact
// instruction. Short JSON keys keep output token usage down, which matters
// with a hard output ceiling.
func buildPrompt(batch []domain.Message) string {
	lines := make([]string, 0, len(batch))
	for _, m := range batch {
		lines = append(lines, fmt.Sprintf("[%d] %s: %s", m.OrdinalID, m.Author, m.Body))
	}

	var b strings.Builder
	b.WriteString("ANALISTA: Extrae reseñas de profesores. IGNORA preguntas.\n")
	b.WriteString("CHAT:\n---\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n---\n\n")
	b.WriteString("REGLAS:\n")
	b.WriteString("1. SI NO HAY OPINIÓN CLARA O ES PREGUNTA: IGNORAR.\n")
	b.WriteString("2. FORMATO JSON COMPACTO (Ahorra tokens):\n")
	b.WriteString("   \"n\": Nombre Profesor (Normalizado)\n")
	b.WriteString("   \"c\": Comentario (Resumido)\n")
	b.WriteString("   \"s\": Score/Calificación (1-10)\n")
	b.WriteString("   \"d\": Dificultad (1-10)\n")
	b.WriteString("   \"id\": ID del mensaje original\n\n")
	b.WriteString("EJEMPLO:\n[\n  {\"n\": \"Lopez Juan\", \"c\": \"Es barco\", \"s\": 10, \"d\": 1, \"id\": 45}\n]\n")
	return b.String()
}
