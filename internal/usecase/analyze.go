// Package usecase contains the chat analysis pipeline services.
package usecase

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/profescore/review-extractor/internal/adapter/observability"
	"github.com/profescore/review-extractor/internal/domain"
	obsctx "github.com/profescore/review-extractor/internal/observability"
)

// unknownAuthor is attached when a candidate's message-id resolves to nothing.
const unknownAuthor = "Desconocido"

// AnalyzeService is the batch coordinator: it filters and numbers the parsed
// messages, partitions them into fixed-size batches, runs the orchestrator per
// batch, and re-associates extracted candidates with their original authors.
type AnalyzeService struct {
	Orch *Orchestrator
	// BatchSize is the number of messages per generation call.
	BatchSize int
	// MinMessageLen filters out messages too short to carry an opinion.
	MinMessageLen int
}

// NewAnalyzeService constructs an AnalyzeService.
func NewAnalyzeService(orch *Orchestrator, batchSize, minMessageLen int) AnalyzeService {
	return AnalyzeService{Orch: orch, BatchSize: batchSize, MinMessageLen: minMessageLen}
}

// Run processes the whole message sequence and returns all resolved reviews,
// batch-then-within-batch ordered. Processing is strictly sequential: one
// in-flight generation call at a time, so quota consumption and the shared
// tier/credential state stay predictable.
func (s AnalyzeService) Run(ctx domain.Context, messages []domain.Message) []domain.Review {
	tracer := otel.Tracer("usecase.analyze")
	ctx, span := tracer.Start(ctx, "analyze.Run")
	defer span.End()

	lg := obsctx.LoggerFromContext(ctx)
	if rid := obsctx.RequestIDFromContext(ctx); rid != "" {
		span.SetAttributes(attribute.String("request_id", rid))
	}

	filtered := s.preprocess(messages)
	span.SetAttributes(
		attribute.Int("messages.total", len(messages)),
		attribute.Int("messages.filtered", len(filtered)),
	)
	lg.Info("starting chat analysis",
		slog.Int("messages", len(messages)),
		slog.Int("after_filter", len(filtered)),
		slog.Int("batch_size", s.BatchSize))

	byID := make(map[int]domain.Message, len(filtered))
	for _, m := range filtered {
		byID[m.OrdinalID] = m
	}

	var reviews []domain.Review
	for start := 0; start < len(filtered); start += s.BatchSize {
		end := start + s.BatchSize
		if end > len(filtered) {
			end = len(filtered)
		}
		batch := filtered[start:end]
		lg.Info("processing batch", slog.Int("from", start), slog.Int("to", end))

		for _, c := range s.Orch.ProcessBatch(ctx, batch) {
			reviews = append(reviews, resolveAuthor(c, byID))
		}
	}

	observability.CandidatesExtractedTotal.Add(float64(len(reviews)))
	lg.Info("chat analysis finished", slog.Int("reviews", len(reviews)))
	return reviews
}

// preprocess drops messages below the length threshold and assigns each
// survivor its ordinal id: the position in the original parsed sequence, which
// is the only identifier the model is shown.
func (s AnalyzeService) preprocess(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for i, m := range messages {
		if utf8.RuneCountInString(m.Body) <= s.MinMessageLen {
			continue
		}
		m.OrdinalID = i
		out = append(out, m)
	}
	return out
}

// resolveAuthor maps a candidate's raw message-id back to the original author.
// A numeric id is looked up by ordinal; a non-numeric id is taken as the
// author literally; a failed lookup falls back to the sentinel. The numeric id
// never leaves the run.
func resolveAuthor(c domain.Candidate, byID map[int]domain.Message) domain.Review {
	author := unknownAuthor
	raw := strings.TrimSpace(c.SourceID)
	if id, err := strconv.Atoi(raw); err == nil {
		if m, ok := byID[id]; ok {
			author = m.Author
		}
	} else if raw != "" {
		author = raw
	}
	return domain.Review{
		InstructorName: c.InstructorName,
		Comment:        c.Comment,
		Score:          c.Score,
		Difficulty:     c.Difficulty,
		ResolvedAuthor: author,
	}
}
