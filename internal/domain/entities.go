// Package domain defines the core entities, ports, and error taxonomy of the
// review extraction pipeline.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	// ErrNoCredentials means no generation-service credentials were configured.
	// Fatal at startup; the pipeline cannot run without at least one key.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrQuotaExhausted covers provider quota errors and output truncation by
	// the token ceiling. Both escalate the model tier (and eventually the key).
	ErrQuotaExhausted = errors.New("quota exhausted")
	// ErrMalformedOutput means the model returned text that is not the expected
	// JSON array. Retryable on the same tier.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrServiceUnavailable covers network failures and 5xx-class responses.
	ErrServiceUnavailable = errors.New("generation service unavailable")
	// ErrDecodeFailed means the raw transcript bytes decoded under none of the
	// supported encodings.
	ErrDecodeFailed = errors.New("transcript decode failed")
)

// Message is one parsed chat message. OrdinalID is assigned during batch
// preprocessing as the message's position in the original parsed sequence; it
// is the only identifier the generation service ever sees and is never
// persisted.
type Message struct {
	OrdinalID int
	Timestamp string
	Author    string
	Body      string
}

// Candidate is a review extracted by the generation service, pending author
// resolution. SourceID is the raw message-id reference exactly as the model
// emitted it (usually numeric, but untrusted).
type Candidate struct {
	InstructorName string
	Comment        string
	Score          float64
	Difficulty     int
	SourceID       string
}

// Review is a sanitized candidate with its source-message id resolved back to
// the original chat author. This is the shape handed to persistence.
type Review struct {
	InstructorName string  `json:"instructor_name" validate:"required,min=4"`
	Comment        string  `json:"comment" validate:"required"`
	Score          float64 `json:"score" validate:"min=0"`
	Difficulty     int     `json:"difficulty" validate:"min=0"`
	ResolvedAuthor string  `json:"resolved_author"`
}

// FinishReason enumerates how the generation service ended a completion.
type FinishReason string

const (
	FinishNormal         FinishReason = "STOP"
	FinishLengthExceeded FinishReason = "MAX_TOKENS"
	FinishOther          FinishReason = "OTHER"
)

// GenerationRequest is one prompt submission to a specific model tier.
type GenerationRequest struct {
	Model           string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

// GenerationResponse carries the raw completion text and its finish reason.
// Callers must check FinishReason before trusting Text: a length-exceeded
// completion is truncated mid-array and must not be parsed as JSON.
type GenerationResponse struct {
	Text         string
	FinishReason FinishReason
}

// Generator (port) submits a single prompt to the generation service.
// Implementations classify failures into the sentinel taxonomy above and do
// not retry; retry and escalation belong to the orchestrator.
type Generator interface {
	Generate(ctx Context, req GenerationRequest) (GenerationResponse, error)
	// SetCredential reconfigures the active API key. Must be called after
	// every keyring rotation; the generator itself knows nothing about keys.
	SetCredential(key string)
}

// Subject is a course the reviews hang off. Chat-extracted reviews attach to a
// generic catch-all subject because the transcript carries no course context.
type Subject struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Instructor is a reviewed professor, created on first mention.
type Instructor struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// StoredReview is a persisted review row.
type StoredReview struct {
	ID           string
	InstructorID string
	SubjectID    string
	AuthorID     string
	Comment      string
	Score        float64
	Difficulty   int
	CreatedAt    time.Time
}

// CatalogRepository (port) is the persistence collaborator: entity
// lookup-or-create plus review insert. Idempotency of inserts is this
// collaborator's concern, not the pipeline's.
type CatalogRepository interface {
	FindOrCreateSubject(ctx Context, name string) (Subject, bool, error)
	FindOrCreateInstructor(ctx Context, name string) (Instructor, bool, error)
	CreateReview(ctx Context, r StoredReview) (StoredReview, error)
}

// Context is an alias so usecases and adapters share the std context type
// without the domain package growing adapter imports.
type Context = context.Context
