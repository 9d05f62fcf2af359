package usecase

import (
	"errors"
	"log/slog"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/profescore/review-extractor/internal/adapter/observability"
	"github.com/profescore/review-extractor/internal/domain"
	"github.com/profescore/review-extractor/internal/service/keyring"
)

// Orchestrator drives the Extractor through a bounded retry loop that
// escalates across model tiers and, on exhausting them, rotates credentials.
//
// Tiers are ordered cheapest first: each credential burns through the cheap
// tier before the expensive one, and only when every tier has failed on a
// credential is the credential itself considered exhausted.
type Orchestrator struct {
	Extractor Extractor
	Keys      *keyring.Keyring
	Models    []string
	// MaxAttempts bounds total attempts per batch across every tier and key.
	MaxAttempts int

	malformedBO backoff.BackOff
	serviceBO   backoff.BackOff

	sleep func(time.Duration) // test seam
}

// NewOrchestrator constructs an Orchestrator with constant per-class backoffs.
// Malformed JSON gets a shorter pause than service errors: a confused model is
// worth re-asking quickly, a struggling service is not.
func NewOrchestrator(ex Extractor, keys *keyring.Keyring, models []string, maxAttempts int, malformedBackoff, serviceBackoff time.Duration) *Orchestrator {
	return &Orchestrator{
		Extractor:   ex,
		Keys:        keys,
		Models:      models,
		MaxAttempts: maxAttempts,
		malformedBO: backoff.NewConstantBackOff(malformedBackoff),
		serviceBO:   backoff.NewConstantBackOff(serviceBackoff),
		sleep:       time.Sleep,
	}
}

// ProcessBatch runs the retry loop for one batch. It returns the first clean
// result, or an empty slice once the attempt ceiling is reached. Exhaustion is
// silent to the caller: a batch that cannot be analyzed contributes zero
// candidates instead of aborting the run.
func (o *Orchestrator) ProcessBatch(ctx domain.Context, batch []domain.Message) []domain.Candidate {
	tier := 0
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		model := o.Models[tier]
		candidates, err := o.Extractor.Extract(ctx, model, batch)
		if err == nil {
			observability.BatchesTotal.WithLabelValues("ok").Inc()
			return candidates
		}

		switch {
		case errors.Is(err, domain.ErrQuotaExhausted):
			slog.Warn("quota or truncation on tier",
				slog.String("model", model),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			if tier < len(o.Models)-1 {
				tier++
				slog.Info("escalating model tier", slog.String("model", o.Models[tier]))
				o.sleep(o.malformedBO.NextBackOff())
			} else {
				// Every tier failed on this key: the key is spent.
				newKey := o.Keys.Rotate()
				o.Extractor.Gen.SetCredential(newKey)
				observability.KeyRotationsTotal.Inc()
				tier = 0
				o.sleep(o.serviceBO.NextBackOff())
			}
		case errors.Is(err, domain.ErrMalformedOutput):
			slog.Warn("malformed model output, retrying",
				slog.String("model", model),
				slog.Int("attempt", attempt))
			o.sleep(o.malformedBO.NextBackOff())
		default:
			slog.Warn("generation service error, retrying",
				slog.String("model", model),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			o.sleep(o.serviceBO.NextBackOff())
		}
	}

	slog.Error("batch exhausted retry ceiling, dropping",
		slog.Int("max_attempts", o.MaxAttempts),
		slog.Int("messages", len(batch)))
	observability.BatchesTotal.WithLabelValues("exhausted").Inc()
	return nil
}
