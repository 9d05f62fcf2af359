package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profescore/review-extractor/internal/domain"
	"github.com/profescore/review-extractor/internal/service/keyring"
	"github.com/profescore/review-extractor/internal/usecase"
)

func newOrch(t *testing.T, gen domain.Generator, models []string, maxAttempts int) *usecase.Orchestrator {
	t.Helper()
	keys, err := keyring.New([]string{"key-a", "key-b"})
	require.NoError(t, err)
	ex := usecase.NewExtractor(gen, usecase.NewSanitizer(usecase.DefaultRules()), 1024)
	return usecase.NewOrchestrator(ex, keys, models, maxAttempts, time.Millisecond, 2*time.Millisecond)
}

func TestProcessBatch_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{responses: []domain.GenerationResponse{
		okResp(`[{"n":"GALLARDO","c":"buen profe","s":8,"d":3,"id":0}]`),
	}}
	o := newOrch(t, gen, []string{"cheap", "expensive"}, 5)

	out := o.ProcessBatch(context.Background(), batchOf("x"))
	require.Len(t, out, 1)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "cheap", gen.requests[0].Model)
	assert.Empty(t, gen.keysSet)
}

func TestProcessBatch_QuotaEscalatesTierBeforeRotating(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{
		errs: []error{domain.ErrQuotaExhausted, nil},
		responses: []domain.GenerationResponse{
			{},
			okResp(`[{"n":"GALLARDO","c":"buen profe","s":8,"d":3,"id":0}]`),
		},
	}
	o := newOrch(t, gen, []string{"cheap", "expensive"}, 5)

	out := o.ProcessBatch(context.Background(), batchOf("x"))
	require.Len(t, out, 1)
	require.Len(t, gen.requests, 2)
	assert.Equal(t, "cheap", gen.requests[0].Model)
	assert.Equal(t, "expensive", gen.requests[1].Model)
	assert.Empty(t, gen.keysSet, "rotation must wait until every tier failed")
}

func TestProcessBatch_RotatesKeyAfterAllTiersFail(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{
		errs: []error{domain.ErrQuotaExhausted, domain.ErrQuotaExhausted, nil},
		responses: []domain.GenerationResponse{
			{}, {},
			okResp(`[{"n":"GALLARDO","c":"buen profe","s":8,"d":3,"id":0}]`),
		},
	}
	o := newOrch(t, gen, []string{"cheap", "expensive"}, 5)

	out := o.ProcessBatch(context.Background(), batchOf("x"))
	require.Len(t, out, 1)
	require.Equal(t, []string{"key-b"}, gen.keysSet)
	// After rotation the tier resets to the cheapest model.
	assert.Equal(t, "cheap", gen.requests[2].Model)
}

func TestProcessBatch_MalformedRetriesSameTier(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{
		errs: []error{domain.ErrMalformedOutput, nil},
		responses: []domain.GenerationResponse{
			{},
			okResp(`[{"n":"GALLARDO","c":"buen profe","s":8,"d":3,"id":0}]`),
		},
	}
	o := newOrch(t, gen, []string{"cheap", "expensive"}, 5)

	out := o.ProcessBatch(context.Background(), batchOf("x"))
	require.Len(t, out, 1)
	assert.Equal(t, "cheap", gen.requests[1].Model)
	assert.Empty(t, gen.keysSet)
}

func TestProcessBatch_ServiceErrorRetriesSameTier(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{
		errs: []error{domain.ErrServiceUnavailable, nil},
		responses: []domain.GenerationResponse{
			{},
			okResp(`[{"n":"GALLARDO","c":"buen profe","s":8,"d":3,"id":0}]`),
		},
	}
	o := newOrch(t, gen, []string{"cheap", "expensive"}, 5)

	out := o.ProcessBatch(context.Background(), batchOf("x"))
	require.Len(t, out, 1)
	assert.Equal(t, "cheap", gen.requests[1].Model)
}

func TestProcessBatch_ExhaustionReturnsEmpty(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{errs: []error{
		domain.ErrServiceUnavailable,
		domain.ErrServiceUnavailable,
		domain.ErrServiceUnavailable,
	}}
	o := newOrch(t, gen, []string{"cheap"}, 3)

	out := o.ProcessBatch(context.Background(), batchOf("x"))
	assert.Empty(t, out)
	assert.Equal(t, 3, gen.calls)
}

func TestProcessBatch_SingleTierQuotaRotatesImmediately(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{
		errs: []error{domain.ErrQuotaExhausted, nil},
		responses: []domain.GenerationResponse{
			{},
			okResp(`[{"n":"GALLARDO","c":"buen profe","s":8,"d":3,"id":0}]`),
		},
	}
	o := newOrch(t, gen, []string{"cheap"}, 5)

	out := o.ProcessBatch(context.Background(), batchOf("x"))
	require.Len(t, out, 1)
	assert.Equal(t, []string{"key-b"}, gen.keysSet)
}
