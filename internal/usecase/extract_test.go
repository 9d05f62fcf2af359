package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profescore/review-extractor/internal/domain"
	"github.com/profescore/review-extractor/internal/usecase"
)

// fakeGen scripts one response (or error) per Generate call.
type fakeGen struct {
	responses []domain.GenerationResponse
	errs      []error
	calls     int
	requests  []domain.GenerationRequest
	keysSet   []string
}

func (g *fakeGen) Generate(_ domain.Context, req domain.GenerationRequest) (domain.GenerationResponse, error) {
	g.requests = append(g.requests, req)
	i := g.calls
	g.calls++
	var resp domain.GenerationResponse
	var err error
	if i < len(g.responses) {
		resp = g.responses[i]
	}
	if i < len(g.errs) {
		err = g.errs[i]
	}
	return resp, err
}

func (g *fakeGen) SetCredential(key string) { g.keysSet = append(g.keysSet, key) }

func okResp(text string) domain.GenerationResponse {
	return domain.GenerationResponse{Text: text, FinishReason: domain.FinishNormal}
}

func newExtractor(gen domain.Generator) usecase.Extractor {
	return usecase.NewExtractor(gen, usecase.NewSanitizer(usecase.DefaultRules()), 1024)
}

func batchOf(bodies ...string) []domain.Message {
	msgs := make([]domain.Message, 0, len(bodies))
	for i, b := range bodies {
		msgs = append(msgs, domain.Message{OrdinalID: i, Author: "Ana", Body: b})
	}
	return msgs
}

func TestExtract_ParsesAndSanitizes(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{responses: []domain.GenerationResponse{
		okResp(`[{"n":"GALLARDO","c":"explica muy bien","s":9,"d":4,"id":0}]`),
	}}
	ex := newExtractor(gen)

	out, err := ex.Extract(context.Background(), "m1", batchOf("El profe Gallardo explica muy bien"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "GALLARDO", out[0].InstructorName)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, "m1", gen.requests[0].Model)
	assert.Equal(t, float64(0), gen.requests[0].Temperature)
	assert.Equal(t, 1024, gen.requests[0].MaxOutputTokens)
	assert.Contains(t, gen.requests[0].Prompt, "[0] Ana: El profe Gallardo explica muy bien")
}

func TestExtract_StripsCodeFences(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{responses: []domain.GenerationResponse{
		okResp("```json\n[{\"n\":\"GALLARDO\",\"c\":\"buen profe\",\"s\":8,\"d\":3,\"id\":0}]\n```"),
	}}
	ex := newExtractor(gen)

	out, err := ex.Extract(context.Background(), "m1", batchOf("x"))
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestExtract_IgnoresSurroundingCommentary(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{responses: []domain.GenerationResponse{
		okResp(`Aquí están las reseñas: [{"n":"GALLARDO","c":"buen profe","s":8,"d":3,"id":0}] espero sirva`),
	}}
	ex := newExtractor(gen)

	out, err := ex.Extract(context.Background(), "m1", batchOf("x"))
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestExtract_EmptyArrayIsSuccess(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"[]", "", "```json\n[]\n```"} {
		gen := &fakeGen{responses: []domain.GenerationResponse{okResp(text)}}
		ex := newExtractor(gen)

		out, err := ex.Extract(context.Background(), "m1", batchOf("x"))
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestExtract_TruncationIsQuotaClass(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{responses: []domain.GenerationResponse{
		{Text: `[{"n":"GALL`, FinishReason: domain.FinishLengthExceeded},
	}}
	ex := newExtractor(gen)

	_, err := ex.Extract(context.Background(), "m1", batchOf("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
}

func TestExtract_UnparseableJSONIsMalformed(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{responses: []domain.GenerationResponse{
		okResp(`[{"n": "GALLARDO", "c": truncated`),
	}}
	ex := newExtractor(gen)

	_, err := ex.Extract(context.Background(), "m1", batchOf("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestExtract_GeneratorErrorPassesThrough(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{errs: []error{domain.ErrServiceUnavailable}}
	ex := newExtractor(gen)

	_, err := ex.Extract(context.Background(), "m1", batchOf("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}
