// Package gemini implements the domain.Generator port against the Google
// Generative Language REST API.
package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/profescore/review-extractor/internal/adapter/observability"
	"github.com/profescore/review-extractor/internal/config"
	"github.com/profescore/review-extractor/internal/domain"
)

// Client submits single generation requests. It performs no retries: failure
// classification is its whole job, escalation belongs to the orchestrator.
type Client struct {
	baseURL string
	hc      *http.Client
	// key is the active credential. Mutated only via SetCredential after a
	// keyring rotation; the run is strictly sequential so no lock is held.
	key string
}

// New constructs a Client with the first credential from the keyring.
func New(cfg config.Config, key string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.GeminiBaseURL, "/"),
		hc: &http.Client{
			Timeout:   cfg.GeminiTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		key: key,
	}
}

// SetCredential swaps the active API key.
func (c *Client) SetCredential(key string) { c.key = key }

// Request/response wire types for models/{model}:generateContent.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// allowAll disables every safety category. The input is informal chat text
// that routinely trips harassment/hate classifiers and must still be analyzed.
var allowAll = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate performs one generateContent call and classifies its outcome into
// the domain error taxonomy.
func (c *Client) Generate(ctx domain.Context, req domain.GenerationRequest) (domain.GenerationResponse, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      req.Temperature,
			MaxOutputTokens:  req.MaxOutputTokens,
			ResponseMimeType: "application/json",
		},
		SafetySettings: allowAll,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.marshal: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, req.Model, c.key)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.request: %w", err)
	}
	r.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(r)
	observability.GenRequestDuration.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.GenRequestsTotal.WithLabelValues(req.Model, "network_error").Inc()
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.generate: %v: %w", err, domain.ErrServiceUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.GenRequestsTotal.WithLabelValues(req.Model, "read_error").Inc()
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.read: %v: %w", err, domain.ErrServiceUnavailable)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		observability.GenRequestsTotal.WithLabelValues(req.Model, "quota").Inc()
		slog.Warn("gemini quota exhausted", slog.String("model", req.Model), slog.Int("status", resp.StatusCode))
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.generate: status 429: %w", domain.ErrQuotaExhausted)
	}
	if resp.StatusCode >= 500 {
		observability.GenRequestsTotal.WithLabelValues(req.Model, "server_error").Inc()
		slog.Error("gemini server error", slog.String("model", req.Model), slog.Int("status", resp.StatusCode), slog.String("body", snippet(raw)))
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.generate: status %d: %w", resp.StatusCode, domain.ErrServiceUnavailable)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		observability.GenRequestsTotal.WithLabelValues(req.Model, "decode_error").Inc()
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.decode: %v: %w", err, domain.ErrServiceUnavailable)
	}

	if out.Error != nil {
		if out.Error.Status == "RESOURCE_EXHAUSTED" {
			observability.GenRequestsTotal.WithLabelValues(req.Model, "quota").Inc()
			return domain.GenerationResponse{}, fmt.Errorf("op=gemini.generate: %s: %w", out.Error.Message, domain.ErrQuotaExhausted)
		}
		observability.GenRequestsTotal.WithLabelValues(req.Model, "api_error").Inc()
		slog.Error("gemini api error", slog.String("model", req.Model), slog.String("status", out.Error.Status), slog.String("message", out.Error.Message))
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.generate: %s: %w", out.Error.Message, domain.ErrServiceUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		observability.GenRequestsTotal.WithLabelValues(req.Model, "api_error").Inc()
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.generate: status %d: %s: %w", resp.StatusCode, snippet(raw), domain.ErrServiceUnavailable)
	}
	if len(out.Candidates) == 0 {
		observability.GenRequestsTotal.WithLabelValues(req.Model, "empty").Inc()
		return domain.GenerationResponse{}, fmt.Errorf("op=gemini.generate: no candidates: %w", domain.ErrMalformedOutput)
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	observability.GenRequestsTotal.WithLabelValues(req.Model, "ok").Inc()
	return domain.GenerationResponse{
		Text:         text.String(),
		FinishReason: mapFinishReason(out.Candidates[0].FinishReason),
	}, nil
}

func mapFinishReason(s string) domain.FinishReason {
	switch s {
	case "STOP", "":
		return domain.FinishNormal
	case "MAX_TOKENS":
		return domain.FinishLengthExceeded
	default:
		return domain.FinishOther
	}
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
