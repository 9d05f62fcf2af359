package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/profescore/review-extractor/internal/config"
	"github.com/profescore/review-extractor/internal/domain"
	"github.com/profescore/review-extractor/internal/transcript"
	"github.com/profescore/review-extractor/internal/usecase"
	"github.com/profescore/review-extractor/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg     config.Config
	Analyze usecase.AnalyzeService
	Save    usecase.SaveService
	DBCheck func(ctx domain.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, analyze usecase.AnalyzeService, save usecase.SaveService, dbCheck func(domain.Context) error) *Server {
	return &Server{Cfg: cfg, Analyze: analyze, Save: save, DBCheck: dbCheck}
}

// allowedExt enforces an allowlist for uploads: exported WhatsApp chats are
// plain .txt files.
func allowedExt(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".txt")
}

// allowedMIME accepts any text/* sniff. Latin-1 exports are sometimes
// misdetected as octet-stream, so that is tolerated too and left to the
// decoder to reject.
func allowedMIME(m string) bool {
	m = strings.ToLower(m)
	return strings.HasPrefix(m, "text/") || strings.HasPrefix(m, "application/octet-stream")
}

type analysisResponse struct {
	Reviews        []domain.Review `json:"reviews"`
	SavedCount     int             `json:"saved_count"`
	NewInstructors int             `json:"new_instructors"`
	MessageCount   int             `json:"message_count"`
}

// AnalysisHandler accepts a WhatsApp transcript upload, runs the extraction
// pipeline synchronously, and persists the surviving reviews.
func (s *Server) AnalysisHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
			writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a}}})
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB}}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("transcript")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: transcript file required", domain.ErrInvalidArgument), map[string]string{"field": "transcript"})
			return
		}
		defer func() { _ = file.Close() }()

		raw, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: transcript read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		if !allowedExt(header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "unsupported media type (extension)", Details: map[string]any{"filename": header.Filename}}})
			return
		}
		sniffed := mimetype.Detect(raw)
		if !allowedMIME(sniffed.String()) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "unsupported media type (content)", Details: map[string]any{"mime": sniffed.String(), "filename": header.Filename}}})
			return
		}

		text, err := textx.DecodeText(raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("transcript decode: %w", err), nil)
			return
		}

		messages := transcript.Parse(textx.SanitizeText(text))
		lg := LoggerFrom(r)
		lg.Info("transcript parsed",
			"filename", header.Filename,
			"bytes", len(raw),
			"messages", len(messages))

		ctx := r.Context()
		reviews := filterValid(lg, s.Analyze.Run(ctx, messages))
		res, err := s.Save.Save(ctx, reviews)
		if err != nil {
			writeError(w, r, fmt.Errorf("save reviews: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, analysisResponse{
			Reviews:        reviews,
			SavedCount:     len(res.Saved),
			NewInstructors: res.NewInstructors,
			MessageCount:   len(messages),
		})
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyHandler reports readiness, checking the database when wired.
func (s *Server) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DBCheck != nil {
			if err := s.DBCheck(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
