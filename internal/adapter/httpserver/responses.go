// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the transcript analysis endpoint and keeps HTTP concerns
// separated from the extraction pipeline.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/profescore/review-extractor/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrDecodeFailed):
		code = http.StatusBadRequest
		codeStr = "DECODE_FAILED"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrNoCredentials):
		code = http.StatusServiceUnavailable
		codeStr = "NO_CREDENTIALS"
	case errors.Is(err, domain.ErrQuotaExhausted):
		code = http.StatusServiceUnavailable
		codeStr = "QUOTA_EXHAUSTED"
	case errors.Is(err, domain.ErrServiceUnavailable):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_UNAVAILABLE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
