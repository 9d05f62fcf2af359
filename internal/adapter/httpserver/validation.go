package httpserver

import (
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/profescore/review-extractor/internal/domain"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// filterValid drops reviews that fail struct validation. The sanitizer
// enforces the naming rules upstream; this is the last gate before rows are
// written, catching out-of-range scores the model occasionally emits.
func filterValid(lg *slog.Logger, reviews []domain.Review) []domain.Review {
	out := make([]domain.Review, 0, len(reviews))
	for _, rv := range reviews {
		if err := getValidator().Struct(rv); err != nil {
			lg.Warn("review failed validation",
				"instructor", rv.InstructorName,
				"error", err.Error())
			continue
		}
		out = append(out, rv)
	}
	return out
}
