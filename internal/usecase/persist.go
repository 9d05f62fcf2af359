package usecase

import (
	"fmt"
	"log/slog"

	"github.com/profescore/review-extractor/internal/domain"
)

// SaveService is the persistence loop around the pipeline's output: it
// attaches every extracted review to the generic subject, creates unseen
// instructors on the fly, and tolerates individual insert failures.
type SaveService struct {
	Catalog domain.CatalogRepository
	// SubjectName is the catch-all subject; the chat carries no course info.
	SubjectName string
	// AuthorID attributes the stored rows to a fixed system user.
	AuthorID string
}

// SaveResult summarizes one persistence pass.
type SaveResult struct {
	Saved          []domain.StoredReview
	NewInstructors int
}

// NewSaveService constructs a SaveService.
func NewSaveService(c domain.CatalogRepository, subjectName, authorID string) SaveService {
	return SaveService{Catalog: c, SubjectName: subjectName, AuthorID: authorID}
}

// Save persists the extracted reviews. The subject lookup failing is fatal
// (nothing can be attached), but a single review failing to insert is logged
// and skipped: partial results beat total failure.
func (s SaveService) Save(ctx domain.Context, reviews []domain.Review) (SaveResult, error) {
	subject, _, err := s.Catalog.FindOrCreateSubject(ctx, s.SubjectName)
	if err != nil {
		return SaveResult{}, fmt.Errorf("op=save.subject: %w", err)
	}

	var res SaveResult
	for _, r := range reviews {
		instructor, created, err := s.Catalog.FindOrCreateInstructor(ctx, r.InstructorName)
		if err != nil {
			slog.Error("instructor lookup failed, skipping review",
				slog.String("instructor", r.InstructorName), slog.Any("error", err))
			continue
		}
		if created {
			slog.Info("new instructor detected", slog.String("name", instructor.Name))
			res.NewInstructors++
		}

		score := r.Score
		if score > 10 {
			score = 10
		}

		// Provenance trailer so a stored review stays traceable to its chat
		// origin after the ordinal ids are gone.
		comment := fmt.Sprintf("%s\n(Fuente: Chat WhatsApp - %s)", r.Comment, r.ResolvedAuthor)

		saved, err := s.Catalog.CreateReview(ctx, domain.StoredReview{
			InstructorID: instructor.ID,
			SubjectID:    subject.ID,
			AuthorID:     s.AuthorID,
			Comment:      comment,
			Score:        score,
			Difficulty:   r.Difficulty,
		})
		if err != nil {
			slog.Error("review insert failed, skipping",
				slog.String("instructor", r.InstructorName), slog.Any("error", err))
			continue
		}
		res.Saved = append(res.Saved, saved)
	}
	return res, nil
}
