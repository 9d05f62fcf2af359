package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/profescore/review-extractor/internal/domain"
)

// CatalogRepo persists subjects, instructors, and reviews using a minimal
// pgx pool.
type CatalogRepo struct{ Pool PgxPool }

// PgxPool is a minimal subset of pgxpool used by the repo for easy testing.
type PgxPool interface {
	Exec(ctx domain.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx domain.Context, sql string, args ...any) pgx.Row
	Query(ctx domain.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewCatalogRepo constructs a CatalogRepo with the given pool.
func NewCatalogRepo(p PgxPool) *CatalogRepo { return &CatalogRepo{Pool: p} }

// FindOrCreateSubject looks a subject up by name and inserts it when absent.
// The second return reports whether a row was created.
func (r *CatalogRepo) FindOrCreateSubject(ctx domain.Context, name string) (domain.Subject, bool, error) {
	tracer := otel.Tracer("repo.catalog")
	ctx, span := tracer.Start(ctx, "catalog.FindOrCreateSubject")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "subjects"),
	)
	var s domain.Subject
	q := `SELECT id, name, created_at FROM subjects WHERE name=$1`
	err := r.Pool.QueryRow(ctx, q, name).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Subject{}, false, fmt.Errorf("op=subject.find: %w", err)
	}
	s = domain.Subject{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	ins := `INSERT INTO subjects (id, name, created_at) VALUES ($1,$2,$3)`
	if _, err := r.Pool.Exec(ctx, ins, s.ID, s.Name, s.CreatedAt); err != nil {
		return domain.Subject{}, false, fmt.Errorf("op=subject.create: %w", err)
	}
	return s, true, nil
}

// FindOrCreateInstructor looks an instructor up by name and inserts it when
// absent. The second return reports whether a row was created.
func (r *CatalogRepo) FindOrCreateInstructor(ctx domain.Context, name string) (domain.Instructor, bool, error) {
	tracer := otel.Tracer("repo.catalog")
	ctx, span := tracer.Start(ctx, "catalog.FindOrCreateInstructor")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "instructors"),
	)
	var in domain.Instructor
	q := `SELECT id, name, created_at FROM instructors WHERE name=$1`
	err := r.Pool.QueryRow(ctx, q, name).Scan(&in.ID, &in.Name, &in.CreatedAt)
	if err == nil {
		return in, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Instructor{}, false, fmt.Errorf("op=instructor.find: %w", err)
	}
	in = domain.Instructor{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	ins := `INSERT INTO instructors (id, name, created_at) VALUES ($1,$2,$3)`
	if _, err := r.Pool.Exec(ctx, ins, in.ID, in.Name, in.CreatedAt); err != nil {
		return domain.Instructor{}, false, fmt.Errorf("op=instructor.create: %w", err)
	}
	return in, true, nil
}

// CreateReview stores a review row and returns it with its generated id.
func (r *CatalogRepo) CreateReview(ctx domain.Context, rev domain.StoredReview) (domain.StoredReview, error) {
	tracer := otel.Tracer("repo.catalog")
	ctx, span := tracer.Start(ctx, "catalog.CreateReview")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "reviews"),
	)
	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO reviews (id, instructor_id, subject_id, author_id, comment, score, difficulty, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.Pool.Exec(ctx, q, rev.ID, rev.InstructorID, rev.SubjectID, rev.AuthorID, rev.Comment, rev.Score, rev.Difficulty, rev.CreatedAt)
	if err != nil {
		return domain.StoredReview{}, fmt.Errorf("op=review.create: %w", err)
	}
	return rev, nil
}
