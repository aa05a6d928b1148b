package grades

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Repository persists grade rows in Postgres. The letter is derived from the
// stored scores on read, never stored.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func fill(g *model.Grade) {
	g.Total = g.CAScore + g.ExamScore
	g.Letter = model.LetterFor(g.Total)
}

// Upsert writes one grade keyed by (student, subject, term).
func (r *Repository) Upsert(ctx context.Context, g model.Grade) (model.Grade, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO grades (grade_id, student_id, subject_id, term, ca_score, exam_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, subject_id, term)
		DO UPDATE SET ca_score = EXCLUDED.ca_score, exam_score = EXCLUDED.exam_score
		RETURNING grade_id
	`, g.GradeID, g.StudentID, g.SubjectID, g.Term, g.CAScore, g.ExamScore)
	if err := row.Scan(&g.GradeID); err != nil {
		return model.Grade{}, apperr.FromPG(err)
	}
	fill(&g)
	return g, nil
}

// Get returns one grade by ID.
func (r *Repository) Get(ctx context.Context, gradeID string) (*model.Grade, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT grade_id, student_id, subject_id, term, ca_score, exam_score
		FROM grades WHERE grade_id = $1
	`, gradeID)
	var g model.Grade
	if err := row.Scan(&g.GradeID, &g.StudentID, &g.SubjectID, &g.Term, &g.CAScore, &g.ExamScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	fill(&g)
	return &g, nil
}

// ListForSubjects returns grades for the given subjects.
func (r *Repository) ListForSubjects(ctx context.Context, subjectIDs []string) ([]model.Grade, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT grade_id, student_id, subject_id, term, ca_score, exam_score
		FROM grades WHERE subject_id = ANY($1)
		ORDER BY term, subject_id, student_id
	`, subjectIDs)
}

// ListForStudents returns grades for the given students.
func (r *Repository) ListForStudents(ctx context.Context, studentIDs []string) ([]model.Grade, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT grade_id, student_id, subject_id, term, ca_score, exam_score
		FROM grades WHERE student_id = ANY($1)
		ORDER BY term, subject_id, student_id
	`, studentIDs)
}

// Delete removes a grade.
func (r *Repository) Delete(ctx context.Context, gradeID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE grade_id = $1`, gradeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("grade %s not found", gradeID)
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.Grade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Grade
	for rows.Next() {
		var g model.Grade
		if err := rows.Scan(&g.GradeID, &g.StudentID, &g.SubjectID, &g.Term, &g.CAScore, &g.ExamScore); err != nil {
			return nil, err
		}
		fill(&g)
		out = append(out, g)
	}
	return out, rows.Err()
}
