package registration

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Repository persists subject registrations in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one registration. Duplicate (student, subject, term) rows
// surface as ErrConflict from the unique constraint.
func (r *Repository) Insert(ctx context.Context, reg model.Registration) (model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO registrations (registration_id, student_id, subject_id, term)
		VALUES ($1, $2, $3, $4)
		RETURNING registered_at
	`, reg.RegistrationID, reg.StudentID, reg.SubjectID, reg.Term)
	if err := row.Scan(&reg.RegisteredAt); err != nil {
		return model.Registration{}, apperr.FromPG(err)
	}
	return reg, nil
}

// Get returns one registration by ID.
func (r *Repository) Get(ctx context.Context, registrationID string) (*model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT registration_id, student_id, subject_id, term, registered_at
		FROM registrations WHERE registration_id = $1
	`, registrationID)
	var reg model.Registration
	if err := row.Scan(&reg.RegistrationID, &reg.StudentID, &reg.SubjectID, &reg.Term, &reg.RegisteredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// ListForStudent returns a student's registrations.
func (r *Repository) ListForStudent(ctx context.Context, studentID string) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT registration_id, student_id, subject_id, term, registered_at
		FROM registrations WHERE student_id = $1
		ORDER BY term, subject_id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.RegistrationID, &reg.StudentID, &reg.SubjectID, &reg.Term, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// RegisteredStudents returns the distinct students registered for a subject,
// in admission-number order. This is the marking-session roster source.
func (r *Repository) RegisteredStudents(ctx context.Context, subjectID string) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT s.admission_number, s.first_name, s.last_name, s.class_level, s.parent_id, s.date_of_birth, s.gender
		FROM registrations r JOIN students s ON s.admission_number = r.student_id
		WHERE r.subject_id = $1
		ORDER BY s.admission_number
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.AdmissionNumber, &s.FirstName, &s.LastName, &s.ClassLevel, &s.ParentID, &s.DateOfBirth, &s.Gender); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a registration.
func (r *Repository) Delete(ctx context.Context, registrationID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE registration_id = $1`, registrationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("registration %s not found", registrationID)
	}
	return nil
}
