package attendance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Repository persists attendance rows in Postgres. The natural key
// (student_id, subject_id, attended_on) carries a uniqueness constraint, so
// the upsert is a single atomic statement rather than check-then-act.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `
	a.attendance_id, a.student_id, a.subject_id, a.attended_on, a.status,
	s.first_name || ' ' || s.last_name, a.created_at, a.updated_at`

// Upsert writes one attendance record. When a row already exists for the
// natural key its status is updated in place and the stored ID is kept; the
// boolean reports whether a new row was created.
func (r *Repository) Upsert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (attendance_id, student_id, subject_id, attended_on, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, subject_id, attended_on)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING attendance_id, created_at, updated_at, (xmax = 0) AS inserted
	`, rec.AttendanceID, rec.StudentID, rec.SubjectID, rec.Date, rec.Status)
	var inserted bool
	if err := row.Scan(&rec.AttendanceID, &rec.CreatedAt, &rec.UpdatedAt, &inserted); err != nil {
		return model.AttendanceRecord{}, false, apperr.FromPG(err)
	}
	return rec, inserted, nil
}

// Get returns one record with the student name embedded.
func (r *Repository) Get(ctx context.Context, attendanceID string) (*model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance a JOIN students s ON s.admission_number = a.student_id
		WHERE a.attendance_id = $1
	`, attendanceID)
	var rec model.AttendanceRecord
	if err := row.Scan(&rec.AttendanceID, &rec.StudentID, &rec.SubjectID, &rec.Date, &rec.Status, &rec.StudentName, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListForSubjects returns all records of the given subjects, newest first,
// students in admission-number order within a day.
func (r *Repository) ListForSubjects(ctx context.Context, subjectIDs []string) ([]model.AttendanceRecord, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+recordColumns+`
		FROM attendance a JOIN students s ON s.admission_number = a.student_id
		WHERE a.subject_id = ANY($1)
		ORDER BY a.attended_on DESC, a.student_id ASC
	`, subjectIDs)
}

// ListForStudents returns all records of the given students, newest first.
func (r *Repository) ListForStudents(ctx context.Context, studentIDs []string) ([]model.AttendanceRecord, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+recordColumns+`
		FROM attendance a JOIN students s ON s.admission_number = a.student_id
		WHERE a.student_id = ANY($1)
		ORDER BY a.attended_on DESC, a.subject_id ASC
	`, studentIDs)
}

// MarkedStudentIDs returns the students who already have a record for the
// subject on the given day. Those are excluded from a marking session.
func (r *Repository) MarkedStudentIDs(ctx context.Context, subjectID string, date string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id FROM attendance
		WHERE subject_id = $1 AND attended_on = $2
		ORDER BY student_id
	`, subjectID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpdateStatus rewrites a record's status.
func (r *Repository) UpdateStatus(ctx context.Context, attendanceID string, status model.AttendanceStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET status = $2, updated_at = NOW() WHERE attendance_id = $1
	`, attendanceID, status)
	if err != nil {
		return apperr.FromPG(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("attendance record %s not found", attendanceID)
	}
	return nil
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, attendanceID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE attendance_id = $1`, attendanceID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("attendance record %s not found", attendanceID)
	}
	return nil
}

// IDExists reports whether an attendance ID is already taken.
func (r *Repository) IDExists(ctx context.Context, attendanceID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM attendance WHERE attendance_id = $1`, attendanceID).Scan(&n)
	return n > 0, err
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.AttendanceID, &rec.StudentID, &rec.SubjectID, &rec.Date, &rec.Status, &rec.StudentName, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
