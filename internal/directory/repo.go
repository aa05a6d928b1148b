// Package directory resolves authenticated identities to their role profiles
// and serves the shared reference lookups (classes, subjects, teachers,
// students). A person's ID doubles as the key into whichever profile table
// applies, so every resolution is a join off the people table.
package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Xstatic72/alphasis/internal/model"
)

// Repository persists directory data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// personRow carries the password hash alongside the public person fields.
type personRow struct {
	model.Person
	PasswordHash string
}

func (r *Repository) getPerson(ctx context.Context, personID string) (*personRow, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT person_id, first_name, last_name, password_hash, created_at
		FROM people WHERE person_id = $1
	`, personID)
	var p personRow
	if err := row.Scan(&p.PersonID, &p.FirstName, &p.LastName, &p.PasswordHash, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetTeacher returns the teacher profile joined with its person row.
func (r *Repository) GetTeacher(ctx context.Context, teacherID string) (*model.Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.teacher_id, p.first_name, p.last_name, t.phone
		FROM teachers t JOIN people p ON p.person_id = t.teacher_id
		WHERE t.teacher_id = $1
	`, teacherID)
	var t model.Teacher
	if err := row.Scan(&t.TeacherID, &t.FirstName, &t.LastName, &t.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// GetStudent returns a student by admission number.
func (r *Repository) GetStudent(ctx context.Context, admissionNumber string) (*model.Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT admission_number, first_name, last_name, class_level, parent_id, date_of_birth, gender
		FROM students WHERE admission_number = $1
	`, admissionNumber)
	var s model.Student
	if err := row.Scan(&s.AdmissionNumber, &s.FirstName, &s.LastName, &s.ClassLevel, &s.ParentID, &s.DateOfBirth, &s.Gender); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetParent returns the parent profile joined with its person row.
func (r *Repository) GetParent(ctx context.Context, parentID string) (*model.Parent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pa.parent_id, p.first_name, p.last_name, pa.phone, pa.occupation
		FROM parents pa JOIN people p ON p.person_id = pa.parent_id
		WHERE pa.parent_id = $1
	`, parentID)
	var pa model.Parent
	if err := row.Scan(&pa.ParentID, &pa.FirstName, &pa.LastName, &pa.Phone, &pa.Occupation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &pa, nil
}

// ChildrenOf lists the students linked to a parent.
func (r *Repository) ChildrenOf(ctx context.Context, parentID string) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT admission_number, first_name, last_name, class_level, parent_id, date_of_birth, gender
		FROM students WHERE parent_id = $1
		ORDER BY admission_number
	`, parentID)
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

// ListTeachers returns all teacher profiles.
func (r *Repository) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.teacher_id, p.first_name, p.last_name, t.phone
		FROM teachers t JOIN people p ON p.person_id = t.teacher_id
		ORDER BY t.teacher_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Teacher
	for rows.Next() {
		var t model.Teacher
		if err := rows.Scan(&t.TeacherID, &t.FirstName, &t.LastName, &t.Phone); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListStudentsByClassLevel returns students at one class level.
func (r *Repository) ListStudentsByClassLevel(ctx context.Context, classLevel string) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT admission_number, first_name, last_name, class_level, parent_id, date_of_birth, gender
		FROM students WHERE class_level = $1
		ORDER BY admission_number
	`, classLevel)
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

// ListClasses returns all classes.
func (r *Repository) ListClasses(ctx context.Context) ([]model.Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT class_id, class_name, class_level FROM classes ORDER BY class_level, class_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ClassID, &c.ClassName, &c.ClassLevel); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetSubject returns one subject.
func (r *Repository) GetSubject(ctx context.Context, subjectID string) (*model.Subject, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT subject_id, subject_name, teacher_id, class_level FROM subjects WHERE subject_id = $1
	`, subjectID)
	var s model.Subject
	if err := row.Scan(&s.SubjectID, &s.SubjectName, &s.TeacherID, &s.ClassLevel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListSubjectsByTeacher returns the subjects owned by one teacher.
func (r *Repository) ListSubjectsByTeacher(ctx context.Context, teacherID string) ([]model.Subject, error) {
	return r.listSubjects(ctx, `
		SELECT subject_id, subject_name, teacher_id, class_level
		FROM subjects WHERE teacher_id = $1 ORDER BY subject_id
	`, teacherID)
}

// ListSubjectsByClassLevel returns the subjects offered at a class level.
func (r *Repository) ListSubjectsByClassLevel(ctx context.Context, classLevel string) ([]model.Subject, error) {
	return r.listSubjects(ctx, `
		SELECT subject_id, subject_name, teacher_id, class_level
		FROM subjects WHERE class_level = $1 ORDER BY subject_id
	`, classLevel)
}

// ListSubjects returns every subject.
func (r *Repository) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	return r.listSubjects(ctx, `
		SELECT subject_id, subject_name, teacher_id, class_level FROM subjects ORDER BY subject_id
	`)
}

func (r *Repository) listSubjects(ctx context.Context, query string, args ...any) ([]model.Subject, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.SubjectID, &s.SubjectName, &s.TeacherID, &s.ClassLevel); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
