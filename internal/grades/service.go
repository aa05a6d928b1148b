package grades

import (
	"context"

	"github.com/google/uuid"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Store is the persistence surface the service needs.
type Store interface {
	Upsert(ctx context.Context, g model.Grade) (model.Grade, error)
	Get(ctx context.Context, gradeID string) (*model.Grade, error)
	ListForSubjects(ctx context.Context, subjectIDs []string) ([]model.Grade, error)
	ListForStudents(ctx context.Context, studentIDs []string) ([]model.Grade, error)
	Delete(ctx context.Context, gradeID string) error
}

// Directory resolves subjects and students for ownership checks.
type Directory interface {
	GetSubject(ctx context.Context, subjectID string) (*model.Subject, error)
	GetStudent(ctx context.Context, admissionNumber string) (*model.Student, error)
	ListSubjectsByTeacher(ctx context.Context, teacherID string) ([]model.Subject, error)
}

// Service gates grade writes on subject ownership, mirroring the attendance
// rules: only the owning teacher records scores for a subject.
type Service struct {
	store Store
	dir   Directory
}

// NewService creates a service.
func NewService(store Store, dir Directory) *Service {
	return &Service{store: store, dir: dir}
}

func (s *Service) ownedSubject(ctx context.Context, teacherID, subjectID string) error {
	subject, err := s.dir.GetSubject(ctx, subjectID)
	if err != nil {
		return err
	}
	if subject == nil {
		return apperr.NotFoundf("subject %s not found", subjectID)
	}
	if subject.TeacherID != teacherID {
		return apperr.Forbiddenf("subject %s is not taught by %s", subjectID, teacherID)
	}
	return nil
}

// Record upserts a grade for a subject the teacher owns.
func (s *Service) Record(ctx context.Context, teacherID string, g model.Grade) (model.Grade, error) {
	if g.StudentID == "" || g.SubjectID == "" || g.Term == "" {
		return model.Grade{}, apperr.Invalidf("studentId, subjectId and term are required")
	}
	if g.CAScore < 0 || g.CAScore > 40 || g.ExamScore < 0 || g.ExamScore > 60 {
		return model.Grade{}, apperr.Invalidf("scores out of range (CA 0-40, exam 0-60)")
	}
	if err := s.ownedSubject(ctx, teacherID, g.SubjectID); err != nil {
		return model.Grade{}, err
	}
	student, err := s.dir.GetStudent(ctx, g.StudentID)
	if err != nil {
		return model.Grade{}, err
	}
	if student == nil {
		return model.Grade{}, apperr.NotFoundf("student %s not found", g.StudentID)
	}
	if g.GradeID == "" {
		g.GradeID = uuid.NewString()
	}
	return s.store.Upsert(ctx, g)
}

// ListForTeacher returns grades for every subject the teacher owns.
func (s *Service) ListForTeacher(ctx context.Context, teacherID string) ([]model.Grade, error) {
	subjects, err := s.dir.ListSubjectsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(subjects))
	for i, sub := range subjects {
		ids[i] = sub.SubjectID
	}
	return s.store.ListForSubjects(ctx, ids)
}

// ListForStudents returns grades scoped to the given students.
func (s *Service) ListForStudents(ctx context.Context, studentIDs []string) ([]model.Grade, error) {
	return s.store.ListForStudents(ctx, studentIDs)
}

// Delete removes a grade after re-verifying the owning subject.
func (s *Service) Delete(ctx context.Context, teacherID, gradeID string) error {
	g, err := s.store.Get(ctx, gradeID)
	if err != nil {
		return err
	}
	if g == nil {
		return apperr.NotFoundf("grade %s not found", gradeID)
	}
	if err := s.ownedSubject(ctx, teacherID, g.SubjectID); err != nil {
		return err
	}
	return s.store.Delete(ctx, gradeID)
}
