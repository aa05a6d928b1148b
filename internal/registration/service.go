package registration

import (
	"context"

	"github.com/google/uuid"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, reg model.Registration) (model.Registration, error)
	Get(ctx context.Context, registrationID string) (*model.Registration, error)
	ListForStudent(ctx context.Context, studentID string) ([]model.Registration, error)
	RegisteredStudents(ctx context.Context, subjectID string) ([]model.Student, error)
	Delete(ctx context.Context, registrationID string) error
}

// Directory resolves subjects for class-level checks.
type Directory interface {
	GetSubject(ctx context.Context, subjectID string) (*model.Subject, error)
	GetStudent(ctx context.Context, admissionNumber string) (*model.Student, error)
}

// Service lets students register for subjects offered at their class level
// and drop their own registrations.
type Service struct {
	store Store
	dir   Directory
}

// NewService creates a service.
func NewService(store Store, dir Directory) *Service {
	return &Service{store: store, dir: dir}
}

// Register enrolls the student in a subject. Subjects from another class
// level are rejected.
func (s *Service) Register(ctx context.Context, studentID, subjectID, term string) (model.Registration, error) {
	if subjectID == "" || term == "" {
		return model.Registration{}, apperr.Invalidf("subjectId and term are required")
	}
	student, err := s.dir.GetStudent(ctx, studentID)
	if err != nil {
		return model.Registration{}, err
	}
	if student == nil {
		return model.Registration{}, apperr.NotFoundf("student %s not found", studentID)
	}
	subject, err := s.dir.GetSubject(ctx, subjectID)
	if err != nil {
		return model.Registration{}, err
	}
	if subject == nil {
		return model.Registration{}, apperr.NotFoundf("subject %s not found", subjectID)
	}
	if subject.ClassLevel != student.ClassLevel {
		return model.Registration{}, apperr.Invalidf("subject %s is not offered at class level %s", subjectID, student.ClassLevel)
	}
	return s.store.Insert(ctx, model.Registration{
		RegistrationID: uuid.NewString(),
		StudentID:      studentID,
		SubjectID:      subjectID,
		Term:           term,
	})
}

// ListForStudent returns the student's registrations.
func (s *Service) ListForStudent(ctx context.Context, studentID string) ([]model.Registration, error) {
	return s.store.ListForStudent(ctx, studentID)
}

// Drop removes a registration the student owns.
func (s *Service) Drop(ctx context.Context, studentID, registrationID string) error {
	reg, err := s.store.Get(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg == nil {
		return apperr.NotFoundf("registration %s not found", registrationID)
	}
	if reg.StudentID != studentID {
		return apperr.Forbiddenf("registration %s does not belong to %s", registrationID, studentID)
	}
	return s.store.Delete(ctx, registrationID)
}

// RegisteredStudents exposes the roster for the attendance workflow.
func (s *Service) RegisteredStudents(ctx context.Context, subjectID string) ([]model.Student, error) {
	return s.store.RegisteredStudents(ctx, subjectID)
}
