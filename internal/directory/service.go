package directory

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Store is the persistence surface the service needs; *Repository satisfies
// it and tests substitute an in-memory fake.
type Store interface {
	GetTeacher(ctx context.Context, teacherID string) (*model.Teacher, error)
	GetStudent(ctx context.Context, admissionNumber string) (*model.Student, error)
	GetParent(ctx context.Context, parentID string) (*model.Parent, error)
	ChildrenOf(ctx context.Context, parentID string) ([]model.Student, error)
}

// Credentials is the directory's private view of a person row used at login.
type Credentials struct {
	Person       model.Person
	PasswordHash string
}

// CredentialStore is satisfied by *Repository via getPerson.
type CredentialStore interface {
	GetCredentials(ctx context.Context, personID string) (*Credentials, error)
}

// GetCredentials exposes the people row for authentication.
func (r *Repository) GetCredentials(ctx context.Context, personID string) (*Credentials, error) {
	p, err := r.getPerson(ctx, personID)
	if err != nil || p == nil {
		return nil, err
	}
	return &Credentials{Person: p.Person, PasswordHash: p.PasswordHash}, nil
}

// Identity is the authenticated actor plus their resolved profile.
type Identity struct {
	UserID string
	Role   model.Role
	Name   string
}

// Service performs authentication and per-request profile resolution.
// Resolution is re-executed on every request; nothing is cached.
type Service struct {
	store Store
	creds CredentialStore
}

// NewService creates a service backed by a store.
func NewService(store Store, creds CredentialStore) *Service {
	return &Service{store: store, creds: creds}
}

// Authenticate verifies a person's password and that the claimed role has a
// matching profile. A person logging in as TEACHER must have a teacher row.
func (s *Service) Authenticate(ctx context.Context, userID, password string, role model.Role) (Identity, error) {
	cred, err := s.creds.GetCredentials(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	if cred == nil {
		return Identity{}, apperr.Unauthorizedf("unknown user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Identity{}, apperr.Unauthorizedf("wrong password")
	}
	name := cred.Person.FullName()
	switch role {
	case model.RoleTeacher:
		t, err := s.store.GetTeacher(ctx, userID)
		if err != nil {
			return Identity{}, err
		}
		if t == nil {
			return Identity{}, apperr.Forbiddenf("no teacher profile for %s", userID)
		}
	case model.RoleStudent:
		st, err := s.store.GetStudent(ctx, userID)
		if err != nil {
			return Identity{}, err
		}
		if st == nil {
			return Identity{}, apperr.Forbiddenf("no student profile for %s", userID)
		}
	case model.RoleParent:
		p, err := s.store.GetParent(ctx, userID)
		if err != nil {
			return Identity{}, err
		}
		if p == nil {
			return Identity{}, apperr.Forbiddenf("no parent profile for %s", userID)
		}
	default:
		return Identity{}, apperr.Invalidf("unknown role %q", role)
	}
	return Identity{UserID: userID, Role: role, Name: name}, nil
}

// ResolveTeacher maps a session user ID to its teacher profile.
func (s *Service) ResolveTeacher(ctx context.Context, userID string) (*model.Teacher, error) {
	t, err := s.store.GetTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFoundf("Teacher profile not found")
	}
	return t, nil
}

// ResolveStudent maps a session user ID to its student profile.
func (s *Service) ResolveStudent(ctx context.Context, userID string) (*model.Student, error) {
	st, err := s.store.GetStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperr.NotFoundf("Student profile not found")
	}
	return st, nil
}

// ResolveParent maps a session user ID to its parent profile plus children.
func (s *Service) ResolveParent(ctx context.Context, userID string) (*model.Parent, []model.Student, error) {
	p, err := s.store.GetParent(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, apperr.NotFoundf("Parent profile not found")
	}
	children, err := s.store.ChildrenOf(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return p, children, nil
}
