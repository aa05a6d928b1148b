package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/payment/gateway"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, p model.Payment) (model.Payment, error)
	ListForStudents(ctx context.Context, studentIDs []string) ([]model.Payment, error)
}

// Verifier confirms transaction references; *gateway.Client satisfies it.
type Verifier interface {
	Verify(ctx context.Context, reference string, amount float64) (*gateway.VerifyResult, error)
}

// Service records fee payments for a student after the gateway confirms the
// transfer reference. Callers are responsible for scoping studentID to the
// acting session (the student themself or one of a parent's children).
type Service struct {
	store    Store
	verifier Verifier
}

// NewService creates a service.
func NewService(store Store, verifier Verifier) *Service {
	return &Service{store: store, verifier: verifier}
}

// Record verifies the reference and persists the payment.
func (s *Service) Record(ctx context.Context, studentID string, amount float64, purpose, method, reference string) (model.Payment, error) {
	if studentID == "" || purpose == "" || reference == "" {
		return model.Payment{}, apperr.Invalidf("studentId, purpose and reference are required")
	}
	if amount <= 0 {
		return model.Payment{}, apperr.Invalidf("amount must be positive")
	}
	res, err := s.verifier.Verify(ctx, reference, amount)
	if err != nil {
		return model.Payment{}, err
	}
	if !res.Verified {
		return model.Payment{}, apperr.Invalidf("payment reference %s was not verified: %s", reference, res.Message)
	}
	return s.store.Insert(ctx, model.Payment{
		PaymentID: uuid.NewString(),
		StudentID: studentID,
		Amount:    amount,
		Purpose:   purpose,
		Method:    method,
		Reference: reference,
	})
}

// ListForStudents returns payments scoped to the given students.
func (s *Service) ListForStudents(ctx context.Context, studentIDs []string) ([]model.Payment, error) {
	return s.store.ListForStudents(ctx, studentIDs)
}
