package payment

import (
	"context"
	"database/sql"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Repository persists payments in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one payment. Reusing a transaction reference surfaces as
// ErrConflict from the unique constraint.
func (r *Repository) Insert(ctx context.Context, p model.Payment) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (payment_id, student_id, amount, purpose, method, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING paid_at
	`, p.PaymentID, p.StudentID, p.Amount, p.Purpose, p.Method, p.Reference)
	if err := row.Scan(&p.PaidAt); err != nil {
		return model.Payment{}, apperr.FromPG(err)
	}
	return p, nil
}

// ListForStudents returns payments for the given students, newest first.
func (r *Repository) ListForStudents(ctx context.Context, studentIDs []string) ([]model.Payment, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT payment_id, student_id, amount, purpose, method, reference, paid_at
		FROM payments WHERE student_id = ANY($1)
		ORDER BY paid_at DESC
	`, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.PaymentID, &p.StudentID, &p.Amount, &p.Purpose, &p.Method, &p.Reference, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
