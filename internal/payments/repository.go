package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// PgRepository provides PostgreSQL backed persistence for submissions.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const submissionColumns = `
	id, quotation_id, step_number, submitted_amount, payment_method,
	transaction_id, utr_reference, bank_name, cheque_number,
	submission_date, receipt_image_url, status, verification_notes, verified_at,
	created_at, updated_at`

func scanSubmission(row pgx.Row) (*Submission, error) {
	var sub Submission
	var status string
	err := row.Scan(
		&sub.ID, &sub.QuotationID, &sub.StepNumber, &sub.SubmittedAmount, &sub.PaymentMethod,
		&sub.TransactionID, &sub.UTRReference, &sub.BankName, &sub.ChequeNumber,
		&sub.SubmissionDate, &sub.ReceiptImageURL, &status, &sub.VerificationNotes, &sub.VerifiedAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	sub.Status = SubmissionStatus(status)
	return &sub, nil
}

// Create inserts a submission.
func (r *PgRepository) Create(ctx context.Context, sub Submission) (*Submission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payment_submissions (
			id, quotation_id, step_number, submitted_amount, payment_method,
			transaction_id, utr_reference, bank_name, cheque_number,
			submission_date, receipt_image_url, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING `+submissionColumns,
		sub.ID, sub.QuotationID, sub.StepNumber, sub.SubmittedAmount, sub.PaymentMethod,
		sub.TransactionID, sub.UTRReference, sub.BankName, sub.ChequeNumber,
		sub.SubmissionDate, sub.ReceiptImageURL, string(sub.Status),
	)
	return scanSubmission(row)
}

// Get loads one submission.
func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM payment_submissions WHERE id = $1`, id)
	return scanSubmission(row)
}

// ListByQuotation returns all submissions for a quotation, oldest first.
func (r *PgRepository) ListByQuotation(ctx context.Context, quotationID int64) ([]Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM payment_submissions WHERE quotation_id = $1
		ORDER BY submission_date ASC, created_at ASC`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// MarkOverdueSteps flags schedule steps whose due date has passed and whose
// verified submissions do not cover the step amount. Paid steps are never
// flagged; steps that catch up are unflagged.
func (r *PgRepository) MarkOverdueSteps(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_steps ps
		SET overdue = (ps.due_date < $1 AND paid.total < ps.amount)
		FROM (
			SELECT steps.id, COALESCE(SUM(sub.submitted_amount), 0) AS total
			FROM payment_steps steps
			LEFT JOIN payment_submissions sub
			  ON sub.quotation_id = steps.quotation_id
			 AND sub.step_number = steps.step_number
			 AND sub.status = 'VERIFIED'
			GROUP BY steps.id
		) paid
		WHERE paid.id = ps.id
		  AND ps.overdue IS DISTINCT FROM (ps.due_date < $1 AND paid.total < ps.amount)`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateStatus records a reviewer decision.
func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status SubmissionStatus, notes *string, verifiedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_submissions
		SET status = $2, verification_notes = $3, verified_at = $4, updated_at = NOW()
		WHERE id = $1`, id, string(status), notes, verifiedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
