package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/quotation"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository abstracts payment submission persistence.
type Repository interface {
	Create(ctx context.Context, sub Submission) (*Submission, error)
	Get(ctx context.Context, id uuid.UUID) (*Submission, error)
	ListByQuotation(ctx context.Context, quotationID int64) ([]Submission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status SubmissionStatus, notes *string, verifiedAt *time.Time) error
	MarkOverdueSteps(ctx context.Context, now time.Time) (int64, error)
}

// QuotationPort loads the owning quotation for gating and schedule data.
type QuotationPort interface {
	Get(ctx context.Context, id int64) (*quotation.Quotation, error)
}

// Service handles payment submission intake, review, and step tracking.
type Service struct {
	repo       Repository
	quotations QuotationPort
	logger     *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, quotations QuotationPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, quotations: quotations, logger: logger}
}

// Submit records a customer payment submission. Submissions are meaningful
// only once the quotation is sales approved and the schedule is live.
func (s *Service) Submit(ctx context.Context, req CreateSubmissionRequest) (*Submission, error) {
	amount := pricing.FromFloat(req.SubmittedAmount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: submitted amount must be positive", shared.ErrValidation)
	}
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", shared.ErrValidation)
	}

	q, err := s.quotations.Get(ctx, req.QuotationID)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if q.Status != quotation.StatusSalesApproved {
		return nil, fmt.Errorf("%w: quotation %s is not sales approved, payments are not accepted", shared.ErrTransition, q.Number)
	}
	if _, ok := q.StepByNumber(req.StepNumber); !ok {
		return nil, fmt.Errorf("%w: payment step %d does not exist", shared.ErrValidation, req.StepNumber)
	}

	submittedAt := time.Now()
	if req.SubmissionDate != nil {
		submittedAt = *req.SubmissionDate
	}
	sub := Submission{
		ID:              uuid.New(),
		QuotationID:     req.QuotationID,
		StepNumber:      req.StepNumber,
		SubmittedAmount: amount.Round(pricing.Scale),
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
		UTRReference:    req.UTRReference,
		BankName:        req.BankName,
		ChequeNumber:    req.ChequeNumber,
		SubmissionDate:  submittedAt,
		ReceiptImageURL: req.ReceiptImageURL,
		Status:          SubmissionPending,
	}
	return s.repo.Create(ctx, sub)
}

// Review applies a reviewer decision. Moving back to PENDING is permitted as
// a correction; only VERIFIED submissions ever count toward paid amounts.
func (s *Service) Review(ctx context.Context, id uuid.UUID, req ReviewSubmissionRequest) (*Submission, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown submission status %q", shared.ErrValidation, req.Status)
	}
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	var verifiedAt *time.Time
	if req.Status == SubmissionVerified {
		now := time.Now()
		verifiedAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, sub.ID, req.Status, req.Notes, verifiedAt); err != nil {
		return nil, fmt.Errorf("update submission status: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// ListByQuotation returns all submissions recorded against a quotation.
func (s *Service) ListByQuotation(ctx context.Context, quotationID int64) ([]Submission, error) {
	return s.repo.ListByQuotation(ctx, quotationID)
}

// MarkOverdue persists the overdue flag for steps past due with an
// outstanding balance. The flag mirrors what TrackSteps derives on read so
// listings and reports agree without loading every quotation.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.MarkOverdueSteps(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("mark overdue steps: %w", err)
	}
	return n, nil
}

// Schedule returns the live step views for a quotation: each step's paid
// amount, balance due, and derived status as of now.
func (s *Service) Schedule(ctx context.Context, quotationID int64) ([]StepView, error) {
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	subs, err := s.repo.ListByQuotation(ctx, quotationID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return TrackSteps(q.Schedule, subs, time.Now()), nil
}
