package payments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/quotation"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memorySubmissionRepo struct {
	submissions map[uuid.UUID]*Submission
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uuid.UUID]*Submission)}
}

func (r *memorySubmissionRepo) Create(ctx context.Context, sub Submission) (*Submission, error) {
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	r.submissions[sub.ID] = &sub
	return &sub, nil
}

func (r *memorySubmissionRepo) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	sub, ok := r.submissions[id]
	if !ok {
		return nil, fmt.Errorf("%w: submission %s", shared.ErrNotFound, id)
	}
	clone := *sub
	return &clone, nil
}

func (r *memorySubmissionRepo) ListByQuotation(ctx context.Context, quotationID int64) ([]Submission, error) {
	var out []Submission
	for _, sub := range r.submissions {
		if sub.QuotationID == quotationID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *memorySubmissionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status SubmissionStatus, notes *string, verifiedAt *time.Time) error {
	sub, ok := r.submissions[id]
	if !ok {
		return fmt.Errorf("%w: submission %s", shared.ErrNotFound, id)
	}
	sub.Status = status
	sub.VerificationNotes = notes
	sub.VerifiedAt = verifiedAt
	sub.UpdatedAt = time.Now()
	return nil
}

func (r *memorySubmissionRepo) MarkOverdueSteps(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type memoryQuotations struct {
	quotations map[int64]*quotation.Quotation
}

func (m *memoryQuotations) Get(ctx context.Context, id int64) (*quotation.Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, fmt.Errorf("%w: quotation %d", shared.ErrNotFound, id)
	}
	return q, nil
}

func approvedQuotation() *quotation.Quotation {
	return &quotation.Quotation{
		ID:         1,
		Number:     "QT-202506-0001",
		Status:     quotation.StatusSalesApproved,
		GrandTotal: decimal.RequireFromString("10000"),
		Schedule: []quotation.PaymentStep{
			{StepNumber: 1, Name: "Advance", Percentage: decimal.NewFromInt(60), Amount: decimal.RequireFromString("6000"), DueDate: time.Now().AddDate(0, 0, 2)},
			{StepNumber: 2, Name: "Final", Percentage: decimal.NewFromInt(40), Amount: decimal.RequireFromString("4000"), DueDate: time.Now().AddDate(0, 0, 30)},
		},
	}
}

func newPaymentsTestService(q *quotation.Quotation) (*Service, *memorySubmissionRepo) {
	repo := newMemorySubmissionRepo()
	quotations := &memoryQuotations{quotations: map[int64]*quotation.Quotation{}}
	if q != nil {
		quotations.quotations[q.ID] = q
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, quotations, logger), repo
}

func submitReq() CreateSubmissionRequest {
	utr := "UTR123456"
	return CreateSubmissionRequest{
		QuotationID:     1,
		StepNumber:      1,
		SubmittedAmount: 6000,
		PaymentMethod:   "NEFT",
		UTRReference:    &utr,
	}
}

func TestSubmitRecordsPending(t *testing.T) {
	svc, repo := newPaymentsTestService(approvedQuotation())

	sub, err := svc.Submit(context.Background(), submitReq())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, sub.ID)
	require.Equal(t, SubmissionPending, sub.Status)
	require.Equal(t, "6000.00", sub.SubmittedAmount.StringFixed(2))
	require.Len(t, repo.submissions, 1)
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newPaymentsTestService(approvedQuotation())
	ctx := context.Background()

	req := submitReq()
	req.SubmittedAmount = 0
	_, err := svc.Submit(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = submitReq()
	req.PaymentMethod = ""
	_, err = svc.Submit(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = submitReq()
	req.StepNumber = 9
	_, err = svc.Submit(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSubmitGatedBySalesApproval(t *testing.T) {
	for _, status := range []quotation.Status{
		quotation.StatusDraft,
		quotation.StatusSentToCustomer,
		quotation.StatusCustomerApproved,
		quotation.StatusRejected,
		quotation.StatusExpired,
	} {
		q := approvedQuotation()
		q.Status = status
		svc, _ := newPaymentsTestService(q)

		_, err := svc.Submit(context.Background(), submitReq())
		require.ErrorIsf(t, err, shared.ErrTransition, "status %s", status)
	}
}

func TestReviewTransitions(t *testing.T) {
	svc, _ := newPaymentsTestService(approvedQuotation())
	ctx := context.Background()

	sub, err := svc.Submit(ctx, submitReq())
	require.NoError(t, err)

	notes := "matched bank statement"
	sub, err = svc.Review(ctx, sub.ID, ReviewSubmissionRequest{Status: SubmissionVerified, Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, SubmissionVerified, sub.Status)
	require.NotNil(t, sub.VerifiedAt)
	require.Equal(t, "matched bank statement", *sub.VerificationNotes)

	// Correction back to PENDING clears the verification timestamp.
	sub, err = svc.Review(ctx, sub.ID, ReviewSubmissionRequest{Status: SubmissionPending})
	require.NoError(t, err)
	require.Equal(t, SubmissionPending, sub.Status)
	require.Nil(t, sub.VerifiedAt)

	_, err = svc.Review(ctx, sub.ID, ReviewSubmissionRequest{Status: SubmissionStatus("APPROVED")})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Review(ctx, uuid.New(), ReviewSubmissionRequest{Status: SubmissionVerified})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestScheduleReflectsVerifiedOnly(t *testing.T) {
	svc, _ := newPaymentsTestService(approvedQuotation())
	ctx := context.Background()

	first, err := svc.Submit(ctx, submitReq())
	require.NoError(t, err)

	partial := submitReq()
	partial.StepNumber = 2
	partial.SubmittedAmount = 1500
	second, err := svc.Submit(ctx, partial)
	require.NoError(t, err)

	// Nothing verified yet: both steps pending.
	views, err := svc.Schedule(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, StepPending, views[0].Status)
	require.Equal(t, StepPending, views[1].Status)

	_, err = svc.Review(ctx, first.ID, ReviewSubmissionRequest{Status: SubmissionVerified})
	require.NoError(t, err)
	_, err = svc.Review(ctx, second.ID, ReviewSubmissionRequest{Status: SubmissionVerified})
	require.NoError(t, err)

	views, err = svc.Schedule(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, StepPaid, views[0].Status)
	require.True(t, views[0].BalanceDue.IsZero())
	require.Equal(t, StepPartiallyPaid, views[1].Status)
	require.Equal(t, "2500.00", views[1].BalanceDue.StringFixed(2))
}
