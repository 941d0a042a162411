package quotation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/catalog"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryQuotationRepo struct {
	quotations  map[int64]*Quotation
	byRequest   map[int64]int64
	submissions map[string]bool
	nextID      int64
	seq         int
}

func newMemoryQuotationRepo() *memoryQuotationRepo {
	return &memoryQuotationRepo{
		quotations:  make(map[int64]*Quotation),
		byRequest:   make(map[int64]int64),
		submissions: make(map[string]bool),
	}
}

func (r *memoryQuotationRepo) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, ok := r.quotations[id]
	if !ok {
		return nil, fmt.Errorf("%w: quotation %d", shared.ErrNotFound, id)
	}
	clone := *q
	clone.Items = append([]Item(nil), q.Items...)
	clone.Charges = append([]AdditionalCharge(nil), q.Charges...)
	clone.Schedule = append([]PaymentStep(nil), q.Schedule...)
	return &clone, nil
}

func (r *memoryQuotationRepo) GetByRequestID(ctx context.Context, requestID int64) (*Quotation, error) {
	id, ok := r.byRequest[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: request %d", shared.ErrNotFound, requestID)
	}
	return r.Get(ctx, id)
}

func (r *memoryQuotationRepo) List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error) {
	var out []Summary
	for _, q := range r.quotations {
		if req.CustomerID != nil && q.CustomerID != *req.CustomerID {
			continue
		}
		out = append(out, Summary{ID: q.ID, Number: q.Number, Status: q.Status, GrandTotal: q.GrandTotal})
	}
	return out, len(out), nil
}

func (r *memoryQuotationRepo) Create(ctx context.Context, q *Quotation) (int64, error) {
	r.nextID++
	q.ID = r.nextID
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	r.quotations[q.ID] = q
	r.byRequest[q.RequestID] = q.ID
	return q.ID, nil
}

func (r *memoryQuotationRepo) Replace(ctx context.Context, q *Quotation) error {
	if _, ok := r.quotations[q.ID]; !ok {
		return fmt.Errorf("%w: quotation %d", shared.ErrNotFound, q.ID)
	}
	q.UpdatedAt = time.Now()
	r.quotations[q.ID] = q
	return nil
}

func (r *memoryQuotationRepo) UpdateStatus(ctx context.Context, id int64, status Status, actorID int64, reason *string, at time.Time) error {
	q, ok := r.quotations[id]
	if !ok {
		return fmt.Errorf("%w: quotation %d", shared.ErrNotFound, id)
	}
	q.Status = status
	switch status {
	case StatusSentToCustomer:
		q.SentAt = &at
	case StatusCustomerApproved:
		q.CustomerApprovedAt = &at
	case StatusSalesApproved:
		q.SalesApprovedBy = &actorID
		q.SalesApprovedAt = &at
	case StatusRejected:
		q.RejectionReason = reason
		q.RejectedAt = &at
	}
	return nil
}

func (r *memoryQuotationRepo) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	r.seq++
	return fmt.Sprintf("QT-%s-%04d", date.Format("200601"), r.seq), nil
}

func (r *memoryQuotationRepo) StepHasSubmissions(ctx context.Context, quotationID int64, stepNumber int) (bool, error) {
	return r.submissions[fmt.Sprintf("%d/%d", quotationID, stepNumber)], nil
}

func (r *memoryQuotationRepo) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, q := range r.quotations {
		if !q.Status.Terminal() && !q.ValidUntil.IsZero() && now.After(q.ValidUntil) {
			q.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

type memoryCatalog struct {
	records map[int64]*catalog.Record
	calls   int
}

func (c *memoryCatalog) Lookup(ctx context.Context, stockItemID int64) (*catalog.Record, error) {
	c.calls++
	rec, ok := c.records[stockItemID]
	if !ok {
		return nil, fmt.Errorf("%w: stock item %d", catalog.ErrLookup, stockItemID)
	}
	return rec, nil
}

type memoryApprovals struct {
	logs []shared.ApprovalLog
}

func (a *memoryApprovals) Record(ctx context.Context, log shared.ApprovalLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService() (*Service, *memoryQuotationRepo, *memoryCatalog, *memoryApprovals) {
	repo := newMemoryQuotationRepo()
	cat := &memoryCatalog{records: map[int64]*catalog.Record{
		11: {StockItemID: 11, QuantityOnHand: 25, Status: "In Stock", HSNCode: "8413", GSTPercent: decimal.NewFromInt(18)},
		12: {StockItemID: 12, QuantityOnHand: 0, Status: "Out of Stock", HSNCode: "8414", GSTPercent: decimal.NewFromInt(12)},
	}}
	approvals := &memoryApprovals{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, cat, approvals, logger), repo, cat, approvals
}

func createReq() CreateQuotationRequest {
	return CreateQuotationRequest{
		RequestID:  1,
		CustomerID: 7,
		QuoteDate:  time.Now(),
		ValidUntil: time.Now().AddDate(0, 0, 30),
		Variants: []RequestVariant{
			{StockItemID: 11, ItemName: "Hydraulic Pump", ItemCode: "HP-100", Quantity: 5, EstimatedPrice: 200},
		},
	}
}

func TestCreateSeedsDraft(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, q.Status)
	require.Equal(t, int64(42), q.CreatedBy)
	require.Regexp(t, `^QT-\d{6}-\d{4}$`, q.Number)

	require.Len(t, q.Items, 1)
	require.Equal(t, "8413", q.Items[0].HSNCode)
	require.Equal(t, "18", q.Items[0].GSTPercent.String())
	require.Equal(t, int64(25), q.Items[0].StockOnHand)
	require.Equal(t, "1000.00", q.GrandTotal.StringFixed(2))

	require.Len(t, q.Schedule, 2)
	require.Equal(t, "600.00", q.Schedule[0].Amount.StringFixed(2))
	require.Equal(t, "400.00", q.Schedule[1].Amount.StringFixed(2))
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc, _, _, _ := newTestService()
	req := createReq()
	req.ValidUntil = req.QuoteDate.AddDate(0, 0, -1)

	_, err := svc.Create(context.Background(), req, 42)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateSkipsFailedLookups(t *testing.T) {
	svc, _, _, _ := newTestService()
	req := createReq()
	req.Variants = append(req.Variants, RequestVariant{
		StockItemID: 99, ItemName: "Unknown Part", ItemCode: "UP-1", Quantity: 1, EstimatedPrice: 50,
	})

	q, err := svc.Create(context.Background(), req, 42)
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	require.Equal(t, int64(11), q.Items[0].StockItemID)
}

func TestCreateFoldsIntoExistingQuotation(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)

	req := createReq()
	req.Variants[0].Quantity = 10
	second, err := svc.Create(ctx, req, 42)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Number, second.Number)
	require.Equal(t, "2000.00", second.GrandTotal.StringFixed(2))
	require.Len(t, repo.quotations, 1)
}

func TestCreateRefusesReseedAfterApproval(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)
	_, err = svc.Send(ctx, q.ID, 42)
	require.NoError(t, err)
	_, err = svc.CustomerApprove(ctx, q.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(), 42)
	require.ErrorIs(t, err, shared.ErrTransition)
}

func TestApprovalFlow(t *testing.T) {
	svc, _, _, approvals := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)

	q, err = svc.Send(ctx, q.ID, 42)
	require.NoError(t, err)
	require.Equal(t, StatusSentToCustomer, q.Status)
	require.NotNil(t, q.SentAt)

	// Re-send is a permitted self-transition.
	_, err = svc.Send(ctx, q.ID, 42)
	require.NoError(t, err)

	q, err = svc.CustomerApprove(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCustomerApproved, q.Status)

	q, err = svc.SalesApprove(ctx, q.ID, 43)
	require.NoError(t, err)
	require.Equal(t, StatusSalesApproved, q.Status)
	require.NotNil(t, q.SalesApprovedBy)
	require.Equal(t, int64(43), *q.SalesApprovedBy)

	require.Len(t, approvals.logs, 4)
	require.Equal(t, shared.ApprovalSend, approvals.logs[0].Action)
	require.Equal(t, shared.ApprovalApprove, approvals.logs[3].Action)
	for _, log := range approvals.logs {
		require.Equal(t, ApprovalModule, log.Module)
		require.Equal(t, q.ID, log.RefID)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)

	// DRAFT cannot be customer or sales approved directly.
	_, err = svc.CustomerApprove(ctx, q.ID)
	require.ErrorIs(t, err, shared.ErrTransition)
	_, err = svc.SalesApprove(ctx, q.ID, 43)
	require.ErrorIs(t, err, shared.ErrTransition)

	_, err = svc.Send(ctx, q.ID, 42)
	require.NoError(t, err)
	_, err = svc.CustomerApprove(ctx, q.ID)
	require.NoError(t, err)
	_, err = svc.SalesApprove(ctx, q.ID, 43)
	require.NoError(t, err)

	// Terminal: nothing moves.
	_, err = svc.Reject(ctx, q.ID, 43, "too late")
	require.ErrorIs(t, err, shared.ErrTransition)
	_, err = svc.Send(ctx, q.ID, 42)
	require.ErrorIs(t, err, shared.ErrTransition)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)
	_, err = svc.Send(ctx, q.ID, 42)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, q.ID, 43, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	q, err = svc.Reject(ctx, q.ID, 43, "price out of budget")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, q.Status)
	require.NotNil(t, q.RejectionReason)
	require.Equal(t, "price out of budget", *q.RejectionReason)
}

func TestTransitionOnLapsedQuotationFails(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)
	repo.quotations[q.ID].ValidUntil = time.Now().AddDate(0, 0, -1)

	_, err = svc.Send(ctx, q.ID, 42)
	require.ErrorIs(t, err, shared.ErrTransition)

	got, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, got.Status)
}

func TestUpdateDraftReplacesSections(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)

	items := []ItemRequest{
		{StockItemID: 11, ItemName: "Hydraulic Pump", ItemCode: "HP-100", Quantity: 2, UnitPrice: 500, GSTPercent: 18},
	}
	charges := []ChargeRequest{{Name: "Freight", Amount: 100}}
	notes := "ships in two weeks"

	q, err = svc.UpdateDraft(ctx, q.ID, UpdateQuotationRequest{
		Notes:   &notes,
		Items:   &items,
		Charges: &charges,
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	require.Equal(t, int64(2), q.Items[0].Quantity)
	require.Equal(t, "1100.00", q.GrandTotal.StringFixed(2))
	require.Equal(t, "ships in two weeks", *q.Notes)

	// Schedule amounts track the new grand total.
	require.Equal(t, "660.00", q.Schedule[0].Amount.StringFixed(2))
}

func TestUpdateDraftGatedAfterApproval(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)
	_, err = svc.Send(ctx, q.ID, 42)
	require.NoError(t, err)
	_, err = svc.CustomerApprove(ctx, q.ID)
	require.NoError(t, err)

	notes := "late edit"
	_, err = svc.UpdateDraft(ctx, q.ID, UpdateQuotationRequest{Notes: &notes})
	require.ErrorIs(t, err, shared.ErrTransition)
}

func TestRemovePaymentStepBlockedBySubmissions(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)

	repo.submissions[fmt.Sprintf("%d/1", q.ID)] = true
	_, err = svc.RemovePaymentStep(ctx, q.ID, 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	q, err = svc.RemovePaymentStep(ctx, q.ID, 2)
	require.NoError(t, err)
	require.Len(t, q.Schedule, 1)
	require.Equal(t, 1, q.Schedule[0].StepNumber)
}

func TestExpireLapsed(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, createReq(), 42)
	require.NoError(t, err)
	repo.quotations[q.ID].ValidUntil = time.Now().AddDate(0, 0, -2)

	n, err := svc.ExpireLapsed(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, StatusExpired, repo.quotations[q.ID].Status)
}
