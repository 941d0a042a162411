package quotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/catalog"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ApprovalModule tags approval audit rows written by this service.
const ApprovalModule = "quotation"

// Repository abstracts quotation persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Quotation, error)
	GetByRequestID(ctx context.Context, requestID int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error)
	Create(ctx context.Context, q *Quotation) (int64, error)
	Replace(ctx context.Context, q *Quotation) error
	UpdateStatus(ctx context.Context, id int64, status Status, actorID int64, reason *string, at time.Time) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
	StepHasSubmissions(ctx context.Context, quotationID int64, stepNumber int) (bool, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

// CatalogPort is the external stock catalog collaborator.
type CatalogPort interface {
	Lookup(ctx context.Context, stockItemID int64) (*catalog.Record, error)
}

// ApprovalsPort records workflow actions for audit.
type ApprovalsPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service owns the quotation workflow: creation from a customer request,
// draft editing, and the approval state machine.
type Service struct {
	repo      Repository
	catalog   CatalogPort
	approvals ApprovalsPort
	logger    *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, catalogPort CatalogPort, approvals ApprovalsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalogPort, approvals: approvals, logger: logger}
}

// Create builds a quotation for a customer request. A request owns at most
// one quotation for its lifetime: when one already exists the call folds
// into an update of that quotation instead of creating a sibling.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	if req.ValidUntil.Before(req.QuoteDate) {
		return nil, fmt.Errorf("%w: valid_until must not precede quote_date", shared.ErrValidation)
	}

	existing, err := s.repo.GetByRequestID(ctx, req.RequestID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing quotation: %w", err)
	}
	if existing != nil {
		return s.reseedExisting(ctx, existing, req)
	}

	now := time.Now()
	q := &Quotation{
		RequestID:  req.RequestID,
		CustomerID: req.CustomerID,
		QuoteDate:  req.QuoteDate,
		ValidUntil: req.ValidUntil,
		Status:     StatusDraft,
		Notes:      req.Notes,
		Terms:      req.Terms,
		CreatedBy:  createdBy,
	}
	if err := s.populateItems(ctx, q, req.Variants); err != nil {
		return nil, err
	}
	q.ApplyDefaultSchedule(now)

	number, err := s.repo.GenerateNumber(ctx, req.QuoteDate)
	if err != nil {
		return nil, fmt.Errorf("generate quotation number: %w", err)
	}
	q.Number = number

	id, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// reseedExisting replays the create request onto the request's existing
// quotation, provided it is still editable.
func (s *Service) reseedExisting(ctx context.Context, q *Quotation, req CreateQuotationRequest) (*Quotation, error) {
	if !CanEdit(EffectiveStatus(q.Status, q.ValidUntil, time.Now())) {
		return nil, fmt.Errorf("%w: request %d already owns quotation %s in status %s",
			shared.ErrTransition, req.RequestID, q.Number, q.Status)
	}
	q.QuoteDate = req.QuoteDate
	q.ValidUntil = req.ValidUntil
	q.Notes = req.Notes
	q.Terms = req.Terms
	q.Items = nil
	if err := s.populateItems(ctx, q, req.Variants); err != nil {
		return nil, err
	}
	q.Recalculate()
	if err := s.repo.Replace(ctx, q); err != nil {
		return nil, fmt.Errorf("update existing quotation: %w", err)
	}
	return s.repo.Get(ctx, q.ID)
}

// populateItems seeds one line per requested variant, attaching catalog
// metadata. A failed lookup skips the line: a partially populated draft is a
// recoverable outcome, not a fatal one.
func (s *Service) populateItems(ctx context.Context, q *Quotation, variants []RequestVariant) error {
	for _, v := range variants {
		item := Item{
			StockItemID: v.StockItemID,
			Name:        v.ItemName,
			Code:        v.ItemCode,
			Quantity:    v.Quantity,
			UnitPrice:   pricing.FromFloat(v.EstimatedPrice),
		}
		rec, err := s.catalog.Lookup(ctx, v.StockItemID)
		if err != nil {
			s.logger.Warn("catalog lookup failed, skipping line",
				slog.Int64("stock_item_id", v.StockItemID),
				slog.Any("error", err))
			continue
		}
		item.HSNCode = rec.HSNCode
		item.GSTPercent = rec.GSTPercent
		item.StockOnHand = rec.QuantityOnHand
		item.StockStatus = rec.Status
		if err := q.AddItem(item); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDraft replaces the editable sections of a quotation.
func (s *Service) UpdateDraft(ctx context.Context, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	q.Status = EffectiveStatus(q.Status, q.ValidUntil, time.Now())
	if !CanEdit(q.Status) {
		return nil, fmt.Errorf("%w: quotation %s is not editable in status %s", shared.ErrTransition, q.Number, q.Status)
	}

	if req.ValidUntil != nil {
		if req.ValidUntil.Before(q.QuoteDate) {
			return nil, fmt.Errorf("%w: valid_until must not precede quote_date", shared.ErrValidation)
		}
		q.ValidUntil = *req.ValidUntil
	}
	if req.Notes != nil {
		if err := q.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}
	if req.Terms != nil {
		if err := q.SetTerms(req.Terms); err != nil {
			return nil, err
		}
	}
	if req.Items != nil {
		q.Items = nil
		for _, ir := range *req.Items {
			item := Item{
				StockItemID:     ir.StockItemID,
				Name:            ir.ItemName,
				Code:            ir.ItemCode,
				HSNCode:         ir.HSNCode,
				Quantity:        ir.Quantity,
				UnitPrice:       pricing.FromFloat(ir.UnitPrice),
				DiscountPercent: pricing.FromFloat(ir.DiscountPercent),
				GSTPercent:      pricing.FromFloat(ir.GSTPercent),
			}
			if err := q.AddItem(item); err != nil {
				return nil, err
			}
		}
	}
	if req.Charges != nil {
		q.Charges = nil
		for _, cr := range *req.Charges {
			if err := q.AddCharge(cr.Name, pricing.FromFloat(cr.Amount), cr.Description); err != nil {
				return nil, err
			}
		}
	}
	if req.Schedule != nil {
		q.Schedule = nil
		for _, sr := range *req.Schedule {
			if err := q.AddPaymentStep(sr.Name, pricing.FromFloat(sr.Percentage), sr.DueDate); err != nil {
				return nil, err
			}
		}
	}
	q.Recalculate()

	if err := s.repo.Replace(ctx, q); err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// RemovePaymentStep removes one schedule step. A step that any payment
// submission already references cannot be removed.
func (s *Service) RemovePaymentStep(ctx context.Context, id int64, stepNumber int) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	q.Status = EffectiveStatus(q.Status, q.ValidUntil, time.Now())

	referenced, err := s.repo.StepHasSubmissions(ctx, id, stepNumber)
	if err != nil {
		return nil, fmt.Errorf("check step submissions: %w", err)
	}
	if referenced {
		return nil, fmt.Errorf("%w: payment step %d has submissions and cannot be removed", shared.ErrValidation, stepNumber)
	}
	if err := q.RemovePaymentStep(stepNumber); err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, q); err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Send transitions the quotation to SENT_TO_CUSTOMER. Re-sending an already
// sent quotation is permitted.
func (s *Service) Send(ctx context.Context, id int64, actorID int64) (*Quotation, error) {
	return s.transition(ctx, id, StatusSentToCustomer, actorID, nil, shared.ApprovalSend)
}

// CustomerApprove records the customer's acceptance (an external event fed
// back through the API).
func (s *Service) CustomerApprove(ctx context.Context, id int64) (*Quotation, error) {
	return s.transition(ctx, id, StatusCustomerApproved, 0, nil, shared.ApprovalCustomerAccept)
}

// SalesApprove applies the internal approval that makes the payment
// schedule live. Commercial terms are immutable from here on.
func (s *Service) SalesApprove(ctx context.Context, id int64, actorID int64) (*Quotation, error) {
	return s.transition(ctx, id, StatusSalesApproved, actorID, nil, shared.ApprovalApprove)
}

// Reject terminally rejects the quotation. A non-empty reason is mandatory.
func (s *Service) Reject(ctx context.Context, id int64, actorID int64, reason string) (*Quotation, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", shared.ErrValidation)
	}
	return s.transition(ctx, id, StatusRejected, actorID, &reason, shared.ApprovalReject)
}

func (s *Service) transition(ctx context.Context, id int64, target Status, actorID int64, reason *string, action shared.ApprovalAction) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	now := time.Now()
	current := EffectiveStatus(q.Status, q.ValidUntil, now)
	if !current.CanTransitionTo(target) {
		return nil, transitionError(current, target)
	}
	if err := s.repo.UpdateStatus(ctx, id, target, actorID, reason, now); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if s.approvals != nil {
		note := ""
		if reason != nil {
			note = *reason
		}
		if err := s.approvals.Record(ctx, shared.ApprovalLog{
			Module:  ApprovalModule,
			RefID:   id,
			ActorID: actorID,
			Action:  action,
			Note:    note,
			At:      now,
		}); err != nil {
			s.logger.Warn("record approval failed", slog.Int64("quotation_id", id), slog.Any("error", err))
		}
	}
	return s.repo.Get(ctx, id)
}

// Get returns a quotation with expiry derived at read time.
func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Status = EffectiveStatus(q.Status, q.ValidUntil, time.Now())
	return q, nil
}

// GetByRequestID returns the quotation owned by a customer request.
func (s *Service) GetByRequestID(ctx context.Context, requestID int64) (*Quotation, error) {
	q, err := s.repo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	q.Status = EffectiveStatus(q.Status, q.ValidUntil, time.Now())
	return q, nil
}

// List returns filtered quotation summaries with a total count.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// ExpireLapsed persists the EXPIRED status for quotations whose validity has
// passed. Expiry is otherwise derived at read time; this keeps listings and
// reports consistent without waiting for a read.
func (s *Service) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.ExpireLapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire lapsed quotations: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired lapsed quotations", slog.Int64("count", n))
	}
	return n, nil
}
