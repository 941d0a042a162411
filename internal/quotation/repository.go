package quotation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// PgRepository provides PostgreSQL backed persistence for quotations.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Get loads a quotation with its items, charges, and payment steps.
func (r *PgRepository) Get(ctx context.Context, id int64) (*Quotation, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByRequestID loads the quotation owned by a customer request, if any.
func (r *PgRepository) GetByRequestID(ctx context.Context, requestID int64) (*Quotation, error) {
	return r.getBy(ctx, "request_id = $1", requestID)
}

func (r *PgRepository) getBy(ctx context.Context, where string, arg any) (*Quotation, error) {
	query := `
		SELECT id, number, request_id, customer_id, quote_date, valid_until, status,
		       subtotal_before_gst, total_discount, total_gst, grand_total,
		       notes, terms, rejection_reason, created_by,
		       sent_at, customer_approved_at, sales_approved_by, sales_approved_at, rejected_at,
		       created_at, updated_at
		FROM quotations WHERE ` + where

	var q Quotation
	var status string
	var salesApprovedBy pgtype.Int8
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&q.ID, &q.Number, &q.RequestID, &q.CustomerID, &q.QuoteDate, &q.ValidUntil, &status,
		&q.SubtotalBeforeGST, &q.TotalDiscount, &q.TotalGST, &q.GrandTotal,
		&q.Notes, &q.Terms, &q.RejectionReason, &q.CreatedBy,
		&q.SentAt, &q.CustomerApprovedAt, &salesApprovedBy, &q.SalesApprovedAt, &q.RejectedAt,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	q.Status = Status(status)
	if salesApprovedBy.Valid {
		q.SalesApprovedBy = &salesApprovedBy.Int64
	}

	if q.Items, err = r.listItems(ctx, q.ID); err != nil {
		return nil, err
	}
	if q.Charges, err = r.listCharges(ctx, q.ID); err != nil {
		return nil, err
	}
	if q.Schedule, err = r.listSteps(ctx, q.ID); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *PgRepository) listItems(ctx context.Context, quotationID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stock_item_id, item_name, item_code, hsn_code,
		       quantity, unit_price, discount_percent, gst_percent,
		       price_including_gst, price_before_gst, gst_amount, discount_amount,
		       stock_on_hand, stock_status
		FROM quotation_items WHERE quotation_id = $1 ORDER BY id`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.StockItemID, &it.Name, &it.Code, &it.HSNCode,
			&it.Quantity, &it.UnitPrice, &it.DiscountPercent, &it.GSTPercent,
			&it.PriceIncludingGST, &it.PriceBeforeGST, &it.GSTAmount, &it.DiscountAmount,
			&it.StockOnHand, &it.StockStatus,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PgRepository) listCharges(ctx context.Context, quotationID int64) ([]AdditionalCharge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, amount, COALESCE(description, '')
		FROM quotation_charges WHERE quotation_id = $1 ORDER BY id`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []AdditionalCharge
	for rows.Next() {
		var c AdditionalCharge
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount, &c.Description); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *PgRepository) listSteps(ctx context.Context, quotationID int64) ([]PaymentStep, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, step_number, name, percentage, amount, due_date
		FROM payment_steps WHERE quotation_id = $1 ORDER BY step_number`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []PaymentStep
	for rows.Next() {
		var s PaymentStep
		if err := rows.Scan(&s.ID, &s.StepNumber, &s.Name, &s.Percentage, &s.Amount, &s.DueDate); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// Create inserts the quotation header and all child rows in one transaction.
func (r *PgRepository) Create(ctx context.Context, q *Quotation) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO quotations (
				number, request_id, customer_id, quote_date, valid_until, status,
				subtotal_before_gst, total_discount, total_gst, grand_total,
				notes, terms, created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
			RETURNING id`,
			q.Number, q.RequestID, q.CustomerID, q.QuoteDate, q.ValidUntil, string(q.Status),
			q.SubtotalBeforeGST, q.TotalDiscount, q.TotalGST, q.GrandTotal,
			q.Notes, q.Terms, q.CreatedBy,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert quotation: %w", err)
		}
		return r.insertChildren(ctx, tx, id, q)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Replace rewrites the header and all child rows of an existing quotation.
func (r *PgRepository) Replace(ctx context.Context, q *Quotation) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE quotations SET
				quote_date = $2, valid_until = $3,
				subtotal_before_gst = $4, total_discount = $5, total_gst = $6, grand_total = $7,
				notes = $8, terms = $9, updated_at = NOW()
			WHERE id = $1`,
			q.ID, q.QuoteDate, q.ValidUntil,
			q.SubtotalBeforeGST, q.TotalDiscount, q.TotalGST, q.GrandTotal,
			q.Notes, q.Terms,
		)
		if err != nil {
			return fmt.Errorf("update quotation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		for _, table := range []string{"quotation_items", "quotation_charges", "payment_steps"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE quotation_id = $1`, q.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return r.insertChildren(ctx, tx, q.ID, q)
	})
}

func (r *PgRepository) insertChildren(ctx context.Context, tx pgx.Tx, id int64, q *Quotation) error {
	for _, it := range q.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quotation_items (
				quotation_id, stock_item_id, item_name, item_code, hsn_code,
				quantity, unit_price, discount_percent, gst_percent,
				price_including_gst, price_before_gst, gst_amount, discount_amount,
				stock_on_hand, stock_status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			id, it.StockItemID, it.Name, it.Code, it.HSNCode,
			it.Quantity, it.UnitPrice, it.DiscountPercent, it.GSTPercent,
			it.PriceIncludingGST, it.PriceBeforeGST, it.GSTAmount, it.DiscountAmount,
			it.StockOnHand, it.StockStatus,
		); err != nil {
			return fmt.Errorf("insert quotation item: %w", err)
		}
	}
	for _, c := range q.Charges {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quotation_charges (quotation_id, name, amount, description)
			VALUES ($1, $2, $3, $4)`,
			id, c.Name, c.Amount, c.Description,
		); err != nil {
			return fmt.Errorf("insert quotation charge: %w", err)
		}
	}
	for _, s := range q.Schedule {
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_steps (quotation_id, step_number, name, percentage, amount, due_date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, s.StepNumber, s.Name, s.Percentage, s.Amount, s.DueDate,
		); err != nil {
			return fmt.Errorf("insert payment step: %w", err)
		}
	}
	return nil
}

// UpdateStatus applies a workflow transition with its timestamps.
func (r *PgRepository) UpdateStatus(ctx context.Context, id int64, status Status, actorID int64, reason *string, at time.Time) error {
	set := []string{"status = $2", "updated_at = NOW()"}
	args := []any{id, string(status)}

	switch status {
	case StatusSentToCustomer:
		args = append(args, at)
		set = append(set, fmt.Sprintf("sent_at = $%d", len(args)))
	case StatusCustomerApproved:
		args = append(args, at)
		set = append(set, fmt.Sprintf("customer_approved_at = $%d", len(args)))
	case StatusSalesApproved:
		args = append(args, actorID)
		set = append(set, fmt.Sprintf("sales_approved_by = $%d", len(args)))
		args = append(args, at)
		set = append(set, fmt.Sprintf("sales_approved_at = $%d", len(args)))
	case StatusRejected:
		args = append(args, reason)
		set = append(set, fmt.Sprintf("rejection_reason = $%d", len(args)))
		args = append(args, at)
		set = append(set, fmt.Sprintf("rejected_at = $%d", len(args)))
	}

	query := "UPDATE quotations SET " + strings.Join(set, ", ") + " WHERE id = $1"
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns filtered summaries and the total match count.
func (r *PgRepository) List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error) {
	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if req.CustomerID != nil {
		add("customer_id = $%d", *req.CustomerID)
	}
	if req.Status != nil {
		add("status = $%d", string(*req.Status))
	}
	if req.DateFrom != nil {
		add("quote_date >= $%d", *req.DateFrom)
	}
	if req.DateTo != nil {
		add("quote_date <= $%d", *req.DateTo)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quotations WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, req.Limit, req.Offset)
	query := fmt.Sprintf(`
		SELECT id, number, request_id, customer_id, quote_date, valid_until, status, grand_total, created_at
		FROM quotations WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var status string
		if err := rows.Scan(&s.ID, &s.Number, &s.RequestID, &s.CustomerID, &s.QuoteDate, &s.ValidUntil, &status, &s.GrandTotal, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// GenerateNumber produces the next quotation number for the month, in the
// form QT-YYYYMM-NNNN.
func (r *PgRepository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := fmt.Sprintf("QT-%s-", date.Format("200601"))
	var seq int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) + 1 FROM quotations WHERE number LIKE $1`, prefix+"%").Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// StepHasSubmissions reports whether any payment submission references the
// given schedule step.
func (r *PgRepository) StepHasSubmissions(ctx context.Context, quotationID int64, stepNumber int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payment_submissions
			WHERE quotation_id = $1 AND step_number = $2
		)`, quotationID, stepNumber).Scan(&exists)
	return exists, err
}

// ExpireLapsed persists EXPIRED for quotations past their validity that have
// not reached a terminal state.
func (r *PgRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations SET status = $1, updated_at = NOW()
		WHERE valid_until < $2
		  AND status IN ($3, $4, $5)`,
		string(StatusExpired), now,
		string(StatusDraft), string(StatusSentToCustomer), string(StatusCustomerApproved),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
