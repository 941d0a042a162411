package quotation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quotation is the aggregate root for a priced offer against a customer
// request. All derived monetary fields are refreshed by recalculate() at the
// end of every mutating method; no code path leaves them stale.
type Quotation struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	RequestID  int64     `json:"request_id"`
	CustomerID int64     `json:"customer_id"`
	QuoteDate  time.Time `json:"quote_date"`
	ValidUntil time.Time `json:"valid_until"`
	Status     Status    `json:"status"`

	Items   []Item             `json:"items"`
	Charges []AdditionalCharge `json:"charges"`

	SubtotalBeforeGST decimal.Decimal `json:"subtotal_before_gst"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	TotalGST          decimal.Decimal `json:"total_gst"`
	GrandTotal        decimal.Decimal `json:"grand_total"`

	Schedule []PaymentStep `json:"payment_schedule"`

	Notes           *string `json:"notes,omitempty"`
	Terms           *string `json:"terms_and_conditions,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`

	CreatedBy          int64      `json:"created_by"`
	SentAt             *time.Time `json:"sent_at,omitempty"`
	CustomerApprovedAt *time.Time `json:"customer_approved_at,omitempty"`
	SalesApprovedBy    *int64     `json:"sales_approved_by,omitempty"`
	SalesApprovedAt    *time.Time `json:"sales_approved_at,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is one priced line. UnitPrice is tax inclusive; the four derived
// fields are recomputed from quantity, unit price, discount and GST rate.
type Item struct {
	ID          int64  `json:"id"`
	StockItemID int64  `json:"stock_item_id"`
	Name        string `json:"item_name"`
	Code        string `json:"item_code"`
	HSNCode     string `json:"hsn_code"`

	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percentage"`
	GSTPercent      decimal.Decimal `json:"gst_percentage"`

	PriceIncludingGST decimal.Decimal `json:"price_including_gst"`
	PriceBeforeGST    decimal.Decimal `json:"price_before_gst"`
	GSTAmount         decimal.Decimal `json:"gst_amount"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`

	// Stock snapshot captured from the catalog at seeding time.
	StockOnHand int64  `json:"stock_on_hand"`
	StockStatus string `json:"stock_status"`
}

// AdditionalCharge is a named freeform surcharge added verbatim to the grand
// total. Charges never attract tax or discount.
type AdditionalCharge struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// PaymentStep is one slice of the payment schedule. StepNumber is a stable
// 1-based identifier that survives removals; Amount is always derived from
// the grand total and the percentage.
type PaymentStep struct {
	ID         int64           `json:"id"`
	StepNumber int             `json:"step_number"`
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"due_date"`
}

// Summary is the list-view projection of a quotation.
type Summary struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	RequestID    int64           `json:"request_id"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	QuoteDate    time.Time       `json:"quote_date"`
	ValidUntil   time.Time       `json:"valid_until"`
	Status       Status          `json:"status"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	CreatedAt    time.Time       `json:"created_at"`
}
