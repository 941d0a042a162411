package quotation

import "time"

// CreateQuotationRequest seeds a quotation from an originating customer
// request. One line is created per requested variant; catalog metadata
// (HSN code, GST rate, stock snapshot) is attached during population.
type CreateQuotationRequest struct {
	RequestID  int64            `json:"request_id" validate:"required,gt=0"`
	CustomerID int64            `json:"customer_id" validate:"required,gt=0"`
	QuoteDate  time.Time        `json:"quote_date" validate:"required"`
	ValidUntil time.Time        `json:"valid_until" validate:"required"`
	Variants   []RequestVariant `json:"variants" validate:"required,min=1,dive"`
	Notes      *string          `json:"notes,omitempty"`
	Terms      *string          `json:"terms_and_conditions,omitempty"`
}

// RequestVariant is one requested product variant. EstimatedPrice is already
// tax inclusive and becomes the line's unit price basis.
type RequestVariant struct {
	StockItemID    int64   `json:"stock_item_id" validate:"required,gt=0"`
	ItemName       string  `json:"item_name" validate:"required"`
	ItemCode       string  `json:"item_code" validate:"required"`
	Quantity       int64   `json:"quantity" validate:"required,gt=0"`
	EstimatedPrice float64 `json:"estimated_price" validate:"required,gt=0"`
}

// UpdateQuotationRequest replaces the editable sections of a draft. Nil
// sections are left untouched; a non-nil section replaces the previous
// content wholesale, mirroring the editor's full-form submit.
type UpdateQuotationRequest struct {
	ValidUntil *time.Time        `json:"valid_until,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	Terms      *string           `json:"terms_and_conditions,omitempty"`
	Items      *[]ItemRequest    `json:"items,omitempty" validate:"omitempty,dive"`
	Charges    *[]ChargeRequest  `json:"charges,omitempty" validate:"omitempty,dive"`
	Schedule   *[]StepRequest    `json:"payment_schedule,omitempty" validate:"omitempty,dive"`
}

// ItemRequest is one line as edited by the user.
type ItemRequest struct {
	StockItemID     int64   `json:"stock_item_id" validate:"gte=0"`
	ItemName        string  `json:"item_name" validate:"required"`
	ItemCode        string  `json:"item_code" validate:"required"`
	HSNCode         string  `json:"hsn_code,omitempty"`
	Quantity        int64   `json:"quantity" validate:"required,gt=0"`
	UnitPrice       float64 `json:"unit_price" validate:"required,gt=0"`
	DiscountPercent float64 `json:"discount_percentage" validate:"gte=0,lte=100"`
	GSTPercent      float64 `json:"gst_percentage" validate:"gte=0,lte=100"`
}

// ChargeRequest is one freeform surcharge as edited by the user.
type ChargeRequest struct {
	Name        string  `json:"name" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description,omitempty"`
}

// StepRequest is one payment schedule step as edited by the user.
type StepRequest struct {
	Name       string    `json:"name" validate:"required"`
	Percentage float64   `json:"percentage" validate:"required,gt=0,lte=100"`
	DueDate    time.Time `json:"due_date" validate:"required"`
}

// RejectQuotationRequest carries the mandatory rejection reason.
type RejectQuotationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ListQuotationsRequest filters the quotation listing.
type ListQuotationsRequest struct {
	CustomerID *int64     `json:"customer_id,omitempty"`
	Status     *Status    `json:"status,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	Limit      int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int        `json:"offset" validate:"gte=0"`
}
