package payments

import "time"

// CreateSubmissionRequest records a customer-reported transfer.
type CreateSubmissionRequest struct {
	QuotationID     int64      `json:"quotation_id" validate:"required,gt=0"`
	StepNumber      int        `json:"payment_step_number" validate:"required,gt=0"`
	SubmittedAmount float64    `json:"submitted_amount" validate:"required,gt=0"`
	PaymentMethod   string     `json:"payment_method" validate:"required"`
	TransactionID   *string    `json:"transaction_id,omitempty"`
	UTRReference    *string    `json:"utr_reference,omitempty"`
	BankName        *string    `json:"bank_name,omitempty"`
	ChequeNumber    *string    `json:"cheque_number,omitempty"`
	SubmissionDate  *time.Time `json:"submission_date,omitempty"`
	ReceiptImageURL *string    `json:"receipt_image,omitempty"`
}

// ReviewSubmissionRequest applies a reviewer decision to a submission.
// Resetting to PENDING is allowed as an explicit correction action.
type ReviewSubmissionRequest struct {
	Status SubmissionStatus `json:"status" validate:"required"`
	Notes  *string          `json:"verification_notes,omitempty"`
}
