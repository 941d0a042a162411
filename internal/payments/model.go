// Package payments tracks customer payment submissions against a
// quotation's payment schedule and derives per-step lifecycle status.
package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmissionStatus enumerates review states of a payment submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionVerified SubmissionStatus = "VERIFIED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// Valid reports whether s is a known submission status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionVerified, SubmissionRejected:
		return true
	}
	return false
}

// StepStatus enumerates derived payment step states. OVERDUE is layered on
// top of PENDING/PARTIALLY_PAID at read time; PAID is absorbing.
type StepStatus string

const (
	StepPending       StepStatus = "PENDING"
	StepPartiallyPaid StepStatus = "PARTIALLY_PAID"
	StepPaid          StepStatus = "PAID"
	StepOverdue       StepStatus = "OVERDUE"
)

// Submission is a customer-reported transfer against one schedule step.
// Method-specific reference fields are optional and depend on PaymentMethod.
type Submission struct {
	ID          uuid.UUID `json:"id"`
	QuotationID int64     `json:"quotation_id"`
	StepNumber  int       `json:"payment_step_number"`

	SubmittedAmount decimal.Decimal `json:"submitted_amount"`
	PaymentMethod   string          `json:"payment_method"`
	TransactionID   *string         `json:"transaction_id,omitempty"`
	UTRReference    *string         `json:"utr_reference,omitempty"`
	BankName        *string         `json:"bank_name,omitempty"`
	ChequeNumber    *string         `json:"cheque_number,omitempty"`
	SubmissionDate  time.Time       `json:"submission_date"`
	ReceiptImageURL *string         `json:"receipt_image,omitempty"`

	Status            SubmissionStatus `json:"status"`
	VerificationNotes *string          `json:"verification_notes,omitempty"`
	VerifiedAt        *time.Time       `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
