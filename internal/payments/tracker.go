package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/quotation"
)

// StepView is the live, fully derived view of one schedule step. PaidAmount
// is always recomputed from verified submissions, never cached, so it cannot
// drift from the underlying records.
type StepView struct {
	quotation.PaymentStep
	PaidAmount decimal.Decimal `json:"paid_amount"`
	BalanceDue decimal.Decimal `json:"balance_due"`
	Status     StepStatus      `json:"status"`
	Overdue    bool            `json:"overdue"`
}

// TrackSteps derives the status of every schedule step from the submissions
// recorded against the quotation.
func TrackSteps(steps []quotation.PaymentStep, subs []Submission, now time.Time) []StepView {
	views := make([]StepView, 0, len(steps))
	for _, step := range steps {
		views = append(views, trackStep(step, subs, now))
	}
	return views
}

func trackStep(step quotation.PaymentStep, subs []Submission, now time.Time) StepView {
	paid := decimal.Zero
	for _, sub := range subs {
		if sub.StepNumber == step.StepNumber && sub.Status == SubmissionVerified {
			paid = paid.Add(sub.SubmittedAmount)
		}
	}

	balance := step.Amount.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	view := StepView{PaymentStep: step, PaidAmount: paid, BalanceDue: balance}

	switch {
	case paid.GreaterThanOrEqual(step.Amount):
		// Paid absorbs: a settled step never reverts to overdue.
		view.Status = StepPaid
	case paid.GreaterThan(decimal.Zero):
		view.Status = StepPartiallyPaid
	default:
		view.Status = StepPending
	}

	if view.Status != StepPaid && !step.DueDate.IsZero() && now.After(step.DueDate) {
		view.Overdue = true
		view.Status = StepOverdue
	}
	return view
}
