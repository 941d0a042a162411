package quotation

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Status enumerates quotation lifecycle states.
type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusSentToCustomer   Status = "SENT_TO_CUSTOMER"
	StatusCustomerApproved Status = "CUSTOMER_APPROVED"
	StatusSalesApproved    Status = "SALES_APPROVED"
	StatusRejected         Status = "REJECTED"
	StatusExpired          Status = "EXPIRED"
)

// allowedTransitions is the single source of truth for the approval workflow.
// A SENT_TO_CUSTOMER self-transition models a re-send.
var allowedTransitions = map[Status][]Status{
	StatusDraft:            {StatusSentToCustomer, StatusExpired},
	StatusSentToCustomer:   {StatusSentToCustomer, StatusCustomerApproved, StatusRejected, StatusExpired},
	StatusCustomerApproved: {StatusSalesApproved, StatusRejected, StatusExpired},
	StatusSalesApproved:    nil,
	StatusRejected:         nil,
	StatusExpired:          nil,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no further transitions exist from s.
func (s Status) Terminal() bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the workflow permits moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// CanEdit reports whether commercial terms (items, charges, schedule, notes)
// may still be mutated in status s.
func CanEdit(s Status) bool {
	return s == StatusDraft || s == StatusSentToCustomer
}

// CanSend reports whether the quotation may be sent (or re-sent) to the customer.
func CanSend(s Status) bool {
	return s == StatusDraft || s == StatusSentToCustomer
}

// EffectiveStatus layers expiry on top of the stored status. Expiry is a
// read-time derivation: a quotation past its validity lapses unless it has
// already reached a terminal state.
func EffectiveStatus(s Status, validUntil time.Time, now time.Time) Status {
	if s.Terminal() {
		return s
	}
	if !validUntil.IsZero() && now.After(validUntil) {
		return StatusExpired
	}
	return s
}

func transitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", shared.ErrTransition, from, to)
}
