package quotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Default two-step schedule applied when a quotation is created without an
// explicit plan.
const (
	defaultAdvanceName    = "Advance Payment"
	defaultFinalName      = "Final Payment"
	defaultAdvancePercent = 60
	defaultFinalPercent   = 40
	defaultAdvanceDueDays = 2
	defaultFinalDueDays   = 30
)

var percentCeiling = decimal.NewFromInt(100)

// ItemPatch carries a partial item update. Nil fields are left untouched.
type ItemPatch struct {
	Name            *string
	Code            *string
	HSNCode         *string
	Quantity        *int64
	UnitPrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
	GSTPercent      *decimal.Decimal
}

func (q *Quotation) ensureEditable() error {
	if !CanEdit(q.Status) {
		return fmt.Errorf("%w: quotation %s is not editable in status %s", shared.ErrTransition, q.Number, q.Status)
	}
	return nil
}

func validateItem(it Item) error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: item name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(it.Code) == "" {
		return fmt.Errorf("%w: item code is required", shared.ErrValidation)
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("%w: item quantity must be positive", shared.ErrValidation)
	}
	if it.UnitPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: item unit price must be positive", shared.ErrValidation)
	}
	if it.DiscountPercent.IsNegative() || it.DiscountPercent.GreaterThan(percentCeiling) {
		return fmt.Errorf("%w: discount percentage must be between 0 and 100", shared.ErrValidation)
	}
	if it.GSTPercent.IsNegative() || it.GSTPercent.GreaterThan(percentCeiling) {
		return fmt.Errorf("%w: gst percentage must be between 0 and 100", shared.ErrValidation)
	}
	return nil
}

// AddItem validates and appends a line, then refreshes every derived field.
func (q *Quotation) AddItem(it Item) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if err := validateItem(it); err != nil {
		return err
	}
	q.Items = append(q.Items, it)
	q.recalculate()
	return nil
}

// UpdateItem applies a partial update to the line at index. Derived fields
// for the line and the quotation are refreshed regardless of which fields
// changed; recalculation is idempotent.
func (q *Quotation) UpdateItem(index int, patch ItemPatch) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if index < 0 || index >= len(q.Items) {
		return fmt.Errorf("%w: item index %d out of range", shared.ErrValidation, index)
	}
	it := q.Items[index]
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Code != nil {
		it.Code = *patch.Code
	}
	if patch.HSNCode != nil {
		it.HSNCode = *patch.HSNCode
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		it.UnitPrice = *patch.UnitPrice
	}
	if patch.DiscountPercent != nil {
		it.DiscountPercent = *patch.DiscountPercent
	}
	if patch.GSTPercent != nil {
		it.GSTPercent = *patch.GSTPercent
	}
	if err := validateItem(it); err != nil {
		return err
	}
	q.Items[index] = it
	q.recalculate()
	return nil
}

// RemoveItem drops the line at index and refreshes totals.
func (q *Quotation) RemoveItem(index int) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if index < 0 || index >= len(q.Items) {
		return fmt.Errorf("%w: item index %d out of range", shared.ErrValidation, index)
	}
	q.Items = append(q.Items[:index], q.Items[index+1:]...)
	q.recalculate()
	return nil
}

// AddCharge appends a surcharge. Charges carry no tax or discount logic.
func (q *Quotation) AddCharge(name string, amount decimal.Decimal, description string) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: charge name is required", shared.ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: charge amount must be positive", shared.ErrValidation)
	}
	q.Charges = append(q.Charges, AdditionalCharge{Name: name, Amount: amount.Round(pricing.Scale), Description: description})
	q.recalculate()
	return nil
}

// RemoveCharge drops the charge at index and refreshes totals.
func (q *Quotation) RemoveCharge(index int) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if index < 0 || index >= len(q.Charges) {
		return fmt.Errorf("%w: charge index %d out of range", shared.ErrValidation, index)
	}
	q.Charges = append(q.Charges[:index], q.Charges[index+1:]...)
	q.recalculate()
	return nil
}

// AddPaymentStep appends a schedule step. The cumulative percentage across
// all steps may never exceed 100; a violating addition is rejected before
// any mutation.
func (q *Quotation) AddPaymentStep(name string, percentage decimal.Decimal, dueDate time.Time) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: payment step name is required", shared.ErrValidation)
	}
	if percentage.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: payment step percentage must be positive", shared.ErrValidation)
	}
	if q.schedulePercentTotal().Add(percentage).GreaterThan(percentCeiling) {
		return fmt.Errorf("%w: schedule percentages cannot exceed 100", shared.ErrValidation)
	}
	q.Schedule = append(q.Schedule, PaymentStep{
		StepNumber: q.nextStepNumber(),
		Name:       name,
		Percentage: percentage,
		DueDate:    dueDate,
	})
	q.recalculate()
	return nil
}

// RemovePaymentStep drops the step with the given stable step number.
// Remaining steps keep their historical numbers. Callers must ensure no
// payment submission references the step before removal.
func (q *Quotation) RemovePaymentStep(stepNumber int) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	for i, step := range q.Schedule {
		if step.StepNumber == stepNumber {
			q.Schedule = append(q.Schedule[:i], q.Schedule[i+1:]...)
			q.recalculate()
			return nil
		}
	}
	return fmt.Errorf("%w: payment step %d not found", shared.ErrValidation, stepNumber)
}

// ApplyDefaultSchedule installs the standard 60/40 advance/final split with
// due dates relative to now. Any existing steps are replaced.
func (q *Quotation) ApplyDefaultSchedule(now time.Time) {
	q.Schedule = []PaymentStep{
		{
			StepNumber: 1,
			Name:       defaultAdvanceName,
			Percentage: decimal.NewFromInt(defaultAdvancePercent),
			DueDate:    now.AddDate(0, 0, defaultAdvanceDueDays),
		},
		{
			StepNumber: 2,
			Name:       defaultFinalName,
			Percentage: decimal.NewFromInt(defaultFinalPercent),
			DueDate:    now.AddDate(0, 0, defaultFinalDueDays),
		},
	}
	q.recalculate()
}

// SetNotes updates free-text notes while the quotation is editable.
func (q *Quotation) SetNotes(notes *string) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	q.Notes = notes
	return nil
}

// SetTerms updates terms and conditions while the quotation is editable.
func (q *Quotation) SetTerms(terms *string) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	q.Terms = terms
	return nil
}

// Recalculate refreshes every derived field from first principles. It is
// exported for callers that rebuild the aggregate from external state; all
// mutating methods invoke it internally.
func (q *Quotation) Recalculate() {
	q.recalculate()
}

func (q *Quotation) recalculate() {
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	totalGST := decimal.Zero

	for i := range q.Items {
		it := &q.Items[i]
		b := pricing.ComputeLine(it.Quantity, it.UnitPrice, it.DiscountPercent, it.GSTPercent)
		it.DiscountAmount = b.DiscountAmount
		it.PriceIncludingGST = b.PriceIncludingGST
		it.PriceBeforeGST = b.PriceBeforeGST
		it.GSTAmount = b.GSTAmount

		subtotal = subtotal.Add(it.PriceBeforeGST)
		totalDiscount = totalDiscount.Add(it.DiscountAmount)
		totalGST = totalGST.Add(it.GSTAmount)
	}

	charges := decimal.Zero
	for _, c := range q.Charges {
		charges = charges.Add(c.Amount)
	}

	q.SubtotalBeforeGST = subtotal
	q.TotalDiscount = totalDiscount
	q.TotalGST = totalGST
	q.GrandTotal = subtotal.Add(totalGST).Add(charges)

	// Grand total changes propagate into the schedule immediately; the
	// percentages themselves are never touched.
	for i := range q.Schedule {
		q.Schedule[i].Amount = pricing.Portion(q.GrandTotal, q.Schedule[i].Percentage)
	}
}

func (q *Quotation) schedulePercentTotal() decimal.Decimal {
	total := decimal.Zero
	for _, step := range q.Schedule {
		total = total.Add(step.Percentage)
	}
	return total
}

func (q *Quotation) nextStepNumber() int {
	max := 0
	for _, step := range q.Schedule {
		if step.StepNumber > max {
			max = step.StepNumber
		}
	}
	return max + 1
}

// StepByNumber returns the schedule step with the given stable number.
func (q *Quotation) StepByNumber(stepNumber int) (PaymentStep, bool) {
	for _, step := range q.Schedule {
		if step.StepNumber == stepNumber {
			return step, true
		}
	}
	return PaymentStep{}, false
}
