// Package pdfexport materializes a quotation into a render-ready payload for
// the external PDF service. The renderer trusts every figure as given and
// performs no calculation of its own, so all derived fields must be present
// and pre-formatted here.
package pdfexport

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/quotation"
)

var printer = message.NewPrinter(language.English)

// Payload is the document handed to the PDF renderer.
type Payload struct {
	Number     string `json:"number"`
	Status     string `json:"status"`
	QuoteDate  string `json:"quote_date"`
	ValidUntil string `json:"valid_until"`

	Lines   []Line   `json:"lines"`
	Charges []Charge `json:"charges"`
	Steps   []Step   `json:"payment_schedule"`

	SubtotalBeforeGST string `json:"subtotal_before_gst"`
	TotalDiscount     string `json:"total_discount"`
	TotalGST          string `json:"total_gst"`
	GrandTotal        string `json:"grand_total"`

	Notes string `json:"notes,omitempty"`
	Terms string `json:"terms_and_conditions,omitempty"`
}

// Line is one rendered item row.
type Line struct {
	Name              string `json:"name"`
	Code              string `json:"code"`
	HSNCode           string `json:"hsn_code"`
	Quantity          int64  `json:"quantity"`
	UnitPrice         string `json:"unit_price"`
	DiscountPercent   string `json:"discount_percentage"`
	DiscountAmount    string `json:"discount_amount"`
	GSTPercent        string `json:"gst_percentage"`
	GSTAmount         string `json:"gst_amount"`
	PriceBeforeGST    string `json:"price_before_gst"`
	PriceIncludingGST string `json:"price_including_gst"`
}

// Charge is one rendered surcharge row.
type Charge struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
}

// Step is one rendered payment schedule row.
type Step struct {
	StepNumber int    `json:"step_number"`
	Name       string `json:"name"`
	Percentage string `json:"percentage"`
	Amount     string `json:"amount"`
	DueDate    string `json:"due_date"`
	Status     string `json:"status,omitempty"`
	PaidAmount string `json:"paid_amount,omitempty"`
}

// Build assembles the payload from the engine's derived state. Step views
// are optional; when absent the schedule renders without payment progress.
func Build(q *quotation.Quotation, steps []payments.StepView) Payload {
	p := Payload{
		Number:            q.Number,
		Status:            string(q.Status),
		QuoteDate:         q.QuoteDate.Format("02 Jan 2006"),
		ValidUntil:        q.ValidUntil.Format("02 Jan 2006"),
		SubtotalBeforeGST: money(q.SubtotalBeforeGST.InexactFloat64()),
		TotalDiscount:     money(q.TotalDiscount.InexactFloat64()),
		TotalGST:          money(q.TotalGST.InexactFloat64()),
		GrandTotal:        money(q.GrandTotal.InexactFloat64()),
	}
	if q.Notes != nil {
		p.Notes = *q.Notes
	}
	if q.Terms != nil {
		p.Terms = *q.Terms
	}

	for _, it := range q.Items {
		p.Lines = append(p.Lines, Line{
			Name:              it.Name,
			Code:              it.Code,
			HSNCode:           it.HSNCode,
			Quantity:          it.Quantity,
			UnitPrice:         money(it.UnitPrice.InexactFloat64()),
			DiscountPercent:   it.DiscountPercent.StringFixed(2),
			DiscountAmount:    money(it.DiscountAmount.InexactFloat64()),
			GSTPercent:        it.GSTPercent.StringFixed(2),
			GSTAmount:         money(it.GSTAmount.InexactFloat64()),
			PriceBeforeGST:    money(it.PriceBeforeGST.InexactFloat64()),
			PriceIncludingGST: money(it.PriceIncludingGST.InexactFloat64()),
		})
	}
	for _, c := range q.Charges {
		p.Charges = append(p.Charges, Charge{
			Name:        c.Name,
			Description: c.Description,
			Amount:      money(c.Amount.InexactFloat64()),
		})
	}

	if len(steps) > 0 {
		for _, sv := range steps {
			p.Steps = append(p.Steps, Step{
				StepNumber: sv.StepNumber,
				Name:       sv.Name,
				Percentage: sv.Percentage.StringFixed(2),
				Amount:     money(sv.Amount.InexactFloat64()),
				DueDate:    formatDate(sv.DueDate),
				Status:     string(sv.Status),
				PaidAmount: money(sv.PaidAmount.InexactFloat64()),
			})
		}
	} else {
		for _, st := range q.Schedule {
			p.Steps = append(p.Steps, Step{
				StepNumber: st.StepNumber,
				Name:       st.Name,
				Percentage: st.Percentage.StringFixed(2),
				Amount:     money(st.Amount.InexactFloat64()),
				DueDate:    formatDate(st.DueDate),
			})
		}
	}
	return p
}

func money(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}
