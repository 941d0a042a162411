package pdfexport

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/quotation"
)

func sampleQuotation() *quotation.Quotation {
	q := &quotation.Quotation{
		Number:     "QT-202506-0001",
		Status:     quotation.StatusSalesApproved,
		QuoteDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Items: []quotation.Item{
			{
				Name:       "Hydraulic Pump",
				Code:       "HP-100",
				HSNCode:    "8413",
				Quantity:   100,
				UnitPrice:  decimal.RequireFromString("125.50"),
				GSTPercent: decimal.NewFromInt(18),
			},
		},
		Charges: []quotation.AdditionalCharge{
			{Name: "Freight", Amount: decimal.RequireFromString("1500")},
		},
		Schedule: []quotation.PaymentStep{
			{StepNumber: 1, Name: "Advance", Percentage: decimal.NewFromInt(60), DueDate: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
			{StepNumber: 2, Name: "Final", Percentage: decimal.NewFromInt(40), DueDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	q.Recalculate()
	return q
}

func TestBuildFormatsFigures(t *testing.T) {
	q := sampleQuotation()
	p := Build(q, nil)

	require.Equal(t, "QT-202506-0001", p.Number)
	require.Equal(t, "SALES_APPROVED", p.Status)
	require.Equal(t, "01 Jun 2025", p.QuoteDate)
	require.Equal(t, "01 Jul 2025", p.ValidUntil)

	// 100 x 125.50 = 12550 inclusive, grouped thousands.
	require.Len(t, p.Lines, 1)
	require.Equal(t, "12,550.00", p.Lines[0].PriceIncludingGST)
	require.Equal(t, "18.00", p.Lines[0].GSTPercent)

	require.Len(t, p.Charges, 1)
	require.Equal(t, "1,500.00", p.Charges[0].Amount)

	require.Equal(t, "14,050.00", p.GrandTotal)
	require.Len(t, p.Steps, 2)
	require.Equal(t, "8,430.00", p.Steps[0].Amount)
	require.Empty(t, p.Steps[0].Status)
}

func TestBuildWithStepViews(t *testing.T) {
	q := sampleQuotation()
	views := payments.TrackSteps(q.Schedule, []payments.Submission{
		{StepNumber: 1, SubmittedAmount: decimal.RequireFromString("8430"), Status: payments.SubmissionVerified},
	}, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))

	p := Build(q, views)
	require.Len(t, p.Steps, 2)
	require.Equal(t, "PAID", p.Steps[0].Status)
	require.Equal(t, "8,430.00", p.Steps[0].PaidAmount)
	require.Equal(t, "PENDING", p.Steps[1].Status)
}

func TestBuildOptionalText(t *testing.T) {
	q := sampleQuotation()
	notes := "delivery within 3 weeks"
	q.Notes = &notes

	p := Build(q, nil)
	require.Equal(t, "delivery within 3 weeks", p.Notes)
	require.Empty(t, p.Terms)
}
