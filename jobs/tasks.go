package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPaymentsOverdueScan marks payment steps past due with an
	// outstanding balance.
	TaskPaymentsOverdueScan = "payments:overdue_scan"
	// TaskQuotationExpiryScan persists EXPIRED for quotations past their
	// validity date.
	TaskQuotationExpiryScan = "quotations:expiry_scan"
)

// ScanPayload carries the reference time for time-driven scans.
type ScanPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewOverdueScanTask constructs the overdue scan task.
func NewOverdueScanTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ScanPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentsOverdueScan, data), nil
}

// NewExpiryScanTask constructs the quotation expiry scan task.
func NewExpiryScanTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ScanPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationExpiryScan, data), nil
}

// scanTime decodes the reference time, defaulting to now for cron-enqueued
// tasks with an empty payload.
func scanTime(t *asynq.Task) time.Time {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.AsOf.IsZero() {
		return time.Now()
	}
	return payload.AsOf
}
