package domain

import "time"

type CheckoutMode string

const (
	CheckoutModeAll      CheckoutMode = "all"
	CheckoutModeSelected CheckoutMode = "selected"
)

// ImportRun is the audit row of one import submission.
type ImportRun struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"sessionId"`
	Kind           string    `json:"kind"`
	FileName       string    `json:"fileName"`
	RowCount       int       `json:"rowCount"`
	LocalErrors    int       `json:"localErrors"`
	SuccessCount   int       `json:"successCount"`
	ErrorCount     int       `json:"errorCount"`
	Status         string    `json:"status"`
	FailureMessage string    `json:"failureMessage,omitempty"`
	SubmittedBy    string    `json:"submittedBy"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// CheckoutRun is the audit row of one checkout call.
type CheckoutRun struct {
	ID          int64        `json:"id"`
	CheckInID   int64        `json:"checkInId"`
	Mode        CheckoutMode `json:"mode"`
	Guests      []string     `json:"guests"`
	Succeeded   bool         `json:"succeeded"`
	Message     string       `json:"message,omitempty"`
	PerformedBy string       `json:"performedBy"`
	PerformedAt time.Time    `json:"performedAt"`
}
