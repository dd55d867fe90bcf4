package csvimport

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusParsing    Status = "parsing"
	StatusParsed     Status = "parsed"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

const defaultFailureMessage = "Nhập dữ liệu thất bại, vui lòng thử lại"

// Importer submits one batch of rows for a kind. It returns an error only
// when the batch could not be processed at all.
type Importer interface {
	ImportRows(ctx context.Context, kind Kind, rows []CsvRow) (*ImportResponse, error)
}

type Summary struct {
	SuccessCount int `json:"successCount"`
	ErrorCount   int `json:"errorCount"`
}

// Session is the state of one import, from file selection to the server's
// verdict. A new file replaces the session wholesale.
type Session struct {
	ID             string            `json:"id"`
	Kind           Kind              `json:"kind"`
	FileName       string            `json:"fileName,omitempty"`
	Status         Status            `json:"status"`
	Delimiter      string            `json:"delimiter,omitempty"`
	Columns        []string          `json:"columns"`
	Rows           []CsvRow          `json:"rows"`
	Errors         []ValidationError `json:"errors"`
	Skipped        int               `json:"skipped"`
	Unattributed   []string          `json:"unattributed,omitempty"`
	Summary        *Summary          `json:"summary,omitempty"`
	FailureMessage string            `json:"failureMessage,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func NewSession(id string, kind Kind, fileName string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Kind:      kind,
		FileName:  fileName,
		Status:    StatusIdle,
		Columns:   []string{},
		Rows:      []CsvRow{},
		Errors:    []ValidationError{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) touch(status Status) {
	s.Status = status
	s.UpdatedAt = time.Now()
}

// BeginParse discards anything left from a previous file.
func (s *Session) BeginParse() {
	s.Delimiter = ""
	s.Columns = []string{}
	s.Rows = []CsvRow{}
	s.Errors = []ValidationError{}
	s.Skipped = 0
	s.Unattributed = nil
	s.Summary = nil
	s.FailureMessage = ""
	s.touch(StatusParsing)
}

func (s *Session) Load(res *Result) {
	s.Delimiter = res.Delimiter
	s.Columns = res.Columns
	s.Rows = res.Rows
	s.Errors = res.Errors
	s.Skipped = res.Skipped
	s.touch(StatusParsed)
}

func (s *Session) HasStructuralError() bool {
	for _, e := range s.Errors {
		if e.IsStructural() {
			return true
		}
	}
	return false
}

// LocalErrorCount counts row-level errors found before submission.
func (s *Session) LocalErrorCount() int {
	n := 0
	for _, e := range s.Errors {
		if e.Source == SourceLocal && !e.IsStructural() {
			n++
		}
	}
	return n
}

// CanSubmit ignores row-level errors on purpose: the backend re-validates
// every row and has the final say.
func (s *Session) CanSubmit() bool {
	return len(s.Rows) > 0 && !s.HasStructuralError()
}

func (s *Session) BeginSubmit() error {
	switch s.Status {
	case StatusSubmitting:
		return ErrSubmitInFlight
	case StatusSucceeded:
		return ErrAlreadySubmitted
	}
	if !s.CanSubmit() {
		return ErrNotSubmittable
	}
	s.FailureMessage = ""
	s.touch(StatusSubmitting)
	return nil
}

// Complete records the backend's answer. A response with row failures is
// still a success; err marks a failed submission that may be retried.
// Calls outside a submission are ignored.
func (s *Session) Complete(resp *ImportResponse, err error) {
	if s.Status != StatusSubmitting {
		return
	}
	if err != nil || resp == nil {
		s.FailureMessage = failureMessage(err)
		s.touch(StatusFailed)
		return
	}

	rec := Reconcile(s.Kind, s.Rows, s.localErrors(), resp)
	s.Errors = rec.Errors
	s.Unattributed = rec.Unattributed
	s.Summary = &Summary{SuccessCount: resp.SuccessCount, ErrorCount: resp.ErrorCount}
	s.touch(StatusSucceeded)
}

// Submit runs a whole submission against imp.
func (s *Session) Submit(ctx context.Context, imp Importer) error {
	if err := s.BeginSubmit(); err != nil {
		return err
	}
	resp, err := imp.ImportRows(ctx, s.Kind, s.Rows)
	if resp == nil && err == nil {
		err = ErrEmptyResponse
	}
	s.Complete(resp, err)
	return err
}

// userMessager is implemented by backend errors that carry a message fit
// for operators.
type userMessager interface {
	UserMessage() string
}

func failureMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	return defaultFailureMessage
}

func (s *Session) localErrors() []ValidationError {
	out := make([]ValidationError, 0, len(s.Errors))
	for _, e := range s.Errors {
		if e.Source != SourceServer {
			out = append(out, e)
		}
	}
	return out
}
