package csvimport

import (
	"errors"
	"fmt"
)

// StructuralRow marks an error that makes the whole file uninterpretable.
const StructuralRow = -1

type Source string

const (
	SourceLocal  Source = "local"
	SourceServer Source = "server"
)

type ValidationError struct {
	RowIndex int    `json:"rowIndex" yaml:"rowIndex"`
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Message  string `json:"message" yaml:"message"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Source   Source `json:"source" yaml:"source"`
}

func (e ValidationError) IsStructural() bool {
	return e.RowIndex == StructuralRow
}

func (e ValidationError) Error() string {
	if e.IsStructural() {
		return e.Message
	}
	return fmt.Sprintf("row %d: %s", e.RowIndex, e.Message)
}

var (
	ErrNotSubmittable   = errors.New("import session has no rows or a structural error")
	ErrSubmitInFlight   = errors.New("import submission already in progress")
	ErrAlreadySubmitted = errors.New("import session already submitted")
	ErrEmptyResponse    = errors.New("import returned neither a response nor an error")
)

func structural(msg string) ValidationError {
	return ValidationError{RowIndex: StructuralRow, Message: msg, Source: SourceLocal}
}
