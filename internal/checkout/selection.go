package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StateIdle                     State = "idle"
	StateSelecting                State = "selecting"
	StateCheckoutAllInFlight      State = "checkout_all_in_flight"
	StateCheckoutAllSucceeded     State = "checkout_all_succeeded"
	StateCheckoutAllFailed        State = "checkout_all_failed"
	StatePartialCheckoutInFlight  State = "partial_checkout_in_flight"
	StatePartialCheckoutSucceeded State = "partial_checkout_succeeded"
	StatePartialCheckoutFailed    State = "partial_checkout_failed"
)

func (s State) InFlight() bool {
	return s == StateCheckoutAllInFlight || s == StatePartialCheckoutInFlight
}

func (s State) Finished() bool {
	return s == StateCheckoutAllSucceeded || s == StatePartialCheckoutSucceeded
}

var (
	ErrInFlight        = errors.New("checkout already in progress")
	ErrNothingSelected = errors.New("no guests selected for checkout")
	ErrFinished        = errors.New("checkout already completed")
)

const (
	// NothingSelectedMessage is shown when a partial checkout has no guest ticked.
	NothingSelectedMessage = "Vui lòng chọn ít nhất một khách để trả phòng"
	defaultFailureMessage  = "Trả phòng thất bại, vui lòng thử lại"
	checkoutAllMessage     = "Đã trả phòng cho cả đoàn"
	partialCheckoutMessage = "Đã trả phòng cho %d khách"
)

// Checkouter performs checkout calls against the facility backend.
type Checkouter interface {
	CheckoutAll(ctx context.Context, recordID int64) error
	CheckoutSelected(ctx context.Context, recordID int64, guests []string) error
}

// Outcome tells the caller what to do once a checkout call resolved.
type Outcome struct {
	Refresh bool   `json:"refresh"`
	Close   bool   `json:"close"`
	Message string `json:"message,omitempty"`
}

// Selection is the checkout panel state for one check-in record. After a
// failed call State is back to selecting and Result keeps the failure.
type Selection struct {
	RecordID  int64      `json:"recordId"`
	State     State      `json:"state"`
	Result    State      `json:"result,omitempty"`
	Rows      []GuestRow `json:"rows"`
	Pending   []string   `json:"pending,omitempty"`
	Message   string     `json:"message,omitempty"`
	OpenedAt  time.Time  `json:"openedAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewSelection(rec CheckInRecord, placeholder string) *Selection {
	now := time.Now()
	return &Selection{
		RecordID:  rec.ID,
		State:     StateIdle,
		Rows:      BuildRoster(rec, placeholder),
		OpenedAt:  now,
		UpdatedAt: now,
	}
}

func (s *Selection) touch(state State) {
	s.State = state
	s.UpdatedAt = time.Now()
}

func (s *Selection) guard() error {
	switch {
	case s.State.InFlight():
		return ErrInFlight
	case s.State.Finished():
		return ErrFinished
	}
	return nil
}

// Toggle sets the checked flag of guest id. The representative row and
// unknown ids are left alone.
func (s *Selection) Toggle(id string, checked bool) error {
	if err := s.guard(); err != nil {
		return err
	}
	for i := range s.Rows {
		if s.Rows[i].ID == id && !s.Rows[i].IsRepresentative {
			s.Rows[i].Checked = checked
			break
		}
	}
	s.touch(StateSelecting)
	return nil
}

// SelectedNames lists checked guests. The representative is never part of
// it, whatever its flag says.
func (s *Selection) SelectedNames() []string {
	names := []string{}
	for _, r := range s.Rows {
		if r.Checked && !r.IsRepresentative {
			names = append(names, r.Name)
		}
	}
	return names
}

// BeginCheckoutAll marks every row checked so the panel stops accepting
// toggles, then enters the in-flight state.
func (s *Selection) BeginCheckoutAll() error {
	if err := s.guard(); err != nil {
		return err
	}
	for i := range s.Rows {
		s.Rows[i].Checked = true
	}
	s.Pending = nil
	s.Message = ""
	s.touch(StateCheckoutAllInFlight)
	return nil
}

// BeginCheckoutSelected returns the guest names to submit.
func (s *Selection) BeginCheckoutSelected() ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	names := s.SelectedNames()
	if len(names) == 0 {
		s.Message = NothingSelectedMessage
		return nil, ErrNothingSelected
	}
	s.Pending = names
	s.Message = ""
	s.touch(StatePartialCheckoutInFlight)
	return names, nil
}

// Complete resolves the in-flight call. Rows keep their checked flags on
// failure so the operator can retry. Calls outside a checkout are ignored.
func (s *Selection) Complete(err error) Outcome {
	var succeeded, failed State
	switch s.State {
	case StateCheckoutAllInFlight:
		succeeded, failed = StateCheckoutAllSucceeded, StateCheckoutAllFailed
	case StatePartialCheckoutInFlight:
		succeeded, failed = StatePartialCheckoutSucceeded, StatePartialCheckoutFailed
	default:
		return Outcome{Message: s.Message}
	}

	if err != nil {
		s.Result = failed
		s.Message = failureMessage(err)
		s.Pending = nil
		s.touch(StateSelecting)
		return Outcome{Message: s.Message}
	}

	if succeeded == StateCheckoutAllSucceeded {
		s.Message = checkoutAllMessage
	} else {
		s.Message = fmt.Sprintf(partialCheckoutMessage, len(s.Pending))
	}
	s.Result = succeeded
	s.touch(succeeded)
	return Outcome{Refresh: true, Close: true, Message: s.Message}
}

func (s *Selection) CheckoutAll(ctx context.Context, c Checkouter) (Outcome, error) {
	if err := s.BeginCheckoutAll(); err != nil {
		return Outcome{}, err
	}
	err := c.CheckoutAll(ctx, s.RecordID)
	return s.Complete(err), err
}

func (s *Selection) CheckoutSelected(ctx context.Context, c Checkouter) (Outcome, error) {
	names, err := s.BeginCheckoutSelected()
	if err != nil {
		return Outcome{Message: s.Message}, err
	}
	err = c.CheckoutSelected(ctx, s.RecordID, names)
	return s.Complete(err), err
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
