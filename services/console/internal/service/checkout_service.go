package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/checkin-console/internal/checkout"
	"github.com/diagnosis/checkin-console/internal/facility"
	"github.com/diagnosis/checkin-console/pkg/config"
	"github.com/diagnosis/checkin-console/pkg/events"
	"github.com/diagnosis/checkin-console/pkg/logger"
	"github.com/diagnosis/checkin-console/services/console/internal/domain"
	"github.com/diagnosis/checkin-console/services/console/internal/repository"
)

var ErrCheckInNotFound = errors.New("check-in not found")

// CheckInBackend is the part of the facility backend the checkout panel uses.
type CheckInBackend interface {
	checkout.Checkouter
	GetCheckIn(ctx context.Context, id int64) (*checkout.CheckInRecord, error)
	ListActiveCheckIns(ctx context.Context, opts facility.ListOptions) ([]checkout.CheckInRecord, error)
}

// CheckoutResult pairs the roster after a checkout call with what the
// caller should do next.
type CheckoutResult struct {
	Selection *checkout.Selection `json:"selection"`
	Outcome   checkout.Outcome    `json:"outcome"`
}

type CheckoutService interface {
	ListActive(ctx context.Context, opts facility.ListOptions) ([]checkout.CheckInRecord, error)
	Open(ctx context.Context, owner string, recordID int64) (*checkout.Selection, error)
	Get(ctx context.Context, owner string, recordID int64) (*checkout.Selection, error)
	Toggle(ctx context.Context, owner string, recordID int64, guestID string, checked bool) (*checkout.Selection, error)
	CheckoutAll(ctx context.Context, owner string, recordID int64) (*CheckoutResult, error)
	CheckoutSelected(ctx context.Context, owner string, recordID int64) (*CheckoutResult, error)
	Close(ctx context.Context, owner string, recordID int64) error
	History(ctx context.Context, recordID int64) ([]domain.CheckoutRun, error)
}

type checkoutService struct {
	store    repository.SessionStore
	audit    repository.AuditRepository
	backend  CheckInBackend
	eventBus events.Publisher
	config   *config.Config
}

func NewCheckoutService(
	store repository.SessionStore,
	audit repository.AuditRepository,
	backend CheckInBackend,
	eventBus events.Publisher,
	config *config.Config,
) CheckoutService {
	return &checkoutService{
		store:    store,
		audit:    audit,
		backend:  backend,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *checkoutService) ListActive(ctx context.Context, opts facility.ListOptions) ([]checkout.CheckInRecord, error) {
	return s.backend.ListActiveCheckIns(ctx, opts)
}

// Open always rebuilds the roster from a fresh copy of the record.
func (s *checkoutService) Open(ctx context.Context, owner string, recordID int64) (*checkout.Selection, error) {
	rec, err := s.backend.GetCheckIn(ctx, recordID)
	if facility.IsNotFound(err) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in %d: %w", recordID, err)
	}

	sel := checkout.NewSelection(*rec, checkout.DefaultRepresentativeName)
	if err := s.store.CreateRoster(ctx, owner, sel); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Checkout roster opened", "checkin_id", recordID, "guests", len(sel.Rows)-1)
	return sel, nil
}

func (s *checkoutService) Get(ctx context.Context, owner string, recordID int64) (*checkout.Selection, error) {
	return s.store.GetRoster(ctx, owner, recordID)
}

func (s *checkoutService) Toggle(ctx context.Context, owner string, recordID int64, guestID string, checked bool) (*checkout.Selection, error) {
	unlock, err := s.lock(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sel, err := s.store.GetRoster(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}
	if err := sel.Toggle(guestID, checked); err != nil {
		return sel, err
	}
	if err := s.store.UpdateRoster(ctx, owner, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

func (s *checkoutService) CheckoutAll(ctx context.Context, owner string, recordID int64) (*CheckoutResult, error) {
	return s.run(ctx, owner, recordID, domain.CheckoutModeAll)
}

func (s *checkoutService) CheckoutSelected(ctx context.Context, owner string, recordID int64) (*CheckoutResult, error) {
	return s.run(ctx, owner, recordID, domain.CheckoutModeSelected)
}

// run drives one checkout call. The in-flight state is persisted before the
// backend is called so a concurrent request sees it.
func (s *checkoutService) run(ctx context.Context, owner string, recordID int64, mode domain.CheckoutMode) (*CheckoutResult, error) {
	unlock, err := s.lock(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sel, err := s.store.GetRoster(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}

	var guests []string
	switch mode {
	case domain.CheckoutModeAll:
		err = sel.BeginCheckoutAll()
		for _, r := range sel.Rows {
			if !r.IsRepresentative {
				guests = append(guests, r.Name)
			}
		}
	default:
		guests, err = sel.BeginCheckoutSelected()
	}
	if err != nil {
		return &CheckoutResult{Selection: sel, Outcome: checkout.Outcome{Message: sel.Message}}, err
	}
	if err := s.store.UpdateRoster(ctx, owner, sel); err != nil {
		return nil, err
	}

	var callErr error
	if mode == domain.CheckoutModeAll {
		callErr = s.backend.CheckoutAll(ctx, recordID)
	} else {
		callErr = s.backend.CheckoutSelected(ctx, recordID, guests)
	}
	outcome := sel.Complete(callErr)

	s.recordCheckout(ctx, recordID, mode, guests, callErr == nil, outcome.Message, owner)

	if callErr != nil {
		logger.ErrorContext(ctx, "Checkout failed", "error", callErr, "checkin_id", recordID, "mode", mode)
		if err := s.store.UpdateRoster(ctx, owner, sel); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return nil, err
		}
		return &CheckoutResult{Selection: sel, Outcome: outcome}, nil
	}

	logger.InfoContext(ctx, "Checkout completed", "checkin_id", recordID, "mode", mode, "guests", len(guests))
	s.publish(ctx, events.CheckoutCompleted, events.CheckoutCompletedEvent{
		CheckInID:   recordID,
		Partial:     mode == domain.CheckoutModeSelected,
		Guests:      guests,
		PerformedBy: owner,
		CompletedAt: time.Now(),
	})

	if outcome.Close {
		if err := s.store.DeleteRoster(ctx, owner, recordID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			logger.WarnContext(ctx, "Failed to discard closed roster", "error", err, "checkin_id", recordID)
		}
	}
	return &CheckoutResult{Selection: sel, Outcome: outcome}, nil
}

func (s *checkoutService) Close(ctx context.Context, owner string, recordID int64) error {
	return s.store.DeleteRoster(ctx, owner, recordID)
}

// History lists every checkout attempt recorded for a check-in, newest first.
func (s *checkoutService) History(ctx context.Context, recordID int64) ([]domain.CheckoutRun, error) {
	return s.audit.ListCheckouts(ctx, recordID)
}

func (s *checkoutService) lock(ctx context.Context, owner string, recordID int64) (func(), error) {
	unlock, err := s.store.Lock(ctx, fmt.Sprintf("roster:%s:%d", owner, recordID), s.config.Backend.Timeout+5*time.Second)
	if errors.Is(err, repository.ErrLocked) {
		return nil, ErrBusy
	}
	return unlock, err
}

func (s *checkoutService) recordCheckout(ctx context.Context, recordID int64, mode domain.CheckoutMode, guests []string, ok bool, message, actor string) {
	run := &domain.CheckoutRun{
		CheckInID:   recordID,
		Mode:        mode,
		Guests:      guests,
		Succeeded:   ok,
		Message:     message,
		PerformedBy: actor,
		PerformedAt: time.Now(),
	}
	if err := s.audit.RecordCheckout(ctx, run); err != nil {
		logger.ErrorContext(ctx, "Failed to record checkout", "error", err, "checkin_id", recordID)
	}
}

func (s *checkoutService) publish(ctx context.Context, subject string, event any) {
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
