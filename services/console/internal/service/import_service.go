package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/pkg/config"
	"github.com/diagnosis/checkin-console/pkg/events"
	"github.com/diagnosis/checkin-console/pkg/logger"
	"github.com/diagnosis/checkin-console/services/console/internal/domain"
	"github.com/diagnosis/checkin-console/services/console/internal/repository"
)

var (
	ErrUnreadableFile = errors.New("file could not be read")
	ErrFileTooLarge   = errors.New("file exceeds the upload limit")
	ErrBusy           = errors.New("another request is working on this session")
)

// Upload is one file handed to the import pipeline.
type Upload struct {
	Kind        csvimport.Kind
	FileName    string
	ContentType string
	Body        io.Reader
}

type ImportService interface {
	Columns(kind csvimport.Kind) []csvimport.ColumnConfig
	Upload(ctx context.Context, up Upload) (*csvimport.Session, error)
	Get(ctx context.Context, id string) (*csvimport.Session, error)
	Submit(ctx context.Context, id, actor string) (*csvimport.Session, error)
	Discard(ctx context.Context, id string) error
	History(ctx context.Context, limit, offset int) ([]domain.ImportRun, error)
}

type importService struct {
	store    repository.SessionStore
	audit    repository.AuditRepository
	importer csvimport.Importer
	eventBus events.Publisher
	config   *config.Config
}

func NewImportService(
	store repository.SessionStore,
	audit repository.AuditRepository,
	importer csvimport.Importer,
	eventBus events.Publisher,
	config *config.Config,
) ImportService {
	return &importService{
		store:    store,
		audit:    audit,
		importer: importer,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *importService) Columns(kind csvimport.Kind) []csvimport.ColumnConfig {
	return csvimport.Columns(kind)
}

func (s *importService) Upload(ctx context.Context, up Upload) (*csvimport.Session, error) {
	limit := s.config.Import.MaxUploadBytes
	raw, err := io.ReadAll(io.LimitReader(up.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if int64(len(raw)) > limit {
		return nil, ErrFileTooLarge
	}

	sess := csvimport.NewSession(uuid.NewString(), up.Kind, up.FileName)
	ctx = logger.WithSession(ctx, sess.ID)
	sess.BeginParse()

	var res *csvimport.Result
	if csvimport.IsXLSX(up.FileName, up.ContentType) {
		res, err = csvimport.ParseXLSX(up.Kind, bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
	} else {
		res = csvimport.Parse(up.Kind, csvimport.DecodeText(raw))
	}
	sess.Load(res)

	if err := s.store.CreateImport(ctx, sess); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Import file parsed",
		"kind", up.Kind,
		"file_name", up.FileName,
		"rows", len(sess.Rows),
		"errors", len(sess.Errors),
		"skipped", sess.Skipped,
		"structural", sess.HasStructuralError(),
	)
	return sess, nil
}

func (s *importService) Get(ctx context.Context, id string) (*csvimport.Session, error) {
	return s.store.GetImport(ctx, id)
}

func (s *importService) Submit(ctx context.Context, id, actor string) (*csvimport.Session, error) {
	ctx = logger.WithSession(ctx, id)

	unlock, err := s.store.Lock(ctx, "import:"+id, s.config.Backend.Timeout+5*time.Second)
	if errors.Is(err, repository.ErrLocked) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.store.GetImport(ctx, id)
	if err != nil {
		return nil, err
	}
	localErrors := sess.LocalErrorCount()
	if err := sess.BeginSubmit(); err != nil {
		return sess, err
	}
	if err := s.store.UpdateImport(ctx, sess); err != nil {
		return nil, err
	}

	resp, callErr := s.importer.ImportRows(ctx, sess.Kind, sess.Rows)
	if resp == nil && callErr == nil {
		callErr = csvimport.ErrEmptyResponse
	}
	sess.Complete(resp, callErr)

	s.recordImport(ctx, sess, actor, localErrors)

	if sess.Status == csvimport.StatusFailed {
		logger.ErrorContext(ctx, "Import submission failed", "error", callErr, "kind", sess.Kind)
		s.publish(ctx, events.ImportFailed, events.ImportFailedEvent{
			SessionID: sess.ID,
			Kind:      string(sess.Kind),
			Reason:    sess.FailureMessage,
			FailedAt:  time.Now(),
		})
	} else {
		logger.InfoContext(ctx, "Import submitted",
			"kind", sess.Kind,
			"success_count", sess.Summary.SuccessCount,
			"error_count", sess.Summary.ErrorCount,
			"unattributed", len(sess.Unattributed),
		)
		s.publish(ctx, events.ImportCompleted, events.ImportCompletedEvent{
			SessionID:    sess.ID,
			Kind:         string(sess.Kind),
			RowCount:     len(sess.Rows),
			SuccessCount: sess.Summary.SuccessCount,
			ErrorCount:   sess.Summary.ErrorCount,
			SubmittedBy:  actor,
			CompletedAt:  time.Now(),
		})
	}

	if err := s.store.UpdateImport(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			logger.WarnContext(ctx, "Import session closed before the submission resolved")
		}
		return nil, err
	}
	return sess, nil
}

func (s *importService) Discard(ctx context.Context, id string) error {
	return s.store.DeleteImport(ctx, id)
}

func (s *importService) History(ctx context.Context, limit, offset int) ([]domain.ImportRun, error) {
	return s.audit.ListImports(ctx, limit, offset)
}

func (s *importService) recordImport(ctx context.Context, sess *csvimport.Session, actor string, localErrors int) {
	run := &domain.ImportRun{
		SessionID:      sess.ID,
		Kind:           string(sess.Kind),
		FileName:       sess.FileName,
		RowCount:       len(sess.Rows),
		LocalErrors:    localErrors,
		Status:         string(sess.Status),
		FailureMessage: sess.FailureMessage,
		SubmittedBy:    actor,
		SubmittedAt:    time.Now(),
	}
	if sess.Summary != nil {
		run.SuccessCount = sess.Summary.SuccessCount
		run.ErrorCount = sess.Summary.ErrorCount
	}
	if err := s.audit.RecordImport(ctx, run); err != nil {
		logger.ErrorContext(ctx, "Failed to record import run", "error", err)
	}
}

func (s *importService) publish(ctx context.Context, subject string, event any) {
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
