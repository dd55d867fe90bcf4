package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/checkin-console/internal/checkout"
	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/internal/facility"
	"github.com/diagnosis/checkin-console/pkg/config"
	"github.com/diagnosis/checkin-console/services/console/internal/domain"
	"github.com/diagnosis/checkin-console/services/console/internal/repository"
)

// memoryStore round-trips through JSON like the redis store does.
type memoryStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	locks map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, locks: map[string]bool{}}
}

func (m *memoryStore) put(key string, v any, mustExist bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; mustExist && !ok {
		return repository.ErrSessionNotFound
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *memoryStore) load(key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return repository.ErrSessionNotFound
	}
	return json.Unmarshal(b, v)
}

func (m *memoryStore) drop(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *memoryStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func rKey(owner string, id int64) string { return fmt.Sprintf("roster:%s:%d", owner, id) }

func (m *memoryStore) CreateImport(_ context.Context, s *csvimport.Session) error {
	return m.put("import:"+s.ID, s, false)
}
func (m *memoryStore) UpdateImport(_ context.Context, s *csvimport.Session) error {
	return m.put("import:"+s.ID, s, true)
}
func (m *memoryStore) GetImport(_ context.Context, id string) (*csvimport.Session, error) {
	var s csvimport.Session
	if err := m.load("import:"+id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
func (m *memoryStore) DeleteImport(_ context.Context, id string) error {
	return m.drop("import:" + id)
}
func (m *memoryStore) CreateRoster(_ context.Context, owner string, s *checkout.Selection) error {
	return m.put(rKey(owner, s.RecordID), s, false)
}
func (m *memoryStore) UpdateRoster(_ context.Context, owner string, s *checkout.Selection) error {
	return m.put(rKey(owner, s.RecordID), s, true)
}
func (m *memoryStore) GetRoster(_ context.Context, owner string, id int64) (*checkout.Selection, error) {
	var s checkout.Selection
	if err := m.load(rKey(owner, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
func (m *memoryStore) DeleteRoster(_ context.Context, owner string, id int64) error {
	return m.drop(rKey(owner, id))
}

func (m *memoryStore) Lock(_ context.Context, name string, _ time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[name] {
		return nil, repository.ErrLocked
	}
	m.locks[name] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.locks, name)
	}, nil
}

type mockAudit struct {
	imports   []domain.ImportRun
	checkouts []domain.CheckoutRun
}

func (m *mockAudit) RecordImport(_ context.Context, run *domain.ImportRun) error {
	run.ID = int64(len(m.imports) + 1)
	m.imports = append(m.imports, *run)
	return nil
}
func (m *mockAudit) RecordCheckout(_ context.Context, run *domain.CheckoutRun) error {
	run.ID = int64(len(m.checkouts) + 1)
	m.checkouts = append(m.checkouts, *run)
	return nil
}
func (m *mockAudit) ListImports(_ context.Context, limit, offset int) ([]domain.ImportRun, error) {
	if offset >= len(m.imports) {
		return nil, nil
	}
	end := min(offset+limit, len(m.imports))
	return m.imports[offset:end], nil
}
func (m *mockAudit) ListCheckouts(_ context.Context, id int64) ([]domain.CheckoutRun, error) {
	var out []domain.CheckoutRun
	for i := len(m.checkouts) - 1; i >= 0; i-- {
		if c := m.checkouts[i]; c.CheckInID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockImporter struct {
	resp  *csvimport.ImportResponse
	err   error
	calls int
	// before runs inside the call, while the session is in flight.
	before func()
}

func (m *mockImporter) ImportRows(_ context.Context, _ csvimport.Kind, _ []csvimport.CsvRow) (*csvimport.ImportResponse, error) {
	m.calls++
	if m.before != nil {
		m.before()
	}
	return m.resp, m.err
}

type mockBackend struct {
	records  map[int64]*checkout.CheckInRecord
	err      error
	all      []int64
	selected [][]string
	lastList facility.ListOptions
}

func (m *mockBackend) CheckoutAll(_ context.Context, id int64) error {
	m.all = append(m.all, id)
	return m.err
}
func (m *mockBackend) CheckoutSelected(_ context.Context, _ int64, guests []string) error {
	m.selected = append(m.selected, guests)
	return m.err
}
func (m *mockBackend) GetCheckIn(_ context.Context, id int64) (*checkout.CheckInRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, &facility.APIError{StatusCode: 404, Message: "not found"}
	}
	cp := *rec
	return &cp, nil
}
func (m *mockBackend) ListActiveCheckIns(_ context.Context, opts facility.ListOptions) ([]checkout.CheckInRecord, error) {
	m.lastList = opts
	var out []checkout.CheckInRecord
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

type published struct {
	subject string
	event   any
}

type recordingBus struct {
	events []published
}

func (b *recordingBus) Publish(_ context.Context, subject string, data interface{}) error {
	b.events = append(b.events, published{subject, data})
	return nil
}
func (b *recordingBus) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Import:  config.ImportConfig{MaxUploadBytes: 1 << 16},
		Backend: config.BackendConfig{Timeout: time.Second},
	}
}
