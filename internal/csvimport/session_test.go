package csvimport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockImporter struct {
	calls int
	kind  Kind
	rows  []CsvRow
	resp  *ImportResponse
	err   error
}

func (m *mockImporter) ImportRows(_ context.Context, kind Kind, rows []CsvRow) (*ImportResponse, error) {
	m.calls++
	m.kind = kind
	m.rows = rows
	return m.resp, m.err
}

type backendError struct{ msg string }

func (e backendError) Error() string       { return "backend: " + e.msg }
func (e backendError) UserMessage() string { return e.msg }

func parsedSession(t *testing.T, text string) *Session {
	t.Helper()
	s := NewSession("s1", KindResident, "residents.csv")
	s.BeginParse()
	s.Load(Parse(KindResident, text))
	require.Equal(t, StatusParsed, s.Status)
	return s
}

const residentsCSV = "fullName,phone,room,email\n" +
	"An,0901234567,101,an@x.com\n" +
	"Binh,0901234568,102,binh-at-x\n" +
	"Chi,0901234569,103,chi@x.com\n" +
	"Dung,0901234570,104,dung@x.com\n" +
	"Em,0901234571,105,em@x.com\n" +
	"Giang,0901234572,106,giang@x.com\n"

func TestReconcile_IndexOffset(t *testing.T) {
	s := parsedSession(t, residentsCSV)
	resp := &ImportResponse{
		SuccessCount: 5,
		ErrorCount:   1,
		Errors:       []ServerRowError{{Index: 7, ErrorCode: "RESIDENT_IMPORT_DUPLICATE_PHONE"}},
	}

	rec := Reconcile(s.Kind, s.Rows, s.Errors, resp)

	var server []ValidationError
	for _, e := range rec.Errors {
		if e.Source == SourceServer {
			server = append(server, e)
		}
	}
	require.Len(t, server, 1)
	assert.Equal(t, 5, server[0].RowIndex)
	assert.Equal(t, "phone", server[0].Field)
	assert.Equal(t, "Giang: Số điện thoại đã tồn tại trong hệ thống", server[0].Message)
	assert.Empty(t, rec.Unattributed)
}

func TestReconcile_ServerReplacesLocalOnSameField(t *testing.T) {
	s := parsedSession(t, residentsCSV)
	require.Len(t, s.Errors, 1)

	rec := Reconcile(s.Kind, s.Rows, s.Errors, &ImportResponse{
		Errors: []ServerRowError{
			{Index: 3, ErrorCode: "RESIDENT_IMPORT_INVALID_EMAIL", Details: map[string]any{"value": "binh-at-x"}},
			{Index: 3, ErrorCode: "RESIDENT_IMPORT_INVALID_EMAIL", Details: map[string]any{"value": "binh-at-x"}},
		},
	})

	require.Len(t, rec.Errors, 1)
	assert.Equal(t, SourceServer, rec.Errors[0].Source)
	assert.Equal(t, "Binh: Email không hợp lệ (binh-at-x)", rec.Errors[0].Message)
}

func TestReconcile_UnknownCodeAndOutOfRangeIndex(t *testing.T) {
	s := parsedSession(t, residentsCSV)

	rec := Reconcile(s.Kind, s.Rows, nil, &ImportResponse{
		Errors: []ServerRowError{
			{Index: 2, ErrorCode: "RESIDENT_IMPORT_QUOTA", Details: map[string]any{"limit": 500, "unit": "rows"}},
			{Index: 40, ErrorCode: "RESIDENT_IMPORT_SAVE_FAILED"},
			{Index: 1, ErrorCode: "HEADER_BROKEN"},
		},
	})

	require.Len(t, rec.Errors, 1)
	assert.Equal(t, 0, rec.Errors[0].RowIndex)
	assert.Equal(t, "An: RESIDENT_IMPORT_QUOTA: limit=500, unit=rows", rec.Errors[0].Message)
	assert.Equal(t, []string{
		"Dòng 40: Không thể lưu cư dân",
		"Dòng 1: HEADER_BROKEN",
	}, rec.Unattributed)
}

func TestSession_SubmitDespiteRowErrors(t *testing.T) {
	s := parsedSession(t, residentsCSV)
	require.Equal(t, 1, s.LocalErrorCount())
	require.True(t, s.CanSubmit())

	imp := &mockImporter{resp: &ImportResponse{
		SuccessCount: 5,
		ErrorCount:   1,
		Errors:       []ServerRowError{{Index: 3, ErrorCode: "RESIDENT_IMPORT_INVALID_EMAIL"}},
	}}
	require.NoError(t, s.Submit(context.Background(), imp))

	assert.Equal(t, 1, imp.calls)
	assert.Equal(t, KindResident, imp.kind)
	assert.Len(t, imp.rows, 6)
	assert.Equal(t, StatusSucceeded, s.Status)
	assert.Equal(t, &Summary{SuccessCount: 5, ErrorCount: 1}, s.Summary)
	require.Len(t, s.Errors, 1)
	assert.Equal(t, SourceServer, s.Errors[0].Source)

	assert.ErrorIs(t, s.BeginSubmit(), ErrAlreadySubmitted)
}

func TestSession_FailureAllowsRetry(t *testing.T) {
	s := parsedSession(t, residentsCSV)
	imp := &mockImporter{err: errors.New("dial tcp: connection refused")}

	err := s.Submit(context.Background(), imp)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "Nhập dữ liệu thất bại, vui lòng thử lại", s.FailureMessage)
	assert.Equal(t, 1, s.LocalErrorCount())

	imp.err = backendError{msg: "Phiên đăng nhập đã hết hạn"}
	require.Error(t, s.Submit(context.Background(), imp))
	assert.Equal(t, "Phiên đăng nhập đã hết hạn", s.FailureMessage)

	imp.err = nil
	imp.resp = &ImportResponse{SuccessCount: 6}
	require.NoError(t, s.Submit(context.Background(), imp))
	assert.Equal(t, StatusSucceeded, s.Status)
	assert.Empty(t, s.FailureMessage)
}

func TestSession_StructuralErrorBlocksSubmit(t *testing.T) {
	s := parsedSession(t, "fullName,room\nAn,101")
	imp := &mockImporter{}

	assert.False(t, s.CanSubmit())
	assert.ErrorIs(t, s.Submit(context.Background(), imp), ErrNotSubmittable)
	assert.Zero(t, imp.calls)
}

func TestSession_InFlightGuardAndLateResult(t *testing.T) {
	s := parsedSession(t, residentsCSV)
	require.NoError(t, s.BeginSubmit())
	assert.ErrorIs(t, s.BeginSubmit(), ErrSubmitInFlight)

	s.Complete(&ImportResponse{SuccessCount: 6}, nil)
	assert.Equal(t, StatusSucceeded, s.Status)

	// A second answer for the same submission is ignored.
	s.Complete(nil, errors.New("late"))
	assert.Equal(t, StatusSucceeded, s.Status)
}

func TestSession_NewFileResetsState(t *testing.T) {
	s := parsedSession(t, residentsCSV)
	s.FailureMessage = "old"

	s.BeginParse()
	assert.Equal(t, StatusParsing, s.Status)
	assert.Empty(t, s.Rows)
	assert.Empty(t, s.Errors)
	assert.Empty(t, s.FailureMessage)
}

func TestSession_EmptyAnswerIsAFailure(t *testing.T) {
	s := parsedSession(t, residentsCSV)

	err := s.Submit(context.Background(), &mockImporter{})

	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, StatusFailed, s.Status)
	assert.Nil(t, s.Summary)
	assert.Equal(t, "Nhập dữ liệu thất bại, vui lòng thử lại", s.FailureMessage)
}
