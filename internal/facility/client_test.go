package facility

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/pkg/logger"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	reqID  string
	body   map[string]any
}

func newServer(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		rec.reqID = r.Header.Get("X-Request-ID")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", 5*time.Second), rec
}

func authedContext() context.Context {
	ctx := context.WithValue(context.Background(), logger.RequestIDKey, "req-1")
	return WithToken(ctx, "tok")
}

func TestImportRows(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"data":{"successCount":1,"errorCount":1,
		"errors":[{"index":3,"errorCode":"RESIDENT_IMPORT_DUPLICATE_PHONE","details":{"value":"0901234567"}}]}}`)

	resp, err := c.ImportRows(authedContext(), csvimport.KindResident, []csvimport.CsvRow{
		{"fullName": "An", "phone": "0901234567", "room": "101"},
		{"fullName": "Binh", "phone": "0901234567", "room": "102"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/residents/import", rec.path)
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, "req-1", rec.reqID)
	require.Contains(t, rec.body, "residents")
	assert.Len(t, rec.body["residents"], 2)

	assert.Equal(t, 1, resp.SuccessCount)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 3, resp.Errors[0].Index)
	assert.Equal(t, "0901234567", resp.Errors[0].Details["value"])
}

func TestImportRows_StaffPayloadKey(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"data":{"successCount":0,"errorCount":0,"errors":[]}}`)

	_, err := c.ImportRows(context.Background(), csvimport.KindStaff, []csvimport.CsvRow{{"staffName": "Lan"}})

	require.NoError(t, err)
	assert.Equal(t, "/api/staff/import", rec.path)
	assert.Contains(t, rec.body, "staff")
	assert.Empty(t, rec.auth)
}

func TestImportRows_RejectedBatchWithRowErrors(t *testing.T) {
	c, _ := newServer(t, http.StatusBadRequest, `{"message":"Có lỗi","data":{"successCount":0,"errorCount":1,
		"errors":[{"index":2,"errorCode":"RESIDENT_IMPORT_INVALID_EMAIL"}]}}`)

	resp, err := c.ImportRows(context.Background(), csvimport.KindResident, []csvimport.CsvRow{{}})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ErrorCount)
}

func TestImportRows_ErrorMessage(t *testing.T) {
	c, _ := newServer(t, http.StatusUnauthorized, `{"message":"Phiên đăng nhập đã hết hạn"}`)

	_, err := c.ImportRows(context.Background(), csvimport.KindResident, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Phiên đăng nhập đã hết hạn", apiErr.UserMessage())
}

func TestImportRows_ErrorWithoutBody(t *testing.T) {
	c, _ := newServer(t, http.StatusBadGateway, ``)

	_, err := c.ImportRows(context.Background(), csvimport.KindResident, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.UserMessage())
	assert.Equal(t, "facility api: status 502", err.Error())
}

func TestCheckoutAll(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"message":"ok"}`)

	require.NoError(t, c.CheckoutAll(authedContext(), 42))
	assert.Equal(t, "/api/checkins/42/checkout", rec.path)
	assert.Equal(t, map[string]any{"checkinId": float64(42)}, rec.body)
}

func TestCheckoutSelected(t *testing.T) {
	c, rec := newServer(t, http.StatusNoContent, ``)

	require.NoError(t, c.CheckoutSelected(authedContext(), 42, []string{"Khách 1"}))
	assert.Equal(t, "/api/checkins/42/partial-checkout", rec.path)
	assert.Equal(t, map[string]any{"guestsToCheckout": []any{"Khách 1"}}, rec.body)
}

func TestGetCheckIn(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"data":{"id":42,"representativeName":"An","additionalGuests":"Khách 1, Khách 2"}}`)

	got, err := c.GetCheckIn(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/checkins/42", rec.path)
	assert.Equal(t, int64(42), got.ID)
	assert.Len(t, got.AdditionalGuests, 2)
}

func TestGetCheckIn_SQLDatetime(t *testing.T) {
	c, _ := newServer(t, http.StatusOK, `{"data":{"id":42,"representativeName":"An","checkInTime":"2024-01-01 10:00:00"}}`)

	got, err := c.GetCheckIn(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 10:00", got.CheckInTime.Format("2006-01-02 15:04"))
}

func TestGetCheckIn_NotFound(t *testing.T) {
	c, _ := newServer(t, http.StatusNotFound, `{"message":"not found"}`)

	_, err := c.GetCheckIn(context.Background(), 7)
	assert.True(t, IsNotFound(err))
}

func TestListActiveCheckIns(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"data":[{"id":1,"representativeName":"An","additionalGuests":["B"]}]}`)

	got, err := c.ListActiveCheckIns(context.Background(), ListOptions{Search: "an", Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, "/api/checkins", rec.path)
	assert.Equal(t, "limit=20&search=an&status=active", rec.query)
	require.Len(t, got, 1)
	assert.Equal(t, "An", got[0].Representative)
}

func TestDo_TransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)

	err := c.CheckoutAll(context.Background(), 1)

	require.Error(t, err)
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}
