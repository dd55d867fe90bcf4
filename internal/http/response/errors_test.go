package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteErrorWithDetails(rec, http.StatusConflict, "busy", CodeInFlight, "import s1")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ErrorResponse{Error: "busy", Code: CodeInFlight, Details: "import s1"}, body)
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "x") }, http.StatusBadRequest, CodeInvalidInput},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "x") }, http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "x") }, http.StatusForbidden, CodeForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound, CodeNotFound},
		{"unprocessable", func(w http.ResponseWriter) { Unprocessable(w, "x", CodeNothingSelected) }, http.StatusUnprocessableEntity, CodeNothingSelected},
		{"bad gateway", func(w http.ResponseWriter) { BadGateway(w, "x") }, http.StatusBadGateway, CodeBackendUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
