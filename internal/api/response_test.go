package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid object", `{"url":"https://example.com"}`, false},
		{"unknown field", `{"nope":true}`, true},
		{"trailing object", `{"url":"a"}{"url":"b"}`, true},
		{"truncated", `{"url":`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			var dst AnalyzeRequest
			err := decodeJSONBody(req, &dst)

			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	writeJSON(rec, http.StatusTeapot, Error{Code: "test", Message: "hello"})

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":"test","message":"hello"}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, http.StatusBadRequest, errCodeInvalidURL, "url is required")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":"invalid_url","message":"url is required"}`, rec.Body.String())
}
