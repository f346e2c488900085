package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUsesMappedStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperrors.Conflict("request already approved"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "request already approved", body.Error)
}

func TestCreatedWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"requestId": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"requestId":"abc"}}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestErrorCarriesQuotaDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperrors.QuotaExceeded(12, 2.5))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Insufficient storage space","data":{"needed":12,"available":2.5}}`, rec.Body.String())
}
