package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediafold/mediafold"
	mediafoldhttp "github.com/mediafold/mediafold/http"
)

func TestHandleError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()

	mediafoldhttp.HandleError(rec, mediafold.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandleError_InvalidInput(t *testing.T) {
	rec := httptest.NewRecorder()

	mediafoldhttp.HandleError(rec, mediafold.ErrInvalidInput)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_input")
}

func TestHandleError_EmptyRequest(t *testing.T) {
	rec := httptest.NewRecorder()

	mediafoldhttp.HandleError(rec, mediafold.ErrEmptyRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty_request")
}

func TestHandleError_Unauthorized(t *testing.T) {
	rec := httptest.NewRecorder()

	mediafoldhttp.HandleError(rec, mediafold.ErrUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestHandleError_Conflict(t *testing.T) {
	rec := httptest.NewRecorder()

	mediafoldhttp.HandleError(rec, mediafold.ErrConflict)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "conflict")
}

func TestHandleError_InternalError(t *testing.T) {
	rec := httptest.NewRecorder()

	mediafoldhttp.HandleError(rec, errors.New("some unexpected error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestHandleError_WrappedNotFound(t *testing.T) {
	rec := httptest.NewRecorder()

	wrappedErr := fmt.Errorf("fetch object photos/a.jpg: %w", mediafold.ErrNotFound)
	mediafoldhttp.HandleError(rec, wrappedErr)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestWriteError_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	mediafoldhttp.WriteError(rec, http.StatusBadRequest, "bad_request", "Invalid request")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error":"bad_request"`)
	assert.Contains(t, rec.Body.String(), `"message":"Invalid request"`)
}

func TestWriteJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	data := map[string]string{"key": "value"}
	err := mediafoldhttp.WriteJSON(rec, http.StatusOK, data)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"key":"value"`)
}

func TestWriteJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()

	// Channels cannot be JSON encoded
	data := make(chan int)
	err := mediafoldhttp.WriteJSON(rec, http.StatusOK, data)

	assert.Error(t, err)
}
