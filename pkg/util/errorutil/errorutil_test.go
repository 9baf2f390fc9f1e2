package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type remoteErr struct {
	status int
	code   string
}

func (r remoteErr) Error() string     { return "remote" }
func (r remoteErr) StatusCode() int   { return r.status }
func (r remoteErr) ErrorCode() string { return r.code }
func (r remoteErr) Friendly() string  { return "Book not found" }

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	orig := NewValidationError("bad form", map[string]any{"days": "out of range"})
	wrapped := fmt.Errorf("submit: %w", orig)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
}

func TestToDomainErrorMapsRemoteErrors(t *testing.T) {
	de := ToDomainError(fmt.Errorf("load: %w", remoteErr{status: 404, code: "BOOK_NOT_FOUND"}))
	assert.Equal(t, "BOOK_NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	assert.Equal(t, "Book not found", de.Message)

	transport := ToDomainError(remoteErr{})
	assert.Equal(t, http.StatusBadGateway, transport.HTTPStatus)
	assert.Equal(t, "REMOTE_ERROR", transport.Code)
}

func TestToDomainErrorFallsBackToInternal(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
}
