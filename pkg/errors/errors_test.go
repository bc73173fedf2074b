package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("patient", nil).HTTPStatus())
	assert.Equal(t, http.StatusConflict, Conflict("insufficient wallet balance", nil).HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, Validation("invalid department", nil).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom")).HTTPStatus())
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("failed to look up patient: %w", NotFound("patient", nil))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))

	wrapped := fmt.Errorf("payment: %w", Conflict("insufficient wallet balance", nil))
	assert.True(t, IsConflict(wrapped))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("sql: no rows in result set")
	err := NotFound("wallet", cause)
	assert.Equal(t, "wallet not found: sql: no rows in result set", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}
