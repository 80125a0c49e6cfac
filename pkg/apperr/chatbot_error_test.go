package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppError(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("reply: %w", DatabaseError("get order 7", cause))

	appErr := AsAppError(wrapped)
	assert.Equal(t, CodeDatabaseError, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(wrapped))

	plain := AsAppError(cause)
	assert.Equal(t, CodeInternalError, plain.Code)
	assert.ErrorIs(t, plain, cause)
}

func TestStatuses(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, GetHTTPStatus(NotConfigured("retraining")))
	assert.Equal(t, http.StatusGatewayTimeout, GetHTTPStatus(Timeout("order lookup", context.DeadlineExceeded)))
	assert.Equal(t, http.StatusBadGateway, GetHTTPStatus(ExternalError("redis stream", nil)))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(MissingField("message")))
	assert.Equal(t, "retraining is not configured", NotConfigured("retraining").Message)
}
