package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossTenantIsIndistinguishable(t *testing.T) {
	foreign := NewCrossTenantAccessError("license", "lic-1")
	missing := NewNotFoundError("license not found")

	assert.True(t, IsCrossTenantError(foreign))
	assert.False(t, IsCrossTenantError(missing))
	assert.Equal(t, missing, &AppError{
		Type:    foreign.Type,
		Message: foreign.Message,
		Code:    foreign.Code,
	})
	assert.Equal(t, missing.Error(), foreign.Error())
	assert.Empty(t, foreign.EntityID)
}

func TestUnknownReference(t *testing.T) {
	a := NewUnknownReferenceError("product id", "p1", true)
	b := NewUnknownReferenceError("product id", "p1", false)
	assert.True(t, IsValidationError(a))
	assert.Equal(t, a.Error(), b.Error())
	assert.True(t, IsCrossTenantError(a))
	assert.False(t, IsCrossTenantError(b))
}

func TestStateErrors(t *testing.T) {
	e := NewInvalidTransitionError("lic-1", "cancelled", "resume")
	assert.Equal(t, http.StatusConflict, e.Code)
	assert.Equal(t, "lic-1", e.EntityID)
	assert.Contains(t, e.Error(), "cannot resume license in status cancelled")

	s := NewSeatLimitExceededError("lic-1", 3)
	assert.True(t, IsType(s, ErrorTypeSeatLimitExceeded))
	assert.Contains(t, s.Message, "3")

	n := NewLicenseNotAuthorizedError("lic-1", "license is suspended")
	assert.Equal(t, http.StatusForbidden, n.Code)
	assert.Equal(t, "license is suspended", n.Details)
}

func TestStorageErrorsAreRetryable(t *testing.T) {
	cause := context.DeadlineExceeded
	e := NewStorageTimeoutError(cause)
	assert.True(t, IsRetryable(e))
	assert.True(t, errors.Is(e, context.DeadlineExceeded))
	assert.NotContains(t, e.Error(), "deadline")

	assert.False(t, IsRetryable(NewValidationError("x")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestGetAppErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConflictError("busy"))
	assert.True(t, IsConflictError(wrapped))
	assert.Equal(t, "busy", GetAppError(wrapped).Message)
	assert.Nil(t, GetAppError(errors.New("plain")))
}

func TestIsDuplicateError(t *testing.T) {
	cases := map[string]bool{
		"Error 1062 (23000): Duplicate entry 'x' for key 'idx'": true,
		"UNIQUE constraint failed: brands.slug":                 true,
		"ERROR: duplicate key value violates unique constraint": true,
		"connection refused":                                    false,
	}
	for msg, want := range cases {
		assert.Equal(t, want, IsDuplicateError(errors.New(msg)), msg)
	}
	assert.False(t, IsDuplicateError(nil))
}
