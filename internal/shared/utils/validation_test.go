package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keygate-inc/keygate/internal/shared/errors"
)

type sampleRequest struct {
	Email     string   `json:"customer_email" validate:"required,email"`
	SeatLimit int      `json:"seat_limit" validate:"gte=1"`
	Products  []string `json:"product_ids" validate:"required,min=1,dive,uuid"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{
			Email:     "a@example.com",
			SeatLimit: 1,
			Products:  []string{"0b6c7a4e-8f1c-4c1b-9c55-0d0d6c0c2a11"},
		})
		assert.NoError(t, err)
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Email: "nope", SeatLimit: 0})
		assert.True(t, errors.IsValidationError(err))

		appErr := errors.GetAppError(err)
		assert.Contains(t, appErr.Details, "customer_email must be a valid email address")
		assert.Contains(t, appErr.Details, "seat_limit must be greater than or equal to 1")
		assert.Contains(t, appErr.Details, "product_ids is required")
	})
}
