package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{"not found maps to 404", ErrCodeNotFound, http.StatusNotFound},
		{"already exists maps to 409", ErrCodeAlreadyExists, http.StatusConflict},
		{"validation maps to 400", ErrCodeValidation, http.StatusBadRequest},
		{"invalid receipt state maps to 422", ErrCodeInvalidReceiptState, http.StatusUnprocessableEntity},
		{"insufficient inventory maps to 422", ErrCodeInsufficientInventory, http.StatusUnprocessableEntity},
		{"lots in use maps to 422", ErrCodeLotsInUse, http.StatusUnprocessableEntity},
		{"rounding drift maps to 500", ErrCodeRoundingDrift, http.StatusInternalServerError},
		{"unknown code maps to 500", "ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	t.Run("maps domain codes", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
		assert.Equal(t, ErrCodeInsufficientInventory, NormalizeErrorCode("INSUFFICIENT_INVENTORY"))
		assert.Equal(t, ErrCodeLotsInUse, NormalizeErrorCode("LOTS_IN_USE"))
		assert.Equal(t, ErrCodeInvalidReceiptState, NormalizeErrorCode("INVALID_RECEIPT_STATE"))
		assert.Equal(t, ErrCodeRoundingDrift, NormalizeErrorCode("ROUNDING_DRIFT"))
	})

	t.Run("passes through already normalized codes", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	})

	t.Run("passes through unknown codes", func(t *testing.T) {
		assert.Equal(t, "CUSTOM_CODE", NormalizeErrorCode("CUSTOM_CODE"))
	})
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Receipt not found", "req-123")

	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Receipt not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "number", Message: "number is required"},
		{Field: "quantity", Message: "quantity must be positive"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-456", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-456", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 45, 2, 20)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
