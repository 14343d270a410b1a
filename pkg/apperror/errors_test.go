package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryKindAndCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		kind Kind
		code int
	}{
		{"not found", NewNotFoundError("Bill"), KindNotFound, 404},
		{"bad request", NewBadRequestError("bad cart"), KindValidation, 400},
		{"validation", NewValidationError([]FieldError{{Field: "name", Message: "required"}}), KindValidation, 422},
		{"configuration", NewConfigurationError("storage disabled"), KindConfiguration, 503},
		{"provider auth", NewProviderAuthError("token expired"), KindProviderAuth, 502},
		{"provider permission", NewProviderPermissionError("denied"), KindProviderPermission, 502},
		{"provider request", NewProviderRequestError("bad payload"), KindProviderRequest, 502},
		{"transient", NewTransientNetworkError("timeout"), KindTransientNetwork, 502},
		{"persistence", NewPersistenceError("insert failed"), KindPersistence, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestNotFoundMessageNamesResource(t *testing.T) {
	assert.Equal(t, "Bill not found", NewNotFoundError("Bill").Error())
}

func TestGetAppError(t *testing.T) {
	app := NewBadRequestError("nope")
	assert.Equal(t, app, GetAppError(app))

	wrapped := fmt.Errorf("context: %w", app)
	assert.Equal(t, app, GetAppError(wrapped))

	plain := GetAppError(errors.New("boom"))
	assert.Equal(t, 500, plain.Code)
	assert.Equal(t, KindInternal, plain.Kind)
	assert.Equal(t, "boom", plain.Message)
}

func TestIsKind(t *testing.T) {
	err := NewTransientNetworkError("flaky")
	assert.True(t, IsKind(err, KindTransientNetwork))
	assert.False(t, IsKind(err, KindProviderAuth))
	assert.False(t, IsKind(errors.New("plain"), KindTransientNetwork))

	wrapped := fmt.Errorf("send failed: %w", err)
	assert.True(t, IsKind(wrapped, KindTransientNetwork))
}
