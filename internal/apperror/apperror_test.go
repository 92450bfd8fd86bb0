package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("task", 42),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "email already registered"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("incorrect email or password"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("admin access required"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unavailable wraps ErrUnavailable",
			err:       Unavailable("dashboard"),
			target:    ErrUnavailable,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("task", 42),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthenticated",
			err:       Forbidden("admin access required"),
			target:    ErrUnauthenticated,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

// Wrapping with fmt.Errorf must not break sentinel matching — services add
// context this way and the HTTP layer still has to map the status code.
func TestErrorsIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading task: %w", NotFound("task", 7))

	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped NotFound should match ErrNotFound")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As should extract *AppError through wrapping")
	}
	if appErr.Message != "task not found with id 7" {
		t.Errorf("Message = %q, want %q", appErr.Message, "task not found with id 7")
	}
}

func TestMessages(t *testing.T) {
	if got := NotFound("user", 3).Error(); got != "user not found with id 3" {
		t.Errorf("NotFound message = %q", got)
	}
	if got := Conflict("user", "email already registered").Error(); got != "user conflict: email already registered" {
		t.Errorf("Conflict message = %q", got)
	}
	if got := Unavailable("dashboard").Error(); got != "dashboard is temporarily unavailable" {
		t.Errorf("Unavailable message = %q", got)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("title", "title is required")
	if err.Field != "title" {
		t.Errorf("Field = %q, want %q", err.Field, "title")
	}
}
