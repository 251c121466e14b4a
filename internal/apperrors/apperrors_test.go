package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("application", "42")

	expected := `application "42" not found`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected error to wrap ErrNotFound")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should return true")
	}
}

func TestNotFoundError_NoID(t *testing.T) {
	err := NewNotFoundError("unit", "")
	if err.Error() != "unit not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestParameterNotFoundError(t *testing.T) {
	err := NewParameterNotFoundError("citation", "Enemy Kills")

	var pnf *ParameterNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatal("expected *ParameterNotFoundError")
	}
	if pnf.AwardType != "citation" || pnf.Name != "Enemy Kills" {
		t.Errorf("unexpected fields %+v", pnf)
	}
	if !errors.Is(err, ErrParameterNotFound) {
		t.Error("expected error to wrap ErrParameterNotFound")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", RequiredError("type"), http.StatusBadRequest},
		{"not found", NewNotFoundError("application", "1"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFoundError("application", "1")), http.StatusNotFound},
		{"forbidden", NewForbiddenError("scoreboard"), http.StatusForbidden},
		{"profile", NewProfileIncompleteError([]string{"bde"}), http.StatusBadRequest},
		{"parameter", NewParameterNotFoundError("citation", "x"), http.StatusBadRequest},
		{"duplicate signature", NewDuplicateSignatureError("brigade", "m1"), http.StatusBadRequest},
		{"no withdraw", NewNoWithdrawRequestError(7), http.StatusBadRequest},
		{"invalid status", NewInvalidStatusError("bogus"), http.StatusBadRequest},
		{"conflict", NewConflictError("application", 3), http.StatusConflict},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
