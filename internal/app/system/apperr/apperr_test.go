package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestCategoriesMatchWithErrorsIs(t *testing.T) {
	err := Forbiddenf("chief of another department")
	if !errors.Is(err, ErrForbidden) {
		t.Error("expected wrapped error to match ErrForbidden")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("forbidden error must not match ErrNotFound")
	}
}

func TestMessagesSurviveWrapping(t *testing.T) {
	err := InvalidStatef("status is %q, want %q", "pending", "in_progress")
	want := `invalid state: status is "pending", want "in_progress"`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestRemoteKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Remote(cause)
	if !errors.Is(err, ErrRemote) {
		t.Error("expected remote category")
	}
	if err.Error() != "remote failure: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Remote(nil) != nil {
		t.Error("Remote(nil) must be nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"unauthenticated", Unauthenticatedf("no session"), http.StatusUnauthorized},
		{"forbidden", Forbiddenf("nope"), http.StatusForbidden},
		{"not found", NotFoundf("gone"), http.StatusNotFound},
		{"invalid state", InvalidStatef("bad"), http.StatusConflict},
		{"invalid input", Invalidf("bad field"), http.StatusBadRequest},
		{"remote", Remote(errors.New("boom")), http.StatusBadGateway},
		{"unknown", errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
