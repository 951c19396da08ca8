package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindInvalidVisitState, http.StatusConflict},
		{KindConflict, http.StatusConflict},
		{KindDoctorUnavailable, http.StatusUnprocessableEntity},
		{KindPendingInvestigations, http.StatusUnprocessableEntity},
		{KindPaymentRequired, http.StatusPaymentRequired},
		{KindIntegrity, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := New(tc.kind, "x")
		if got := e.HTTPStatus(); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}

func TestIsKind(t *testing.T) {
	err := PaymentRequired("billing %s not paid", "b1")
	if !IsKind(err, KindPaymentRequired) {
		t.Error("expected KindPaymentRequired")
	}
	if IsKind(err, KindNotFound) {
		t.Error("did not expect KindNotFound")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if !IsKind(wrapped, KindPaymentRequired) {
		t.Error("expected kind to survive wrapping")
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("boom")
	e := Integrity(inner, "completion transaction failed")
	if !errors.Is(e, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestStatusOf_PlainError(t *testing.T) {
	if got := StatusOf(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for plain error, got %d", got)
	}
}
