package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestGet(t *testing.T) {
	if got := Get(ReminderNotFound.Code); got != ReminderNotFound {
		t.Fatalf("Get(%q) = %+v", ReminderNotFound.Code, got)
	}
	if got := Get("NOPE"); got.Message != "Unexpected error" || got.Code != "NOPE" {
		t.Fatalf("unknown code = %+v", got)
	}
}

func TestSkipMessageErrorWrapped(t *testing.T) {
	err := fmt.Errorf("consume: %w", &SkipMessageError{Reason: "dup"})
	if !IsSkipMessageError(err) {
		t.Fatal("wrapped skip error not detected")
	}
	if IsSkipMessageError(stderrors.New("other")) {
		t.Fatal("plain error detected as skip")
	}
}

func TestNonRetryable(t *testing.T) {
	err := NewNonRetryableError("isv.SMS_SIGNATURE_ILLEGAL", "bad sign", "SMS configuration error")
	if !IsNonRetryableError(fmt.Errorf("send: %w", err)) {
		t.Fatal("expected non retryable")
	}
}
