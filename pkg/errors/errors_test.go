package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidProfile, "bad entry: %s", "Foo")

	if err.Code != ErrCodeInvalidProfile {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidProfile)
	}
	if err.Message != "bad entry: Foo" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Error("New should not set a cause")
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := Wrap(ErrCodeAssetNotFound, cause, "resolve file %d", 7)

	if err.Cause != cause {
		t.Error("Wrap should preserve the cause")
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeAssetNotFound, "file 7 missing")

	if !Is(err, ErrCodeAssetNotFound) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeInvalidPointer) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeAssetNotFound) {
		t.Error("Is should not match plain errors")
	}

	// Matching through a wrapping chain
	wrapped := fmt.Errorf("context: %w", err)
	if !Is(wrapped, ErrCodeAssetNotFound) {
		t.Error("Is should unwrap fmt.Errorf chains")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInternal, "boom")); got != ErrCodeInternal {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeInternal)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode for plain error = %q, want empty", got)
	}
}

func TestErrorString(t *testing.T) {
	plain := New(ErrCodeNotFound, "nothing here")
	if plain.Error() != "NOT_FOUND: nothing here" {
		t.Errorf("Error() = %q", plain.Error())
	}

	withCause := Wrap(ErrCodeInternal, stderrors.New("root"), "outer")
	if withCause.Error() != "INTERNAL_ERROR: outer: root" {
		t.Errorf("Error() = %q", withCause.Error())
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "no roots given")); got != "no roots given" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage = %q", got)
	}
}
