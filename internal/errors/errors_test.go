package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestSyncError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewSyncError("https://example.com/hashes.game.txt.0", "fetch metadata", underlying)

	if err.Type != ErrorTypeSync {
		t.Errorf("Expected Type to be ErrorTypeSync, got %v", err.Type)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "sync fetch metadata failed for https://example.com/hashes.game.txt.0: connection refused"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	noSource := NewSyncError("", "prepare", underlying)
	if noSource.Error() != "sync prepare failed: connection refused" {
		t.Errorf("Unexpected message without source: %q", noSource.Error())
	}
}

func TestParseError(t *testing.T) {
	underlying := errors.New("invalid syntax")
	err := NewParseError("/cache/hashes.game.txt.0", 12, "zzzz", underlying)

	if err.Type != ErrorTypeParse {
		t.Errorf("Expected Type to be ErrorTypeParse, got %v", err.Type)
	}

	if err.Line != 12 {
		t.Errorf("Expected Line to be 12, got %d", err.Line)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `parse error at /cache/hashes.game.txt.0:12 (near token "zzzz"): invalid syntax`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestBusyError(t *testing.T) {
	err := NewBusyError("get_string")

	if err.Type != ErrorTypeBusy {
		t.Errorf("Expected Type to be ErrorTypeBusy, got %v", err.Type)
	}

	if !IsBusy(err) {
		t.Errorf("Expected IsBusy to report true")
	}

	wrapped := fmt.Errorf("lookup: %w", err)
	if !IsBusy(wrapped) {
		t.Errorf("Expected IsBusy to see through wrapping")
	}

	if IsBusy(errors.New("other")) {
		t.Errorf("Expected IsBusy to report false for unrelated errors")
	}
}

func TestNamespaceError(t *testing.T) {
	err := NewNamespaceError("gmae", "game")
	expectedMsg := `unknown hashtable type "gmae" (did you mean "game"?)`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	bare := NewNamespaceError("xyz", "")
	if bare.Error() != `unknown hashtable type "xyz"` {
		t.Errorf("Unexpected message without suggestion: %q", bare.Error())
	}
}

func TestFileError(t *testing.T) {
	err := NewFileError("create", "/cache", fs.ErrPermission)

	if err.Type != ErrorTypePermission {
		t.Errorf("Expected Type to be ErrorTypePermission, got %v", err.Type)
	}

	other := NewFileError("walk", "/cache", fs.ErrNotExist)
	if other.Type != ErrorTypeFile {
		t.Errorf("Expected Type to be ErrorTypeFile, got %v", other.Type)
	}

	if !errors.Is(other, fs.ErrNotExist) {
		t.Errorf("Expected error to unwrap to fs.ErrNotExist")
	}

	expectedMsg := "file walk failed for /cache: file does not exist"
	if other.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, other.Error())
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("must be positive")
	err := NewConfigError("remote.timeout_sec", "-1", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "config error for field remote.timeout_sec (value -1): must be positive"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestInternalError(t *testing.T) {
	underlying := errors.New("panic: nil map")
	err := NewInternalError("add", underlying)

	if err.Type != ErrorTypeInternal {
		t.Errorf("Expected Type to be ErrorTypeInternal, got %v", err.Type)
	}

	var target *InternalError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &target) {
		t.Errorf("Expected errors.As to find InternalError")
	}

	expectedMsg := "internal error in add: panic: nil map"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}
