package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the hash lookup service
type ErrorType string

const (
	// Load pipeline errors
	ErrorTypeSync  ErrorType = "sync"
	ErrorTypeParse ErrorType = "parse"
	ErrorTypeBusy  ErrorType = "busy"

	// Request errors
	ErrorTypeNamespace ErrorType = "namespace"

	// File errors
	ErrorTypeFile       ErrorType = "file"
	ErrorTypePermission ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// SyncError represents a failure while synchronizing a remote table source
type SyncError struct {
	Type       ErrorType
	Source     string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewSyncError creates a new sync error for the given source and operation
func NewSyncError(source, op string, err error) *SyncError {
	return &SyncError{
		Type:       ErrorTypeSync,
		Source:     source,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Source, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *SyncError) Unwrap() error {
	return e.Underlying
}

// ParseError represents a malformed line in a hash table file
type ParseError struct {
	Type       ErrorType
	FilePath   string
	Line       int
	Token      string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path string, line int, token string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Line:       line,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d (near token %q): %v",
		e.FilePath, e.Line, e.Token, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// BusyError indicates a load is already in progress. Callers should retry later.
type BusyError struct {
	Type      ErrorType
	Operation string
	Timestamp time.Time
}

// NewBusyError creates a new busy error
func NewBusyError(op string) *BusyError {
	return &BusyError{
		Type:      ErrorTypeBusy,
		Operation: op,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *BusyError) Error() string {
	return fmt.Sprintf("%s rejected: hashtables are loading, retry later", e.Operation)
}

// IsBusy reports whether err is or wraps a BusyError
func IsBusy(err error) bool {
	var busy *BusyError
	return errors.As(err, &busy)
}

// NamespaceError represents an unrecognized hashtable type
type NamespaceError struct {
	Type       ErrorType
	Value      string
	Suggestion string
}

// NewNamespaceError creates a new namespace error with an optional suggestion
func NewNamespaceError(value, suggestion string) *NamespaceError {
	return &NamespaceError{
		Type:       ErrorTypeNamespace,
		Value:      value,
		Suggestion: suggestion,
	}
}

// Error implements the error interface
func (e *NamespaceError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown hashtable type %q (did you mean %q?)", e.Value, e.Suggestion)
	}
	return fmt.Sprintf("unknown hashtable type %q", e.Value)
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFile
	if errors.Is(err, fs.ErrPermission) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// InternalError is the only failure surfaced at the transport level. Go mutexes
// cannot be poisoned, so it is produced when a request handler panics.
type InternalError struct {
	Type       ErrorType
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewInternalError creates a new internal error
func NewInternalError(op string, err error) *InternalError {
	return &InternalError{
		Type:       ErrorTypeInternal,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Operation, e.Underlying)
}

// Unwrap returns the underlying error
func (e *InternalError) Unwrap() error {
	return e.Underlying
}
