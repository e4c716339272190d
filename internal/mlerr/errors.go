// Package mlerr defines the structured error kinds shared by the training
// pipeline and the inference service.
package mlerr

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Code identifies an error condition. Codes are string-based for
// debuggability and natural JSON serialization.
type Code string

const (
	// CodeSourceUnavailable indicates the tabular source or object store is
	// unreachable or misconfigured.
	CodeSourceUnavailable Code = "E_SOURCE_UNAVAILABLE"

	// CodeIngestion indicates empty or malformed source data, or a failure
	// writing the ingested splits.
	CodeIngestion Code = "E_INGESTION"

	// CodeSchemaMismatch indicates the preprocessing transform reported
	// missing columns beyond the one-shot auto-heal.
	CodeSchemaMismatch Code = "E_SCHEMA_MISMATCH"

	// CodeBelowThreshold indicates the trained model did not clear the
	// configured accuracy floor.
	CodeBelowThreshold Code = "E_BELOW_THRESHOLD"

	// CodePrediction indicates a classifier invocation failure after a valid
	// transform.
	CodePrediction Code = "E_PREDICTION"

	// CodeStore indicates an object-store read or write failure.
	CodeStore Code = "E_STORE"
)

// Error wraps a failure with its code and originating call site.
type Error struct {
	Code Code
	Site string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %v", e.Code, e.Site, e.Err)
	}
	return fmt.Sprintf("%s at %s", e.Code, e.Site)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with code and the caller's file:line.
func New(code Code, err error) *Error {
	return &Error{Code: code, Site: callSite(2), Err: err}
}

// Newf is New with a formatted message instead of a wrapped error.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Site: callSite(2), Err: fmt.Errorf(format, args...)}
}

// CodeOf returns the code carried by err, or "" if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
