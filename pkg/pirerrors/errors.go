// Package pirerrors provides structured error handling for colpir with an
// error taxonomy, key-value context, and stack traces. Every fatal condition
// of the ingestion pipeline and the protocol session is reported through an
// *Error so that callers can decide how to react based on its Type.
//
// # Overview
//
// The taxonomy mirrors the failure classes of the system:
//   - ErrorTypeInput: unreadable source, unknown format, unresolved column
//   - ErrorTypeValidation: a value that does not fit the declared bit width
//   - ErrorTypeStructural: empty dataset, allocation does not fit
//   - ErrorTypeProtocol: phase ordering or index-bounds violations
//   - ErrorTypeVerification: the engine rejected an answer proof
//   - ErrorTypeMismatch: recovered value differs from the expected one
//
// # Basic Usage
//
//	err := pirerrors.New(pirerrors.ErrorTypeValidation, "non-numeric value").
//	    WithDetail("row", 2).
//	    WithDetail("text", "abc")
//
//	if pirerrors.IsType(err, pirerrors.ErrorTypeValidation) {
//	    // reject the source
//	}
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Add details before
// sharing an error across goroutines.
package pirerrors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType represents the category of an error and drives how the CLI
// reports it and which exit code it maps to.
type ErrorType string

const (
	// ErrorTypeInternal represents engine or system failures
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeInput represents source resolution failures
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeValidation represents values rejected by the column validator
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStructural represents dataset shape and allocation failures
	ErrorTypeStructural ErrorType = "structural"
	// ErrorTypeProtocol represents session precondition violations
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeVerification represents a rejected answer proof
	ErrorTypeVerification ErrorType = "verification"
	// ErrorTypeMismatch represents a recovered value that differs from the expected one
	ErrorTypeMismatch ErrorType = "mismatch"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: categorizes the error
//   - Message: human-readable description
//   - Cause: the underlying error, if any
//   - Details: key-value context such as row, column, index or phase
//   - Stack: call stack at the point of creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface. Details are rendered in key order so
// that diagnostics name the offending row, column, index or phase.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns the detail stored under key.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message, capturing the
// call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with a type and message. If err is already a
// structured Error its stack is preserved. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType reports whether any error in err's tree, including errors joined
// with errors.Join, is a structured Error of the given type.
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Type == errType {
		return true
	}

	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if IsType(inner, errType) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsType(x.Unwrap(), errType)
	}
	return false
}

// TypeOf returns the type of the first structured Error in err's tree, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// captureStack captures the current call stack up to maxFrames deep.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
