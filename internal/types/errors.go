package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of conversion failure.
// Codes are strings so they read well in logs and reports.
type ErrorCode string

const (
	// CodeSchemaNotFound: the file has no header and its declaration is absent.
	CodeSchemaNotFound ErrorCode = "SCHEMA_NOT_FOUND"

	// CodeDeclarationMalformed: the declaration cannot be read as key-ordered data.
	CodeDeclarationMalformed ErrorCode = "DECLARATION_MALFORMED"

	// CodeUnsupportedOutputFormat: no writer is registered for the format.
	CodeUnsupportedOutputFormat ErrorCode = "UNSUPPORTED_OUTPUT_FORMAT"

	// CodeEmptyInput: a header row was required but the file has no rows.
	CodeEmptyInput ErrorCode = "EMPTY_INPUT"

	// CodeReadFailed: the input could not be read or parsed as delimited text.
	CodeReadFailed ErrorCode = "READ_FAILED"

	// CodeDecodeFailed: the input could not be decoded from its character set.
	CodeDecodeFailed ErrorCode = "DECODE_FAILED"

	// CodeWriteFailed: an output file could not be written.
	CodeWriteFailed ErrorCode = "WRITE_FAILED"
)

// Sentinels for errors.Is comparisons. Only the code is compared.
var (
	ErrSchemaNotFound          = &Error{Code: CodeSchemaNotFound}
	ErrDeclarationMalformed    = &Error{Code: CodeDeclarationMalformed}
	ErrUnsupportedOutputFormat = &Error{Code: CodeUnsupportedOutputFormat}
	ErrEmptyInput              = &Error{Code: CodeEmptyInput}
	ErrReadFailed              = &Error{Code: CodeReadFailed}
	ErrDecodeFailed            = &Error{Code: CodeDecodeFailed}
	ErrWriteFailed             = &Error{Code: CodeWriteFailed}
)

// Error is a typed conversion error carrying the offending path.
type Error struct {
	Code ErrorCode
	Path string
	Err  error
}

// NewError builds an Error for the given code, path and cause.
func NewError(code ErrorCode, path string, err error) *Error {
	return &Error{Code: code, Path: path, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the ErrorCode from an error chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Errorf is a shorthand for NewError with a formatted cause.
func Errorf(code ErrorCode, path, format string, args ...any) *Error {
	return NewError(code, path, fmt.Errorf(format, args...))
}
