package model

import (
	"errors"
	"fmt"
)

// TranslationError represents a failure while turning an expression chain
// into query text. No query text is produced when one is returned.
type TranslationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Call is the rendered method call or expression that caused the error,
	// when one is known.
	Call string
}

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	// CodeUnsupportedOperation indicates a method call with no registered node.
	CodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"

	// CodeUnsupportedArgument indicates an argument shape the parser cannot unwrap.
	CodeUnsupportedArgument ErrorCode = "UNSUPPORTED_ARGUMENT"

	// CodeNoMatchingClause indicates an operation that configures an earlier
	// clause found no such clause.
	CodeNoMatchingClause ErrorCode = "NO_MATCHING_CLAUSE"

	// CodeTypeMismatch indicates a result operator applied to an
	// incompatible input.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// CodeEmissionNotSupported indicates a model node the emitter has no
	// translation for.
	CodeEmissionNotSupported ErrorCode = "EMISSION_NOT_SUPPORTED"

	// CodeInvalidQuery indicates a well-formed call with an invalid payload,
	// such as a negative traversal depth.
	CodeInvalidQuery ErrorCode = "INVALID_QUERY"
)

// Error implements the error interface.
func (e *TranslationError) Error() string {
	if e.Call != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Call)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf creates a TranslationError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *TranslationError {
	return &TranslationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// At attaches the offending expression to the error.
func (e *TranslationError) At(expr Expr) *TranslationError {
	if expr != nil {
		e.Call = Format(expr)
	}
	return e
}

// CodeOf returns the code of the first TranslationError in err's chain, or
// the empty code if there is none.
func CodeOf(err error) ErrorCode {
	var te *TranslationError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsCode reports whether err carries a TranslationError with code.
func IsCode(err error, code ErrorCode) bool {
	return code != "" && CodeOf(err) == code
}

// IsUnsupportedOperation reports whether err is an unsupported operation error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedOperation(err error) bool {
	return CodeOf(err) == CodeUnsupportedOperation
}

// IsUnsupportedArgument reports whether err is an unsupported argument error.
func IsUnsupportedArgument(err error) bool {
	return CodeOf(err) == CodeUnsupportedArgument
}

// IsNoMatchingClause reports whether err is a missing clause error.
func IsNoMatchingClause(err error) bool {
	return CodeOf(err) == CodeNoMatchingClause
}

// IsTypeMismatch reports whether err is a result operator type error.
func IsTypeMismatch(err error) bool {
	return CodeOf(err) == CodeTypeMismatch
}

// IsEmissionNotSupported reports whether err is an emitter error.
func IsEmissionNotSupported(err error) bool {
	return CodeOf(err) == CodeEmissionNotSupported
}
