// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and internal errors
//   - Validation errors (100-199): Invalid configuration, assets, candles, orders and signals
//   - Data errors (200-299): Missing data, gaps, out-of-order candles, storage failures
//   - Indicator errors (300-399): Indicator lookup and calculation errors
//   - Strategy errors (400-499): Strategy lookup, configuration and runtime exceptions
//   - Trading errors (500-599): Order rejection, insufficient funds, broker lookup
//   - Engine errors (600-699): Event loop initialisation and statistics errors
//   - Market data errors (700-799): Remote market data fetching and parsing errors
//   - Transport errors (900-999): Network failures and rate limiting
//
// Every code belongs to a Kind which tells the engine how to recover:
// transport errors are retried, data gaps are forward-filled, config errors fail fast.
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidAsset, "asset symbol is empty")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeBrokerNotFound, "no broker for exchange %s", exchange)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeTransport, "failed to fetch klines", originalErr)
//
//	// Check error code and kind
//	if errors.KindOf(err) == errors.KindTransport { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Kind returns the recovery kind of the error code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// Kind maps an error code to the recovery policy family it belongs to.
func (c ErrorCode) Kind() Kind {
	switch {
	case c == ErrCodeTransport, c == ErrCodeMarketDataFetchFailed, c == ErrCodeDataSourceUnavailable:
		return KindTransport
	case c == ErrCodeRateLimited:
		return KindRateLimit
	case c == ErrCodeOrderRejected, c == ErrCodePairSubmissionFailed:
		return KindOrderRejected
	case c == ErrCodeInsufficientFunds:
		return KindInsufficientFunds
	case c == ErrCodeDataGap:
		return KindDataGap
	case c == ErrCodeStrategyException:
		return KindStrategyException
	case c >= 100 && c < 200, c == ErrCodeStrategyConfigError, c == ErrCodeFeeModelNotFound:
		return KindConfig
	default:
		return KindUnknown
	}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// KindOf returns the recovery kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	return GetCode(err).Kind()
}

// IsRetryable reports whether err may be retried by an idempotent read.
func IsRetryable(err error) bool {
	kind := KindOf(err)

	return kind == KindTransport || kind == KindRateLimit
}
