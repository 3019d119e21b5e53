package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error class surfaced to callers.
type Code string

const (
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeCredentialsNotFound Code = "CREDENTIALS_NOT_FOUND"
	CodeProviderDeclined    Code = "PROVIDER_DECLINED"
	CodeOrderNotFound       Code = "ORDER_NOT_FOUND"
	CodeNotCancellable      Code = "NOT_CANCELLABLE"
	CodeCaptureFailed       Code = "CAPTURE_FAILED"
	CodePOSOrderFailed      Code = "POS_ORDER_FAILED"
	CodeSignatureInvalid    Code = "SIGNATURE_INVALID"
	CodeInternal            Code = "INTERNAL"
)

// Error pairs a code and a short user-facing message with the underlying
// cause. Handlers map it onto an HTTP response; everything behind them keeps
// wrapping with %w as usual.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// DeclineReason is the small set of user-facing decline explanations.
type DeclineReason string

const (
	DeclineGeneric            DeclineReason = "declined"
	DeclineInsufficientFunds  DeclineReason = "insufficient_funds"
	DeclineVerificationFailed DeclineReason = "verification_failed"
)

func Declined(reason DeclineReason, cause error) *Error {
	return Wrap(CodeProviderDeclined, string(reason), cause)
}

// CodeOf extracts the code from err, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeCredentialsNotFound, CodeOrderNotFound:
		return http.StatusNotFound
	case CodeProviderDeclined:
		return http.StatusPaymentRequired
	case CodeNotCancellable:
		return http.StatusConflict
	case CodeSignatureInvalid:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
