package usp

import (
	"errors"
	"fmt"
)

// CancellationErrorCode classifies an asynchronous fault delivered
// through Callbacks.OnError. Every transport-level fault is normalized
// into one of these codes before it reaches a callback.
type CancellationErrorCode int

const (
	CancellationErrorNone CancellationErrorCode = iota
	CancellationErrorConnectionFailure
	CancellationErrorAuthenticationFailure
	CancellationErrorBadRequest
	CancellationErrorTooManyRequests
	CancellationErrorForbidden
	CancellationErrorServiceError
	CancellationErrorServiceTimeout
	CancellationErrorRuntimeError
	CancellationErrorServiceRedirectTemporary
	CancellationErrorServiceRedirectPermanent
)

// String returns the string representation of the cancellation code.
func (c CancellationErrorCode) String() string {
	switch c {
	case CancellationErrorNone:
		return "NoError"
	case CancellationErrorConnectionFailure:
		return "ConnectionFailure"
	case CancellationErrorAuthenticationFailure:
		return "AuthenticationFailure"
	case CancellationErrorBadRequest:
		return "BadRequest"
	case CancellationErrorTooManyRequests:
		return "TooManyRequests"
	case CancellationErrorForbidden:
		return "Forbidden"
	case CancellationErrorServiceError:
		return "ServiceError"
	case CancellationErrorServiceTimeout:
		return "ServiceTimeout"
	case CancellationErrorRuntimeError:
		return "RuntimeError"
	case CancellationErrorServiceRedirectTemporary:
		return "ServiceRedirectTemporary"
	case CancellationErrorServiceRedirectPermanent:
		return "ServiceRedirectPermanent"
	default:
		return "Unknown"
	}
}

// ErrorInfo carries one asynchronous fault to Callbacks.OnError. It is
// read-only to the callback.
type ErrorInfo struct {
	code    CancellationErrorCode
	details string
}

// NewErrorInfo creates an ErrorInfo with the given code and details.
func NewErrorInfo(code CancellationErrorCode, details string) *ErrorInfo {
	return &ErrorInfo{code: code, details: details}
}

// CancellationCode returns the cancellation code of the fault.
func (e *ErrorInfo) CancellationCode() CancellationErrorCode {
	return e.code
}

// Details returns the human-readable description of the fault.
func (e *ErrorInfo) Details() string {
	return e.details
}

// ErrorStatus classifies a synchronous error returned by the client
// API surface.
type ErrorStatus string

const (
	ErrorStatusConfiguration      ErrorStatus = "configuration_error"
	ErrorStatusInvalidState       ErrorStatus = "invalid_state"
	ErrorStatusQueueLimitExceeded ErrorStatus = "queue_limit_exceeded"
	ErrorStatusWebSocketError     ErrorStatus = "websocket_error"
	ErrorStatusServiceTerminated  ErrorStatus = "service_terminated"
)

// Error is a typed synchronous error returned by Client and Connection
// operations.
type Error struct {
	Status  ErrorStatus
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("usp: %s: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("usp: %s: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(status ErrorStatus, message string) *Error {
	return &Error{
		Status:  status,
		Message: message,
	}
}

func NewErrorWithCause(status ErrorStatus, message string, cause error) *Error {
	return &Error{
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}

// IsErrorStatus reports whether err is a *Error with the given status.
func IsErrorStatus(err error, status ErrorStatus) bool {
	var uspErr *Error
	if errors.As(err, &uspErr) {
		return uspErr.Status == status
	}
	return false
}

var (
	// ErrInvalidPort is returned by Connect when the endpoint URL
	// carries a port segment that is not a valid TCP port.
	ErrInvalidPort = NewError(ErrorStatusConfiguration, "Port is not valid")

	// ErrInvalidScheme is returned by Connect for schemes other than
	// ws or wss.
	ErrInvalidScheme = NewError(ErrorStatusConfiguration, "endpoint scheme must be ws or wss")

	// ErrNoAuthentication is returned by Connect when no non-empty
	// authentication slot was supplied.
	ErrNoAuthentication = NewError(ErrorStatusConfiguration, "exactly one authentication credential must be set")

	// ErrClientConsumed is returned when Connect is called twice on
	// the same builder.
	ErrClientConsumed = NewError(ErrorStatusInvalidState, "client builder already consumed by Connect")

	// ErrConnectionClosed is returned by WriteAudio after the
	// connection reached a terminal state.
	ErrConnectionClosed = NewError(ErrorStatusInvalidState, "connection is closed")

	// ErrQueueLimitExceeded is returned by WriteAudio when the bounded
	// outbound queue is full.
	ErrQueueLimitExceeded = NewError(ErrorStatusQueueLimitExceeded, "outbound message queue limit exceeded")

	// ErrServiceTerminated is returned when work is posted to a thread
	// service that has already been terminated.
	ErrServiceTerminated = NewError(ErrorStatusServiceTerminated, "thread service is terminated")

	// ErrServiceNotInitialized is returned when work is posted to a
	// thread service before Init.
	ErrServiceNotInitialized = NewError(ErrorStatusServiceTerminated, "thread service is not initialized")
)

// mapHandshakeStatus normalizes an HTTP handshake response status into
// a cancellation code.
func mapHandshakeStatus(httpStatus int) CancellationErrorCode {
	switch httpStatus {
	case 301, 308:
		return CancellationErrorServiceRedirectPermanent
	case 302, 303, 307:
		return CancellationErrorServiceRedirectTemporary
	case 400:
		return CancellationErrorBadRequest
	case 401:
		return CancellationErrorAuthenticationFailure
	case 403:
		return CancellationErrorForbidden
	case 408, 504:
		return CancellationErrorServiceTimeout
	case 429:
		return CancellationErrorTooManyRequests
	case 500, 502, 503:
		return CancellationErrorServiceError
	default:
		return CancellationErrorConnectionFailure
	}
}
