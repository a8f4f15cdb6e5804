package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the variant of a classified error
type Kind int

const (
	KindNetwork Kind = iota
	KindAuthentication
	KindRateLimit
	KindValidation
	KindAPI
)

// String returns the variant name used in logs and metric labels
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindRateLimit:
		return "RateLimitError"
	case KindValidation:
		return "ValidationError"
	case KindAPI:
		return "APIError"
	default:
		return "UnknownError"
	}
}

// Default messages per kind.
const (
	MsgNetwork        = "Network request failed"
	MsgAuthentication = "Authentication failed"
	MsgRateLimit      = "Rate limit exceeded"
	MsgValidation     = "Validation failed"
	MsgClient         = "Client error"
	MsgUnexpected     = "An unexpected error occurred"
)

// Sentinels for errors.Is matching against a classified error's kind.
var (
	ErrNetwork        = errors.New("network error")
	ErrAuthentication = errors.New("authentication error")
	ErrRateLimit      = errors.New("rate limit error")
	ErrValidation     = errors.New("validation error")
	ErrAPI            = errors.New("api error")
)

// Error is the single error type surfaced by the REST client and its callers.
//
// StatusCode is zero when no status applies. Response holds the decoded
// response body (or the raw text when it was not JSON) and may be nil.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Response   interface{}
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindAuthentication:
		return ErrAuthentication
	case KindRateLimit:
		return ErrRateLimit
	case KindValidation:
		return ErrValidation
	case KindAPI:
		return ErrAPI
	default:
		return nil
	}
}

// NewNetworkError creates a NetworkError. An empty message selects the default.
func NewNetworkError(message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: orDefault(message, MsgNetwork), Err: cause}
}

// NewAuthenticationError creates an AuthenticationError with status 401.
func NewAuthenticationError(message string) *Error {
	return &Error{
		Kind:       KindAuthentication,
		Message:    orDefault(message, MsgAuthentication),
		StatusCode: http.StatusUnauthorized,
	}
}

// NewRateLimitError creates a RateLimitError with status 429.
func NewRateLimitError(message string) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Message:    orDefault(message, MsgRateLimit),
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewValidationError creates a ValidationError. It never wraps a transport
// failure and is raised before any request is sent.
func NewValidationError(message string) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    orDefault(message, MsgValidation),
		StatusCode: http.StatusBadRequest,
	}
}

// NewAPIError creates a generic APIError
func NewAPIError(message string, statusCode int, response interface{}) *Error {
	return &Error{
		Kind:       KindAPI,
		Message:    orDefault(message, MsgUnexpected),
		StatusCode: statusCode,
		Response:   response,
	}
}

// KindOf returns the kind of a classified error anywhere in err's chain.
// ok is false when err holds no *Error.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
