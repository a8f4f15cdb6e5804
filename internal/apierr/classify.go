package apierr

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
)

// Classify maps a raw failure to exactly one classified error.
//
// It never panics and returns equal results for equal input. A failure that
// is already classified is returned unchanged; anything that is not a
// TransportError with a response becomes a NetworkError.
func Classify(err error) *Error {
	if err == nil {
		return NewNetworkError("", nil)
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var te *TransportError
	if !errors.As(err, &te) || te.Response == nil {
		return NewNetworkError("", err)
	}

	status := te.Response.StatusCode
	body, message := decodeBody(te.Response.Body)

	var out *Error
	switch status {
	case http.StatusUnauthorized:
		out = NewAuthenticationError("")
	case http.StatusTooManyRequests:
		out = NewRateLimitError("")
	case http.StatusBadRequest, http.StatusNotFound:
		out = NewAPIError(orDefault(message, MsgClient), status, body)
	default:
		out = NewAPIError(orDefault(message, MsgUnexpected), status, body)
	}
	out.Err = err
	return out
}

// IsRetryable reports whether a raw failure is transient: a transport error
// with no response, a 5xx status, or 429.
func IsRetryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	if te.Response == nil {
		return true
	}
	status := te.Response.StatusCode
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// decodeBody returns the structured body (raw text when not JSON) and the
// conventional "message" field when present.
func decodeBody(raw []byte) (interface{}, string) {
	if len(raw) == 0 {
		return nil, ""
	}

	var body interface{}
	if err := sonic.Unmarshal(raw, &body); err != nil {
		return string(raw), ""
	}

	if fields, ok := body.(map[string]interface{}); ok {
		if msg, ok := fields["message"].(string); ok {
			return body, msg
		}
	}
	return body, ""
}
