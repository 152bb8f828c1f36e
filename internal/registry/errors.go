package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// Outcome is the closed set of non-success results a registry call can have.
type Outcome int

const (
	OutcomeBadRequest Outcome = iota + 1
	OutcomeUnauthorized
	OutcomeForbidden
	OutcomeNotFound
	OutcomeTimeout
	OutcomeServerError
	OutcomeBadGateway
	OutcomeGatewayTimeout
	OutcomeUnexpected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBadRequest:
		return "BadRequest"
	case OutcomeUnauthorized:
		return "Unauthorized"
	case OutcomeForbidden:
		return "Forbidden"
	case OutcomeNotFound:
		return "NotFound"
	case OutcomeTimeout:
		return "Timeout"
	case OutcomeServerError:
		return "ServerError"
	case OutcomeBadGateway:
		return "BadGateway"
	case OutcomeGatewayTimeout:
		return "GatewayTimeout"
	default:
		return "OtherUnexpected"
	}
}

// label is the human-readable message used in error strings.
func (o Outcome) label() string {
	switch o {
	case OutcomeBadRequest:
		return "400 Bad Request Error"
	case OutcomeUnauthorized:
		return "401 Unauthorized Error"
	case OutcomeForbidden:
		return "403 Forbidden Error"
	case OutcomeNotFound:
		return "404 Not Found Error"
	case OutcomeTimeout:
		return "408 Request Timeout Error"
	case OutcomeServerError:
		return "500 Internal Server Error"
	case OutcomeBadGateway:
		return "502 Bad Gateway Error"
	case OutcomeGatewayTimeout:
		return "504 Gateway Timeout Error"
	default:
		return "Unexpected Error, the request was not successful"
	}
}

// Retryable reports whether a later attempt could succeed.
func (o Outcome) Retryable() bool {
	switch o {
	case OutcomeTimeout, OutcomeServerError, OutcomeBadGateway, OutcomeGatewayTimeout:
		return true
	}
	return false
}

// OutcomeForStatus maps a non-2xx HTTP status code to its Outcome.
func OutcomeForStatus(code int) Outcome {
	switch code {
	case http.StatusBadRequest:
		return OutcomeBadRequest
	case http.StatusUnauthorized:
		return OutcomeUnauthorized
	case http.StatusForbidden:
		return OutcomeForbidden
	case http.StatusNotFound:
		return OutcomeNotFound
	case http.StatusRequestTimeout:
		return OutcomeTimeout
	case http.StatusInternalServerError:
		return OutcomeServerError
	case http.StatusBadGateway:
		return OutcomeBadGateway
	case http.StatusGatewayTimeout:
		return OutcomeGatewayTimeout
	default:
		return OutcomeUnexpected
	}
}

// UpstreamError is returned for every failed registry call.
type UpstreamError struct {
	Outcome    Outcome
	StatusCode int    // 0 when the request never got a response
	Method     string
	URL        string
	Body       string // first KiB of the response body, if any
	Err        error  // underlying transport error, if any
}

func (e *UpstreamError) Error() string {
	msg := "registry: " + e.Outcome.label()
	if e.URL != "" {
		msg += fmt.Sprintf(" (%s %s)", e.Method, e.URL)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is matches any UpstreamError with the same outcome, so callers can write
// errors.Is(err, registry.ErrNotFound).
func (e *UpstreamError) Is(target error) bool {
	t, ok := target.(*UpstreamError)
	return ok && t.Outcome == e.Outcome
}

// Retryable reports whether the failure is transient.
func (e *UpstreamError) Retryable() bool { return e.Outcome.Retryable() }

// Sentinels for errors.Is comparisons.
var (
	ErrBadRequest     = &UpstreamError{Outcome: OutcomeBadRequest}
	ErrUnauthorized   = &UpstreamError{Outcome: OutcomeUnauthorized}
	ErrForbidden      = &UpstreamError{Outcome: OutcomeForbidden}
	ErrNotFound       = &UpstreamError{Outcome: OutcomeNotFound}
	ErrTimeout        = &UpstreamError{Outcome: OutcomeTimeout}
	ErrServerError    = &UpstreamError{Outcome: OutcomeServerError}
	ErrBadGateway     = &UpstreamError{Outcome: OutcomeBadGateway}
	ErrGatewayTimeout = &UpstreamError{Outcome: OutcomeGatewayTimeout}
	ErrUnexpected     = &UpstreamError{Outcome: OutcomeUnexpected}
)

// IsRetryable reports whether err wraps a transient UpstreamError.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}

// OutcomeOf returns the outcome carried by err, or 0 if err is not an UpstreamError.
func OutcomeOf(err error) Outcome {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Outcome
	}
	return 0
}
