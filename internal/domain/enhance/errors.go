package enhance

import (
	"context"
	"errors"
)

// Adapter error taxonomy. Adapters wrap their failures in one of these so
// the orchestrator can classify for logging; none of them ever reach the
// caller, every one resolves to a fallback substitution.
var (
	ErrTimeout           = errors.New("adapter timeout")
	ErrNetwork           = errors.New("network error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEmptyResult       = errors.New("empty result")
)

// ClassifyError names the taxonomy bucket for an adapter failure.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		return "network_timeout"
	case errors.Is(err, ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "network_error"
	}
}
