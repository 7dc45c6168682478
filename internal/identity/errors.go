package identity

import "errors"

// FallbackMessage is shown when a failure carries no usable detail.
const FallbackMessage = "Something went wrong. Please try again."

// RequestError describes a rejected or failed identity-service request.
type RequestError struct {
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return FallbackMessage
	}
	return e.Detail
}

// Message extracts the user-facing text for an identity failure. Anything
// that is not a RequestError (network errors, bad responses) collapses to
// the generic fallback rather than leaking transport detail to users.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return FallbackMessage
}
