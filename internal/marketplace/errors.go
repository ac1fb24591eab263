package marketplace

import (
	"errors"
	"strconv"
)

// ErrCredentialsMissing is returned before any HTTP call when the client id
// or secret is unset.
var ErrCredentialsMissing = errors.New("marketplace: client credentials missing")

// ErrNoResults is returned when the upstream search responds 2xx with an
// empty item list.
var ErrNoResults = errors.New("marketplace: no results")

// StatusError wraps a non-2xx response from the upstream search or
// shipping endpoints.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return "marketplace: unexpected status " + strconv.Itoa(e.StatusCode) + " from " + e.URL
}
