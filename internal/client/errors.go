package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response. Message is the server's {message} field,
// or the status text when the body carried none.
type APIError struct {
	Status  int
	Message string
}

// Error formats as "401: Unauthorized", the shape the server's clients
// have always matched on.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err (or anything it wraps) is a 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// ErrMutationPending is returned when a mutation is triggered while the
// previous run of the same mutation is still in flight. A UI renders this
// state as a disabled button.
var ErrMutationPending = errors.New("client: mutation already in flight")
