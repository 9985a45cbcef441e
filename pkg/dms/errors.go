package dms

import (
	"errors"
	"fmt"
)

// ErrAuthorizationRequired is returned before any network call when no
// access token is available, and when the remote rejects the presented
// credentials. Callers are expected to redirect the user into the
// authorization flow instead of showing a generic error.
var ErrAuthorizationRequired = errors.New("dms: authorization required")

// RemoteError is a failure the server signalled inside an otherwise
// well-formed response payload (the automation API embeds its error
// status and message in the JSON body).
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dms: remote error (status %d)", e.Status)
	}
	return fmt.Sprintf("dms: remote error (status %d): %s", e.Status, e.Message)
}
