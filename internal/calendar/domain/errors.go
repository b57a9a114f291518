package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the requested event or credential does not exist upstream.
	ErrNotFound = errors.New("external calendar resource not found")

	// ErrUserNotFound: no platform user matches the given username.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotConfigured: the calendar client has no usable configuration
	// (missing client id or secret). List operations degrade to empty results
	// instead of surfacing this.
	ErrNotConfigured = errors.New("external calendar is not configured")

	// ErrRevokedGrant: the provider rejected the refresh token. Terminal for
	// the credential; the user must re-run the authorization flow.
	ErrRevokedGrant = errors.New("external calendar grant revoked")
)

// ActionError wraps any transport or provider-side failure during a calendar
// or token operation, preserving the originating cause.
type ActionError struct {
	Op  string
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("external calendar action %q failed: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewActionError wraps err for the given operation. Sentinels that callers
// must distinguish (not-found, revoked grant, unconfigured) pass through the
// wrapper via Unwrap, so errors.Is keeps working on the result.
func NewActionError(op string, err error) *ActionError {
	return &ActionError{Op: op, Err: err}
}
