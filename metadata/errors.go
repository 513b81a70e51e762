package metadata

import (
	"errors"
	"fmt"
)

// ErrInvalidToken indicates a hard lookup with a token whose table is
// not member-bearing or whose row id is outside the table.
var ErrInvalidToken = errors.New("invalid metadata token")

// ErrResolutionFailed indicates that a lazy cell's resolver could not
// produce a value, typically because the backing row is corrupt. The
// cell stays unresolved and the read may be retried.
var ErrResolutionFailed = errors.New("metadata resolution failed")

// InvalidTokenError carries the offending token alongside
// ErrInvalidToken.
type InvalidTokenError struct {
	Token  Token
	Reason string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid metadata token %s: %s", e.Token, e.Reason)
}

func (e *InvalidTokenError) Unwrap() error { return ErrInvalidToken }

func invalidToken(token Token, reason string) error {
	return &InvalidTokenError{Token: token, Reason: reason}
}

// resolutionError wraps a provider failure as ErrResolutionFailed.
func resolutionError(token Token, err error) error {
	return fmt.Errorf("%w: row %s: %v", ErrResolutionFailed, token, err)
}
